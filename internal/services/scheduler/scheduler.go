// File: internal/services/scheduler/scheduler.go

// Package scheduler runs the bot's two periodic loops: syncing unread
// conversations into the archive and scanning the archive for
// conversations that deserve a generated reply.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/domain"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/archive"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/outbox"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/reply"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/session"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/source"
	syncengine "github.com/Ahbabsaqlan/whatsapp-bot/internal/services/sync"
)

// Reconciler cleans up duplicate downloads after a sync cycle.
type Reconciler interface {
	ReconcileDuplicates() error
}

// Logger defines the logging interface used by the scheduler.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type Scheduler struct {
	config    *Config
	sessions  *session.Manager
	engine    *syncengine.Engine
	store     *archive.Store
	generator reply.Generator
	box       *outbox.Outbox
	files     Reconciler
	logger    Logger

	mu       sync.Mutex
	enqueued map[uint]time.Time // conversation ID -> last reply queue time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(config *Config, sessions *session.Manager, engine *syncengine.Engine, store *archive.Store, generator reply.Generator, box *outbox.Outbox, files Reconciler, logger Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		config:    config,
		sessions:  sessions,
		engine:    engine,
		store:     store,
		generator: generator,
		box:       box,
		files:     files,
		logger:    logger,
		enqueued:  make(map[uint]time.Time),
	}, nil
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go s.loop(ctx, s.config.SyncInterval, s.RunSyncCycle)
	go s.loop(ctx, s.config.ReplyInterval, s.RunReplyScan)
	s.logger.Info("scheduler started",
		"sync_interval", s.config.SyncInterval, "reply_interval", s.config.ReplyInterval)
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, run func(ctx context.Context) error) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := run(ctx); err != nil {
				s.logger.Error("scheduled run failed", "error", err)
			}
		}
	}
}

// RunSyncCycle archives whatever is currently unread. The cycle is
// skipped, not queued, when the session is held or a login is in
// progress: the next tick tries again.
func (s *Scheduler) RunSyncCycle(ctx context.Context) error {
	err := s.sessions.TryWithSession(ctx, func(ctx context.Context, sess source.Session) error {
		chats, err := sess.UnreadChats(ctx)
		if err != nil {
			return err
		}
		if len(chats) == 0 {
			s.logger.Debug("no unread chats")
			return nil
		}

		known, err := s.store.KnownAttachments(ctx)
		if err != nil {
			return err
		}

		for _, identity := range chats {
			if err := s.syncChat(ctx, sess, identity, known); err != nil {
				// One broken chat must not stall the rest of the cycle.
				s.logger.Error("chat sync failed", "identity", identity, "error", err)
			}
		}
		return nil
	})
	if errors.Is(err, session.ErrSessionBusy) {
		s.logger.Debug("sync cycle skipped, session busy")
		return nil
	}
	if err == nil && s.files != nil {
		if err := s.files.ReconcileDuplicates(); err != nil {
			s.logger.Warn("download reconciliation failed", "error", err)
		}
	}
	return err
}

func (s *Scheduler) syncChat(ctx context.Context, sess source.Session, identity string, known map[string]struct{}) error {
	conv, err := sess.OpenConversation(ctx, identity)
	if err != nil {
		return err
	}
	defer conv.Close(ctx)

	resolved := conv.Identity()

	// An empty batch still resolves or creates the conversation row,
	// which is where the bookmark lives.
	_, stored, err := s.store.SaveBatch(ctx, resolved, nil)
	if err != nil {
		return err
	}
	bookmark, err := s.store.Bookmark(ctx, stored.ID)
	if err != nil {
		return err
	}

	result, err := s.engine.Sync(ctx, conv, bookmark, known)
	if err != nil {
		return err
	}

	inserted, stored, err := s.store.SaveBatch(ctx, resolved, result.Messages)
	if err != nil {
		return err
	}
	if inserted == 0 {
		return nil
	}

	event := outbox.MessageEvent{
		Event:        domain.EventMessageReceived,
		Conversation: stored.Title,
		NewMessages:  inserted,
		Timestamp:    time.Now(),
	}
	if stored.PhoneNumber != nil {
		event.PhoneNumber = *stored.PhoneNumber
	}
	if err := s.box.EnqueueEvent(ctx, event); err != nil {
		s.logger.Warn("could not queue received notification", "error", err)
	}
	return nil
}

// RunReplyScan queues generated replies for conversations whose last
// word belongs to the other party.
func (s *Scheduler) RunReplyScan(ctx context.Context) error {
	unreplied, err := s.store.Unreplied(ctx)
	if err != nil {
		return err
	}

	for _, candidate := range unreplied {
		if !s.shouldReply(candidate.Conversation, candidate.LastMessage) {
			continue
		}

		history, err := s.store.History(ctx, candidate.Conversation.ID, s.config.HistoryWindow)
		if err != nil {
			s.logger.Error("could not load history", "conversation", candidate.Conversation.Title, "error", err)
			continue
		}

		text, err := s.generator.Generate(ctx, history)
		if errors.Is(err, reply.ErrNoReply) {
			continue
		}
		if err != nil {
			s.logger.Warn("reply generation degraded to fallback", "conversation", candidate.Conversation.Title, "error", err)
		}
		if text == "" {
			continue
		}

		if err := s.box.EnqueueReply(outbox.ReplyIntent{Identity: candidate.Conversation.Title, Text: text}); err != nil {
			s.logger.Warn("could not queue reply", "conversation", candidate.Conversation.Title, "error", err)
			continue
		}
		s.markEnqueued(candidate.Conversation.ID)
	}
	return nil
}

func (s *Scheduler) shouldReply(conv domain.Conversation, last domain.Message) bool {
	for _, title := range s.config.Blacklist {
		if conv.Title == title {
			return false
		}
	}
	if time.Since(last.SendingDate) > s.config.ReplyMaxAge {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if at, ok := s.enqueued[conv.ID]; ok && time.Since(at) < s.config.ReplySuppress {
		return false
	}
	return true
}

func (s *Scheduler) markEnqueued(conversationID uint) {
	s.mu.Lock()
	s.enqueued[conversationID] = time.Now()
	s.mu.Unlock()
}
