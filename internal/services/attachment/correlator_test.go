// File: internal/services/attachment/correlator_test.go
package attachment

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services"
)

func newTestCorrelator(t *testing.T, dir string) *Correlator {
	t.Helper()
	config := DefaultConfig(dir)
	config.Timeout = 2 * time.Second
	config.PollInterval = 20 * time.Millisecond
	correlator, err := NewCorrelator(config, &services.NoOpLogger{})
	require.NoError(t, err)
	return correlator
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	return path
}

func TestResolveSkipsKnownFilename(t *testing.T) {
	dir := t.TempDir()
	correlator := newTestCorrelator(t, dir)

	triggered := false
	trigger := func(ctx context.Context) error {
		triggered = true
		return nil
	}
	known := map[string]struct{}{"report.pdf": {}}

	filename, err := correlator.Resolve(context.Background(), "report.pdf", trigger, known)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", filename)
	assert.False(t, triggered, "known attachments must not be downloaded again")
}

func TestResolvePicksFileCreatedAfterTrigger(t *testing.T) {
	dir := t.TempDir()
	correlator := newTestCorrelator(t, dir)

	// A stale file from an earlier run must not be picked up.
	stale := writeFile(t, dir, "old.jpg")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	trigger := func(ctx context.Context) error {
		go func() {
			time.Sleep(50 * time.Millisecond)
			fresh := filepath.Join(dir, "photo.jpg")
			_ = os.WriteFile(fresh, []byte("data"), 0o644)
			future := time.Now().Add(time.Second)
			_ = os.Chtimes(fresh, future, future)
		}()
		return nil
	}

	filename, err := correlator.Resolve(context.Background(), "", trigger, map[string]struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", filename)
}

func TestResolveWaitsForPartialDownloadToSettle(t *testing.T) {
	dir := t.TempDir()
	correlator := newTestCorrelator(t, dir)

	trigger := func(ctx context.Context) error {
		go func() {
			partial := filepath.Join(dir, "video.mp4.crdownload")
			_ = os.WriteFile(partial, []byte("data"), 0o644)
			future := time.Now().Add(time.Second)
			_ = os.Chtimes(partial, future, future)
			time.Sleep(150 * time.Millisecond)
			_ = os.Rename(partial, filepath.Join(dir, "video.mp4"))
		}()
		return nil
	}

	filename, err := correlator.Resolve(context.Background(), "", trigger, map[string]struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "video.mp4", filename)
}

func TestResolveAcceptsCoarseModTime(t *testing.T) {
	dir := t.TempDir()
	correlator := newTestCorrelator(t, dir)

	// Filesystems with one-second mtime granularity round the download's
	// timestamp down, landing it at or slightly before the trigger time.
	trigger := func(ctx context.Context) error {
		path := writeFile(t, dir, "doc.pdf")
		coarse := time.Now().Truncate(time.Second)
		require.NoError(t, os.Chtimes(path, coarse, coarse))
		return nil
	}

	filename, err := correlator.Resolve(context.Background(), "", trigger, map[string]struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "doc.pdf", filename)
}

func TestResolveTimesOutWithPlaceholder(t *testing.T) {
	dir := t.TempDir()
	correlator := newTestCorrelator(t, dir)
	correlator.config.Timeout = 100 * time.Millisecond

	trigger := func(ctx context.Context) error { return nil }

	filename, err := correlator.Resolve(context.Background(), "", trigger, map[string]struct{}{})
	require.Error(t, err)
	assert.Equal(t, FailedPlaceholder, filename)

	var attachmentErr *AttachmentError
	require.ErrorAs(t, err, &attachmentErr)
	assert.Equal(t, ErrTypeTimeout, attachmentErr.Type)
}

func TestResolveTriggerFailureReturnsPlaceholder(t *testing.T) {
	dir := t.TempDir()
	correlator := newTestCorrelator(t, dir)

	trigger := func(ctx context.Context) error { return assert.AnError }

	filename, err := correlator.Resolve(context.Background(), "", trigger, map[string]struct{}{})
	require.Error(t, err)
	assert.Equal(t, FailedPlaceholder, filename)
}

func TestReconcileDuplicatesRemovesWhenCanonicalExists(t *testing.T) {
	dir := t.TempDir()
	correlator := newTestCorrelator(t, dir)

	writeFile(t, dir, "photo.jpg")
	writeFile(t, dir, "photo (1).jpg")
	writeFile(t, dir, "photo (2).jpg")

	require.NoError(t, correlator.ReconcileDuplicates())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "photo.jpg", entries[0].Name())
}

func TestReconcileDuplicatesRenamesWhenCanonicalMissing(t *testing.T) {
	dir := t.TempDir()
	correlator := newTestCorrelator(t, dir)

	writeFile(t, dir, "voice note (1).ogg")

	require.NoError(t, correlator.ReconcileDuplicates())

	_, err := os.Stat(filepath.Join(dir, "voice note.ogg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "voice note (1).ogg"))
	assert.True(t, os.IsNotExist(err))
}

func TestReconcileDuplicatesIgnoresRegularNames(t *testing.T) {
	dir := t.TempDir()
	correlator := newTestCorrelator(t, dir)

	writeFile(t, dir, "invoice.pdf")
	writeFile(t, dir, "no-extension")

	require.NoError(t, correlator.ReconcileDuplicates())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
