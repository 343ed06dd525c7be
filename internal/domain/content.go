// File: internal/domain/content.go
package domain

import "fmt"

// ContentKind discriminates the payload of a raw message as presented
// by the remote client.
type ContentKind string

const (
	ContentText        ContentKind = "text"
	ContentImage       ContentKind = "image"
	ContentVideo       ContentKind = "video"
	ContentDocument    ContentKind = "document"
	ContentVoice       ContentKind = "voice"
	ContentLocation    ContentKind = "location"
	ContentUnsupported ContentKind = "unsupported"
)

// MessageContent is the tagged variant produced by the message source.
// Exactly the fields relevant to Kind are set: Text for text and media
// captions, Name for document filenames, Ref for media references, and
// Latitude/Longitude for locations.
type MessageContent struct {
	Kind      ContentKind `json:"kind"`
	Text      string      `json:"text,omitempty"`
	Name      string      `json:"name,omitempty"`
	Ref       string      `json:"ref,omitempty"`
	Latitude  float64     `json:"latitude,omitempty"`
	Longitude float64     `json:"longitude,omitempty"`
}

// TextContent builds a plain text payload.
func TextContent(text string) MessageContent {
	return MessageContent{Kind: ContentText, Text: text}
}

// DocumentContent builds a document payload carrying the filename shown
// by the remote client, which doubles as the expected download name.
func DocumentContent(name string) MessageContent {
	return MessageContent{Kind: ContentDocument, Name: name}
}

// HasAttachment reports whether this content kind produces a
// downloadable file.
func (c MessageContent) HasAttachment() bool {
	switch c.Kind {
	case ContentImage, ContentVideo, ContentDocument, ContentVoice:
		return true
	default:
		return false
	}
}

// NameHint returns the expected attachment filename when the remote
// client exposes one (documents only), or "" when the name is unknown
// ahead of the download.
func (c MessageContent) NameHint() string {
	if c.Kind == ContentDocument {
		return c.Name
	}
	return ""
}

// Display renders the content as the archived message body.
func (c MessageContent) Display() string {
	switch c.Kind {
	case ContentText:
		return c.Text
	case ContentImage, ContentVideo, ContentVoice:
		if c.Text != "" {
			return c.Text
		}
		return fmt.Sprintf("[%s]", c.Kind)
	case ContentDocument:
		if c.Name != "" {
			return c.Name
		}
		return "[document]"
	case ContentLocation:
		return fmt.Sprintf("[location %.5f,%.5f]", c.Latitude, c.Longitude)
	default:
		return "[Unsupported or Empty Message]"
	}
}
