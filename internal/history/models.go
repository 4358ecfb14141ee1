package history

import (
	"fmt"
	"strings"
	"time"
)

// MediaType distinguishes the two kinds of generated media.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// ParseMediaType converts a string into a known MediaType.
func ParseMediaType(value string) (MediaType, bool) {
	normalized := MediaType(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case MediaTypeImage, MediaTypeVideo:
		return normalized, true
	}
	return "", false
}

// ImagePayload holds encoded image bytes together with their mime type.
type ImagePayload struct {
	Base64   string
	MimeType string
}

// GeneratedMedia is a tagged variant: image results carry their payload,
// video results carry only the type tag. Video artifact bytes are
// session-ephemeral and never persisted.
type GeneratedMedia struct {
	Type  MediaType
	Image *ImagePayload
}

// NewImageMedia builds the image variant.
func NewImageMedia(base64, mimeType string) GeneratedMedia {
	return GeneratedMedia{
		Type:  MediaTypeImage,
		Image: &ImagePayload{Base64: base64, MimeType: mimeType},
	}
}

// NewVideoMedia builds the video variant. No payload is recorded.
func NewVideoMedia() GeneratedMedia {
	return GeneratedMedia{Type: MediaTypeVideo}
}

// Validate checks the tag/payload pairing.
func (m GeneratedMedia) Validate() error {
	switch m.Type {
	case MediaTypeImage:
		if m.Image == nil || m.Image.Base64 == "" || m.Image.MimeType == "" {
			return fmt.Errorf("image media requires payload and mime type")
		}
	case MediaTypeVideo:
		if m.Image != nil {
			return fmt.Errorf("video media must not carry an image payload")
		}
	default:
		return fmt.Errorf("unknown media type %q", m.Type)
	}
	return nil
}

// Record is one persisted creative result.
//
// Records are immutable after creation; the only mutation the store supports
// is deletion. OwnerKey scopes retrieval and is never used for business
// logic elsewhere in the app.
type Record struct {
	ID          string
	Timestamp   int64
	Prompt      string
	SourceImage *ImagePayload
	Generated   GeneratedMedia
	OwnerKey    string
}

// NewRecord synthesizes a record for an owner at the given creation time.
// The id scheme <ownerKey>-<unixMilli> keeps ids unique and monotonic per
// owner; the store's primary key enforces global uniqueness.
func NewRecord(ownerKey string, createdAt time.Time, prompt string, source *ImagePayload, generated GeneratedMedia) *Record {
	millis := createdAt.UnixMilli()
	return &Record{
		ID:          fmt.Sprintf("%s-%d", ownerKey, millis),
		Timestamp:   millis,
		Prompt:      prompt,
		SourceImage: source,
		Generated:   generated,
		OwnerKey:    ownerKey,
	}
}

// CreatedAt returns the record timestamp as a time.Time.
func (r *Record) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}
