package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"glacia/internal/logging"
)

// RecordStore is the persistence surface the controller drives.
type RecordStore interface {
	Put(ctx context.Context, ownerKey string, record *Record) error
	ListByOwner(ctx context.Context, ownerKey string) ([]*Record, error)
	DeleteByID(ctx context.Context, id string) error
}

// Confirmer asks the user to approve an irreversible action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

// ErrRemoveDeclined is returned when the user rejects the delete confirmation.
var ErrRemoveDeclined = errors.New("removal declined")

// Draft carries the fields needed to repopulate the creation workspace from
// a past record.
type Draft struct {
	Prompt      string
	SourceImage *ImagePayload
	Generated   GeneratedMedia
}

// Controller bridges generation results to the store and keeps an in-memory,
// newest-first view consistent with it. Creation is optimistic (the view is
// updated even when the write fails) while deletion is pessimistic (the view
// changes only after the store confirms).
type Controller struct {
	store   RecordStore
	logger  *slog.Logger
	confirm Confirmer
	now     func() time.Time

	mu   sync.Mutex
	view []*Record
}

// NewController wires a controller to a store. A nil confirmer approves
// every removal; a nil logger discards output.
func NewController(store RecordStore, logger *slog.Logger, confirm Confirmer) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	if confirm == nil {
		confirm = ConfirmerFunc(func(string) bool { return true })
	}
	return &Controller{
		store:   store,
		logger:  logging.WithComponent(logger, "history"),
		confirm: confirm,
		now:     time.Now,
	}
}

// RecordCreation synthesizes a record for a finished generation, prepends it
// to the in-memory view, and persists it best-effort. A store failure is
// logged as a warning; the user keeps their result either way.
func (c *Controller) RecordCreation(ctx context.Context, ownerKey, prompt string, source *ImagePayload, generated GeneratedMedia) *Record {
	record := NewRecord(ownerKey, c.now(), prompt, source, generated)

	c.mu.Lock()
	c.view = append([]*Record{record}, c.view...)
	c.mu.Unlock()

	if err := c.store.Put(ctx, ownerKey, record); err != nil {
		c.logger.Warn("failed to persist history record",
			slog.String(logging.FieldRecordID, record.ID),
			slog.String(logging.FieldOwner, ownerKey),
			slog.Any("error", err))
	}
	return record
}

// LoadAll replaces the in-memory view with the store's contents for an
// owner. Failures are recoverable: callers render an empty history.
func (c *Controller) LoadAll(ctx context.Context, ownerKey string) ([]*Record, error) {
	records, err := c.store.ListByOwner(ctx, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("%w: owner %s: %w", ErrHistoryLoadFailed, ownerKey, err)
	}

	c.mu.Lock()
	c.view = records
	c.mu.Unlock()
	return c.snapshot(), nil
}

// Remove deletes a record after explicit confirmation. The in-memory view
// keeps the record until the store delete succeeds, so a failed delete never
// silently hides data still on disk.
func (c *Controller) Remove(ctx context.Context, id string) error {
	if !c.confirm.Confirm("Delete this creation from your history? This cannot be undone.") {
		return ErrRemoveDeclined
	}

	if err := c.store.DeleteByID(ctx, id); err != nil {
		c.logger.Error("failed to delete history record",
			slog.String(logging.FieldRecordID, id),
			slog.Any("error", err))
		return err
	}

	c.mu.Lock()
	filtered := c.view[:0]
	for _, record := range c.view {
		if record.ID != id {
			filtered = append(filtered, record)
		}
	}
	c.view = filtered
	c.mu.Unlock()
	return nil
}

// Reuse projects the fields needed to repopulate the workspace from a past
// record. Pure projection: no side effects, no persistence interaction.
func (c *Controller) Reuse(record *Record) Draft {
	if record == nil {
		return Draft{}
	}
	return Draft{
		Prompt:      record.Prompt,
		SourceImage: record.SourceImage,
		Generated:   record.Generated,
	}
}

// View returns a copy of the current in-memory view.
func (c *Controller) View() []*Record {
	return c.snapshot()
}

func (c *Controller) snapshot() []*Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]*Record, len(c.view))
	copy(cp, c.view)
	return cp
}
