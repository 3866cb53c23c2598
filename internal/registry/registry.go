// Package registry owns the versioned collection of schema documents and
// their draft/active/deprecated lifecycle. It is the authoritative record
// of which document is live for an (entity, variant) pair.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/formweave/formweave/internal/schema"
)

// Status is the lifecycle state of a registry entry. An entry is born
// draft, becomes active via Activate, and ends deprecated when a newer
// entry supersedes it. There is no way back to draft.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
)

// Entry is one versioned schema row.
type Entry struct {
	ID                 string           `json:"id"`
	Entity             string           `json:"entity"`
	Variant            string           `json:"variant,omitempty"` // empty = common
	Version            string           `json:"version"`
	MinSupportedClient string           `json:"minSupportedClient"`
	Document           *schema.Document `json:"document"`
	MigrationScript    string           `json:"migrationScript,omitempty"`
	Status             Status           `json:"status"`
	UpdatedAt          time.Time        `json:"updatedAt"` // optimistic-lock token
}

// Store is the persistence a registry needs: one row per entry with a
// semi-structured document column and an updated-at timestamp. Every
// mutation that spans a status check is atomic inside the store.
type Store interface {
	// Insert adds a new row. ErrExists when (entity, variant, version)
	// is already taken.
	Insert(ctx context.Context, e *Entry) error
	// Get returns the row by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Entry, error)
	// CompareAndSwap overwrites a draft row iff the stored UpdatedAt
	// equals expected. ErrConflict on token mismatch, ErrState when the
	// row is not draft. No write happens on failure.
	CompareAndSwap(ctx context.Context, e *Entry, expected time.Time) error
	// SwapActive promotes the row to active and, in the same atomic
	// unit, demotes any other active row of the same (entity, variant)
	// to deprecated. Concurrent readers never observe two active rows.
	SwapActive(ctx context.Context, id string, at time.Time) error
	// DeleteDraft removes the row iff it is draft; ErrState otherwise.
	DeleteDraft(ctx context.Context, id string) error
	// Active returns the active row for exactly (entity, variant), or
	// ErrNotFound.
	Active(ctx context.Context, entity, variant string) (*Entry, error)
	// ByStatus lists rows with the given status; entity "" matches all.
	ByStatus(ctx context.Context, entity string, status Status) ([]*Entry, error)
	Close(ctx context.Context) error
}

// ChangeEvent describes a lifecycle change for interested listeners.
type ChangeEvent struct {
	Op    string `json:"op"` // created, updated, activated, deleted
	Entry *Entry `json:"entry"`
}

// Registry gates every write through the schema validator and enforces
// the lifecycle transitions on top of a Store.
type Registry struct {
	store Store

	// OnChange, when set, is called after each committed mutation.
	OnChange func(ChangeEvent)
}

// New creates a registry over the given store.
func New(store Store) *Registry {
	return &Registry{store: store}
}

// Create validates the document and inserts it as a new draft entry.
func (r *Registry) Create(ctx context.Context, doc *schema.Document, migrationScript string) (*Entry, error) {
	if res := schema.Validate(doc); !res.Valid {
		return nil, &StructuralError{Issues: res.Errors}
	}

	e := &Entry{
		ID:                 uuid.NewString(),
		Entity:             doc.Entity,
		Variant:            doc.Variant,
		Version:            doc.Version,
		MinSupportedClient: doc.MinSupportedClient,
		Document:           doc,
		MigrationScript:    migrationScript,
		Status:             StatusDraft,
		UpdatedAt:          time.Now().UTC(),
	}
	if err := r.store.Insert(ctx, e); err != nil {
		return nil, fmt.Errorf("inserting draft: %w", err)
	}

	r.notify(ChangeEvent{Op: "created", Entry: e})
	return e, nil
}

// Update replaces the document of a draft entry. The caller presents the
// UpdatedAt it last read; a mismatch means another writer committed first
// and the caller must refetch and reapply (ErrConflict).
func (r *Registry) Update(ctx context.Context, id string, doc *schema.Document, expected time.Time) (*Entry, error) {
	if res := schema.Validate(doc); !res.Valid {
		return nil, &StructuralError{Issues: res.Errors}
	}

	current, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		ID:                 current.ID,
		Entity:             doc.Entity,
		Variant:            doc.Variant,
		Version:            doc.Version,
		MinSupportedClient: doc.MinSupportedClient,
		Document:           doc,
		MigrationScript:    current.MigrationScript,
		Status:             StatusDraft,
		UpdatedAt:          nextToken(current.UpdatedAt),
	}
	if err := r.store.CompareAndSwap(ctx, e, expected); err != nil {
		return nil, err
	}

	r.notify(ChangeEvent{Op: "updated", Entry: e})
	return e, nil
}

// Activate promotes the entry and atomically demotes the previously
// active entry of the same (entity, variant) to deprecated.
func (r *Registry) Activate(ctx context.Context, id string) (*Entry, error) {
	if err := r.store.SwapActive(ctx, id, time.Now().UTC()); err != nil {
		return nil, err
	}
	e, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.notify(ChangeEvent{Op: "activated", Entry: e})
	return e, nil
}

// Delete removes a draft entry. Active and deprecated entries are the
// version history and cannot be deleted.
func (r *Registry) Delete(ctx context.Context, id string) error {
	e, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.DeleteDraft(ctx, id); err != nil {
		return err
	}
	r.notify(ChangeEvent{Op: "deleted", Entry: e})
	return nil
}

// ActiveFor returns the active entry for (entity, variant), falling back
// to the variant-less common entry when no variant-specific one is active.
func (r *Registry) ActiveFor(ctx context.Context, entity, variant string) (*Entry, error) {
	e, err := r.store.Active(ctx, entity, variant)
	if err == nil || variant == "" {
		return e, err
	}
	if IsNotFound(err) {
		return r.store.Active(ctx, entity, "")
	}
	return nil, err
}

// Drafts lists draft entries for editing; entity "" lists all drafts.
func (r *Registry) Drafts(ctx context.Context, entity string) ([]*Entry, error) {
	return r.store.ByStatus(ctx, entity, StatusDraft)
}

// ByStatus lists entries with the given status.
func (r *Registry) ByStatus(ctx context.Context, entity string, status Status) ([]*Entry, error) {
	return r.store.ByStatus(ctx, entity, status)
}

// Get returns a single entry by id.
func (r *Registry) Get(ctx context.Context, id string) (*Entry, error) {
	return r.store.Get(ctx, id)
}

// Import parses a canonical document and creates a draft from it. Import
// always goes through Create, so it can never bypass the validator.
func (r *Registry) Import(ctx context.Context, data []byte) (*Entry, error) {
	doc, err := schema.Parse(data)
	if err != nil {
		return nil, err
	}
	return r.Create(ctx, doc, "")
}

// Export serializes the entry's document to its canonical form.
func (r *Registry) Export(ctx context.Context, id string) ([]byte, error) {
	e, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.Document.Canonical()
}

func (r *Registry) notify(ev ChangeEvent) {
	if r.OnChange != nil {
		r.OnChange(ev)
	}
}

// nextToken returns a strictly increasing optimistic-lock token even when
// the clock has not advanced past the previous one.
func nextToken(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return now
}
