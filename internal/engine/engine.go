// Package engine wires the schema registry, runtime evaluators, and the
// action dispatcher into one facade shared by the CLI, the HTTP API, and
// the preview TUI.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/formweave/formweave/internal/action"
	"github.com/formweave/formweave/internal/condition"
	"github.com/formweave/formweave/internal/config"
	"github.com/formweave/formweave/internal/mockdata"
	"github.com/formweave/formweave/internal/registry"
	"github.com/formweave/formweave/internal/schema"
	"github.com/formweave/formweave/internal/store"
	"github.com/formweave/formweave/internal/validation"
)

// Engine is the core schema engine shared by all interfaces.
type Engine struct {
	Config     *config.Config
	Logger     *slog.Logger
	Registry   *registry.Registry
	Dispatcher *action.Dispatcher
	Mock       *mockdata.Generator

	store registry.Store

	openOnce sync.Once
	openErr  error
}

// New creates an Engine with the given config and logger. The store is
// opened lazily on first use; see Open.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	return &Engine{
		Config:     cfg,
		Logger:     logger,
		Dispatcher: action.NewDispatcher(action.NewHTTPExecutor(cfg.API.BaseURL, logger)),
		Mock:       mockdata.New(),
	}
}

// Open connects the configured store backend and builds the registry on
// top of it. Calling Open more than once is a no-op; the first result
// sticks.
func (e *Engine) Open(ctx context.Context) error {
	e.openOnce.Do(func() {
		s, err := e.openStore(ctx)
		if err != nil {
			e.openErr = err
			return
		}
		e.store = s
		e.Registry = registry.New(s)
		e.Logger.Info("store opened", "backend", e.Config.Store.Backend)
	})
	return e.openErr
}

func (e *Engine) openStore(ctx context.Context) (registry.Store, error) {
	switch e.Config.Store.Backend {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "mongodb":
		return store.NewMongoStore(ctx, e.Config.Store.ConnectionString, e.Config.Store.Database)
	case "postgresql":
		return store.NewPostgresStore(ctx, e.Config.Store.ConnectionString)
	default:
		return nil, fmt.Errorf("unknown store backend %q", e.Config.Store.Backend)
	}
}

// Close releases the store connection.
func (e *Engine) Close(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	return e.store.Close(ctx)
}

// CreateSchema validates the document and registers it as a new draft.
func (e *Engine) CreateSchema(ctx context.Context, doc *schema.Document, migrationScript string) (*registry.Entry, error) {
	if err := e.Open(ctx); err != nil {
		return nil, err
	}
	entry, err := e.Registry.Create(ctx, doc, migrationScript)
	if err != nil {
		return nil, err
	}
	e.Logger.Info("schema created", "id", entry.ID, "entity", entry.Entity, "version", entry.Version)
	return entry, nil
}

// UpdateSchema replaces the document of a draft. expected is the
// UpdatedAt the caller last read; on mismatch the write is rejected and
// the caller must refetch.
func (e *Engine) UpdateSchema(ctx context.Context, id string, doc *schema.Document, expected time.Time) (*registry.Entry, error) {
	if err := e.Open(ctx); err != nil {
		return nil, err
	}
	entry, err := e.Registry.Update(ctx, id, doc, expected)
	if err != nil {
		return nil, err
	}
	e.Logger.Info("schema updated", "id", entry.ID, "version", entry.Version)
	return entry, nil
}

// ActivateSchema promotes a draft to active, demoting the previously
// active schema of the same (entity, variant).
func (e *Engine) ActivateSchema(ctx context.Context, id string) (*registry.Entry, error) {
	if err := e.Open(ctx); err != nil {
		return nil, err
	}
	entry, err := e.Registry.Activate(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Logger.Info("schema activated", "id", entry.ID, "entity", entry.Entity, "variant", entry.Variant)
	return entry, nil
}

// DeleteSchema removes a draft.
func (e *Engine) DeleteSchema(ctx context.Context, id string) error {
	if err := e.Open(ctx); err != nil {
		return err
	}
	if err := e.Registry.Delete(ctx, id); err != nil {
		return err
	}
	e.Logger.Info("schema deleted", "id", id)
	return nil
}

// Schema returns a single entry by id.
func (e *Engine) Schema(ctx context.Context, id string) (*registry.Entry, error) {
	if err := e.Open(ctx); err != nil {
		return nil, err
	}
	return e.Registry.Get(ctx, id)
}

// ActiveSchema resolves the schema a client should render for
// (entity, variant), falling back to the common variant.
func (e *Engine) ActiveSchema(ctx context.Context, entity, variant string) (*registry.Entry, error) {
	if err := e.Open(ctx); err != nil {
		return nil, err
	}
	return e.Registry.ActiveFor(ctx, entity, variant)
}

// DraftSchemas lists drafts; entity "" lists all.
func (e *Engine) DraftSchemas(ctx context.Context, entity string) ([]*registry.Entry, error) {
	if err := e.Open(ctx); err != nil {
		return nil, err
	}
	return e.Registry.Drafts(ctx, entity)
}

// SchemasByStatus lists entries with the given status.
func (e *Engine) SchemasByStatus(ctx context.Context, entity string, status registry.Status) ([]*registry.Entry, error) {
	if err := e.Open(ctx); err != nil {
		return nil, err
	}
	return e.Registry.ByStatus(ctx, entity, status)
}

// ImportSchema parses a canonical YAML document and registers it as a
// draft. Import goes through the same validation as Create.
func (e *Engine) ImportSchema(ctx context.Context, data []byte) (*registry.Entry, error) {
	if err := e.Open(ctx); err != nil {
		return nil, err
	}
	entry, err := e.Registry.Import(ctx, data)
	if err != nil {
		return nil, err
	}
	e.Logger.Info("schema imported", "id", entry.ID, "entity", entry.Entity)
	return entry, nil
}

// ExportSchema serializes the entry's document to canonical YAML.
func (e *Engine) ExportSchema(ctx context.Context, id string) ([]byte, error) {
	if err := e.Open(ctx); err != nil {
		return nil, err
	}
	return e.Registry.Export(ctx, id)
}

// Preview is a rendered snapshot of a schema populated with mock data.
type Preview struct {
	Entry   *registry.Entry
	Values  map[string]any
	Visible map[string]bool
}

// PreviewSchema generates mock values for the entry's document and
// evaluates field visibility against them.
func (e *Engine) PreviewSchema(ctx context.Context, id string) (*Preview, error) {
	entry, err := e.Schema(ctx, id)
	if err != nil {
		return nil, err
	}
	values := e.Mock.Generate(entry.Document)
	return &Preview{
		Entry:   entry,
		Values:  values,
		Visible: condition.VisibleFields(entry.Document, values),
	}, nil
}

// SubmitResult reports what happened to a form submission. When Issues
// is non-empty the submission was rejected before any action ran.
type SubmitResult struct {
	Entry   *registry.Entry
	Values  map[string]any
	Issues  []validation.Issue
	Outcome action.Outcome
}

// Submit runs a form submission against the active schema for
// (entity, variant): values of hidden fields are discarded, the visible
// fields are validated, and only a clean submission reaches the action
// chain.
func (e *Engine) Submit(ctx context.Context, entity, variant string, values map[string]any) (*SubmitResult, error) {
	entry, err := e.ActiveSchema(ctx, entity, variant)
	if err != nil {
		return nil, err
	}
	doc := entry.Document

	// Visibility is decided once, against everything the client sent.
	// Validation and the action chain both work from that one decision;
	// re-evaluating conditions on the filtered bag could flip fields
	// whose conditions read a hidden field's value.
	visible := condition.VisibleFields(doc, values)
	kept := make(map[string]any, len(values))
	for name, v := range values {
		if visible[name] {
			kept[name] = v
		}
	}

	res := &SubmitResult{Entry: entry, Values: kept}
	res.Issues = validation.ValidateVisible(doc, kept, visible)
	if len(res.Issues) > 0 {
		e.Logger.Debug("submission rejected", "entity", entity, "issues", len(res.Issues))
		return res, nil
	}

	res.Outcome = e.Dispatcher.Submit(ctx, doc, kept)
	if res.Outcome.Err != nil {
		e.Logger.Warn("submission action failed", "entity", entity, "error", res.Outcome.Err)
	}
	return res, nil
}
