package api

import (
	"time"

	"github.com/formweave/formweave/internal/registry"
	"github.com/formweave/formweave/internal/schema"
	"github.com/formweave/formweave/internal/validation"
)

// CreateSchemaRequest registers a new draft.
type CreateSchemaRequest struct {
	Document        *schema.Document `json:"document"`
	MigrationScript string           `json:"migrationScript,omitempty"`
}

// UpdateSchemaRequest replaces a draft's document. ExpectedUpdatedAt is
// the UpdatedAt the editor last read; the write is rejected with 409
// when another editor committed in between.
type UpdateSchemaRequest struct {
	Document          *schema.Document `json:"document"`
	ExpectedUpdatedAt time.Time        `json:"expectedUpdatedAt"`
}

// SubmitRequest carries the form values of a submission.
type SubmitRequest struct {
	Variant string         `json:"variant,omitempty"`
	Values  map[string]any `json:"values"`
}

// SubmitResponse reports whether the submission was accepted and, when
// it was not, the per-field validation issues.
type SubmitResponse struct {
	Accepted      bool               `json:"accepted"`
	Issues        []validation.Issue `json:"issues,omitempty"`
	ActionError   string             `json:"actionError,omitempty"`
	ErrorChainRan bool               `json:"errorChainRan,omitempty"`
}

// PreviewResponse is a schema populated with mock values.
type PreviewResponse struct {
	Entry   *registry.Entry `json:"entry"`
	Values  map[string]any  `json:"values"`
	Visible map[string]bool `json:"visible"`
}

// StructuralErrorResponse carries the validator's findings for a
// rejected document.
type StructuralErrorResponse struct {
	Error  string         `json:"error"`
	Issues []schema.Issue `json:"issues"`
}
