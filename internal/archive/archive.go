// Package archive pushes exported schema bundles to S3 so activated
// versions have an off-registry copy for audits and rollbacks.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/formweave/formweave/internal/registry"
)

// Client is the object-storage surface the archiver needs.
type Client interface {
	// Upload writes data under the given bucket and key.
	Upload(ctx context.Context, bucket, key string, data []byte) error
	// DeletePrefix removes every object under the prefix.
	DeletePrefix(ctx context.Context, bucket, prefix string) error
}

// Manifest describes one archived schema bundle.
type Manifest struct {
	ID         string    `json:"id"`
	Entity     string    `json:"entity"`
	Variant    string    `json:"variant,omitempty"`
	Version    string    `json:"version"`
	Status     string    `json:"status"`
	ArchivedAt time.Time `json:"archivedAt"`
}

// Archiver uploads schema bundles to a bucket.
type Archiver struct {
	client Client
	bucket string
	prefix string
}

// New creates an archiver writing under bucket/prefix.
func New(client Client, bucket, prefix string) *Archiver {
	return &Archiver{client: client, bucket: bucket, prefix: prefix}
}

// Result holds the S3 URIs of an uploaded bundle.
type Result struct {
	DocumentURI string
	ManifestURI string
}

// Archive uploads the entry's canonical document plus a manifest under
// prefix/entity/variant/version/.
func (a *Archiver) Archive(ctx context.Context, e *registry.Entry) (*Result, error) {
	doc, err := e.Document.Canonical()
	if err != nil {
		return nil, fmt.Errorf("serializing document: %w", err)
	}

	base := a.bundlePrefix(e)
	docKey := path.Join(base, "schema.yaml")
	if err := a.client.Upload(ctx, a.bucket, docKey, doc); err != nil {
		return nil, fmt.Errorf("uploading document: %w", err)
	}

	manifest, err := json.MarshalIndent(Manifest{
		ID:         e.ID,
		Entity:     e.Entity,
		Variant:    e.Variant,
		Version:    e.Version,
		Status:     string(e.Status),
		ArchivedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing manifest: %w", err)
	}
	manifestKey := path.Join(base, "manifest.json")
	if err := a.client.Upload(ctx, a.bucket, manifestKey, manifest); err != nil {
		return nil, fmt.Errorf("uploading manifest: %w", err)
	}

	return &Result{
		DocumentURI: fmt.Sprintf("s3://%s/%s", a.bucket, docKey),
		ManifestURI: fmt.Sprintf("s3://%s/%s", a.bucket, manifestKey),
	}, nil
}

// Prune removes every archived bundle of the given entity.
func (a *Archiver) Prune(ctx context.Context, entity string) error {
	prefix := path.Join(a.prefix, entity) + "/"
	if err := a.client.DeletePrefix(ctx, a.bucket, prefix); err != nil {
		return fmt.Errorf("pruning %s: %w", prefix, err)
	}
	return nil
}

func (a *Archiver) bundlePrefix(e *registry.Entry) string {
	variant := e.Variant
	if variant == "" {
		variant = "common"
	}
	return path.Join(a.prefix, e.Entity, variant, e.Version)
}
