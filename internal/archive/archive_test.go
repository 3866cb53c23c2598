package archive

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/formweave/formweave/internal/registry"
	"github.com/formweave/formweave/internal/schema"
)

func archivedEntry(variant string) *registry.Entry {
	return &registry.Entry{
		ID:      "e1",
		Entity:  "invoice",
		Variant: variant,
		Version: "1.2.0",
		Status:  registry.StatusActive,
		Document: &schema.Document{
			Version:            "1.2.0",
			MinSupportedClient: "1.0.0",
			Entity:             "invoice",
			Variant:            variant,
			Kind:               schema.DocForm,
			Layout:             schema.Layout{Columns: 12},
			Fields: []schema.Field{
				{Name: "amount", Kind: schema.KindNumber, UI: schema.UIHints{Label: "Amount", ColSpan: 6}},
			},
		},
	}
}

func TestArchiveUploadsBundle(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient()
	a := New(mock, "schemas-bucket", "formweave/schemas")

	res, err := a.Archive(ctx, archivedEntry("mobile"))
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	wantDoc := "schemas-bucket/formweave/schemas/invoice/mobile/1.2.0/schema.yaml"
	if _, ok := mock.Objects[wantDoc]; !ok {
		t.Errorf("document not uploaded, objects = %v", keys(mock.Objects))
	}
	if res.DocumentURI != "s3://"+wantDoc {
		t.Errorf("DocumentURI = %s", res.DocumentURI)
	}

	raw, ok := mock.Objects["schemas-bucket/formweave/schemas/invoice/mobile/1.2.0/manifest.json"]
	if !ok {
		t.Fatal("manifest not uploaded")
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("manifest does not parse: %v", err)
	}
	if m.Entity != "invoice" || m.Version != "1.2.0" || m.Status != "active" {
		t.Errorf("manifest = %+v", m)
	}
	if m.ArchivedAt.IsZero() {
		t.Error("manifest missing timestamp")
	}
}

func TestArchiveCommonVariantKey(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient()
	a := New(mock, "b", "p")

	if _, err := a.Archive(ctx, archivedEntry("")); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if _, ok := mock.Objects["b/p/invoice/common/1.2.0/schema.yaml"]; !ok {
		t.Errorf("variant-less entries should archive under common/, objects = %v", keys(mock.Objects))
	}
}

func TestArchiveDocumentRoundTrips(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient()
	a := New(mock, "b", "p")

	if _, err := a.Archive(ctx, archivedEntry("mobile")); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	data := mock.Objects["b/p/invoice/mobile/1.2.0/schema.yaml"]
	doc, err := schema.Parse(data)
	if err != nil {
		t.Fatalf("archived document does not parse: %v", err)
	}
	if doc.Entity != "invoice" || doc.Version != "1.2.0" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestArchiveUploadFailure(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient()
	mock.UploadErr = errors.New("access denied")
	a := New(mock, "b", "p")

	if _, err := a.Archive(ctx, archivedEntry("")); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient()
	a := New(mock, "b", "p")

	if err := a.Prune(ctx, "invoice"); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(mock.DeletedPrefixes) != 1 || mock.DeletedPrefixes[0] != "b/p/invoice/" {
		t.Errorf("deleted = %v", mock.DeletedPrefixes)
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
