//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/formweave/formweave/internal/registry"
	"github.com/formweave/formweave/internal/store"
)

func TestMongoStoreLifecycle(t *testing.T) {
	skipIfNoMongo(t)

	ctx := context.Background()
	s, err := store.NewMongoStore(ctx, mongoURI(t), mongoDatabase(t))
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer s.Close(ctx)

	lifecycleRoundTrip(t, registry.New(s))
}

func TestPostgresStoreLifecycle(t *testing.T) {
	skipIfNoPostgres(t)

	ctx := context.Background()
	s, err := store.NewPostgresStore(ctx, pgConnString(t))
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer s.Close(ctx)

	lifecycleRoundTrip(t, registry.New(s))
}
