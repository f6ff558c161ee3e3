package media_test

import (
	"context"
	"testing"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/config"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/media"
)

func TestLocalStore(t *testing.T) {
	store, err := media.NewLocalStore(t.TempDir(), "/media/")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	ctx := context.Background()
	key := "images/listing/abc/2026/08/test_original.png"
	if err := store.Put(ctx, key, []byte("payload"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Get = %q, want %q", data, "payload")
	}

	if got, want := store.URL(key), "/media/"+key; got != want {
		t.Errorf("URL = %s, want %s", got, want)
	}

	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, key); err == nil {
		t.Error("expected Get to fail after delete")
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("deleting a missing key should not error: %v", err)
	}
}

func TestNewStore(t *testing.T) {
	store, err := media.NewStore(context.Background(), config.MediaConfig{
		Type:      "local",
		LocalPath: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, ok := store.(*media.LocalStore); !ok {
		t.Errorf("expected a LocalStore, got %T", store)
	}

	if _, err := media.NewStore(context.Background(), config.MediaConfig{Type: "ftp"}); err == nil {
		t.Error("expected error for unknown storage type")
	}
}
