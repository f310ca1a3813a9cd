package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/pitchkit/core"
)

func TestMemoryStore_SetGet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get() = %q", got)
	}
}

func TestMemoryStore_Missing(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get(context.Background(), "absent")
	if !errors.Is(err, core.ErrStoreNotFound) {
		t.Errorf("Get(absent) error = %v, want ErrStoreNotFound", err)
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("value should still be live, got %v", err)
	}

	time.Sleep(1100 * time.Millisecond)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Errorf("expired value error = %v, want ErrStoreNotFound", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("v"))
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Errorf("deleted key error = %v", err)
	}
}
