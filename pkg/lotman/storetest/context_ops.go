package storetest

import (
	"errors"
	"testing"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

func runContextTests(t *testing.T, factory StoreFactory) {
	t.Run("RoundTrip", func(t *testing.T) { testContextRoundTrip(t, factory) })
	t.Run("Missing", func(t *testing.T) { testContextMissing(t, factory) })
}

func testContextRoundTrip(t *testing.T, factory StoreFactory) {
	store := factory(t)
	ctx := t.Context()

	if err := store.SetContextValue(ctx, lotman.ContextLotHome, "/var/lot"); err != nil {
		t.Fatalf("SetContextValue() failed: %v", err)
	}
	if err := store.SetContextValue(ctx, lotman.ContextLotHome, "/srv/lot"); err != nil {
		t.Fatalf("SetContextValue(overwrite) failed: %v", err)
	}

	got, err := store.GetContextValue(ctx, lotman.ContextLotHome)
	if err != nil {
		t.Fatalf("GetContextValue() failed: %v", err)
	}
	if got != "/srv/lot" {
		t.Errorf("GetContextValue() = %q, want /srv/lot", got)
	}
}

func testContextMissing(t *testing.T, factory StoreFactory) {
	store := factory(t)

	_, err := store.GetContextValue(t.Context(), "nope")
	if !errors.Is(err, lotman.ErrContextKeyNotFound) {
		t.Errorf("GetContextValue(missing) error = %v, want ErrContextKeyNotFound", err)
	}
}
