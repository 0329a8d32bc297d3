package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/ports"
)

// PageSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.PageSource.
// want maps page IDs to the body each page is expected to contain.
func PageSourceContractTest(t *testing.T, source ports.PageSource, want map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Page_Success", func(t *testing.T) {
		for id, body := range want {
			page, err := source.Page(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error getting page %s: %v", id, err)
			}
			if page.ID != id {
				t.Errorf("id mismatch: got %q, want %q", page.ID, id)
			}
			if page.Body != body {
				t.Errorf("body mismatch for %s. got %q, want %q", id, page.Body, body)
			}
		}
	})

	t.Run("Page_NotFound", func(t *testing.T) {
		_, err := source.Page(ctx, "non-existent-page")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for non-existent page, got %v", err)
		}
	})

	t.Run("ListPages", func(t *testing.T) {
		ids, err := source.ListPages(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing pages: %v", err)
		}
		if len(ids) != len(want) {
			t.Errorf("expected %d pages, got %d (%v)", len(want), len(ids), ids)
		}
		for id := range want {
			found := false
			for _, got := range ids {
				if got == id {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected page %s in list %v", id, ids)
			}
		}
	})
}
