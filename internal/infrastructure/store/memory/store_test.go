package memory

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

func testInvoice(id string) domain.Invoice {
	return domain.Invoice{ID: id, Vendor: "Vendor " + id, Items: []string{"Item"}}
}

func TestStoreKeepsInsertionOrder(t *testing.T) {
	store := New()
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Add(testInvoice(id)); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	snapshot := store.Snapshot()
	if len(snapshot) != 3 || snapshot[0].ID != "a" || snapshot[2].ID != "c" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	store := New()
	if err := store.Add(testInvoice("a")); err != nil {
		t.Fatalf("add: %v", err)
	}

	snapshot := store.Snapshot()
	snapshot[0].Vendor = "changed"
	snapshot[0].Items[0] = "changed"

	again := store.Snapshot()
	if again[0].Vendor != "Vendor a" || again[0].Items[0] != "Item" {
		t.Fatalf("store was mutated through a snapshot: %+v", again[0])
	}
}

func TestStoreRejectsDuplicateAndReusedIDs(t *testing.T) {
	store := New()
	if err := store.Add(testInvoice("a")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(testInvoice("a")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if _, err := store.Delete("a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Add(testInvoice("a")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected reused id rejection, got %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	store := New()
	for _, id := range []string{"a", "b", "c"} {
		_ = store.Add(testInvoice(id))
	}

	removed, err := store.Delete("b")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed.ID != "b" {
		t.Fatalf("unexpected removed invoice: %+v", removed)
	}
	snapshot := store.Snapshot()
	if len(snapshot) != 2 || snapshot[0].ID != "a" || snapshot[1].ID != "c" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if _, err := store.Delete("b"); !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreReplace(t *testing.T) {
	store := New()
	_ = store.Add(testInvoice("old"))

	store.Replace([]domain.Invoice{testInvoice("x"), testInvoice("y"), testInvoice("x")})
	if store.Len() != 2 {
		t.Fatalf("expected 2 invoices, got %d", store.Len())
	}
	if err := store.Add(testInvoice("old")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("replaced ids must stay retired, got %v", err)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Add(testInvoice(fmt.Sprintf("id-%d", i)))
		}(i)
		go func() {
			defer wg.Done()
			_ = store.Snapshot()
		}()
	}
	wg.Wait()

	if store.Len() != 50 {
		t.Fatalf("expected 50 invoices, got %d", store.Len())
	}
}
