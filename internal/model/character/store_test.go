package character

import "testing"

func TestMemoryStoreFindByID(t *testing.T) {
	store := NewMemoryStore(Seed())

	ch, ok := store.FindByID("sage")
	if !ok || ch.Name != "Sage" {
		t.Fatalf("expected to find sage, got %+v ok=%v", ch, ok)
	}

	if _, ok := store.FindByID("nobody"); ok {
		t.Fatalf("unknown identifiers must not resolve")
	}
}

func TestMemoryStoreListIsACopy(t *testing.T) {
	store := NewMemoryStore(Seed())

	list := store.List()
	list[0].Name = "Mutated"

	again, _ := store.FindByID(list[0].ID)
	if again.Name == "Mutated" {
		t.Fatalf("mutating the returned slice must not affect the store")
	}
}
