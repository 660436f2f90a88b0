package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestProductRepository_CreateAndGetOwned(t *testing.T) {
	db := testDB(t)
	insertVendor(t, db, "vnd-a")
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	p := newProduct(t, repo, "vnd-a", "Desk Lamp", "Lighting")

	if !strings.HasPrefix(p.ID, "prd-") {
		t.Errorf("ID = %q, want prd- prefix", p.ID)
	}
	if p.CreatedAt.IsZero() || !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Errorf("timestamps = %v / %v, want equal and set", p.CreatedAt, p.UpdatedAt)
	}

	got, err := repo.GetOwned(ctx, p.ID, "vnd-a")
	if err != nil {
		t.Fatalf("GetOwned() error = %v", err)
	}
	if got.Name != "Desk Lamp" || got.Price != 19.99 || got.Category != "Lighting" {
		t.Errorf("GetOwned() = %+v", got)
	}
	if got.Deleted {
		t.Error("new product should not be deleted")
	}
}

func TestProductRepository_Create_UnknownCategoryRejected(t *testing.T) {
	db := testDB(t)
	insertVendor(t, db, "vnd-a")
	repo := NewSQLiteProductRepository(db)

	err := repo.Create(context.Background(), &Product{
		VendorID: "vnd-a", Name: "x", Description: "y", Price: 1, Category: "Spaceships",
	})
	if err == nil {
		t.Error("Create() with unknown category should fail the foreign key")
	}
}

func TestProductRepository_OwnershipScoping(t *testing.T) {
	db := testDB(t)
	insertVendor(t, db, "vnd-a")
	insertVendor(t, db, "vnd-b")
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	p := newProduct(t, repo, "vnd-a", "Chair", "Furniture")

	if _, err := repo.GetOwned(ctx, p.ID, "vnd-b"); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("GetOwned(other vendor) error = %v, want ErrProductNotFound", err)
	}
	if _, err := repo.UpdateOwned(ctx, p.ID, "vnd-b", ProductUpdate{Name: strPtr("Stolen")}); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("UpdateOwned(other vendor) error = %v, want ErrProductNotFound", err)
	}
	if _, err := repo.ToggleDeleted(ctx, p.ID, "vnd-b"); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("ToggleDeleted(other vendor) error = %v, want ErrProductNotFound", err)
	}

	// The owner's product is untouched.
	got, err := repo.GetOwned(ctx, p.ID, "vnd-a")
	if err != nil {
		t.Fatalf("GetOwned() error = %v", err)
	}
	if got.Name != "Chair" || got.Deleted {
		t.Errorf("product modified by another vendor: %+v", got)
	}
}

func TestProductRepository_MissingProduct(t *testing.T) {
	repo := NewSQLiteProductRepository(testDB(t))
	ctx := context.Background()

	if _, err := repo.GetOwned(ctx, "prd-missing", "vnd-a"); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("GetOwned() error = %v, want ErrProductNotFound", err)
	}
	if _, err := repo.ToggleDeleted(ctx, "prd-missing", "vnd-a"); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("ToggleDeleted() error = %v, want ErrProductNotFound", err)
	}
}

func TestProductRepository_UpdateOwned(t *testing.T) {
	db := testDB(t)
	insertVendor(t, db, "vnd-a")
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	p := newProduct(t, repo, "vnd-a", "Lamp", "Lighting")
	price := 42.5

	got, err := repo.UpdateOwned(ctx, p.ID, "vnd-a", ProductUpdate{
		Price:    &price,
		Category: strPtr("Electronics"),
		Image:    strPtr("/uploads/new.png"),
	})
	if err != nil {
		t.Fatalf("UpdateOwned() error = %v", err)
	}

	if got.Price != 42.5 || got.Category != "Electronics" || got.Image != "/uploads/new.png" {
		t.Errorf("UpdateOwned() = %+v", got)
	}
	if got.Name != "Lamp" || got.Description != p.Description {
		t.Error("fields not in the update should be unchanged")
	}
	if got.VendorID != "vnd-a" {
		t.Errorf("VendorID = %q, owner must not change", got.VendorID)
	}

	// An empty update still proves ownership and returns the row.
	if _, err := repo.UpdateOwned(ctx, p.ID, "vnd-a", ProductUpdate{}); err != nil {
		t.Errorf("UpdateOwned(empty) error = %v", err)
	}
}

func TestProductRepository_ToggleDeleted(t *testing.T) {
	db := testDB(t)
	insertVendor(t, db, "vnd-a")
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	keep := newProduct(t, repo, "vnd-a", "Keep", "Books")
	flip := newProduct(t, repo, "vnd-a", "Flip", "Books")

	listNames := func() []string {
		t.Helper()
		products, err := repo.ListByCategory(ctx, "Books")
		if err != nil {
			t.Fatalf("ListByCategory() error = %v", err)
		}
		var names []string
		for _, p := range products {
			names = append(names, p.Name)
		}
		return names
	}

	got, err := repo.ToggleDeleted(ctx, flip.ID, "vnd-a")
	if err != nil {
		t.Fatalf("ToggleDeleted() error = %v", err)
	}
	if !got.Deleted {
		t.Error("Deleted = false after first toggle")
	}
	if names := listNames(); len(names) != 1 || names[0] != "Keep" {
		t.Errorf("listing after delete = %v, want [Keep]", names)
	}

	// The owner can still read a deleted product.
	if _, err := repo.GetOwned(ctx, flip.ID, "vnd-a"); err != nil {
		t.Errorf("GetOwned(deleted) error = %v", err)
	}

	got, err = repo.ToggleDeleted(ctx, flip.ID, "vnd-a")
	if err != nil {
		t.Fatalf("ToggleDeleted() restore error = %v", err)
	}
	if got.Deleted {
		t.Error("Deleted = true after second toggle")
	}
	if names := listNames(); len(names) != 2 {
		t.Errorf("listing after restore = %v, want both products", names)
	}

	other, err := repo.GetOwned(ctx, keep.ID, "vnd-a")
	if err != nil {
		t.Fatalf("GetOwned() error = %v", err)
	}
	if other.Deleted {
		t.Error("toggling one product affected another")
	}
}

func TestProductRepository_ListByCategory(t *testing.T) {
	db := testDB(t)
	insertVendor(t, db, "vnd-a")
	insertVendor(t, db, "vnd-b")
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	newProduct(t, repo, "vnd-a", "Bulb", "Lighting")
	newProduct(t, repo, "vnd-b", "Strip", "Lighting")
	newProduct(t, repo, "vnd-a", "Novel", "Books")

	tests := []struct {
		category string
		want     int
	}{
		{"Lighting", 2},
		{"lighting", 2},
		{"  LIGHTING ", 2},
		{"Books", 1},
		{"Toys", 0},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			products, err := repo.ListByCategory(ctx, tt.category)
			if err != nil {
				t.Fatalf("ListByCategory() error = %v", err)
			}
			if len(products) != tt.want {
				t.Errorf("len = %d, want %d", len(products), tt.want)
			}
			if products == nil {
				t.Error("ListByCategory() should return an empty slice, not nil")
			}
		})
	}
}

func TestProductRepository_ListByCategorySameSecond(t *testing.T) {
	db := testDB(t)
	insertVendor(t, db, "vnd-a")
	repo := NewSQLiteProductRepository(db)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	// Random IDs must not decide the order when timestamps tie.
	for _, name := range []string{"First", "Second", "Third", "Fourth"} {
		newProduct(t, repo, "vnd-a", name, "Lighting")
	}

	products, err := repo.ListByCategory(context.Background(), "Lighting")
	if err != nil {
		t.Fatalf("ListByCategory() error = %v", err)
	}
	want := []string{"Fourth", "Third", "Second", "First"}
	if len(products) != len(want) {
		t.Fatalf("len = %d, want %d", len(products), len(want))
	}
	for i, p := range products {
		if p.Name != want[i] {
			t.Errorf("products[%d] = %q, want %q", i, p.Name, want[i])
		}
	}
}

func TestCategoryRepository_List(t *testing.T) {
	repo := NewSQLiteCategoryRepository(testDB(t))

	set, err := LoadCategorySet(context.Background(), repo)
	if err != nil {
		t.Fatalf("LoadCategorySet() error = %v", err)
	}
	if set.Len() != 14 {
		t.Errorf("Len() = %d, want 14 seeded categories", set.Len())
	}

	name, ok := set.Canonical("home & garden")
	if !ok || name != "Home & Garden" {
		t.Errorf("Canonical(home & garden) = %q, %v", name, ok)
	}

	cats := set.List()
	if cats[0].Type != CategoryTypeProduct {
		t.Errorf("first category type = %q, want product first", cats[0].Type)
	}
	if last := cats[len(cats)-1]; last.Type != CategoryTypeService {
		t.Errorf("last category type = %q, want service last", last.Type)
	}
}
