package catalog

import (
	"errors"
	"testing"
)

func testCategories() *CategorySet {
	return NewCategorySet([]Category{
		{Name: "Lighting", Type: CategoryTypeProduct},
		{Name: "Home & Garden", Type: CategoryTypeProduct},
		{Name: "Tutoring", Type: CategoryTypeService},
		{Name: "lighting", Type: CategoryTypeService}, // duplicate, dropped
	})
}

func TestCategorySet_Canonical(t *testing.T) {
	set := testCategories()

	tests := []struct {
		in     string
		want   string
		wantOk bool
	}{
		{"Lighting", "Lighting", true},
		{"LIGHTING", "Lighting", true},
		{" home & garden ", "Home & Garden", true},
		{"Spaceships", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := set.Canonical(tt.in)
		if ok != tt.wantOk || got != tt.want {
			t.Errorf("Canonical(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOk)
		}
	}

	if set.Len() != 3 {
		t.Errorf("Len() = %d, want 3 after dropping the duplicate", set.Len())
	}
}

func TestCategorySet_ListIsCopy(t *testing.T) {
	set := testCategories()

	list := set.List()
	list[0].Name = "Mutated"

	if got, _ := set.Canonical("lighting"); got != "Lighting" {
		t.Errorf("mutating List() result changed the set: %q", got)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"19.99", 19.99, false},
		{" 5 ", 5, false},
		{"0.01", 0.01, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
	}

	for _, tt := range tests {
		got, err := ParsePrice(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPrice) {
				t.Errorf("ParsePrice(%q) error = %v, want ErrInvalidPrice", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePrice(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePrice(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCategorySet_NewProduct(t *testing.T) {
	set := testCategories()
	valid := ProductInput{Name: " Lamp ", Description: "Warm light", Price: "19.99", Category: "lighting"}

	p, err := set.NewProduct("vnd-1", valid)
	if err != nil {
		t.Fatalf("NewProduct() error = %v", err)
	}
	if p.Name != "Lamp" || p.Category != "Lighting" || p.Price != 19.99 || p.VendorID != "vnd-1" {
		t.Errorf("NewProduct() = %+v", p)
	}

	tests := []struct {
		name   string
		mutate func(in *ProductInput)
		want   error
	}{
		{"missing name", func(in *ProductInput) { in.Name = "  " }, ErrMissingFields},
		{"missing description", func(in *ProductInput) { in.Description = "" }, ErrMissingFields},
		{"missing price", func(in *ProductInput) { in.Price = "" }, ErrMissingFields},
		{"missing category", func(in *ProductInput) { in.Category = "" }, ErrMissingFields},
		{"unknown category", func(in *ProductInput) { in.Category = "Spaceships" }, ErrInvalidCategory},
		{"bad price", func(in *ProductInput) { in.Price = "free" }, ErrInvalidPrice},
		{"negative price", func(in *ProductInput) { in.Price = "-1" }, ErrInvalidPrice},
		// Category is checked before price.
		{"category before price", func(in *ProductInput) { in.Category = "Nope"; in.Price = "-1" }, ErrInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			if _, err := set.NewProduct("vnd-1", in); !errors.Is(err, tt.want) {
				t.Errorf("NewProduct() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCategorySet_ParseUpdate(t *testing.T) {
	set := testCategories()

	u, err := set.ParseUpdate(UpdateInput{
		Name:     strPtr(" New name "),
		Category: strPtr("TUTORING"),
		Price:    strPtr("7.5"),
	})
	if err != nil {
		t.Fatalf("ParseUpdate() error = %v", err)
	}
	if *u.Name != "New name" || *u.Category != "Tutoring" || *u.Price != 7.5 {
		t.Errorf("ParseUpdate() = name %q category %q price %v", *u.Name, *u.Category, *u.Price)
	}
	if u.Description != nil {
		t.Error("Description should stay nil when not submitted")
	}

	blank, err := set.ParseUpdate(UpdateInput{Name: strPtr(""), Description: strPtr("  "), Category: strPtr("")})
	if err != nil {
		t.Fatalf("ParseUpdate(blank) error = %v", err)
	}
	if !blank.Empty() {
		t.Error("blank text fields should be treated as not submitted")
	}

	if _, err := set.ParseUpdate(UpdateInput{Category: strPtr("Nope")}); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("ParseUpdate(bad category) error = %v, want ErrInvalidCategory", err)
	}
	if _, err := set.ParseUpdate(UpdateInput{Price: strPtr("")}); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("ParseUpdate(blank price) error = %v, want ErrInvalidPrice", err)
	}
	if _, err := set.ParseUpdate(UpdateInput{Price: strPtr("0")}); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("ParseUpdate(zero price) error = %v, want ErrInvalidPrice", err)
	}
}
