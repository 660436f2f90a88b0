package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CategorySet is an immutable, case-insensitive view of the allow-list.
// It is safe for concurrent use.
type CategorySet struct {
	byKey map[string]Category
	list  []Category
}

// NewCategorySet builds a set from cats. Later duplicates (ignoring case)
// are dropped.
func NewCategorySet(cats []Category) *CategorySet {
	s := &CategorySet{byKey: make(map[string]Category, len(cats))}
	for _, c := range cats {
		key := categoryKey(c.Name)
		if key == "" {
			continue
		}
		if _, dup := s.byKey[key]; dup {
			continue
		}
		s.byKey[key] = c
		s.list = append(s.list, c)
	}
	return s
}

// Canonical returns the stored spelling of name, matched case-insensitively
// after trimming. ok is false when name is not allow-listed.
func (s *CategorySet) Canonical(name string) (string, bool) {
	c, ok := s.byKey[categoryKey(name)]
	return c.Name, ok
}

// List returns the categories in load order. The slice is a copy.
func (s *CategorySet) List() []Category {
	out := make([]Category, len(s.list))
	copy(out, s.list)
	return out
}

// Len returns the number of categories.
func (s *CategorySet) Len() int {
	return len(s.list)
}

func categoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CategoryRepository reads the category allow-list.
type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
}

// SQLiteCategoryRepository implements CategoryRepository using SQLite.
type SQLiteCategoryRepository struct {
	db *sql.DB
}

// NewSQLiteCategoryRepository creates a category repository.
func NewSQLiteCategoryRepository(db *sql.DB) *SQLiteCategoryRepository {
	return &SQLiteCategoryRepository{db: db}
}

// List returns all categories, products first, then by name.
func (r *SQLiteCategoryRepository) List(ctx context.Context) ([]Category, error) {
	const query = `SELECT name, type FROM categories ORDER BY type, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		var typ string
		if err := rows.Scan(&c.Name, &typ); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		c.Type = CategoryType(typ)
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return cats, nil
}

// LoadCategorySet reads the allow-list once and freezes it.
func LoadCategorySet(ctx context.Context, repo CategoryRepository) (*CategorySet, error) {
	cats, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewCategorySet(cats), nil
}
