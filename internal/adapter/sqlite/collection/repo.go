// Package collection implements the Collection repository on the local
// SQLite store. Collections are local-only and carry no sync metadata.
package collection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/heartmarshall/tilawah/internal/adapter/sqlite"
	"github.com/heartmarshall/tilawah/internal/domain"
)

// Repo provides collection persistence.
type Repo struct {
	db  *sql.DB
	now sqlite.Clock
}

// New creates a new collection repository.
func New(db *sql.DB, now sqlite.Clock) *Repo {
	if now == nil {
		now = sqlite.SystemClock
	}
	return &Repo{db: db, now: now}
}

const table = "collections"

var columns = []string{"id", "name", "description", "color", "icon", "sort_order", "created_at", "updated_at"}

const nextSortOrderSQL = `SELECT COALESCE(MAX(sort_order), -1) + 1 FROM collections`

const listWithCountsSQL = `
SELECT c.id, c.name, c.description, c.color, c.icon, c.sort_order, c.created_at, c.updated_at,
       COUNT(b.id) AS bookmark_count
FROM collections c
LEFT JOIN bookmarks b ON b.collection_id = c.id
GROUP BY c.id
ORDER BY c.sort_order, c.created_at`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts c with a fresh id and appends it after the last collection.
func (r *Repo) Create(ctx context.Context, c domain.Collection) (domain.Collection, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := r.now()
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := q.QueryRowContext(ctx, nextSortOrderSQL).Scan(&c.SortOrder); err != nil {
		return domain.Collection{}, sqlite.MapError(err, "collection", c.ID)
	}

	query, args, err := sqlite.Builder().
		Insert(table).
		Columns(columns...).
		Values(c.ID, c.Name, sqlite.NullString(c.Description), sqlite.NullString(c.Color), sqlite.NullString(c.Icon),
			c.SortOrder, sqlite.Millis(c.CreatedAt), sqlite.Millis(c.UpdatedAt)).
		ToSql()
	if err != nil {
		return domain.Collection{}, fmt.Errorf("build insert collection: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return domain.Collection{}, sqlite.MapError(err, "collection", c.ID)
	}
	return c, nil
}

// Update applies the non-nil fields of patch and stamps updated_at.
func (r *Repo) Update(ctx context.Context, id string, patch domain.CollectionPatch) (domain.Collection, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	b := sqlite.Builder().
		Update(table).
		Set("updated_at", sqlite.Millis(r.now())).
		Where(squirrel.Eq{"id": id})
	if patch.Name != nil {
		b = b.Set("name", *patch.Name)
	}
	if patch.Description != nil {
		b = b.Set("description", *patch.Description)
	}
	if patch.Color != nil {
		b = b.Set("color", *patch.Color)
	}
	if patch.Icon != nil {
		b = b.Set("icon", *patch.Icon)
	}
	if patch.SortOrder != nil {
		b = b.Set("sort_order", *patch.SortOrder)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return domain.Collection{}, fmt.Errorf("build update collection: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Collection{}, sqlite.MapError(err, "collection", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Collection{}, fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}

	return r.GetByID(ctx, id)
}

// SetSortOrders assigns sort_order = position for each id in order.
func (r *Repo) SetSortOrders(ctx context.Context, ids []string) error {
	q := sqlite.QuerierFromCtx(ctx, r.db)
	now := sqlite.Millis(r.now())

	for pos, id := range ids {
		res, err := q.ExecContext(ctx,
			`UPDATE collections SET sort_order = ?, updated_at = ? WHERE id = ?`, pos, now, id)
		if err != nil {
			return sqlite.MapError(err, "collection", id)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
		}
	}
	return nil
}

// Delete removes a collection row. Bookmarks are removed by the caller in
// the same transaction; the foreign key cascade is a backstop.
func (r *Repo) Delete(ctx context.Context, id string) error {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	res, err := q.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return sqlite.MapError(err, "collection", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a collection or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id string) (domain.Collection, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, id)
}

// GetByName returns the first collection with the given name.
func (r *Repo) GetByName(ctx context.Context, name string) (domain.Collection, error) {
	return r.getOne(ctx, squirrel.Eq{"name": name}, name)
}

func (r *Repo) getOne(ctx context.Context, where squirrel.Eq, key string) (domain.Collection, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	query, args, err := sqlite.Builder().
		Select(columns...).
		From(table).
		Where(where).
		OrderBy("sort_order").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.Collection{}, fmt.Errorf("build select collection: %w", err)
	}

	c, err := scanCollection(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Collection{}, sqlite.MapError(err, "collection", key)
	}
	return c, nil
}

// List returns all collections ordered by sort_order.
func (r *Repo) List(ctx context.Context) ([]domain.Collection, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	query, args, err := sqlite.Builder().
		Select(columns...).
		From(table).
		OrderBy("sort_order", "created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list collections: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqlite.MapError(err, "collection", "*")
	}
	defer rows.Close()

	var result []domain.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, sqlite.MapError(err, "collection", "*")
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlite.MapError(err, "collection", "*")
	}
	return result, nil
}

// ListWithCounts returns all collections with their bookmark counts.
func (r *Repo) ListWithCounts(ctx context.Context) ([]domain.CollectionWithCount, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	rows, err := q.QueryContext(ctx, listWithCountsSQL)
	if err != nil {
		return nil, sqlite.MapError(err, "collection", "*")
	}
	defer rows.Close()

	var result []domain.CollectionWithCount
	for rows.Next() {
		var (
			c                         domain.CollectionWithCount
			description, color, icon sql.NullString
			createdAt, updatedAt      int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &description, &color, &icon, &c.SortOrder,
			&createdAt, &updatedAt, &c.BookmarkCount); err != nil {
			return nil, sqlite.MapError(err, "collection", "*")
		}
		c.Description = sqlite.FromNullString(description)
		c.Color = sqlite.FromNullString(color)
		c.Icon = sqlite.FromNullString(icon)
		c.CreatedAt = sqlite.FromMillis(createdAt)
		c.UpdatedAt = sqlite.FromMillis(updatedAt)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlite.MapError(err, "collection", "*")
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCollection(s scanner) (domain.Collection, error) {
	var (
		c                         domain.Collection
		description, color, icon sql.NullString
		createdAt, updatedAt      int64
	)
	if err := s.Scan(&c.ID, &c.Name, &description, &color, &icon, &c.SortOrder, &createdAt, &updatedAt); err != nil {
		return domain.Collection{}, err
	}
	c.Description = sqlite.FromNullString(description)
	c.Color = sqlite.FromNullString(color)
	c.Icon = sqlite.FromNullString(icon)
	c.CreatedAt = sqlite.FromMillis(createdAt)
	c.UpdatedAt = sqlite.FromMillis(updatedAt)
	return c, nil
}
