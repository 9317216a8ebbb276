package review

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository stores reviews for the remote review store.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a review repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Add stores a new review. The repository assigns the id and creation
// time; any client-side values are advisory and ignored.
func (r *Repository) Add(d Draft) (*Review, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}

	rev := &Review{
		ID:        uuid.NewString(),
		ItemID:    d.ItemID,
		Rating:    d.Rating,
		Comment:   d.Comment,
		Author:    d.Author,
		CreatedAt: r.now().UTC(),
	}

	_, err := r.db.Exec(
		"INSERT INTO reviews (id, item_id, rating, comment, author, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		rev.ID, rev.ItemID, rev.Rating, rev.Comment, rev.Author, rev.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting review: %w", err)
	}

	return rev, nil
}

// ListByItemID returns all reviews for an item, newest first. Reviews with
// the same timestamp are ordered by insertion, latest first.
func (r *Repository) ListByItemID(itemID string) (reviews []*Review, err error) {
	rows, err := r.db.Query(
		`SELECT id, item_id, rating, comment, author, created_at
		   FROM reviews
		  WHERE item_id = ?
		  ORDER BY created_at DESC, rowid DESC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var rev Review
		var created int64
		if err := rows.Scan(&rev.ID, &rev.ItemID, &rev.Rating, &rev.Comment, &rev.Author, &created); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		rev.CreatedAt = time.Unix(0, created).UTC()
		reviews = append(reviews, &rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reviews: %w", err)
	}

	return reviews, nil
}

// CountByItemID returns the number of reviews stored for an item.
func (r *Repository) CountByItemID(itemID string) (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM reviews WHERE item_id = ?", itemID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting reviews: %w", err)
	}
	return n, nil
}
