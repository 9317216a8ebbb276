// Package review provides the review domain model and server-side data access.
package review

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/evcraddock/reelreviews/internal/errs"
)

// Review is a single user comment on a catalog item.
type Review struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`

	// LocalOnly marks an optimistic record the remote store has not confirmed.
	LocalOnly bool `json:"local_only,omitempty"`
}

// Draft is the author-supplied part of a review, before an id and
// timestamp are assigned.
type Draft struct {
	ItemID  string `json:"item_id" validate:"required,max=64"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
	Author  string `json:"author" validate:"required,max=100"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims surrounding whitespace from the text fields.
func (d Draft) Normalize() Draft {
	d.ItemID = strings.TrimSpace(d.ItemID)
	d.Comment = strings.TrimSpace(d.Comment)
	d.Author = strings.TrimSpace(d.Author)
	return d
}

// Validate checks the draft after normalization. The returned error wraps
// errs.ErrValidation.
func (d Draft) Validate() error {
	if err := validate.Struct(d.Normalize()); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("%w: %v", errs.ErrValidation, err)
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fieldMessage(fe))
		}
		return fmt.Errorf("%w: %s", errs.ErrValidation, strings.Join(msgs, "; "))
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Field() == "Rating" {
			return "rating is required"
		}
		return strings.ToLower(fe.Field()) + " is required"
	case "min", "max":
		if fe.Field() == "Rating" {
			return "rating must be 1-5"
		}
		return fmt.Sprintf("%s must be at most %s characters", strings.ToLower(fe.Field()), fe.Param())
	default:
		return fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag())
	}
}

// SameContent reports whether two reviews carry the same author-supplied
// content for the same item.
func SameContent(a, b Review) bool {
	return a.ItemID == b.ItemID &&
		a.Rating == b.Rating &&
		a.Comment == b.Comment &&
		a.Author == b.Author
}

// SortNewestFirst orders reviews by CreatedAt descending. The sort is
// stable, so reviews with equal timestamps keep their arrival order.
func SortNewestFirst(reviews []Review) {
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
}

// Dedupe drops later occurrences of an ID, keeping the first one seen.
func Dedupe(reviews []Review) []Review {
	seen := make(map[string]struct{}, len(reviews))
	out := reviews[:0:0]
	for _, r := range reviews {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Clone returns a copy of reviews that does not share backing storage.
func Clone(reviews []Review) []Review {
	if reviews == nil {
		return nil
	}
	out := make([]Review, len(reviews))
	copy(out, reviews)
	return out
}
