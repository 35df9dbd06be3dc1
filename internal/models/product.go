package models

import (
	"math"
	"time"
)

// Review is a user's rating of a product. At most one review per user per product.
type Review struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	UserID    string    `json:"user"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikedBy reports whether userID is in the review's liker set.
func (r *Review) LikedBy(userID string) bool {
	for _, id := range r.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleLike adds userID to the liker set, or removes it if already present.
// It returns true when the review is liked after the call.
func (r *Review) ToggleLike(userID string) bool {
	for i, id := range r.Likes {
		if id == userID {
			r.Likes = append(r.Likes[:i], r.Likes[i+1:]...)
			return false
		}
	}
	r.Likes = append(r.Likes, userID)
	return true
}

// Product represents a product in the store. Reviews are stored with the
// product row, so the aggregate fields and the review list change together.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"index"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"imageUrl"`
	Category    string    `json:"category"`
	InStock     bool      `json:"inStock"`
	UserID      string    `json:"user" gorm:"type:varchar(36)"`
	Reviews     []Review  `json:"reviews" gorm:"serializer:json"`
	Rating      float64   `json:"rating" gorm:"index"`
	NumReviews  int       `json:"numReviews"`
	Version     int       `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ReviewByUser returns the review written by userID, or nil.
func (p *Product) ReviewByUser(userID string) *Review {
	for i := range p.Reviews {
		if p.Reviews[i].UserID == userID {
			return &p.Reviews[i]
		}
	}
	return nil
}

// ReviewByID returns the review with the given id, or nil.
func (p *Product) ReviewByID(id string) *Review {
	for i := range p.Reviews {
		if p.Reviews[i].ID == id {
			return &p.Reviews[i]
		}
	}
	return nil
}

// RemoveReviewsByUser drops every review written by userID and reports
// whether anything was removed.
func (p *Product) RemoveReviewsByUser(userID string) bool {
	kept := p.Reviews[:0]
	for _, r := range p.Reviews {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	removed := len(kept) != len(p.Reviews)
	p.Reviews = kept
	return removed
}

// RecomputeRating sets Rating to the mean review rating rounded to one
// decimal and NumReviews to the review count. No reviews yields (0, 0).
func (p *Product) RecomputeRating() {
	p.NumReviews = len(p.Reviews)
	if p.NumReviews == 0 {
		p.Rating = 0
		return
	}
	total := 0
	for _, r := range p.Reviews {
		total += r.Rating
	}
	p.Rating = math.Round(float64(total)/float64(p.NumReviews)*10) / 10
}
