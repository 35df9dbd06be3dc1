package repositories

import (
	"encoding/json"
	"testing"
	"time"

	"rempah/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductCodec_KeepsVersion(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	reviews := []models.Review{
		{ID: "r1", UserID: "u1", Name: "Asha", Rating: 4, Likes: []string{"u2"}, CreatedAt: created},
		{ID: "r2", UserID: "u2", Name: "Ravi", Rating: 5, Likes: []string{}, CreatedAt: created},
	}
	p := &models.Product{
		ID:         "p1",
		Name:       "Garam Masala",
		Price:      120,
		InStock:    true,
		Reviews:    reviews,
		Rating:     4.5,
		NumReviews: 2,
		Version:    7,
		CreatedAt:  created,
		UpdatedAt:  created,
	}

	plain, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(plain), `"version"`)

	data, err := encodeProduct(p)
	require.NoError(t, err)
	got, err := decodeProduct(data)
	require.NoError(t, err)

	assert.Equal(t, 7, got.Version)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Rating, got.Rating)
	assert.Equal(t, p.NumReviews, got.NumReviews)
	require.Len(t, got.Reviews, 2)
	assert.Equal(t, []string{"u2"}, got.Reviews[0].Likes)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
}

func TestProductCodec_RejectsGarbage(t *testing.T) {
	_, err := decodeProduct([]byte("not json"))
	assert.Error(t, err)
}
