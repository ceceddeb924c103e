package domain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/trip-logbook/internal/domain"
)

func intPtr(n int) *int { return &n }

func TestNewPaginationParams(t *testing.T) {
	cases := []struct {
		name        string
		page, limit *int
		want        domain.PaginationParams
	}{
		{"unset", nil, nil, domain.PaginationParams{Page: 1}},
		{"non-positive ignored", intPtr(0), intPtr(-3), domain.PaginationParams{Page: 1}},
		{"limit capped", intPtr(2), intPtr(500), domain.PaginationParams{Page: 2, Limit: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.NewPaginationParams(tc.page, tc.limit))
		})
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	cases := []struct {
		name        string
		page, limit int
		want        []int
	}{
		{"unpaged", 1, 0, []int{1, 2, 3, 4, 5}},
		{"first page", 1, 2, []int{1, 2}},
		{"partial last page", 3, 2, []int{5}},
		{"past the end", 4, 2, []int{}},
		{"huge page", 92233720368547760, 100, []int{}},
		{"max int page", math.MaxInt, 100, []int{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.Paginate(items, domain.NewPaginationParams(&tc.page, &tc.limit))

			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPaginate_EmptyListing(t *testing.T) {
	got := domain.Paginate([]string{}, domain.PaginationParams{Page: 1, Limit: 10})

	assert.NotNil(t, got)
	assert.Empty(t, got)
}
