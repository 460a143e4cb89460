// Package mock provides canned receipt extractors for demos and tests.
package mock

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/frahmantamala/expense-tracker/internal/category"
	categoryDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/category"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
	"github.com/frahmantamala/expense-tracker/internal/receipt"
	"github.com/frahmantamala/expense-tracker/internal/storage"
)

var (
	UploadVendors = []string{"Starbucks", "Shell Gas Station", "Whole Foods", "Target", "McDonald's"}
	UploadAmounts = []string{"4.85", "32.50", "67.23", "24.99", "8.75"}

	ProcessVendors = []string{"Fresh Market", "Coffee Shop", "Gas Station", "Local Store", "Restaurant"}
	ProcessAmounts = []string{"12.50", "25.99", "45.67", "8.99", "33.45"}
)

// UploadExtractor answers with a random vendor and amount, always in category 1.
type UploadExtractor struct {
	Now  func() time.Time
	IntN func(n int) int
}

func NewUploadExtractor() *UploadExtractor {
	return &UploadExtractor{Now: time.Now, IntN: rand.IntN}
}

func (u *UploadExtractor) Extract(ctx context.Context, img receipt.ReceiptImage) (*receipt.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &receipt.Extraction{
		Vendor:     UploadVendors[u.IntN(len(UploadVendors))],
		Amount:     money.MustParse(UploadAmounts[u.IntN(len(UploadAmounts))]).Figure(),
		Date:       receipt.Today(u.Now()),
		CategoryID: receipt.FallbackCategoryID,
	}, nil
}

// HeuristicExtractor guesses the category from the hour of the scan:
// meal times map to food, mornings to transport.
type HeuristicExtractor struct {
	Categories storage.CategoryRepository
	Now        func() time.Time
	IntN       func(n int) int
}

func NewHeuristicExtractor(categories storage.CategoryRepository) *HeuristicExtractor {
	return &HeuristicExtractor{Categories: categories, Now: time.Now, IntN: rand.IntN}
}

func (h *HeuristicExtractor) Extract(ctx context.Context, img receipt.ReceiptImage) (*receipt.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	categories, err := h.Categories.GetCategories()
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	now := h.Now()
	return &receipt.Extraction{
		Vendor:     ProcessVendors[h.IntN(len(ProcessVendors))],
		Amount:     money.MustParse(ProcessAmounts[h.IntN(len(ProcessAmounts))]).Figure(),
		Date:       receipt.Today(now),
		CategoryID: GuessCategory(categories, now.Hour()),
	}, nil
}

// GuessCategory maps an hour of day to a category id, falling back to the
// first category, then to 1.
func GuessCategory(categories []*categoryDatamodel.Category, hour int) int64 {
	var guess int64 = receipt.FallbackCategoryID
	if len(categories) > 0 {
		guess = categories[0].ID
	}

	var fragment string
	switch {
	case hour >= 11 && hour <= 14, hour >= 17 && hour <= 21:
		fragment = "food"
	case hour >= 6 && hour <= 10:
		fragment = "transport"
	default:
		return guess
	}

	if c := category.FindByNameFragment(categories, fragment); c != nil {
		return c.ID
	}
	return guess
}
