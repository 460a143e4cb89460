// Package receipt turns receipt images into suggested expense fields and
// keeps an audit log of every scan attempt.
package receipt

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/frahmantamala/expense-tracker/internal/core/money"
)

const (
	FallbackVendor     = "Manual Entry Required"
	FallbackCategoryID = 1
)

// ReceiptImage is an uploaded receipt. Data holds the decoded bytes when the
// payload was base64, otherwise the raw payload.
type ReceiptImage struct {
	Data        []byte
	ContentType string
	Filename    string
}

func (img ReceiptImage) Empty() bool {
	return len(img.Data) == 0
}

// Extraction is what a scan suggests for a new expense.
type Extraction struct {
	Vendor     string       `json:"vendor"`
	Amount     money.Figure `json:"amount"`
	Date       string       `json:"date"`
	CategoryID int64        `json:"category_id"`
}

// ReceiptExtractor reads expense fields out of a receipt image.
type ReceiptExtractor interface {
	Extract(ctx context.Context, img ReceiptImage) (*Extraction, error)
}

// Fallback is returned whenever extraction fails, so callers always get
// something to prefill.
func Fallback(now time.Time) Extraction {
	return Extraction{
		Vendor:     FallbackVendor,
		Amount:     money.Zero().Figure(),
		Date:       Today(now),
		CategoryID: FallbackCategoryID,
	}
}

// Today is the UTC calendar date of now.
func Today(now time.Time) string {
	return now.UTC().Format(time.DateOnly)
}

// DecodeImage accepts a data URL, plain base64 or anything else. Payloads
// that are not base64 are kept as sent.
func DecodeImage(payload string) ReceiptImage {
	payload = strings.TrimSpace(payload)
	img := ReceiptImage{}
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		if meta, data, found := strings.Cut(rest, ","); found {
			img.ContentType = strings.TrimSuffix(meta, ";base64")
			payload = data
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(payload); err == nil && len(decoded) > 0 {
		img.Data = decoded
		return img
	}
	img.Data = []byte(payload)
	return img
}
