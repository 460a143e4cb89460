package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	ocrlogDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/ocrlog"
	"github.com/frahmantamala/expense-tracker/internal/storage"
)

// Flavour selects the extractor and the shape of the audit record.
type Flavour string

const (
	FlavourUpload  Flavour = "upload"
	FlavourProcess Flavour = "process"
)

var errExtractorPanic = errors.New("extractor panicked")

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithTimeout bounds a single extraction. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

type Service struct {
	logs       storage.OCRLogRepository
	extractors map[Flavour]ReceiptExtractor
	logger     *slog.Logger
	timeout    time.Duration
	now        func() time.Time
}

func NewService(logs storage.OCRLogRepository, upload, process ReceiptExtractor, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		logs: logs,
		extractors: map[Flavour]ReceiptExtractor{
			FlavourUpload:  upload,
			FlavourProcess: process,
		},
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs the flavour's extractor and records the attempt. It never fails:
// extractor errors, panics and timeouts all yield the fallback extraction.
func (s *Service) Scan(ctx context.Context, flavour Flavour, userID int64, img ReceiptImage) Extraction {
	attemptID := uuid.NewString()
	lg := s.logger.With("attempt_id", attemptID, "user_id", userID, "flavour", string(flavour))

	extraction, err := s.extract(ctx, flavour, img)
	if err != nil {
		lg.Warn("receipt extraction failed, returning fallback", "error", err)
		s.record(lg, userID, ocrlogDatamodel.StatusFail, map[string]interface{}{
			"attempt_id": attemptID,
			"error":      err.Error(),
		})
		return Fallback(s.now())
	}

	raw := map[string]interface{}{"attempt_id": attemptID}
	if flavour == FlavourProcess {
		raw["processed"] = true
		raw["timestamp"] = s.now().UTC()
	} else {
		raw["imageReceived"] = true
		raw["processed"] = s.now().UTC()
	}
	s.record(lg, userID, ocrlogDatamodel.StatusSuccess, raw)

	lg.Info("receipt scanned", "vendor", extraction.Vendor, "category_id", extraction.CategoryID, "bytes", len(img.Data))
	return *extraction
}

// Reject records a scan that was refused before extraction, such as a
// request without an image.
func (s *Service) Reject(ctx context.Context, userID int64, reason error) {
	lg := s.logger.With("user_id", userID)
	s.record(lg, userID, ocrlogDatamodel.StatusFail, map[string]interface{}{
		"attempt_id": uuid.NewString(),
		"error":      reason.Error(),
	})
}

func (s *Service) extract(ctx context.Context, flavour Flavour, img ReceiptImage) (ext *Extraction, err error) {
	extractor, ok := s.extractors[flavour]
	if !ok || extractor == nil {
		return nil, fmt.Errorf("no extractor for %q", flavour)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type result struct {
		ext *Extraction
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: %v", errExtractorPanic, r)}
			}
		}()
		ext, err := extractor.Extract(ctx, img)
		if err == nil && ext == nil {
			err = errors.New("extractor returned no result")
		}
		done <- result{ext: ext, err: err}
	}()

	select {
	case res := <-done:
		return res.ext, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) record(lg *slog.Logger, userID int64, status string, raw map[string]interface{}) {
	var rawJSON *string
	if b, err := json.Marshal(raw); err == nil {
		encoded := string(b)
		rawJSON = &encoded
	}

	if _, err := s.logs.CreateOCRLog(&ocrlogDatamodel.OCRLog{
		UserID:  userID,
		Status:  status,
		RawJSON: rawJSON,
	}); err != nil {
		lg.Error("failed to write OCR log", "error", err, "status", status)
	}
}
