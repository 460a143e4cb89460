package receipt_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-tracker/internal"
	ocrlogDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/ocrlog"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
	"github.com/frahmantamala/expense-tracker/internal/receipt"
	"github.com/frahmantamala/expense-tracker/internal/storage/memory"
)

func TestReceipt(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Receipt Suite")
}

type stubExtractor struct {
	result *receipt.Extraction
	err    error
	panics bool
	delay  time.Duration
}

func (s stubExtractor) Extract(ctx context.Context, _ receipt.ReceiptImage) (*receipt.Extraction, error) {
	if s.panics {
		panic("decoder exploded")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.result, s.err
}

var fixedNow = time.Date(2025, 1, 10, 23, 30, 0, 0, time.UTC)

var okExtraction = &receipt.Extraction{
	Vendor:     "Starbucks",
	Amount:     money.MustParse("4.85").Figure(),
	Date:       "2025-01-10",
	CategoryID: 1,
}

var _ = Describe("DecodeImage", func() {
	It("unwraps data URLs", func() {
		payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
		img := receipt.DecodeImage(payload)
		Expect(img.ContentType).To(Equal("image/png"))
		Expect(string(img.Data)).To(Equal("png-bytes"))
	})

	It("keeps non-base64 payloads as sent", func() {
		img := receipt.DecodeImage("not base64!")
		Expect(string(img.Data)).To(Equal("not base64!"))
	})
})

var _ = Describe("Service", func() {
	var (
		ctx    context.Context
		store  *memory.Store
		logger *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewStore()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	newService := func(upload receipt.ReceiptExtractor, opts ...receipt.Option) *receipt.Service {
		opts = append([]receipt.Option{receipt.WithClock(func() time.Time { return fixedNow })}, opts...)
		return receipt.NewService(store, upload, stubExtractor{result: okExtraction}, logger, opts...)
	}

	It("returns the extraction and logs a success", func() {
		svc := newService(stubExtractor{result: okExtraction})
		got := svc.Scan(ctx, receipt.FlavourUpload, 4, receipt.ReceiptImage{Data: []byte("x")})
		Expect(got.Vendor).To(Equal("Starbucks"))

		logs, err := store.GetOCRLogsByUserID(4)
		Expect(err).NotTo(HaveOccurred())
		Expect(logs).To(HaveLen(1))
		Expect(logs[0].Status).To(Equal(ocrlogDatamodel.StatusSuccess))

		var raw map[string]interface{}
		Expect(json.Unmarshal([]byte(*logs[0].RawJSON), &raw)).To(Succeed())
		Expect(raw).To(HaveKeyWithValue("imageReceived", true))
		Expect(raw).To(HaveKey("attempt_id"))
		Expect(raw).To(HaveKey("processed"))
	})

	It("uses the processed/timestamp shape for the process flavour", func() {
		svc := newService(nil)
		svc.Scan(ctx, receipt.FlavourProcess, 4, receipt.ReceiptImage{Data: []byte("x")})

		logs, _ := store.GetOCRLogsByUserID(4)
		var raw map[string]interface{}
		Expect(json.Unmarshal([]byte(*logs[0].RawJSON), &raw)).To(Succeed())
		Expect(raw).To(HaveKeyWithValue("processed", true))
		Expect(raw).To(HaveKey("timestamp"))
	})

	DescribeTable("falls back and logs a failure",
		func(extractor receipt.ReceiptExtractor, timeout time.Duration) {
			svc := newService(extractor, receipt.WithTimeout(timeout))
			got := svc.Scan(ctx, receipt.FlavourUpload, 4, receipt.ReceiptImage{Data: []byte("x")})

			Expect(got).To(Equal(receipt.Fallback(fixedNow)))
			Expect(got.Vendor).To(Equal("Manual Entry Required"))
			Expect(got.Date).To(Equal("2025-01-10"))
			Expect(got.Amount.IsZero()).To(BeTrue())

			logs, _ := store.GetOCRLogsByUserID(4)
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].Status).To(Equal(ocrlogDatamodel.StatusFail))
		},
		Entry("extractor error", stubExtractor{err: errors.New("blurry")}, time.Duration(0)),
		Entry("extractor panic", stubExtractor{panics: true}, time.Duration(0)),
		Entry("nil result", stubExtractor{}, time.Duration(0)),
		Entry("timeout", stubExtractor{result: okExtraction, delay: time.Second}, 10*time.Millisecond),
	)

	It("falls back when the flavour has no extractor", func() {
		svc := newService(nil)
		got := svc.Scan(ctx, receipt.FlavourUpload, 4, receipt.ReceiptImage{Data: []byte("x")})
		Expect(got.Vendor).To(Equal(receipt.FallbackVendor))
	})

	It("records rejected requests", func() {
		svc := newService(nil)
		svc.Reject(ctx, 9, errors.New("no image in request"))
		logs, _ := store.GetOCRLogsByUserID(9)
		Expect(logs).To(HaveLen(1))
		Expect(*logs[0].RawJSON).To(ContainSubstring("no image in request"))
	})
})

var _ = Describe("Handler", func() {
	var (
		store   *memory.Store
		handler *receipt.Handler
		logger  *slog.Logger
	)

	BeforeEach(func() {
		store = memory.NewStore()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc := receipt.NewService(store, stubExtractor{result: okExtraction}, stubExtractor{panics: true}, logger)
		handler = receipt.NewHandler(svc, 1<<20, logger)
	})

	postJSON := func(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h(w, req)
		return w
	}

	It("accepts a JSON upload with a string user id", func() {
		w := postJSON(handler.Upload, `{"image":"aGVsbG8=","userId":"3"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		var body map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body["vendor"]).To(Equal("Starbucks"))
		Expect(body["amount"]).To(BeNumerically("==", 4.85))
		Expect(body["category_id"]).To(BeNumerically("==", 1))
		Expect(body["date"]).To(MatchRegexp(`^\d{4}-\d{2}-\d{2}$`))
	})

	It("accepts a multipart upload", func() {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		Expect(mw.WriteField("userId", "3")).To(Succeed())
		part, err := mw.CreateFormFile("image", "receipt.jpg")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte("jpeg-bytes"))
		Expect(err).NotTo(HaveOccurred())
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/api/receipt/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		handler.Upload(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		logs, _ := store.GetOCRLogsByUserID(3)
		Expect(logs).To(HaveLen(1))
	})

	It("answers 400 without an image and still logs the failure", func() {
		w := postJSON(handler.Upload, `{"userId":3}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("Image and user ID required"))

		logs, _ := store.GetOCRLogsByUserID(3)
		Expect(logs).To(HaveLen(1))
		Expect(logs[0].Status).To(Equal(ocrlogDatamodel.StatusFail))
	})

	It("answers 400 without a user id", func() {
		w := postJSON(handler.Process, `{"imageData":"aGVsbG8="}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("Image data and user ID required"))
	})

	It("uses the token holder when no user id is sent", func() {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"image":"aGVsbG8="}`))
		req = req.WithContext(internal.ContextWithUserID(req.Context(), 12))
		w := httptest.NewRecorder()
		handler.Upload(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("never surfaces an extractor crash on process", func() {
		w := postJSON(handler.Process, `{"imageData":"aGVsbG8=","userId":5}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		var body map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body["vendor"]).To(Equal("Manual Entry Required"))
		Expect(body["amount"]).To(BeNumerically("==", 0))
		Expect(body["category_id"]).To(BeNumerically("==", 1))
	})

	It("answers 413 when the body exceeds the upload limit", func() {
		small := receipt.NewHandler(receipt.NewService(store, stubExtractor{result: okExtraction}, nil, logger), 64, logger)
		w := postJSON(small.Upload, `{"userId":3,"image":"`+strings.Repeat("A", 256)+`"}`)
		Expect(w.Code).To(Equal(http.StatusRequestEntityTooLarge))
		Expect(w.Body.String()).To(ContainSubstring("BODY_TOO_LARGE"))

		logs, _ := store.GetOCRLogsByUserID(3)
		Expect(logs).To(BeEmpty())
	})
})
