package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

const defaultMaxUploadBytes = 10 << 20

var (
	ErrUploadIncomplete  = internal.ErrImageRequired
	ErrProcessIncomplete = internal.NewValidationError("Image data and user ID required", internal.ErrCodeImageRequired)
)

type ServiceAPI interface {
	Scan(ctx context.Context, flavour Flavour, userID int64, img ReceiptImage) Extraction
	Reject(ctx context.Context, userID int64, reason error)
}

// UserRef is a user id sent either as a JSON number or a string.
type UserRef string

func (u *UserRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*u = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = UserRef(s)
		return nil
	}
	*u = UserRef(b)
	return nil
}

type uploadRequest struct {
	Image  string  `json:"image"`
	UserID UserRef `json:"userId"`
}

type processRequest struct {
	ImageData string  `json:"imageData"`
	UserID    UserRef `json:"userId"`
}

type Handler struct {
	*transport.BaseHandler
	Service        ServiceAPI
	MaxUploadBytes int64
}

func NewHandler(service ServiceAPI, maxUploadBytes int64, lg *slog.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{
		BaseHandler:    transport.NewBaseHandler(lg),
		Service:        service,
		MaxUploadBytes: maxUploadBytes,
	}
}

// Upload handles POST /api/receipt/upload with either a JSON body or a
// multipart form carrying an "image" file.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)

	var (
		img    ReceiptImage
		rawUID string
	)
	if isMultipart(r) {
		var err error
		img, rawUID, err = h.readMultipart(r)
		if err != nil {
			h.Logger.Warn("Upload: invalid multipart body", "error", err)
			h.WriteAppError(w, bodyError(err, ErrUploadIncomplete))
			return
		}
	} else {
		var req uploadRequest
		if err := h.DecodeJSON(r, &req); err != nil && !transport.IsEmptyBody(err) {
			h.Logger.Warn("Upload: invalid request body", "error", err)
			h.WriteAppError(w, bodyError(err, ErrUploadIncomplete))
			return
		}
		if strings.TrimSpace(req.Image) != "" {
			img = DecodeImage(req.Image)
		}
		rawUID = string(req.UserID)
	}

	h.scan(w, r, FlavourUpload, img, rawUID, ErrUploadIncomplete)
}

// Process handles POST /api/ocr/process
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)

	var req processRequest
	if err := h.DecodeJSON(r, &req); err != nil && !transport.IsEmptyBody(err) {
		h.Logger.Warn("Process: invalid request body", "error", err)
		h.WriteAppError(w, bodyError(err, ErrProcessIncomplete))
		return
	}

	var img ReceiptImage
	if strings.TrimSpace(req.ImageData) != "" {
		img = DecodeImage(req.ImageData)
	}
	h.scan(w, r, FlavourProcess, img, string(req.UserID), ErrProcessIncomplete)
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request, flavour Flavour, img ReceiptImage, rawUID string, incomplete *internal.AppError) {
	userID, ok := resolveUser(r, rawUID)
	if !ok {
		h.WriteAppError(w, incomplete)
		return
	}
	if img.Empty() {
		h.Service.Reject(r.Context(), userID, errors.New("no image in request"))
		h.WriteAppError(w, incomplete)
		return
	}

	h.WriteJSON(w, http.StatusOK, h.Service.Scan(r.Context(), flavour, userID, img))
}

func (h *Handler) readMultipart(r *http.Request) (ReceiptImage, string, error) {
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		return ReceiptImage{}, "", err
	}
	rawUID := r.FormValue("userId")

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		// a form may still carry the image as a base64 field
		if encoded := r.FormValue("image"); encoded != "" {
			return DecodeImage(encoded), rawUID, nil
		}
		return ReceiptImage{}, rawUID, nil
	}
	if err != nil {
		return ReceiptImage{}, rawUID, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return ReceiptImage{}, rawUID, err
	}
	return ReceiptImage{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	}, rawUID, nil
}

// bodyError reports an oversize body as such and anything else as fallback.
func bodyError(err error, fallback *internal.AppError) *internal.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return internal.ErrBodyTooLarge
	}
	return fallback
}

// resolveUser prefers the explicit userId and falls back to the token holder.
func resolveUser(r *http.Request, rawUID string) (int64, bool) {
	if strings.TrimSpace(rawUID) != "" {
		userID, err := transport.ParseUserID(rawUID)
		return userID, err == nil
	}
	return internal.UserIDFromContext(r.Context())
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
