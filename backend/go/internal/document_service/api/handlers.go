package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"Paggo/backend/go/internal/conversation"
	"Paggo/backend/go/internal/document_service/service"
	"Paggo/backend/go/internal/models"
	"Paggo/backend/go/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/glob"
	"github.com/google/uuid"
)

// UploadPolicy controls where uploads land and which ones are accepted
// before any processing happens.
type UploadPolicy struct {
	Dir      string
	MaxBytes int64
	Allowed  []string // extensions without the dot
}

// Handler wraps the document service for gin.
type Handler struct {
	service  *service.Service
	upload   UploadPolicy
	filename glob.Glob
}

// NewHandler compiles the upload filename filter and makes sure the upload
// directory exists.
func NewHandler(s *service.Service, policy UploadPolicy) (*Handler, error) {
	pattern := "*.{" + strings.Join(policy.Allowed, ",") + "}"
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile upload filter %q: %w", pattern, err)
	}
	if err := os.MkdirAll(policy.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Handler{service: s, upload: policy, filename: g}, nil
}

// --- Auth ---

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.service.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user_id": user.ID})
}

// Login exchanges credentials for a token.
func (h *Handler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// --- Documents ---

// Upload stores the multipart "file" field and runs extraction on it.
func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	if !h.filename.Match(strings.ToLower(fh.Filename)) {
		h.fail(c, service.ErrUnsupportedType)
		return
	}
	if h.upload.MaxBytes > 0 && fh.Size > h.upload.MaxBytes {
		h.fail(c, service.ErrFileTooLarge)
		return
	}

	dst := filepath.Join(h.upload.Dir, "file-"+uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		h.fail(c, fmt.Errorf("save upload: %w", err))
		return
	}

	res, err := h.service.Upload(c.Request.Context(), c.GetString(ctxUserID), service.UploadedFile{
		Path:         dst,
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		Size:         fh.Size,
	}, c.Query("lang"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Chat answers a question about a document.
func (h *Handler) Chat(c *gin.Context) {
	var req struct {
		Question string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	answer, err := h.service.Chat(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"), req.Question)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// History lists the user's uploads, newest first.
func (h *Handler) History(c *gin.Context) {
	rows, err := h.service.History(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	if rows == nil {
		rows = []models.DocumentSummary{}
	}
	c.JSON(http.StatusOK, rows)
}

// List returns the user's documents with their interactions.
func (h *Handler) List(c *gin.Context) {
	docs, err := h.service.List(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	c.JSON(http.StatusOK, docs)
}

// Get returns one document.
func (h *Handler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Download streams the generated report. A report that needed the ASCII
// fallback carries the number of affected blocks in X-Report-Degraded.
func (h *Handler) Download(c *gin.Context) {
	dl, err := h.service.Download(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if dl.DegradedBlocks > 0 {
		c.Header("X-Report-Degraded", strconv.Itoa(dl.DegradedBlocks))
		requestLogger(c).WithPayload(map[string]interface{}{
			"document_id":     c.Param("id"),
			"degraded_blocks": dl.DegradedBlocks,
		}).Warn("report degraded")
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.FileName))
	c.Data(http.StatusOK, "application/pdf", dl.Data)
}

// Delete removes a document and everything attached to it.
func (h *Handler) Delete(c *gin.Context) {
	msg, err := h.service.Delete(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// fail maps service errors onto HTTP responses and logs them.
func (h *Handler) fail(c *gin.Context, err error) {
	status, msg, kind := classifyError(err)
	requestLogger(c).WithError(models.ErrorInfo{
		Message:    err.Error(),
		Type:       kind,
		StatusCode: status,
	}).Warn("request error")
	c.JSON(status, gin.H{"error": msg})
}

func classifyError(err error) (status int, msg, kind string) {
	var (
		extractErr *service.ExtractionError
		reportErr  *report.ReportGenerationError
	)
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Document not found", "not_found"
	case errors.Is(err, service.ErrOriginalMissing):
		return http.StatusNotFound, "Original file not found", "original_missing"
	case errors.Is(err, service.ErrUnsupportedType):
		return http.StatusBadRequest, "Only image or PDF files are allowed!", "unsupported_type"
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "File is too large", "file_too_large"
	case errors.As(err, &extractErr):
		return http.StatusBadRequest, "Text extraction failed: " + extractErr.Err.Error(), "extraction_error"
	case errors.Is(err, conversation.ErrEmptyQuestion):
		return http.StatusBadRequest, "Question is required", "empty_question"
	case errors.As(err, &reportErr):
		return http.StatusBadRequest, "Failed to generate document", "report_error"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "Email already registered", "email_taken"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials", "invalid_credentials"
	}
	return http.StatusInternalServerError, "Internal server error", "internal"
}
