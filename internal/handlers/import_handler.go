package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/oktoeat/api/internal/errors"
	"github.com/oktoeat/api/internal/middleware"
	"github.com/oktoeat/api/internal/services"
)

// ImportSecretHeader carries the shared secret that gates manual imports.
const ImportSecretHeader = "X-Import-Secret"

// ImportHandler handles the manual import trigger and status endpoints.
type ImportHandler struct {
	service services.ImportService
	secret  string
}

// NewImportHandler creates a new ImportHandler instance. An empty secret
// disables the trigger entirely: every request is rejected before any import
// work begins.
func NewImportHandler(service services.ImportService, secret string) *ImportHandler {
	return &ImportHandler{
		service: service,
		secret:  secret,
	}
}

// TriggerRequest represents the query parameters for the trigger endpoint.
// Source optionally redirects one run at a different feed copy, e.g. a
// smaller staging file.
type TriggerRequest struct {
	Source string `form:"source" binding:"omitempty,url"`
}

// Trigger handles POST /api/v1/import.
// The shared secret is checked before any import work; the run itself is
// synchronous and the structured outcome is returned as the response body.
func (h *ImportHandler) Trigger(c *gin.Context) {
	if !h.authorized(c) {
		apierrors.Unauthorized(c, "Invalid or missing import secret")
		return
	}

	var req TriggerRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Manual import triggered", map[string]interface{}{
			"source_override": req.Source,
		})
	}

	result, err := h.service.RunImport(c.Request.Context(), req.Source)
	if err != nil {
		if errors.Is(err, services.ErrImportInProgress) {
			apierrors.Conflict(c, "An import is already in progress")
			return
		}
		apierrors.InternalServerError(c, "Failed to run import", err)
		return
	}

	// A failed pass is still a well-formed outcome: the caller reads the
	// success flag rather than the HTTP status.
	c.JSON(http.StatusOK, result)
}

// Status handles GET /api/v1/import/status.
// It reports the last completed import's metadata.
func (h *ImportHandler) Status(c *gin.Context) {
	meta, err := h.service.Status(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoImportYet) {
			apierrors.NotFound(c, "No import has completed yet")
			return
		}
		apierrors.InternalServerError(c, "Failed to read import status", err)
		return
	}

	c.JSON(http.StatusOK, meta)
}

// authorized compares the request's secret header against the configured
// value in constant time.
func (h *ImportHandler) authorized(c *gin.Context) bool {
	if h.secret == "" {
		return false
	}
	provided := c.GetHeader(ImportSecretHeader)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) == 1
}
