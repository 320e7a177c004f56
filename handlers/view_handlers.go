// api/handlers/view_handlers.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"viewcounter/api/metrics"
	"viewcounter/api/utils"
)

const (
	msgMissingID     = `Error: URL is missing "id" in the query string.`
	msgInvalidID     = `Error: Value for "id" query param is invalid.`
	msgMissingPeriod = `Error: URL is missing "period" in the query string.`
	msgInvalidPeriod = `Error: Value for "period" query param is invalid.`
	msgInvalidUnit   = `Error: Value for "unit" query param is invalid.`
	msgTooLarge      = `Error: "length" is too large.`
	msgNotFound      = "Page not found."
)

// ViewService is what the handlers need from services.ViewService.
type ViewService interface {
	CountViews(ctx context.Context, id string, period utils.Period) int64
	RecordView(id string, r *http.Request)
}

type ViewHandlers struct {
	Views   ViewService
	Metrics metrics.Sink

	// ErrorStatus is the status code of validation error responses.
	ErrorStatus int
	// StrictIDs rejects ids containing any character outside [a-z0-9.-].
	// When false the first run of allowed characters is used.
	StrictIDs bool
	SelfTrack bool
}

// identifier reads and validates the "id" query param. On failure it writes
// the error response and returns false.
func (h *ViewHandlers) identifier(c *gin.Context) (string, bool) {
	raw := c.Query("id")

	if !h.StrictIDs {
		id := utils.ExtractIdentifier(raw)
		if id == "" {
			h.fail(c, msgMissingID)
			return "", false
		}
		return id, true
	}

	if raw == "" {
		h.fail(c, msgMissingID)
		return "", false
	}
	if !utils.IsValidIdentifier(raw) {
		h.fail(c, msgInvalidID)
		return "", false
	}
	return raw, true
}

func (h *ViewHandlers) fail(c *gin.Context, msg string) {
	status := h.ErrorStatus
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.String(status, msg)
}

// GetViews answers /views?id=<id>&period=<period> with a JSON integer.
func (h *ViewHandlers) GetViews(c *gin.Context) {
	id, ok := h.identifier(c)
	if !ok {
		return
	}

	raw := c.Query("period")
	if raw == "" {
		h.fail(c, msgMissingPeriod)
		return
	}

	period, err := utils.ParsePeriod(raw)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidUnit):
			h.fail(c, msgInvalidUnit)
		case errors.Is(err, utils.ErrPeriodTooLarge):
			h.fail(c, msgTooLarge)
		default:
			h.fail(c, msgInvalidPeriod)
		}
		return
	}

	c.JSON(http.StatusOK, h.Views.CountViews(c.Request.Context(), id, period))
}

// Pixel records a view and serves the transparent GIF. The response never
// depends on the ingest outcome.
func (h *ViewHandlers) Pixel(c *gin.Context) {
	id, ok := h.identifier(c)
	if !ok {
		return
	}

	h.Views.RecordView(id, c.Request)
	h.Metrics.PixelServed()

	c.Header("Cache-Control", "no-store, max-age=0")
	c.Data(http.StatusOK, "image/gif", transparentPixel)
}

func (h *ViewHandlers) Favicon(c *gin.Context) {
	c.Data(http.StatusOK, "image/gif", transparentPixel)
}

func (h *ViewHandlers) NotFound(c *gin.Context) {
	c.String(http.StatusNotFound, msgNotFound)
}
