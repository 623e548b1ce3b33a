package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BpsEason/investment-risk-platform/internal/core"
	"github.com/BpsEason/investment-risk-platform/internal/model"
	"github.com/BpsEason/investment-risk-platform/internal/service"
	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for multipart boundaries and headers on top
// of the file size limit
const multipartOverhead = 1 << 20

// Root handles GET / requests
func (h *APIHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": WelcomeMessage})
}

// HealthCheck handles GET /health requests
func (h *APIHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   ServiceVersion,
	})
}

// CalculateRisk handles POST /calculate-risk requests
func (h *APIHandler) CalculateRisk(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	var req model.RiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, err, http.StatusBadRequest, h.validator.bindingErrorMessage(err))
		return
	}

	metric, err := h.validator.ValidateRiskRequest(req)
	if err != nil {
		h.handleValidationError(c, err)
		return
	}
	req.Metric = metric.String()

	result, err := h.riskService.Calculate(ctx, req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) || errors.Is(err, core.ErrUnsupportedMetric) {
			h.handleValidationError(c, err)
			return
		}
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ImportData handles POST /etl/import-data requests
func (h *APIHandler) ImportData(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	limit := h.importService.MaxUploadBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	header, err := c.FormFile(UploadFormField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.handleError(c, err, http.StatusRequestEntityTooLarge, service.ErrUploadTooLarge.Error())
			return
		}
		h.handleError(c, err, http.StatusBadRequest, "a file must be uploaded in the '"+UploadFormField+"' form field")
		return
	}

	filename, err := h.validator.ValidateUploadFilename(header.Filename)
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer file.Close()

	summary, err := h.importService.Import(ctx, filename, file)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUploadTooLarge):
		h.handleError(c, err, http.StatusRequestEntityTooLarge, service.ErrUploadTooLarge.Error())
		return
	case service.IsImportClientError(err):
		h.handleValidationError(c, err)
		return
	default:
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// handleError logs the error and sends appropriate HTTP response
func (h *APIHandler) handleError(c *gin.Context, err error, statusCode int, userMessage string) {
	requestID, exists := c.Get(RequestIDContextKey)
	requestIDStr := "unknown"
	if exists {
		if id, ok := requestID.(string); ok {
			requestIDStr = id
		}
	}

	level := slog.LevelError
	if statusCode < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.logger.Log(c.Request.Context(), level, "API error",
		slog.String("request_id", requestIDStr),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
		slog.Int("status_code", statusCode),
	)

	c.JSON(statusCode, gin.H{
		"error":      userMessage,
		"request_id": requestIDStr,
	})
}

// handleValidationError handles validation errors specifically
func (h *APIHandler) handleValidationError(c *gin.Context, err error) {
	h.handleError(c, err, http.StatusBadRequest, err.Error())
}
