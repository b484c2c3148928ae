package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/paperdeck-backend/internal/deck"
	"github.com/yungbote/paperdeck-backend/internal/platform/apierr"
)

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps service errors onto wire responses. Typed deck errors
// are client mistakes; everything unrecognized is a 500.
func respondError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Err.Error(), "code": apiErr.Code})
		return
	}

	var tmplErr *deck.TemplateNotFoundError
	var badTmplErr *deck.TemplateParseError
	var schemaErr *deck.SchemaValidationError
	var parseErr *deck.AssignmentParseError
	var structErr *deck.AssignmentStructureError
	switch {
	case errors.As(err, &tmplErr),
		errors.As(err, &badTmplErr),
		errors.As(err, &schemaErr),
		errors.As(err, &parseErr),
		errors.As(err, &structErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
