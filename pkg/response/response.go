package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
)

// The admin front-end consumes a flat envelope: every success payload carries
// "success": true plus the records under a resource-specific key, and every
// failure carries "success": false plus a verbatim "error" string.

// Envelope documents the failure half of the contract for swagger; success
// payloads carry their records under a resource-specific key.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// List sends a collection under its resource key.
func List(c *gin.Context, key string, items interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"success": true, key: items})
}

// OK sends a success envelope with optional extra fields.
func OK(c *gin.Context, fields gin.H) {
	payload := gin.H{"success": true}
	for k, v := range fields {
		payload[k] = v
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, payload)
}

// Created sends a 201 envelope with the new record under its resource key.
func Created(c *gin.Context, key string, record interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusCreated, gin.H{"success": true, key: record})
}

// Error converts any error into the failure envelope using its mapped status.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, gin.H{"success": false, "error": appErr.Message})
}
