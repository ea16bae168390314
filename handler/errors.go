package handler

import (
	"errors"
	"net/http"

	"github.com/amarkiccha/lead/service"
	"github.com/gin-gonic/gin"
)

const (
	msgListRetry   = "Could not load leads. Please try again."
	msgAppendRetry = "Could not confirm the lead was saved. Check the list before submitting again."
)

// respondListError reports a failed read of the sheet.
func respondListError(c *gin.Context, err error) {
	_ = c.Error(err)

	var remoteErr *service.RemoteError
	if !errors.As(err, &remoteErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if remoteErr.Retryable() {
		c.JSON(http.StatusBadGateway, gin.H{"error": msgListRetry, "retryable": true})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": remoteErr.Message, "retryable": false})
}

// respondAppendError reports a failed append. The write may or may not have
// reached the sheet, so the response never claims it did not.
func respondAppendError(c *gin.Context, err error) {
	_ = c.Error(err)

	var remoteErr *service.RemoteError
	switch {
	case !errors.As(err, &remoteErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "outcome": "unknown"})
	case remoteErr.Kind == service.KindRemote:
		c.JSON(http.StatusBadGateway, gin.H{"error": remoteErr.Message, "retryable": false, "outcome": "unknown"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": msgAppendRetry, "retryable": true, "outcome": "unknown"})
	}
}
