package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/amarkiccha/lead/pkg/logger"
	"github.com/amarkiccha/lead/service"
	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	directory *service.Directory
	store     service.ObjectStore
	now       func() time.Time
}

// NewExportHandler builds the export handler. store may be nil, in which
// case workbooks are streamed back in the response.
func NewExportHandler(directory *service.Directory, store service.ObjectStore) *ExportHandler {
	return &ExportHandler{directory: directory, store: store, now: time.Now}
}

// Export writes the filtered directory as an xlsx workbook
func (h *ExportHandler) Export(c *gin.Context) {
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	leads, err := h.directory.Refresh(c.Request.Context())
	if err != nil {
		respondListError(c, err)
		return
	}
	leads = service.ApplyFilters(leads, criteria)

	data, err := service.BuildXLSX(leads)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build export"})
		return
	}

	objectName := service.ExportObjectName(h.now())
	if h.store == nil {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, path.Base(objectName)))
		c.Data(http.StatusOK, service.XLSXContentType, data)
		return
	}

	ctx := c.Request.Context()
	if err := h.store.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), service.XLSXContentType); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store export"})
		return
	}

	url, err := h.store.PresignedURL(ctx, objectName)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate download link"})
		return
	}

	logger.Info(ctx, "export stored", "object", objectName, "leads", len(leads))
	c.JSON(http.StatusOK, gin.H{
		"url":    url,
		"object": objectName,
		"count":  len(leads),
	})
}
