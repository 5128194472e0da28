package controllers

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/uniadmit/admission/internal/app/services"
	"github.com/uniadmit/admission/internal/middleware"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
)

// idParam parses a positive path ID, rendering 400 when it is not one.
func idParam(ctx *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError(fmt.Sprintf("Invalid %s ID", label)))
		return 0, false
	}
	return id, true
}

// Document delivery modes selected by ?action=.
const (
	actionView     = "view"
	actionDownload = "download"
	actionBase64   = "base64"
)

// writeDocument renders doc as inline base64 JSON or as raw bytes. fallback
// applies when the request names no action.
func writeDocument(ctx *gin.Context, doc *services.StoredDocument, fallback string) {
	action := ctx.DefaultQuery("action", fallback)
	switch action {
	case actionBase64:
		ctx.JSON(http.StatusOK, doc.Base64())
	case actionView, actionDownload:
		disposition := "inline"
		if action == actionDownload {
			disposition = "attachment"
		}
		ctx.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": doc.Filename}))
		ctx.Data(http.StatusOK, doc.ContentType, doc.Data)
	default:
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Invalid action. Must be view, download, or base64"))
	}
}
