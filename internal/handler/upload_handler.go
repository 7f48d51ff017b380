package handler

import (
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-tatib-api/internal/service"
	appErrors "github.com/noah-isme/sma-tatib-api/pkg/errors"
	"github.com/noah-isme/sma-tatib-api/pkg/response"
)

// UploadHandler exposes evidence file upload endpoints.
type UploadHandler struct {
	uploads *service.UploadService
}

// NewUploadHandler constructs UploadHandler.
func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload godoc
// @Summary Upload an evidence file
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Evidence file"
// @Success 201 {object} response.Envelope
// @Router /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file wajib disertakan"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	contentType := fileHeader.Header.Get("Content-Type")
	result, err := h.uploads.Save(c.Request.Context(), file, fileHeader.Filename, contentType, fileHeader.Size, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

type signURLRequest struct {
	FilePath string `json:"file_path" binding:"required"`
	EntityID string `json:"entity_id" binding:"required"`
}

// Sign godoc
// @Summary Issue a time-limited evidence download link
// @Tags Uploads
// @Accept json
// @Produce json
// @Param payload body signURLRequest true "File reference"
// @Success 200 {object} response.Envelope
// @Router /uploads/sign [post]
func (h *UploadHandler) Sign(c *gin.Context) {
	var req signURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file_path dan entity_id wajib diisi"))
		return
	}
	token, expiresAt, err := h.uploads.SignedURL(req.EntityID, req.FilePath)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	}, nil)
}

// Download godoc
// @Summary Stream an evidence file referenced by a signed token
// @Tags Uploads
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200
// @Router /uploads/{token} [get]
func (h *UploadHandler) Download(c *gin.Context) {
	file, relPath, err := h.uploads.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	contentType := mime.TypeByExtension(filepath.Ext(relPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `inline; filename="`+path.Base(relPath)+`"`)
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
