package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/question-import-service/internal/services"
	"github.com/SAP-F-2025/question-import-service/internal/utils"
)

const uploadField = "file"

type ImportHandler struct {
	BaseHandler
	service        services.ImportService
	maxUploadBytes int64
}

func NewImportHandler(service services.ImportService, maxUploadBytes int64, logger utils.Logger) *ImportHandler {
	return &ImportHandler{
		BaseHandler:    NewBaseHandler(logger),
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

// ImportBundle imports an uploaded question bundle
// @Summary Import question bundle
// @Description Imports a zip bundle (sheet plus media) or a bare sheet file
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Bundle or sheet"
// @Success 201 {object} SuccessResponse{data=services.ImportResult}
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /imports [post]
func (h *ImportHandler) ImportBundle(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	header, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.RespondWithError(c, http.StatusRequestEntityTooLarge, "Upload too large", err)
			return
		}
		h.RespondWithError(c, http.StatusBadRequest, "Missing upload", err, "multipart field 'file' is required")
		return
	}

	h.LogRequest(c, "Importing bundle", "file_name", header.Filename, "file_size", header.Size)

	file, err := header.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Unreadable upload", err)
		return
	}
	defer file.Close()

	result, err := h.service.ImportBundle(c.Request.Context(), file, header.Filename, header.Size, h.extractUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "Import completed", result,
		"job_id", result.JobID,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)
}

// GetImportJob returns the status of an import job
// @Summary Get import job
// @Tags imports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} SuccessResponse{data=models.ImportJob}
// @Failure 404 {object} ErrorResponse
// @Router /imports/{id} [get]
func (h *ImportHandler) GetImportJob(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	job, err := h.service.GetImportJob(c.Request.Context(), id, h.extractUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Import job retrieved", Data: job})
}

// ListImportedQuestions lists the stored questions of an import job
// @Summary List imported questions
// @Tags imports
// @Produce json
// @Param id path string true "Job ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} SuccessResponse{data=ListResponse}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /imports/{id}/questions [get]
func (h *ImportHandler) ListImportedQuestions(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	limit, offset := ParsePagination(c)

	records, total, err := h.service.ListImportedQuestions(c.Request.Context(), id, h.extractUserID(c), limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Imported questions retrieved",
		Data:    ListResponse{Items: records, Total: total, Limit: limit, Offset: offset},
	})
}

// DeleteImport removes an import job and its stored questions
// @Summary Delete import
// @Tags imports
// @Param id path string true "Job ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /imports/{id} [delete]
func (h *ImportHandler) DeleteImport(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.service.DeleteImport(c.Request.Context(), id, h.extractUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogInfo(c, "Import deleted", "job_id", id)
	c.Status(http.StatusNoContent)
}

// GetMedia streams a media file referenced by imported question text
// @Summary Get imported media
// @Tags imports
// @Produce octet-stream
// @Param scope path string true "Media scope ID"
// @Param name path string true "Stored media name"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /media/{scope}/{name} [get]
func (h *ImportHandler) GetMedia(c *gin.Context) {
	scopeID := ParseStringIDParam(c, "scope")
	if scopeID == "" {
		return
	}
	name := ParseStringIDParam(c, "name")
	if name == "" {
		return
	}

	rc, err := h.service.OpenMedia(c.Request.Context(), scopeID, name, h.extractUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

func (h *ImportHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, validationErrors)
		return
	}

	switch {
	case services.IsTooLarge(err):
		h.RespondWithError(c, http.StatusRequestEntityTooLarge, "Bundle too large", err, err.Error())
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "Not found", err, err.Error())
	case services.IsUnauthorized(err):
		h.RespondWithError(c, http.StatusForbidden, "Access denied", err)
	case services.IsBadInput(err):
		h.RespondWithError(c, http.StatusUnprocessableEntity, "Bundle could not be imported", err, err.Error())
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, err.Error(), err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
