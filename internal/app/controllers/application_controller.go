package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/uniadmit/admission/internal/app/models/dto"
	"github.com/uniadmit/admission/internal/app/services"
	"github.com/uniadmit/admission/internal/middleware"
)

// ApplicationController handles the student side of admissions
type ApplicationController struct {
	applicationService services.ApplicationService
	documentService    services.DocumentService
	offerLetterService services.OfferLetterService
	logger             zerolog.Logger
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(
	applicationService services.ApplicationService,
	documentService services.DocumentService,
	offerLetterService services.OfferLetterService,
	logger zerolog.Logger,
) *ApplicationController {
	return &ApplicationController{
		applicationService: applicationService,
		documentService:    documentService,
		offerLetterService: offerLetterService,
		logger:             logger,
	}
}

// SaveDraft creates or updates the student's draft
// @Summary Save application draft
// @Description Saves any subset of fields. An empty body is accepted. Blank numeric fields keep their placeholders.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ApplicationFields false "Draft fields"
// @Success 200 {object} dto.ApplicationSavedResponse "Draft updated"
// @Success 201 {object} dto.ApplicationSavedResponse "Draft created"
// @Failure 400 {object} dto.ErrorResponse "Invalid value or a pending application exists"
// @Failure 403 {object} dto.ErrorResponse "Student access required"
// @Router /applications/draft [post]
func (c *ApplicationController) SaveDraft(ctx *gin.Context) {
	student, err := middleware.StudentFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var fields dto.ApplicationFields
	if err := ctx.ShouldBindJSON(&fields); err != nil && !errors.Is(err, io.EOF) {
		middleware.AbortBindError(ctx, err)
		return
	}

	resp, created, err := c.applicationService.SaveDraft(ctx.Request.Context(), student, fields)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, resp)
}

// GetDraft returns the student's draft
// @Summary Get application draft
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.DraftResponse
// @Failure 404 {object} dto.ErrorResponse "No draft found"
// @Router /applications/draft [get]
func (c *ApplicationController) GetDraft(ctx *gin.Context) {
	student, err := middleware.StudentFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.applicationService.GetDraft(ctx.Request.Context(), student)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func uploadInput(u *dto.DocumentUpload) *services.DocumentInput {
	if u == nil {
		return nil
	}
	return &services.DocumentInput{Payload: u.Data, Filename: u.Filename}
}

// formInput takes a multipart file part, or falls back to a base64 form value
// with an optional <field>_filename companion.
func formInput(ctx *gin.Context, field string) *services.DocumentInput {
	if fh, err := ctx.FormFile(field); err == nil {
		return &services.DocumentInput{File: fh, Filename: fh.Filename}
	}
	if v := ctx.PostForm(field); v != "" {
		return &services.DocumentInput{Payload: v, Filename: ctx.PostForm(field + "_filename")}
	}
	return nil
}

// Submit validates and submits an application
// @Summary Submit application
// @Description Accepts JSON with base64 documents or multipart/form-data with file parts. A draft is converted in place.
// @Tags applications
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubmitApplicationRequest true "Application with documents"
// @Success 201 {object} dto.ApplicationSavedResponse "Application submitted successfully"
// @Failure 400 {object} dto.ErrorResponse "Missing fields, invalid values, bad documents or a pending application exists"
// @Failure 413 {object} dto.ErrorResponse "Request too large"
// @Router /applications/submit [post]
func (c *ApplicationController) Submit(ctx *gin.Context) {
	student, err := middleware.StudentFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var fields dto.ApplicationFields
	var docs services.SubmittedDocuments
	if ctx.ContentType() == gin.MIMEMultipartPOSTForm {
		if _, err := ctx.MultipartForm(); err != nil {
			middleware.AbortBindError(ctx, err)
			return
		}
		fields = dto.ApplicationFieldsFromForm(ctx.PostForm)
		docs.DegreeCertificate = formInput(ctx, "degree_certificate")
		docs.IDProof = formInput(ctx, "id_proof")
	} else {
		var req dto.SubmitApplicationRequest
		if !middleware.BindJSON(ctx, &req) {
			return
		}
		fields = req.ApplicationFields
		docs.DegreeCertificate = uploadInput(req.DegreeCertificate)
		docs.IDProof = uploadInput(req.IDProof)
	}

	resp, err := c.applicationService.Submit(ctx.Request.Context(), student, fields, docs)
	if err != nil {
		c.logger.Debug().Err(err).Int64("studentID", student.ID).Msg("Submission rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetStatus returns the student's latest application
// @Summary Application status
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ApplicationStatusResponse
// @Failure 404 {object} dto.ErrorResponse "No application found"
// @Router /applications/status [get]
func (c *ApplicationController) GetStatus(ctx *gin.Context) {
	student, err := middleware.StudentFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.applicationService.Status(ctx.Request.Context(), student)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListMine lists every application of the student
// @Summary List own applications
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ApplicationListResponse
// @Router /applications [get]
func (c *ApplicationController) ListMine(ctx *gin.Context) {
	student, err := middleware.StudentFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.applicationService.ListMine(ctx.Request.Context(), student)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdateProfile edits the applicant profile
// @Summary Update applicant profile
// @Description While an application is pending only phone and address may change.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ApplicantProfileUpdateRequest true "Fields to change"
// @Success 200 {object} dto.UserEnvelope "Profile updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Field locked, invalid value or phone taken"
// @Router /applications/profile [put]
func (c *ApplicationController) UpdateProfile(ctx *gin.Context) {
	student, err := middleware.StudentFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.ApplicantProfileUpdateRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.applicationService.EditApplicantProfile(ctx.Request.Context(), student, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetDocument returns one of the student's own documents
// @Summary Get own document
// @Tags applications
// @Produce json,octet-stream
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param type path string true "Document type" Enums(degree_certificate, id_proof)
// @Param action query string false "Delivery mode" Enums(view, download, base64) default(view)
// @Success 200 {object} dto.DocumentBase64Response "With action=base64; raw bytes otherwise"
// @Failure 400 {object} dto.ErrorResponse "Invalid document type or action"
// @Failure 404 {object} dto.ErrorResponse "Application or document not found"
// @Router /applications/{id}/documents/{type} [get]
func (c *ApplicationController) GetDocument(ctx *gin.Context) {
	student, err := middleware.StudentFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	id, ok := idParam(ctx, "id", "application")
	if !ok {
		return
	}

	doc, err := c.documentService.ForStudent(ctx.Request.Context(), student, id, ctx.Param("type"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	writeDocument(ctx, doc, actionView)
}

// GetOfferLetter renders the offer letter of an approved application
// @Summary Download offer letter
// @Tags applications
// @Produce application/pdf
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {file} binary "Offer letter PDF"
// @Failure 404 {object} dto.ErrorResponse "Approved application not found or access denied"
// @Router /applications/{id}/offer-letter [get]
func (c *ApplicationController) GetOfferLetter(ctx *gin.Context) {
	student, err := middleware.StudentFrom(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	id, ok := idParam(ctx, "id", "application")
	if !ok {
		return
	}

	letter, err := c.offerLetterService.Generate(ctx.Request.Context(), student, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	writeDocument(ctx, &services.StoredDocument{
		Filename:    letter.Filename,
		ContentType: letter.ContentType,
		Data:        letter.Data,
	}, actionDownload)
}
