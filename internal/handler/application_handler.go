package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/internal/service"
	"github.com/noah-isme/sciclub-api/pkg/response"
)

// ApplicantCookie remembers the last submitted email so tracking needs no input.
const ApplicantCookie = "applicant_mail"

const applicantCookieTTL = 30 * 24 * time.Hour

type applicationWorkflow interface {
	Submit(ctx context.Context, req dto.SubmitApplicationRequest) (*dto.SubmitApplicationResponse, error)
	Track(ctx context.Context, req dto.TrackApplicationRequest) (*dto.TrackApplicationResponse, error)
	Download(ctx context.Context, req dto.DownloadCertificateRequest, format service.DownloadFormat) (*service.CertificateDownload, error)
	ResolveSignedDownload(ctx context.Context, token string, format service.DownloadFormat) (*service.CertificateDownload, error)
}

// ApplicationHandler serves the public certificate application workflow.
type ApplicationHandler struct {
	service applicationWorkflow
}

// NewApplicationHandler creates a new handler.
func NewApplicationHandler(svc applicationWorkflow) *ApplicationHandler {
	return &ApplicationHandler{service: svc}
}

// Submit godoc
// @Summary Submit certificate application
// @Description Creates an application or resubmits the existing one for the same email, resetting it to pending
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body dto.SubmitApplicationRequest true "Application"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid application payload"))
		return
	}

	res, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ApplicantCookie, res.Email, int(applicantCookieTTL.Seconds()), "/", "", c.Request.TLS != nil, true)
	response.Created(c, res, res.TrackURL)
}

// Track godoc
// @Summary Track application status
// @Description Returns only the certificate status for the email in the query or the applicant cookie; data is null when nothing was submitted
// @Tags Applications
// @Produce json
// @Param email query string false "Applicant email"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications/track [get]
func (h *ApplicationHandler) Track(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		email, _ = c.Cookie(ApplicantCookie)
	}
	h.track(c, dto.TrackApplicationRequest{Email: email})
}

// TrackByBody godoc
// @Summary Track application status
// @Description Returns only the certificate status for the submitted email
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body dto.TrackApplicationRequest true "Applicant email"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications/track [post]
func (h *ApplicationHandler) TrackByBody(c *gin.Context) {
	var req dto.TrackApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid tracking request"))
		return
	}
	h.track(c, req)
}

func (h *ApplicationHandler) track(c *gin.Context, req dto.TrackApplicationRequest) {
	res, err := h.service.Track(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Download godoc
// @Summary Download approved certificate
// @Description Returns a JSON descriptor for JSON clients, otherwise the PNG attachment; format=pdf wraps the image in a PDF
// @Tags Certificates
// @Accept json
// @Produce json,png,pdf
// @Param payload body dto.DownloadCertificateRequest true "Applicant email"
// @Param format query string false "pdf"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/download [post]
func (h *ApplicationHandler) Download(c *gin.Context) {
	var req dto.DownloadCertificateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid download request"))
		return
	}

	res, err := h.service.Download(c.Request.Context(), req, downloadFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeCertificate(c, res)
}

// SignedDownload godoc
// @Summary Download certificate by signed link
// @Description Validates the signed token from the approval email and streams the certificate
// @Tags Certificates
// @Produce png,pdf
// @Param token path string true "Signed token"
// @Param format query string false "pdf"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/files/{token} [get]
func (h *ApplicationHandler) SignedDownload(c *gin.Context) {
	format := service.DownloadPNG
	if strings.EqualFold(c.Query("format"), string(service.DownloadPDF)) {
		format = service.DownloadPDF
	}

	res, err := h.service.ResolveSignedDownload(c.Request.Context(), c.Param("token"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeCertificate(c, res)
}

func downloadFormat(c *gin.Context) service.DownloadFormat {
	if strings.EqualFold(c.Query("format"), string(service.DownloadPDF)) {
		return service.DownloadPDF
	}
	if wantsJSON(c) {
		return service.DownloadDescriptor
	}
	return service.DownloadPNG
}

func wantsJSON(c *gin.Context) bool {
	if strings.EqualFold(c.GetHeader("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	return strings.Contains(strings.ToLower(c.GetHeader("Accept")), "application/json")
}

func writeCertificate(c *gin.Context, res *service.CertificateDownload) {
	if res.Data == nil {
		response.JSON(c, http.StatusOK, dto.CertificateDescriptorResponse{Application: res.Descriptor}, nil)
		return
	}
	response.Attachment(c, res.Filename, res.ContentType, res.Data)
}
