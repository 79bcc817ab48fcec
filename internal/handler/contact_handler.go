package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/pkg/response"
)

type contactForm interface {
	RequestCode(ctx context.Context, req dto.ContactOTPRequest) (*dto.OTPAcknowledgement, error)
	Verify(ctx context.Context, req dto.ContactVerifyRequest) error
}

// ContactHandler serves the OTP protected contact form.
type ContactHandler struct {
	contact contactForm
}

// NewContactHandler creates a new handler.
func NewContactHandler(contact contactForm) *ContactHandler {
	return &ContactHandler{contact: contact}
}

// RequestCode godoc
// @Summary Request contact form code
// @Tags Contact
// @Accept json
// @Produce json
// @Param payload body dto.ContactOTPRequest true "Sender email"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /contact/otp [post]
func (h *ContactHandler) RequestCode(c *gin.Context) {
	var req dto.ContactOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid contact payload"))
		return
	}
	ack, err := h.contact.RequestCode(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ack, nil)
}

// Verify godoc
// @Summary Verify code and send message
// @Tags Contact
// @Accept json
// @Produce json
// @Param payload body dto.ContactVerifyRequest true "Message and code"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /contact/verify [post]
func (h *ContactHandler) Verify(c *gin.Context) {
	var req dto.ContactVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid contact payload"))
		return
	}
	if err := h.contact.Verify(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Your message has been sent."}, nil)
}
