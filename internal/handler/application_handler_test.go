package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/internal/models"
	"github.com/noah-isme/sciclub-api/internal/service"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
)

type applicationServiceMock struct {
	submitResp   *dto.SubmitApplicationResponse
	submitErr    error
	trackResp    *dto.TrackApplicationResponse
	trackErr     error
	downloadResp *service.CertificateDownload
	downloadErr  error

	lastTrack  dto.TrackApplicationRequest
	lastFormat service.DownloadFormat
	lastToken  string
}

func (m *applicationServiceMock) Submit(ctx context.Context, req dto.SubmitApplicationRequest) (*dto.SubmitApplicationResponse, error) {
	return m.submitResp, m.submitErr
}

func (m *applicationServiceMock) Track(ctx context.Context, req dto.TrackApplicationRequest) (*dto.TrackApplicationResponse, error) {
	m.lastTrack = req
	return m.trackResp, m.trackErr
}

func (m *applicationServiceMock) Download(ctx context.Context, req dto.DownloadCertificateRequest, format service.DownloadFormat) (*service.CertificateDownload, error) {
	m.lastFormat = format
	return m.downloadResp, m.downloadErr
}

func (m *applicationServiceMock) ResolveSignedDownload(ctx context.Context, token string, format service.DownloadFormat) (*service.CertificateDownload, error) {
	m.lastToken = token
	m.lastFormat = format
	return m.downloadResp, m.downloadErr
}

func newJSONContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf *bytes.Reader
	switch b := body.(type) {
	case nil:
		buf = bytes.NewReader(nil)
	case string:
		buf = bytes.NewReader([]byte(b))
	default:
		payload, _ := json.Marshal(b)
		buf = bytes.NewReader(payload)
	}
	req, _ := http.NewRequest(method, target, buf)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestApplicationHandlerSubmitSetsCookie(t *testing.T) {
	mockSvc := &applicationServiceMock{submitResp: &dto.SubmitApplicationResponse{
		ID:       "app-1",
		Email:    "a@x.com",
		TrackURL: "https://club.test/api/v1/applications/track?email=a%40x.com",
	}}
	h := NewApplicationHandler(mockSvc)

	c, w := newJSONContext(http.MethodPost, "/applications", dto.SubmitApplicationRequest{Email: "a@x.com"})
	h.Submit(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, mockSvc.submitResp.TrackURL, w.Header().Get("Location"))
	cookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, ApplicantCookie+"=a%40x.com")
	assert.Contains(t, cookie, "HttpOnly")
}

func TestApplicationHandlerSubmitValidationError(t *testing.T) {
	h := NewApplicationHandler(&applicationServiceMock{submitErr: appErrors.FieldError("email", "is required")})

	c, w := newJSONContext(http.MethodPost, "/applications", `{"applicant_name":"A"}`)
	h.Submit(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get("Set-Cookie"))
	assert.Contains(t, w.Body.String(), `"email":"is required"`)
}

func TestApplicationHandlerTrackFallsBackToCookie(t *testing.T) {
	mockSvc := &applicationServiceMock{trackResp: &dto.TrackApplicationResponse{CertificateStatus: models.StatusVerified}}
	h := NewApplicationHandler(mockSvc)

	c, w := newJSONContext(http.MethodGet, "/applications/track", nil)
	c.Request.AddCookie(&http.Cookie{Name: ApplicantCookie, Value: "a@x.com"})
	h.Track(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@x.com", mockSvc.lastTrack.Email)
	assert.JSONEq(t, `{"data":{"certificate_status":"verified"}}`, w.Body.String())

	c, _ = newJSONContext(http.MethodGet, "/applications/track?email=b@x.com", nil)
	c.Request.AddCookie(&http.Cookie{Name: ApplicantCookie, Value: "a@x.com"})
	h.Track(c)
	assert.Equal(t, "b@x.com", mockSvc.lastTrack.Email)
}

func TestApplicationHandlerTrackUnknownReturnsNull(t *testing.T) {
	h := NewApplicationHandler(&applicationServiceMock{})

	c, w := newJSONContext(http.MethodPost, "/applications/track", dto.TrackApplicationRequest{Email: "ghost@x.com"})
	h.TrackByBody(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":null}`, w.Body.String())
}

func TestApplicationHandlerDownloadNegotiatesFormat(t *testing.T) {
	cases := []struct {
		name    string
		target  string
		headers map[string]string
		want    service.DownloadFormat
	}{
		{"png by default", "/certificates/download", nil, service.DownloadPNG},
		{"json via accept", "/certificates/download", map[string]string{"Accept": "application/json"}, service.DownloadDescriptor},
		{"json via xhr", "/certificates/download", map[string]string{"X-Requested-With": "XMLHttpRequest"}, service.DownloadDescriptor},
		{"pdf wins", "/certificates/download?format=pdf", map[string]string{"Accept": "application/json"}, service.DownloadPDF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc := &applicationServiceMock{downloadResp: &service.CertificateDownload{Filename: "a_certificate.png", ContentType: "image/png", Data: []byte("png")}}
			h := NewApplicationHandler(mockSvc)

			c, _ := newJSONContext(http.MethodPost, tc.target, dto.DownloadCertificateRequest{Email: "a@x.com"})
			for k, v := range tc.headers {
				c.Request.Header.Set(k, v)
			}
			h.Download(c)
			assert.Equal(t, tc.want, mockSvc.lastFormat)
		})
	}
}

func TestApplicationHandlerDownloadWritesAttachment(t *testing.T) {
	mockSvc := &applicationServiceMock{downloadResp: &service.CertificateDownload{
		Filename:    "alice_certificate.png",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
	}}
	h := NewApplicationHandler(mockSvc)

	c, w := newJSONContext(http.MethodPost, "/certificates/download", dto.DownloadCertificateRequest{Email: "a@x.com"})
	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=alice_certificate.png", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "png-bytes", w.Body.String())
}

func TestApplicationHandlerDownloadDescriptor(t *testing.T) {
	mockSvc := &applicationServiceMock{downloadResp: &service.CertificateDownload{Descriptor: dto.CertificateDescriptor{
		ID:              "app-1",
		ApplicantName:   "Alice",
		CertificateFile: "certificates/alice_12345.png",
		Email:           "a@x.com",
	}}}
	h := NewApplicationHandler(mockSvc)

	c, w := newJSONContext(http.MethodPost, "/certificates/download", dto.DownloadCertificateRequest{Email: "a@x.com"})
	c.Request.Header.Set("Accept", "application/json")
	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"application":{"id":"app-1"`)
}

func TestApplicationHandlerDownloadNotFound(t *testing.T) {
	h := NewApplicationHandler(&applicationServiceMock{downloadErr: appErrors.Clone(appErrors.ErrNotFound, "Certificate not found or not approved")})

	c, w := newJSONContext(http.MethodPost, "/certificates/download", dto.DownloadCertificateRequest{Email: "a@x.com"})
	h.Download(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Certificate not found or not approved")
}

func TestApplicationHandlerSignedDownload(t *testing.T) {
	mockSvc := &applicationServiceMock{downloadResp: &service.CertificateDownload{Filename: "a.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}}
	h := NewApplicationHandler(mockSvc)

	c, w := newJSONContext(http.MethodGet, "/certificates/files/tok?format=PDF", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	h.SignedDownload(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok", mockSvc.lastToken)
	assert.Equal(t, service.DownloadPDF, mockSvc.lastFormat)
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}
