package mailer

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	ApplicantName     string
	Email             string
	Designation       string
	MemberSince       string
	MemberTill        string
	Impact            *string
	CertificateStatus string
}

func TestRendererRendersEveryTemplate(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	app := summary{ApplicantName: "Alice", Email: "a@x.com", Designation: "Member", MemberSince: "2020", MemberTill: "2023", CertificateStatus: "pending"}
	ids := []string{
		TemplateApplicationSubmitted,
		TemplateApplicationUpdated,
		TemplateVerificationRequired,
		TemplateCertificateRevision,
		TemplateCertificateDeclined,
		TemplateCertificateApproved,
		TemplateEmailChangeOTP,
		TemplatePasswordChangeOTP,
		TemplateContactOTP,
		TemplateContactMessage,
		TemplateContactConfirmation,
	}
	for _, id := range ids {
		body, err := r.Render(id, map[string]interface{}{
			"application":    app,
			"existing":       app,
			"application_id": "app-1",
			"club_role":      "Advisor",
			"otp":            "123456",
			"ttl_minutes":    10,
			"note":           "fix dates",
			"subject":        "Hello",
			"message":        "Body",
		})
		require.NoError(t, err, id)
		assert.Contains(t, body, "MBSTU Science Club", id)
	}
}

func TestRendererEscapesContent(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	body, err := r.Render(TemplateContactMessage, map[string]interface{}{
		"email":   "x@y.com",
		"subject": "<script>alert(1)</script>",
		"message": "hi",
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestRendererUnknownTemplate(t *testing.T) {
	r, err := NewRendererFS(fstest.MapFS{"t/one.html": {Data: []byte("one {{.x}}")}}, "t/*.html")
	require.NoError(t, err)

	body, err := r.Render("one", map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, "one 1", body)

	_, err = r.Render("missing", nil)
	require.Error(t, err)
}

func TestLogSenderRequiresRecipient(t *testing.T) {
	s := NewLogSender(nil)
	require.ErrorIs(t, s.Send(context.Background(), Message{Subject: "x"}), ErrNoRecipient)
	require.NoError(t, s.Send(context.Background(), Message{To: "a@x.com", Subject: "x"}))
}
