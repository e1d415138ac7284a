package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjjmingo/academy-platform/internal/engine"
)

type fakeMessageEngine struct {
	reply   string
	err     error
	lastMsg engine.InboundMessage
}

func (f *fakeMessageEngine) HandleInbound(ctx context.Context, in engine.InboundMessage) (string, error) {
	f.lastMsg = in
	return f.reply, f.err
}

func postWebhook(t *testing.T, h *WhatsAppWebhookHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)
	return rec
}

func TestWebhookRepliesWithTwiML(t *testing.T) {
	eng := &fakeMessageEngine{reply: "¡Listo Juan! Tu clase quedó agendada"}
	h := NewWhatsAppWebhookHandler(eng, "", "", nil)

	form := url.Values{}
	form.Set("From", "whatsapp:+50688881234")
	form.Set("Body", "Quiero agendar el martes a las 6pm")
	form.Set("ProfileName", "Juan Pérez")

	rec := postWebhook(t, h, form)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<Response>")
	assert.Contains(t, rec.Body.String(), "agendada")

	assert.Equal(t, "whatsapp:+50688881234", eng.lastMsg.Phone)
	assert.Equal(t, "Juan Pérez", eng.lastMsg.Name)
}

func TestWebhookRejectsMissingFields(t *testing.T) {
	h := NewWhatsAppWebhookHandler(&fakeMessageEngine{}, "", "", nil)

	form := url.Values{}
	form.Set("From", "whatsapp:+50688881234")
	rec := postWebhook(t, h, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookEngineError(t *testing.T) {
	h := NewWhatsAppWebhookHandler(&fakeMessageEngine{err: errors.New("boom")}, "", "", nil)

	form := url.Values{}
	form.Set("From", "whatsapp:+50688881234")
	form.Set("Body", "hola")
	rec := postWebhook(t, h, form)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookSignatureValidation(t *testing.T) {
	const authToken = "secret"
	const webhookURL = "https://academy.example.com/webhooks/whatsapp"
	h := NewWhatsAppWebhookHandler(&fakeMessageEngine{reply: "hola"}, authToken, webhookURL, nil)

	form := url.Values{}
	form.Set("From", "whatsapp:+50688881234")
	form.Set("Body", "hola")

	// Unsigned request is rejected.
	rec := postWebhook(t, h, form)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correctly signed request passes.
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", computeTwilioSignature(webhookURL, form, authToken))
	rec = httptest.NewRecorder()
	h.HandleMessage(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
