// Package handlers holds the HTTP endpoints for the academy API.
package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/bjjmingo/academy-platform/internal/engine"
	"github.com/bjjmingo/academy-platform/pkg/logging"
)

var webhookTracer = otel.Tracer("academy.internal.http.webhook")

// MessageEngine handles one inbound message and produces the reply.
type MessageEngine interface {
	HandleInbound(ctx context.Context, in engine.InboundMessage) (string, error)
}

// WhatsAppWebhookHandler receives inbound Twilio WhatsApp messages.
type WhatsAppWebhookHandler struct {
	engine     MessageEngine
	authToken  string // empty disables signature validation
	webhookURL string // public URL Twilio posts to, used for signature checks
	logger     *logging.Logger
}

// NewWhatsAppWebhookHandler creates the webhook handler.
func NewWhatsAppWebhookHandler(eng MessageEngine, authToken, webhookURL string, logger *logging.Logger) *WhatsAppWebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppWebhookHandler{engine: eng, authToken: authToken, webhookURL: webhookURL, logger: logger}
}

// HandleMessage processes one inbound message and answers with TwiML so
// Twilio relays the reply in the same exchange.
func (h *WhatsAppWebhookHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "webhook.whatsapp.message")
	defer span.End()

	if h.authToken != "" {
		if !ValidateTwilioSignature(r, h.authToken, h.webhookURL) {
			h.logger.Warn("invalid twilio signature")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			span.RecordError(errors.New("invalid twilio signature"))
			return
		}
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	from := r.PostFormValue("From")
	body := strings.TrimSpace(r.PostFormValue("Body"))
	profileName := r.PostFormValue("ProfileName")
	if from == "" || body == "" {
		err := errors.New("missing required twilio fields")
		h.logger.Error("invalid twilio payload", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	reply, err := h.engine.HandleInbound(ctx, engine.InboundMessage{
		Phone: from,
		Name:  profileName,
		Body:  body,
	})
	if err != nil {
		h.logger.Error("inbound handling failed", "error", err, "from", from)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		span.RecordError(err)
		return
	}

	writeTwiML(w, reply)
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func writeTwiML(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(twimlResponse{Message: message})
}

// ValidateTwilioSignature checks that a request was signed by Twilio.
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}
	expected := computeTwilioSignature(webhookURL, r.PostForm, authToken)
	return hmac.Equal([]byte(signature), []byte(expected))
}

func computeTwilioSignature(url string, params url.Values, authToken string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(url)
	for _, key := range keys {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
