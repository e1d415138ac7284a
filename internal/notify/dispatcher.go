package notify

import (
	"context"
	"fmt"

	"github.com/bjjmingo/academy-platform/internal/observability/metrics"
	"github.com/bjjmingo/academy-platform/pkg/logging"
)

// Message is the content pushed through a notification channel.
type Message struct {
	Subject string
	Body    string
}

// Result describes the outcome of a dispatch attempt across the chain.
type Result struct {
	Success    bool
	Channel    string
	ProviderID string
	Detail     string
}

// Channel is one way of reaching a recipient.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) (string, error)
}

// WhatsAppChannel delivers messages to a fixed WhatsApp number.
type WhatsAppChannel struct {
	name   string
	sender WhatsAppSender
	to     string
}

func NewWhatsAppChannel(name string, sender WhatsAppSender, to string) *WhatsAppChannel {
	return &WhatsAppChannel{name: name, sender: sender, to: to}
}

func (c *WhatsAppChannel) Name() string { return c.name }

func (c *WhatsAppChannel) Send(ctx context.Context, msg Message) (string, error) {
	if c.sender == nil {
		return "", fmt.Errorf("notify: %s: whatsapp sender not configured", c.name)
	}
	if c.to == "" {
		return "", fmt.Errorf("notify: %s: no recipient number", c.name)
	}
	return c.sender.SendWhatsApp(ctx, c.to, msg.Body)
}

// EmailChannel delivers messages to a fixed email address.
type EmailChannel struct {
	name   string
	sender EmailSender
	to     string
	toName string
}

func NewEmailChannel(name string, sender EmailSender, to, toName string) *EmailChannel {
	return &EmailChannel{name: name, sender: sender, to: to, toName: toName}
}

func (c *EmailChannel) Name() string { return c.name }

func (c *EmailChannel) Send(ctx context.Context, msg Message) (string, error) {
	if c.sender == nil {
		return "", fmt.Errorf("notify: %s: email sender not configured", c.name)
	}
	if c.to == "" {
		return "", fmt.Errorf("notify: %s: no recipient address", c.name)
	}
	if err := c.sender.Send(ctx, EmailMessage{To: c.to, ToName: c.toName, Subject: msg.Subject, Body: msg.Body}); err != nil {
		return "", err
	}
	return "", nil
}

// Dispatcher walks an ordered channel chain and stops at the first success.
// When every channel fails, the message is logged so it is never lost.
type Dispatcher struct {
	channels []Channel
	metrics  *metrics.EngineMetrics
	logger   *logging.Logger
}

func NewDispatcher(channels []Channel, m *metrics.EngineMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{channels: channels, metrics: m, logger: logger}
}

// NewStaffDispatcher builds the standard staff chain: primary WhatsApp, then
// secondary WhatsApp, then email. Channels with no recipient fail over to the
// next one at dispatch time.
func NewStaffDispatcher(wa WhatsAppSender, email EmailSender, primaryWhatsApp, secondaryWhatsApp, emailAddr string, m *metrics.EngineMetrics, logger *logging.Logger) *Dispatcher {
	channels := []Channel{
		NewWhatsAppChannel("whatsapp_primary", wa, primaryWhatsApp),
		NewWhatsAppChannel("whatsapp_secondary", wa, secondaryWhatsApp),
		NewEmailChannel("email", email, emailAddr, ""),
	}
	return NewDispatcher(channels, m, logger)
}

// Dispatch tries each channel in order and returns the first success. A
// channel failure never propagates as an error to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) Result {
	var lastErr error
	for _, ch := range d.channels {
		id, err := ch.Send(ctx, msg)
		if err == nil {
			d.metrics.ObserveNotify(ch.Name(), "ok")
			d.logger.Info("notification delivered", "channel", ch.Name(), "provider_id", id)
			return Result{Success: true, Channel: ch.Name(), ProviderID: id}
		}
		lastErr = err
		d.metrics.ObserveNotify(ch.Name(), "error")
		d.logger.Warn("notification channel failed", "channel", ch.Name(), "error", err)
	}

	detail := ""
	if lastErr != nil {
		detail = lastErr.Error()
	}
	d.metrics.ObserveNotify("log", "ok")
	d.logger.Error("all notification channels failed, logging message",
		"subject", msg.Subject, "body", msg.Body, "last_error", detail)
	return Result{Success: false, Channel: "log", Detail: detail}
}
