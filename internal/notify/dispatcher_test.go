package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/bjjmingo/academy-platform/internal/observability/metrics"
)

type mockWhatsAppSender struct {
	sent    []struct{ to, body string }
	failOn  string
	callErr error
	sid     string
}

func (m *mockWhatsAppSender) SendWhatsApp(ctx context.Context, to, body string) (string, error) {
	if m.callErr != nil {
		return "", m.callErr
	}
	if m.failOn != "" && to == m.failOn {
		return "", errors.New("mock whatsapp error")
	}
	m.sent = append(m.sent, struct{ to, body string }{to, body})
	return m.sid, nil
}

type mockEmailSender struct {
	sent    []EmailMessage
	callErr error
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testMetrics() *metrics.EngineMetrics {
	return metrics.NewEngineMetrics(prometheus.NewRegistry())
}

func TestDispatchPrimarySucceeds(t *testing.T) {
	wa := &mockWhatsAppSender{sid: "SM123"}
	email := &mockEmailSender{}
	d := NewStaffDispatcher(wa, email, "+50688880001", "+50688880002", "staff@bjjmingo.cr", testMetrics(), nil)

	res := d.Dispatch(context.Background(), Message{Subject: "Nueva reserva", Body: "Juan reservó clase de prueba"})

	assert.True(t, res.Success)
	assert.Equal(t, "whatsapp_primary", res.Channel)
	assert.Equal(t, "SM123", res.ProviderID)
	assert.Len(t, wa.sent, 1)
	assert.Equal(t, "+50688880001", wa.sent[0].to)
	assert.Empty(t, email.sent)
}

func TestDispatchFallsBackToSecondary(t *testing.T) {
	wa := &mockWhatsAppSender{failOn: "+50688880001", sid: "SM456"}
	email := &mockEmailSender{}
	d := NewStaffDispatcher(wa, email, "+50688880001", "+50688880002", "staff@bjjmingo.cr", testMetrics(), nil)

	res := d.Dispatch(context.Background(), Message{Subject: "Nueva reserva", Body: "detalle"})

	assert.True(t, res.Success)
	assert.Equal(t, "whatsapp_secondary", res.Channel)
	assert.Equal(t, "SM456", res.ProviderID)
	assert.Len(t, wa.sent, 1)
	assert.Equal(t, "+50688880002", wa.sent[0].to)
	assert.Empty(t, email.sent, "email must not be attempted once a WhatsApp channel succeeds")
}

func TestDispatchFallsBackToEmail(t *testing.T) {
	wa := &mockWhatsAppSender{callErr: errors.New("twilio down")}
	email := &mockEmailSender{}
	d := NewStaffDispatcher(wa, email, "+50688880001", "+50688880002", "staff@bjjmingo.cr", testMetrics(), nil)

	res := d.Dispatch(context.Background(), Message{Subject: "Nueva reserva", Body: "detalle"})

	assert.True(t, res.Success)
	assert.Equal(t, "email", res.Channel)
	assert.Len(t, email.sent, 1)
	assert.Equal(t, "staff@bjjmingo.cr", email.sent[0].To)
	assert.Equal(t, "Nueva reserva", email.sent[0].Subject)
}

func TestDispatchAllChannelsFailLogsOnly(t *testing.T) {
	wa := &mockWhatsAppSender{callErr: errors.New("twilio down")}
	email := &mockEmailSender{callErr: errors.New("sendgrid down")}
	d := NewStaffDispatcher(wa, email, "+50688880001", "+50688880002", "staff@bjjmingo.cr", testMetrics(), nil)

	res := d.Dispatch(context.Background(), Message{Subject: "Nueva reserva", Body: "detalle"})

	assert.False(t, res.Success)
	assert.Equal(t, "log", res.Channel)
	assert.Contains(t, res.Detail, "sendgrid down")
}

func TestDispatchSkipsUnconfiguredChannels(t *testing.T) {
	wa := &mockWhatsAppSender{sid: "SM789"}
	d := NewStaffDispatcher(wa, nil, "", "+50688880002", "", testMetrics(), nil)

	res := d.Dispatch(context.Background(), Message{Body: "detalle"})

	assert.True(t, res.Success)
	assert.Equal(t, "whatsapp_secondary", res.Channel)
}
