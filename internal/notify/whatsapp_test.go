package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwilioWhatsAppSenderSuccess(t *testing.T) {
	var gotTo, gotFrom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM999","status":"queued"}`))
	}))
	defer srv.Close()

	sender := NewTwilioWhatsAppSender("AC123", "token", "+50670150369", nil).WithBaseURL(srv.URL)
	sid, err := sender.SendWhatsApp(context.Background(), "+50688880001", "Hola")

	require.NoError(t, err)
	assert.Equal(t, "SM999", sid)
	assert.Equal(t, "whatsapp:+50688880001", gotTo)
	assert.Equal(t, "whatsapp:+50670150369", gotFrom)
}

func TestTwilioWhatsAppSenderClientErrorNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"Invalid 'To' phone number"}`))
	}))
	defer srv.Close()

	sender := NewTwilioWhatsAppSender("AC123", "token", "+50670150369", nil).WithBaseURL(srv.URL)
	_, err := sender.SendWhatsApp(context.Background(), "bogus", "Hola")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
	assert.Equal(t, 1, calls)
}

func TestTwilioWhatsAppSenderValidation(t *testing.T) {
	sender := NewTwilioWhatsAppSender("", "", "+50670150369", nil)
	_, err := sender.SendWhatsApp(context.Background(), "+50688880001", "Hola")
	assert.Error(t, err)

	sender = NewTwilioWhatsAppSender("AC123", "token", "+50670150369", nil)
	_, err = sender.SendWhatsApp(context.Background(), "", "Hola")
	assert.Error(t, err)
	_, err = sender.SendWhatsApp(context.Background(), "+50688880001", "  ")
	assert.Error(t, err)
}
