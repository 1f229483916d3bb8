package notify

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTwilio(t *testing.T, handler http.HandlerFunc) *TwilioSender {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := NewTwilioSender(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550001111",
		BaseURL:    server.URL + "/",
	}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	s.client.RetryWaitMin = time.Millisecond
	s.client.RetryWaitMax = 5 * time.Millisecond
	return s
}

func TestTwilioSenderPostsMessage(t *testing.T) {
	s := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15551234567", r.PostForm.Get("To"))
		assert.Equal(t, "+15550001111", r.PostForm.Get("From"))
		assert.Equal(t, "Task Due on tomorrow, Title: Ship it", r.PostForm.Get("Body"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	})

	require.NoError(t, s.SendSMS(context.Background(), "+15551234567", "Task Due on tomorrow, Title: Ship it"))
}

func TestTwilioSenderReturnsAPIError(t *testing.T) {
	s := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number."}`))
	})

	err := s.SendSMS(context.Background(), "bogus", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
}

func TestTwilioSenderRetriesServerErrors(t *testing.T) {
	var calls int32
	s := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM2"}`))
	})

	require.NoError(t, s.SendSMS(context.Background(), "+15551234567", "hi"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTwilioSenderRejectsEmail(t *testing.T) {
	s := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	assert.Error(t, s.SendEmail(context.Background(), "a@example.com", "s", "b"))
}
