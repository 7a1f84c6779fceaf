package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendDeliversPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("token", "chat42", "", zerolog.Nop())
	tg.apiBase = srv.URL

	require.NoError(t, tg.Send(context.Background(), "周报内容"))
	assert.Equal(t, "chat42", got["chat_id"])
	assert.Equal(t, "周报内容", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetryRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("token", "chat42", "", zerolog.Nop())
	tg.apiBase = srv.URL

	require.NoError(t, tg.SendWithRetry(context.Background(), "retry me", 2))
	assert.Equal(t, int32(2), calls.Load())
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewTelegram("", "", "", zerolog.Nop()).Configured())
	assert.False(t, NewTelegram("token", "", "", zerolog.Nop()).Configured())
	assert.True(t, NewTelegram("token", "chat", "", zerolog.Nop()).Configured())
}
