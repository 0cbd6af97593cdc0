package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/meetus/internal/log"
	"github.com/felixgeelhaar/meetus/internal/tokenstore"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *tokenstore.MemoryStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := tokenstore.NewMemoryStore()
	return NewClient(DefaultConfig(server.URL), store), store
}

func TestDo_Headers(t *testing.T) {
	var got http.Header
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	require.NoError(t, client.Do(ctx, http.MethodGet, "/ping", nil, nil))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Empty(t, got.Get("Authorization"), "no token stored, no header")
	assert.NotEmpty(t, got.Get("X-Request-ID"))
	assert.True(t, strings.HasPrefix(got.Get("User-Agent"), "meetus/"))

	require.NoError(t, store.Set(ctx, "T1"))
	require.NoError(t, client.Do(ctx, http.MethodGet, "/ping", nil, nil))
	assert.Equal(t, "Bearer T1", got.Get("Authorization"))
}

func TestDo_TokenReadOnEveryRequest(t *testing.T) {
	var seen []string
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "A"))
	require.NoError(t, client.Do(ctx, http.MethodGet, "/", nil, nil))
	require.NoError(t, store.Set(ctx, "B"))
	require.NoError(t, client.Do(ctx, http.MethodGet, "/", nil, nil))
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, client.Do(ctx, http.MethodGet, "/", nil, nil))

	assert.Equal(t, []string{"Bearer A", "Bearer B", ""}, seen)
}

func TestDo_UniqueRequestIDs(t *testing.T) {
	ids := map[string]bool{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids[r.Header.Get("X-Request-ID")] = true
		w.WriteHeader(http.StatusNoContent)
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, client.Do(context.Background(), http.MethodGet, "/", nil, nil))
	}
	assert.Len(t, ids, 5)
}

func TestDo_ServerErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Invalid credentials"}`, "Invalid credentials"},
		{"error field", http.StatusBadRequest, `{"error":"bad_request"}`, "bad_request"},
		{"message wins over error", http.StatusBadRequest, `{"message":"m","error":"e"}`, "m"},
		{"plain text body", http.StatusBadGateway, `upstream down`, "An error occurred"},
		{"empty body", http.StatusInternalServerError, ``, "An error occurred"},
		{"forbidden", http.StatusForbidden, `{"message":"Forbidden"}`, "Forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := client.Do(context.Background(), http.MethodGet, "/", nil, nil)
			require.Error(t, err)

			pe, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, KindServer, pe.Kind)
			assert.Equal(t, tt.status, pe.Status)
			assert.Equal(t, tt.wantMsg, pe.Message)
		})
	}
}

func TestDo_UnauthorizedClearsToken(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token expired"}`))
	})
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "T1"))

	err := client.Do(ctx, http.MethodGet, "/anything", nil, nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Token expired", MessageOf(err, "fallback"))

	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestDo_OtherStatusesKeepToken(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, "T1"))

		require.Error(t, client.Do(ctx, http.MethodGet, "/", nil, nil))

		token, err := store.Get(ctx)
		require.NoError(t, err, "status %d", status)
		assert.Equal(t, "T1", token)
	}
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(DefaultConfig(url), tokenstore.NewMemoryStore())
	err := client.Do(context.Background(), http.MethodGet, "/", nil, nil)
	require.Error(t, err)

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, pe.Kind)
	assert.Equal(t, "Network error - no response received", pe.Message)
	assert.True(t, IsNetwork(err))
}

func TestDo_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	client := NewClient(cfg, tokenstore.NewMemoryStore())

	err := client.Do(context.Background(), http.MethodGet, "/", nil, nil)
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
}

func TestDo_CancelledContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Do(ctx, http.MethodGet, "/", nil, nil)
	require.Error(t, err)

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindClient, pe.Kind)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NotEmpty(t, pe.Message)
}

func TestDo_UnencodableBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	})

	err := client.Do(context.Background(), http.MethodPost, "/", map[string]any{"ch": make(chan int)}, nil)
	require.Error(t, err)

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindClient, pe.Kind)
	assert.Contains(t, pe.Message, "marshal")
}

func TestDo_NonJSONSuccessBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>ok</html>"))
	})

	var out map[string]any
	err := client.Do(context.Background(), http.MethodGet, "/", nil, &out)
	require.Error(t, err)

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindServer, pe.Kind)
	assert.Equal(t, http.StatusOK, pe.Status)
}

func TestDo_LogsRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: log.LevelDebug, Format: log.FormatJSON, Output: log.NewOutput(&buf)})

	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client.WithLogger(logger)
	require.NoError(t, store.Set(context.Background(), "super-secret"))

	_ = client.Do(context.Background(), http.MethodGet, "/v1/user/info", nil, nil)

	out := buf.String()
	assert.Contains(t, out, "sending request")
	assert.Contains(t, out, "request_id")
	assert.Contains(t, out, "stored token cleared")
	assert.NotContains(t, out, "super-secret")
}

func TestDo_TruncatedErrorBodyLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: log.LevelDebug, Format: log.FormatJSON, Output: log.NewOutput(&buf)})

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Promise more bytes than are sent so the read fails mid-body.
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":`))
	})
	client.WithLogger(logger)

	err := client.Do(context.Background(), http.MethodGet, "/", nil, nil)
	require.Error(t, err)

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, pe.Status)
	assert.Equal(t, "An error occurred", pe.Message)
	assert.Contains(t, buf.String(), "failed to read error response body")
}

func TestLogin(t *testing.T) {
	var body LoginRequest
	var method, path string
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"token":"T1"}`))
	})

	resp, err := client.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "T1", resp.Token)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/v1/yeshtery/token", path)
	assert.Equal(t, LoginRequest{Email: "a@b.com", Password: "secret", IsEmployee: true}, body)

	_, err = store.Get(context.Background())
	assert.ErrorIs(t, err, tokenstore.ErrNotFound, "Login must not persist the token")
}

func TestUserInfo(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/user/info", r.URL.Path)
		assert.Equal(t, "Bearer T1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":1,"name":"Ann"}`))
	})
	require.NoError(t, store.Set(context.Background(), "T1"))

	raw, err := client.UserInfo(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Ann"}`, string(raw))
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{BaseURL: "https://api.example.com/"}, tokenstore.NewMemoryStore())

	assert.Equal(t, "https://api.example.com", client.BaseURL())
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
	assert.NotEmpty(t, client.cfg.UserAgent)
}

func TestErrorString(t *testing.T) {
	err := &Error{Kind: KindServer, Status: 404, Message: "Not found"}
	assert.Equal(t, "server error (HTTP 404): Not found", err.Error())

	err = &Error{Kind: KindNetwork, Message: msgNetwork, Cause: errors.New("refused")}
	assert.Contains(t, err.Error(), "network error")
	assert.Contains(t, err.Error(), "refused")

	assert.Equal(t, "fallback", MessageOf(errors.New("plain"), "fallback"))
	assert.Equal(t, "unknown", Kind(0).String())
}
