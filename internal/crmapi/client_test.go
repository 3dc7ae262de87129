package crmapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHolder struct {
	mu     sync.Mutex
	tokens Tokens
	scope  string
	sets   int
}

func (h *testHolder) Tokens() Tokens {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tokens
}

func (h *testHolder) SetTokens(t Tokens) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tokens = t
	h.sets++
}

func (h *testHolder) CacheScope() string { return h.scope }

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+"/api/", time.Second, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestConn_SendsBearerAndDecodesPage(t *testing.T) {
	var gotAuth, gotQuery, gotCT string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/clients/", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{
			"count":    1,
			"next":     nil,
			"previous": nil,
			"results":  []map[string]any{{"id": 3, "first_name": "Jane", "status": "active"}},
		})
	})

	client := newTestClient(t, mux)
	conn := client.Conn(&testHolder{tokens: Tokens{Access: "acc"}})

	page, err := conn.ListClients(context.Background(), url.Values{"status": {"active"}})
	require.NoError(t, err)
	assert.Equal(t, "Bearer acc", gotAuth)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, "status=active", gotQuery)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Jane", page.Results[0].FirstName)
}

func TestConn_RefreshOnceOn401(t *testing.T) {
	var refreshCalls, apptCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh"] != "ref" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access": "new-acc"})
	})
	mux.HandleFunc("/api/appointments/5/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apptCalls, 1)
		if r.Header.Get("Authorization") != "Bearer new-acc" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 5, "status": "scheduled"})
	})

	client := newTestClient(t, mux)
	holder := &testHolder{tokens: Tokens{Access: "old-acc", Refresh: "ref"}}

	appt, err := client.Conn(holder).GetAppointment(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), appt.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&apptCalls))
	assert.Equal(t, Tokens{Access: "new-acc", Refresh: "ref"}, holder.Tokens())
}

func TestConn_RefreshRotatesRefreshToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"access": "a2", "refresh": "r2"})
	})
	mux.HandleFunc("/api/workers/stats/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"total": 4, "on_leave": 1})
	})

	client := newTestClient(t, mux)
	holder := &testHolder{tokens: Tokens{Access: "a1", Refresh: "r1"}}

	stats, err := client.Conn(holder).WorkerStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.OnLeave)
	assert.Equal(t, Tokens{Access: "a2", Refresh: "r2"}, holder.Tokens())
}

func TestConn_ConcurrentRefreshSpendsRotatedTokenOnce(t *testing.T) {
	var refreshCalls int32
	var mu sync.Mutex
	spent := map[string]bool{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		used := spent[body["refresh"]]
		spent[body["refresh"]] = true
		mu.Unlock()
		if used || body["refresh"] != "r1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is blacklisted"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access": "a2", "refresh": "r2"})
	})
	stats := func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a2" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"total": 1})
	}
	mux.HandleFunc("/api/appointments/stats/", stats)
	mux.HandleFunc("/api/clients/stats/", stats)
	mux.HandleFunc("/api/workers/stats/", stats)

	client := newTestClient(t, mux)
	holder := &testHolder{tokens: Tokens{Access: "a1", Refresh: "r1"}}

	calls := []func(context.Context) error{
		func(ctx context.Context) error { _, err := client.Conn(holder).AppointmentStats(ctx); return err },
		func(ctx context.Context) error { _, err := client.Conn(holder).ClientStats(ctx); return err },
		func(ctx context.Context) error { _, err := client.Conn(holder).WorkerStats(ctx); return err },
		func(ctx context.Context) error { _, err := client.Conn(holder).ClientStats(ctx); return err },
	}
	errs := make([]error, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call func(context.Context) error) {
			defer wg.Done()
			errs[i] = call(context.Background())
		}(i, call)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "call %d", i)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, Tokens{Access: "a2", Refresh: "r2"}, holder.Tokens())
}

func TestConn_SessionExpired(t *testing.T) {
	t.Run("RefreshRejected", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		})
		mux.HandleFunc("/api/clients/1/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		client := newTestClient(t, mux)
		holder := &testHolder{tokens: Tokens{Access: "a", Refresh: "r"}}

		_, err := client.Conn(holder).GetClient(context.Background(), 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSessionExpired))
		assert.Equal(t, 0, holder.sets)
	})

	t.Run("StillUnauthorizedAfterRefresh", func(t *testing.T) {
		var refreshCalls, calls int32
		mux := http.NewServeMux()
		mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&refreshCalls, 1)
			writeJSON(w, http.StatusOK, map[string]string{"access": "a2"})
		})
		mux.HandleFunc("/api/clients/1/", func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusUnauthorized)
		})
		client := newTestClient(t, mux)

		_, err := client.Conn(&testHolder{tokens: Tokens{Access: "a", Refresh: "r"}}).GetClient(context.Background(), 1)
		assert.True(t, errors.Is(err, ErrSessionExpired))
		assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("NoRefreshToken", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/clients/1/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		client := newTestClient(t, mux)

		_, err := client.Conn(&testHolder{}).GetClient(context.Background(), 1)
		assert.True(t, errors.Is(err, ErrSessionExpired))
		assert.Equal(t, msgExpired, Message(err))
	})
}

func TestConn_ErrorsAreNotRetried(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/clients/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"Enter a valid email address."}})
	})
	client := newTestClient(t, mux)

	_, err := client.Conn(&testHolder{tokens: Tokens{Access: "a", Refresh: "r"}}).CreateClient(context.Background(), map[string]string{"email": "x"})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Enter a valid email address.", apiErr.Message())
	assert.Equal(t, "Enter a valid email address.", apiErr.FieldError("email"))
}

func TestConn_StatusActions(t *testing.T) {
	bodies := make(map[string]string)
	var mu sync.Mutex
	mux := http.NewServeMux()
	record := func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies[r.Method+" "+r.URL.Path] = strings.TrimSpace(string(data))
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 9, "status": "completed"})
	}
	mux.HandleFunc("/api/appointments/9/complete/", record)
	mux.HandleFunc("/api/appointments/9/cancel/", record)
	mux.HandleFunc("/api/appointments/9/", record)

	client := newTestClient(t, mux)
	conn := client.Conn(&testHolder{tokens: Tokens{Access: "a"}})
	ctx := context.Background()

	_, err := conn.CompleteAppointment(ctx, 9, "all good")
	require.NoError(t, err)
	_, err = conn.CancelAppointment(ctx, 9, "")
	require.NoError(t, err)
	_, err = conn.UpdateAppointment(ctx, 9, map[string]string{"status": "no_show"})
	require.NoError(t, err)
	require.NoError(t, conn.DeleteAppointment(ctx, 9))

	assert.JSONEq(t, `{"completion_notes":"all good"}`, bodies["POST /api/appointments/9/complete/"])
	assert.JSONEq(t, `{}`, bodies["POST /api/appointments/9/cancel/"])
	assert.JSONEq(t, `{"status":"no_show"}`, bodies["PATCH /api/appointments/9/"])
	assert.Equal(t, "", bodies["DELETE /api/appointments/9/"])
}

func TestConn_PassthroughEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/appointments/conflicts/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-05-01", r.URL.Query().Get("date"))
		assert.Equal(t, "4", r.URL.Query().Get("worker_id"))
		writeJSON(w, http.StatusOK, map[string]any{"has_conflicts": false, "appointments": []any{}})
	})
	mux.HandleFunc("/api/workers/4/availability/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []string{"09:00", "10:00"})
	})
	mux.HandleFunc("/api/appointments/today/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1}, {"id": 2}})
	})

	client := newTestClient(t, mux)
	conn := client.Conn(&testHolder{tokens: Tokens{Access: "a"}})
	ctx := context.Background()

	conflicts, err := conn.CheckConflicts(ctx, "2025-05-01", 4)
	require.NoError(t, err)
	assert.JSONEq(t, `{"has_conflicts": false, "appointments": []}`, string(conflicts))

	avail, err := conn.WorkerAvailability(ctx, 4, "2025-05-01")
	require.NoError(t, err)
	assert.JSONEq(t, `["09:00","10:00"]`, string(avail))

	today, err := conn.TodayAppointments(ctx)
	require.NoError(t, err)
	assert.Len(t, today, 2)
}

func TestClient_Login(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access":  "acc",
			"refresh": "ref",
			"user":    map[string]any{"id": 1, "username": creds["username"], "is_superuser": true},
		})
	})
	client := newTestClient(t, mux)

	resp, err := client.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "acc", resp.Access)
	assert.Equal(t, "admin", resp.User.Username)
	assert.True(t, resp.User.IsSuperuser)

	_, err = client.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.Equal(t, "No active account found with the given credentials", Message(err))
}

func TestClient_TransportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1/api", 200*time.Millisecond, nil)
	_, err := client.Conn(&testHolder{}).ListWorkers(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, msgRequestFailed, Message(err))
}

func TestEndpointGroup(t *testing.T) {
	assert.Equal(t, "appointments", endpointGroup("/appointments/12/complete/"))
	assert.Equal(t, "auth", endpointGroup("/auth/login/"))
	assert.Equal(t, "clients", endpointGroup("/clients/"))
}
