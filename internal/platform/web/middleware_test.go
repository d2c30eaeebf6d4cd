package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_RequestIDInjector(t *testing.T) {
	testCases := []struct {
		name     string
		header   string
		expected func(t *testing.T, id string)
	}{
		{
			name:   "keeps incoming id",
			header: "abc-123",
			expected: func(t *testing.T, id string) {
				assert.Equal(t, "abc-123", id)
			},
		},
		{
			name: "generates uuid",
			expected: func(t *testing.T, id string) {
				_, err := uuid.Parse(id)
				assert.NoError(t, err)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			h := RequestIDInjector(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(middleware.RequestIDHeader, tc.header)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			tc.expected(t, seen)
			assert.Equal(t, seen, rr.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func Test_StructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/check", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Request completed", entry["msg"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/check", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(2), entry["bytes_written"])
}

func Test_Recoverer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()

	require.NotPanics(t, func() {
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, buf.String(), "Panic recovered")
	assert.Contains(t, buf.String(), "boom")
}

func Test_RespondJSON(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	t.Run("payload", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RespondJSON(rr, req, logger, http.StatusOK, map[string]string{"status": "valid"})
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
		assert.JSONEq(t, `{"status":"valid"}`, rr.Body.String())
	})

	t.Run("nil payload", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RespondJSON(rr, req, logger, http.StatusNoContent, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RespondError(rr, req, logger, http.StatusBadRequest, "bad")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
		assert.JSONEq(t, `{"error":"bad"}`, rr.Body.String())
	})
}

func Test_RespondJSON_EncodeFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	rr := httptest.NewRecorder()

	RespondJSON(rr, httptest.NewRequest(http.MethodGet, "/", nil), logger, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, buf.String(), "Error encoding response to JSON")
}
