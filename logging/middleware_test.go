package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// newAccessLogRouter mounts the access log the way the server does, in front
// of stub search, catalog page and prescription routes.
func newAccessLogRouter(logOutput *strings.Builder, skipPaths ...string) http.Handler {
	logger := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: slog.LevelInfo}))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(logger, skipPaths...))

	r.Get("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"results":[]}`))
	})
	r.Get("/drugs/{pageNumber}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	r.Post("/generate_pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4\n"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

func TestLoggingMiddlewareRequests(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		target    string
		requestID string
		status    int
		contains  []string
		excludes  []string
	}{
		{
			name:      "search logs query and route",
			method:    http.MethodGet,
			target:    "/search?q=dolo+650&limit=5",
			requestID: "rx-search",
			status:    http.StatusOK,
			contains: []string{
				"level=INFO",
				`msg="HTTP request"`,
				"request_id=rx-search",
				"method=GET",
				"path=/search",
				"route=/search",
				`query="q=dolo+650&limit=5"`,
				"status_code=200",
				"bytes_written=14",
			},
		},
		{
			name:      "catalog page logs route pattern without query",
			method:    http.MethodGet,
			target:    "/drugs/3",
			requestID: "rx-page",
			status:    http.StatusOK,
			contains:  []string{"path=/drugs/3", "route=/drugs/{pageNumber}", "bytes_written=2"},
			excludes:  []string{"query="},
		},
		{
			name:      "prescription download logs body size",
			method:    http.MethodPost,
			target:    "/generate_pdf",
			requestID: "rx-pdf",
			status:    http.StatusOK,
			contains:  []string{"method=POST", "route=/generate_pdf", "status_code=200", "bytes_written=9"},
		},
		{
			name:      "rejected search stays at info",
			method:    http.MethodGet,
			target:    "/search",
			requestID: "rx-bad",
			status:    http.StatusBadRequest,
			contains:  []string{"level=INFO", "status_code=400", "bytes_written=0"},
			excludes:  []string{"query="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logOutput strings.Builder
			router := newAccessLogRouter(&logOutput)

			req := httptest.NewRequest(tt.method, tt.target, nil)
			req.Header.Set(middleware.RequestIDHeader, tt.requestID)
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rr.Code)
			}

			logs := logOutput.String()
			if strings.Count(logs, "HTTP request") != 1 {
				t.Fatalf("Expected exactly one access log line, got: %s", logs)
			}
			for _, want := range tt.contains {
				if !strings.Contains(logs, want) {
					t.Errorf("Expected log to contain %s, got: %s", want, logs)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(logs, unwanted) {
					t.Errorf("Expected log not to contain %s, got: %s", unwanted, logs)
				}
			}
		})
	}
}

func TestLoggingMiddlewareSkipsDefaultPaths(t *testing.T) {
	for _, path := range DefaultSkipPaths {
		t.Run(path, func(t *testing.T) {
			var logOutput strings.Builder
			rr := httptest.NewRecorder()

			newAccessLogRouter(&logOutput).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			if rr.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", rr.Code)
			}
			if logOutput.Len() != 0 {
				t.Errorf("Expected no logs for %s, got: %s", path, logOutput.String())
			}
		})
	}
}

func TestLoggingMiddlewareUnknownRequestID(t *testing.T) {
	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"missing", context.Background()},
		{"not a string", context.WithValue(context.Background(), middleware.RequestIDKey, 12345)},
		{"empty", context.WithValue(context.Background(), middleware.RequestIDKey, "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logOutput.Reset()
			req := httptest.NewRequest(http.MethodGet, "/search?q=dolo", nil).WithContext(tt.ctx)

			handler.ServeHTTP(httptest.NewRecorder(), req)

			if !strings.Contains(logOutput.String(), "request_id=unknown") {
				t.Errorf("Expected request_id=unknown, got: %s", logOutput.String())
			}
		})
	}
}

func TestLoggingMiddlewareCustomSkipPaths(t *testing.T) {
	var logOutput strings.Builder
	router := newAccessLogRouter(&logOutput, "/drugs/1")

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/drugs/1", nil))
	if logOutput.Len() != 0 {
		t.Errorf("Expected no logs for /drugs/1, got: %s", logOutput.String())
	}

	// Defaults are replaced, not extended
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.Contains(logOutput.String(), "path=/health") {
		t.Errorf("Expected /health to be logged with custom skip paths, got: %s", logOutput.String())
	}
}

func TestLoggingMiddlewareServerErrorsAtWarn(t *testing.T) {
	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/search?q=dolo", nil))

	logs := logOutput.String()
	if !strings.Contains(logs, "level=WARN") {
		t.Errorf("Expected WARN level for 503, got: %s", logs)
	}
	if !strings.Contains(logs, "status_code=503") {
		t.Errorf("Expected status_code=503, got: %s", logs)
	}
}

func TestResponseWriterWrapperFlush(t *testing.T) {
	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("Expected the wrapped writer to implement http.Flusher")
		}
		w.Write([]byte("%PDF"))
		f.Flush()
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/generate_pdf", nil))

	if !rr.Flushed {
		t.Error("Expected the flush to reach the underlying writer")
	}
	if !strings.Contains(logOutput.String(), "bytes_written=4") {
		t.Errorf("Expected bytes_written=4, got: %s", logOutput.String())
	}
}
