package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apierrors "github.com/stwalsh4118/estimo/api/internal/errors"
	"github.com/stwalsh4118/estimo/api/internal/logger"
	"github.com/stwalsh4118/estimo/api/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// logLines decodes newline-delimited JSON log output.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			t.Fatalf("Invalid log line %q: %v", raw, err)
		}
		lines = append(lines, entry)
	}
	return lines
}

func scrape(m *metrics.Metrics) string {
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return w.Body.String()
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		upstream string
		keep     bool
	}{
		{name: "generated when absent", upstream: "", keep: false},
		{name: "well-formed upstream ID kept", upstream: "lb-7f3a.42:9", keep: true},
		{name: "uuid from upstream kept", upstream: "0b7c3c52-9a1e-4c55-8f11-3e0f0d7a2b61", keep: true},
		{name: "overlong ID replaced", upstream: strings.Repeat("a", 65), keep: false},
		{name: "ID with spaces replaced", upstream: "abc def", keep: false},
		{name: "ID with quotes replaced", upstream: `x"}{"admin":true`, keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fromContext string
			router := gin.New()
			router.Use(RequestID())
			router.GET("/properties", func(c *gin.Context) {
				fromContext = logger.RequestIDFromContext(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/properties", nil)
			if tt.upstream != "" {
				req.Header.Set(RequestIDHeader, tt.upstream)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			headerID := w.Header().Get(RequestIDHeader)
			if fromContext != headerID {
				t.Errorf("Expected request context to carry %q, got %q", headerID, fromContext)
			}
			if tt.keep {
				if headerID != tt.upstream {
					t.Errorf("Expected upstream ID %q to be kept, got %q", tt.upstream, headerID)
				}
				return
			}
			if _, err := uuid.Parse(headerID); err != nil {
				t.Errorf("Expected a generated UUID, got %q", headerID)
			}
		})
	}
}

func TestGetters_WithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/properties", nil)

	if id := GetRequestID(c); id != "" {
		t.Errorf("Expected empty request ID, got %q", id)
	}
	if log := GetLogger(c); log != nil {
		t.Error("Expected nil logger")
	}
}

func TestLogger_AccessLine(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestID())
	router.Use(Logger(logger.NewWithWriter("production", &buf)))
	router.GET("/api/v1/properties/:id", func(c *gin.Context) {
		GetLogger(c).Info("Handler note", nil)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/p5?fields=all", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	router.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("Expected handler line and access line, got %d lines", len(lines))
	}
	for _, line := range lines {
		if line["request_id"] != "req-7" {
			t.Errorf("Expected request_id req-7 on every line, got %v", line["request_id"])
		}
		if line["component"] != "http" {
			t.Errorf("Expected component http, got %v", line["component"])
		}
	}

	access := lines[1]
	if access["message"] != "Request completed" {
		t.Errorf("Unexpected access message %v", access["message"])
	}
	if access["route"] != "/api/v1/properties/:id" {
		t.Errorf("Expected route template, got %v", access["route"])
	}
	if access["path"] != "/api/v1/properties/p5" {
		t.Errorf("Expected raw path, got %v", access["path"])
	}
	if access["query"] != "fields=all" {
		t.Errorf("Expected query, got %v", access["query"])
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name          string
		route         string
		status        int
		expectedLevel string
	}{
		{name: "success is info", route: "/api/v1/properties", status: http.StatusOK, expectedLevel: "info"},
		{name: "client error is warn", route: "/api/v1/properties", status: http.StatusBadRequest, expectedLevel: "warn"},
		{name: "server error is error", route: "/api/v1/properties", status: http.StatusServiceUnavailable, expectedLevel: "error"},
		{name: "health poll is below info", route: "/health/ready", status: http.StatusOK, expectedLevel: ""},
		{name: "failing health poll is still logged", route: "/health/ready", status: http.StatusServiceUnavailable, expectedLevel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			router := gin.New()
			router.Use(Logger(logger.NewWithWriter("production", &buf)))
			router.GET(tt.route, func(c *gin.Context) {
				c.Status(tt.status)
			})

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.route, nil))

			lines := logLines(t, &buf)
			if tt.expectedLevel == "" {
				if len(lines) != 0 {
					t.Errorf("Expected no info-level output, got %v", lines)
				}
				return
			}
			if len(lines) != 1 {
				t.Fatalf("Expected one access line, got %d", len(lines))
			}
			if lines[0]["level"] != tt.expectedLevel {
				t.Errorf("Expected level %s, got %v", tt.expectedLevel, lines[0]["level"])
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	t.Run("answers with the error envelope and counts the panic", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.NewWithWriter("production", &buf)
		m := metrics.New()

		router := gin.New()
		router.Use(RequestID())
		router.Use(Logger(log))
		router.Use(Recovery(log, m))
		router.GET("/api/v1/properties/:id", func(c *gin.Context) {
			panic("nil snapshot")
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/p1", nil)
		req.Header.Set(RequestIDHeader, "req-panic")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("Expected status 500 after panic, got %d", w.Code)
		}

		var response apierrors.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Expected error envelope: %v", err)
		}
		if response.Error.Code != apierrors.ErrInternalServer {
			t.Errorf("Expected code %s, got %s", apierrors.ErrInternalServer, response.Error.Code)
		}
		if response.Error.RequestID != "req-panic" {
			t.Errorf("Expected request ID req-panic, got %q", response.Error.RequestID)
		}
		if strings.Contains(w.Body.String(), "nil snapshot") {
			t.Error("Panic value must not reach the client")
		}

		want := `estimo_http_panics_total{route="/api/v1/properties/:id"} 1`
		if !strings.Contains(scrape(m), want) {
			t.Errorf("Expected %q in metrics output", want)
		}

		logs := buf.String()
		if !strings.Contains(logs, "Panic recovered") || !strings.Contains(logs, `"stack"`) {
			t.Error("Expected panic to be logged with a stack")
		}
	})

	t.Run("leaves a started response alone", func(t *testing.T) {
		m := metrics.New()
		router := gin.New()
		router.Use(Recovery(logger.Nop(), m))
		router.GET("/api/v1/properties", func(c *gin.Context) {
			c.String(http.StatusOK, "partial")
			panic("after write")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil))

		if w.Code != http.StatusOK || w.Body.String() != "partial" {
			t.Errorf("Expected the written response untouched, got %d %q", w.Code, w.Body.String())
		}
		if !strings.Contains(scrape(m), `estimo_http_panics_total{route="/api/v1/properties"} 1`) {
			t.Error("Expected the panic to be counted")
		}
	})

	t.Run("re-panics http.ErrAbortHandler", func(t *testing.T) {
		router := gin.New()
		router.Use(Recovery(logger.Nop(), metrics.New()))
		router.GET("/abort", func(c *gin.Context) {
			panic(http.ErrAbortHandler)
		})

		defer func() {
			if rec := recover(); rec != http.ErrAbortHandler {
				t.Errorf("Expected http.ErrAbortHandler to propagate, got %v", rec)
			}
		}()
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/abort", nil))
	})
}

func TestCORS(t *testing.T) {
	allowedOrigins := []string{"http://localhost:3000"}

	newRouter := func() *gin.Engine {
		router := gin.New()
		router.Use(CORS(allowedOrigins))
		router.POST("/api/v1/properties/compare", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return router
	}

	t.Run("preflight allows read and compute methods only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/properties/compare", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		newRouter().ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("Expected status 204 for preflight, got %d", w.Code)
		}
		methods := w.Header().Get("Access-Control-Allow-Methods")
		if !strings.Contains(methods, "POST") {
			t.Errorf("Expected POST in %q", methods)
		}
		for _, forbidden := range []string{"PUT", "PATCH", "DELETE"} {
			if strings.Contains(methods, forbidden) {
				t.Errorf("Did not expect %s in %q", forbidden, methods)
			}
		}
	})

	t.Run("exposes the request ID without credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/properties/compare", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		newRouter().ServeHTTP(w, req)

		exposed := strings.ToLower(w.Header().Get("Access-Control-Expose-Headers"))
		if !strings.Contains(exposed, strings.ToLower(RequestIDHeader)) {
			t.Error("Expected X-Request-ID to be exposed")
		}
		if w.Header().Get("Access-Control-Allow-Credentials") != "" {
			t.Error("Expected no Access-Control-Allow-Credentials header")
		}
	})

	t.Run("rejects preflight from unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/properties/compare", nil)
		req.Header.Set("Origin", "http://evil.com")
		w := httptest.NewRecorder()
		newRouter().ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("Expected status 403, got %d", w.Code)
		}
	})
}

func TestMetrics(t *testing.T) {
	t.Run("labels requests by route template", func(t *testing.T) {
		m := metrics.New()
		router := gin.New()
		router.Use(Metrics(m))
		router.GET("/properties/:id", func(c *gin.Context) {
			c.String(http.StatusOK, c.Param("id"))
		})

		for _, id := range []string{"p1", "p2"} {
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/properties/"+id, nil))
		}

		body := scrape(m)
		want := `estimo_http_requests_total{method="GET",route="/properties/:id",status="200"} 2`
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in metrics output", want)
		}
		if !strings.Contains(body, `estimo_http_requests_in_flight 0`) {
			t.Error("Expected in-flight gauge to return to zero")
		}
	})

	t.Run("labels unknown routes as unmatched", func(t *testing.T) {
		m := metrics.New()
		router := gin.New()
		router.Use(Metrics(m))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

		want := `estimo_http_requests_total{method="GET",route="unmatched",status="404"} 1`
		if !strings.Contains(scrape(m), want) {
			t.Errorf("Expected %q in metrics output", want)
		}
	})
}
