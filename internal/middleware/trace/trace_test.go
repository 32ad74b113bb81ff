package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"budget/internal/log"
)

func TestGenerateRequestID(t *testing.T) {
	re := regexp.MustCompile(`^req_[0-9a-f]{16}$`)
	a, b := GenerateRequestID(), GenerateRequestID()
	if !re.MatchString(a) {
		t.Fatalf("unexpected id format %q", a)
	}
	if a == b {
		t.Fatal("ids should differ")
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelInfo, Output: &buf})
	m := NewMiddleware(logger, func(*http.Request) string { return "10.0.0.1" })

	var seenID string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		if log.FromContext(r.Context()).Component() != log.ComponentHTTP {
			t.Error("expected request-scoped http logger")
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if seenID == "" || rec.Header().Get(HeaderRequestID) != seenID {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seenID, rec.Header().Get(HeaderRequestID))
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "status_code=404") {
		t.Fatalf("expected warn completion line, got %q", out)
	}
	if m.TotalRequests() != 1 {
		t.Fatalf("expected 1 request, got %d", m.TotalRequests())
	}
}
