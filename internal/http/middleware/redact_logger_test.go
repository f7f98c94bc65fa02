package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedact(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"black wallet", "black wallet"},
		{"mail jane.doe@example.com", "mail [REDACTED:email]"},
		{"call 212-555-1212", "call [REDACTED:phone]"},
		{"id 123e4567-e89b-12d3-a456-426614174000", "id [REDACTED:id]"},
		{"imei 35693803564380", "imei [REDACTED:phone]"},
		{"serial SN4829XKQ7", "serial [REDACTED:serial]"},
		{"page=2&page_size=20", "page=2&page_size=20"},
	}
	for _, tc := range cases {
		if got := Redact(tc.in); got != tc.want {
			t.Errorf("Redact(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAccessLog_LevelsAndRedaction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(AccessLog(RedactOptions{MaskHeaders: []string{"X-Api-Key"}, SkipPaths: []string{"/health"}}))
	r.GET("/items/search", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/items/search?q=wallet+jane@example.com", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Api-Key", "k-123")
	req.Header.Set("X-Note", "ring 212 555 1212")
	r.ServeHTTP(httptest.NewRecorder(), req)
	for _, p := range []string{"/bad", "/boom", "/health", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 access lines (health skipped), got %d:\n%s", len(lines), buf.String())
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if first["level"] != "info" || first["path"] != "/items/search" {
		t.Fatalf("first line: %v", first)
	}
	if q := first["query"].(string); strings.Contains(q, "jane@") || !strings.Contains(q, "[REDACTED:email]") {
		t.Fatalf("query not scrubbed: %q", q)
	}
	hdrs := first["headers"].(map[string]any)
	if hdrs["Authorization"] != "[REDACTED]" || hdrs["X-Api-Key"] != "[REDACTED]" {
		t.Fatalf("headers not masked: %v", hdrs)
	}
	if hdrs["X-Note"] != "ring [REDACTED:phone]" {
		t.Fatalf("header value not scrubbed: %v", hdrs["X-Note"])
	}

	levels := []string{}
	for _, l := range lines[1:] {
		var m map[string]any
		_ = json.Unmarshal([]byte(l), &m)
		levels = append(levels, m["level"].(string)+" "+m["path"].(string))
	}
	want := []string{"warn /bad", "error /boom", "warn /nope"}
	for i := range want {
		if levels[i] != want[i] {
			t.Fatalf("levels = %v, want %v", levels, want)
		}
	}
}
