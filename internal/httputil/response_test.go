package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"voicechat/internal/domain/models"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithExtras(rec, http.StatusTooManyRequests, "Rate limit exceeded", map[string]interface{}{
		"kind":    "provider_rate_limited",
		"details": "try later",
	})

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	want := map[string]interface{}{
		"type":    "https://datatracker.ietf.org/doc/html/rfc6585#section-4",
		"title":   "Too Many Requests",
		"status":  float64(429),
		"detail":  "Rate limit exceeded",
		"message": "Rate limit exceeded",
		"kind":    "provider_rate_limited",
		"details": "try later",
	}
	for k, v := range want {
		if body[k] != v {
			t.Errorf("body[%q] = %v, want %v", k, body[k], v)
		}
	}
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"message":"hi"}`, false},
		{"malformed", `{"message":`, true},
		{"trailing data", `{"message":"hi"} {"x":1}`, true},
		{"too large", `{"message":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dest struct {
				Message string `json:"message"`
			}
			err := ParseJSON(httptest.NewRecorder(), r, &dest)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if GetUser(r) != nil {
		t.Fatal("expected no user on a fresh request")
	}

	u := &models.User{ID: uuid.New(), Name: "Ada"}
	r = WithUser(r, u)
	if got := GetUser(r); got != u {
		t.Fatalf("GetUser() = %v, want %v", got, u)
	}
}
