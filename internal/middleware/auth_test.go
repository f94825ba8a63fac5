package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestJWTAuthMiddleware(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	var gotUserID string
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token", func(t *testing.T) {
		token, err := auth.GenerateToken("user_2abcDEF", time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/userchats", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if gotUserID != "user_2abcDEF" {
			t.Errorf("expected subject 'user_2abcDEF', got %q", gotUserID)
		}
	})

	rejections := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "UNAUTHORIZED"},
		{"wrong scheme", "Basic abc123", "UNAUTHORIZED"},
		{"garbage token", "Bearer not.a.jwt", "UNAUTHORIZED"},
	}

	for _, tc := range rejections {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/userchats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}

			var body map[string]map[string]interface{}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if body["error"]["code"] != tc.code {
				t.Errorf("expected error code %q, got %v", tc.code, body["error"]["code"])
			}
		})
	}

	t.Run("expired token", func(t *testing.T) {
		token, err := auth.GenerateToken("user_2abcDEF", -time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/userchats", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}

		var body map[string]map[string]interface{}
		json.NewDecoder(rr.Body).Decode(&body)
		if body["error"]["code"] != "TOKEN_EXPIRED" {
			t.Errorf("expected TOKEN_EXPIRED, got %v", body["error"]["code"])
		}
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := NewJWTAuth("other-secret")
		token, _ := other.GenerateToken("user_2abcDEF", time.Minute)

		req := httptest.NewRequest(http.MethodGet, "/api/userchats", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Now()

	if !rl.allow("10.0.0.1:1234", now) {
		t.Fatal("first request should pass")
	}
	if !rl.allow("10.0.0.1:1234", now) {
		t.Fatal("second request should pass")
	}
	if rl.allow("10.0.0.1:1234", now) {
		t.Fatal("third request should be limited")
	}

	// Another client is unaffected.
	if !rl.allow("10.0.0.2:1234", now) {
		t.Fatal("separate client should pass")
	}

	// A new window resets the count.
	if !rl.allow("10.0.0.1:1234", now.Add(2*time.Minute)) {
		t.Fatal("request in a fresh window should pass")
	}
}
