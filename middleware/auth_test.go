package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskman/middleware"
	"taskman/token"
)

func testService() *token.Service {
	return token.New(token.Config{
		AccessSecret:  "test-access",
		RefreshSecret: "test-refresh",
	})
}

func TestRequireAuth(t *testing.T) {
	svc := testService()
	userID := uuid.New()

	pair, err := svc.IssuePair(userID)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	expiredSvc := token.New(token.Config{
		AccessSecret:  "test-access",
		RefreshSecret: "test-refresh",
		Now:           func() time.Time { return time.Now().Add(-time.Hour) },
	})
	expiredPair, err := expiredSvc.IssuePair(userID)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "missing header",
			header:      "",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "No token provided",
		},
		{
			name:        "not a bearer header",
			header:      "Basic dXNlcjpwYXNz",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "bearer with no token",
			header:      "Bearer",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "garbage token",
			header:      "Bearer not-a-jwt",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "expired token",
			header:      "Bearer " + expiredPair.AccessToken,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "refresh token in place of access",
			header:      "Bearer " + pair.RefreshToken,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:       "valid token",
			header:     "Bearer " + pair.AccessToken,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser uuid.UUID
			var sawUser bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, sawUser = middleware.UserID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			middleware.RequireAuth(svc, next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if !sawUser || gotUser != userID {
					t.Errorf("handler saw user %v (ok=%v), want %v", gotUser, sawUser, userID)
				}
				return
			}

			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("message = %q, want %q", body["message"], tt.wantMessage)
			}
		})
	}
}
