package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"good-morning-backend/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator map[string]string

func (v stubValidator) ValidateJWT(token string) (string, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

func echoUserID(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(GetUserID(r.Context())))
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(stubValidator{"good": "user-1"})(http.HandlerFunc(echoUserID))

	tests := []struct {
		name       string
		prepare    func(*http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"}) },
			wantStatus: http.StatusOK,
			wantBody:   "user-1",
		},
		{
			name:       "bearer header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			wantStatus: http.StatusOK,
			wantBody:   "user-1",
		},
		{
			name:       "missing",
			prepare:    func(*http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Token good") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "forged"}) },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
				return
			}

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "UNAUTHORIZED", body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestValidateWebSocketToken(t *testing.T) {
	validator := stubValidator{"good": "user-1"}

	req := httptest.NewRequest(http.MethodGet, "/ws?token=good", nil)
	userID, err := ValidateWebSocketToken(req, validator)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	userID, err = ValidateWebSocketToken(req, validator)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	_, err = ValidateWebSocketToken(req, validator)
	assert.Error(t, err)
}

func TestWithMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(WithMetrics)
	r.Put("/notices/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPut, "/notices/{id}", "409"))
	for _, id := range []string{"n1", "n2"} {
		req := httptest.NewRequest(http.MethodPut, "/notices/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPut, "/notices/{id}", "409"))

	assert.Equal(t, 2.0, after-before)
}
