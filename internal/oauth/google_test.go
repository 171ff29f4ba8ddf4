package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestProvider(t *testing.T, userInfo string) *GoogleProvider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(userInfo))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewGoogleProvider("client", "secret", "http://localhost:24804/auth/google/callback")
	p.config.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	p.userInfoURL = srv.URL + "/userinfo"
	return p
}

func TestExchange(t *testing.T) {
	p := newTestProvider(t, `{"id":"g-1","email":"sam@example.com","verified_email":true,"name":"Sam","picture":"https://lh3/p.jpg"}`)

	user, err := p.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "g-1", user.ID)
	assert.Equal(t, "Sam", user.Name)
	assert.Equal(t, "https://lh3/p.jpg", user.Picture)
}

func TestExchangeRequiresVerifiedEmail(t *testing.T) {
	p := newTestProvider(t, `{"id":"g-2","email":"x@example.com","verified_email":false}`)

	_, err := p.Exchange(context.Background(), "auth-code")
	assert.ErrorIs(t, err, ErrNoEmail)
}

func TestAuthCodeURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "secret", "http://localhost/cb")

	u, err := url.Parse(p.AuthCodeURL("xyz"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
}

func TestNewStateUnique(t *testing.T) {
	a, err := NewState()
	require.NoError(t, err)
	b, err := NewState()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}

func TestStateKey(t *testing.T) {
	assert.Equal(t, "oauth:state:abc", stateKey("abc"))
}
