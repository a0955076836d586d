package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliceline/sliceline/internal/users"
)

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	sessions := newMockSessions()
	metrics := &countingMetrics{}
	userService := users.NewService(newMockUserRepo())
	svc := NewService(NewCodec("secret"), sessions, userService, metrics, slog.New(slog.DiscardHandler))
	handler := NewHandler(slog.New(slog.DiscardHandler), svc, userService)
	middleware := NewMiddleware(svc)

	r := chi.NewRouter()
	handler.MountRoutes(r, middleware.RequireAuth)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, token, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

func register(t *testing.T, srv *httptest.Server, name, email, password string) (users.User, string) {
	t.Helper()
	resp, body := do(t, http.MethodPost, srv.URL+"/", "",
		`{"name":"`+name+`","email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var reply struct {
		User  users.User `json:"user"`
		Token string     `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &reply))
	return reply.User, reply.Token
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newAuthServer(t)

	user, token := register(t, srv, "pizza diner", "d@jwt.com", "diner")
	assert.NotZero(t, user.ID)
	assert.Len(t, strings.Split(token, "."), 3)
}

func TestRegisterMissingFields(t *testing.T) {
	srv := newAuthServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/", "", `{"email":"d@jwt.com"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "name, email, and password are required")
}

func TestRegisterResponseOmitsPassword(t *testing.T) {
	srv := newAuthServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/", "",
		`{"name":"a","email":"d@jwt.com","password":"supersecret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), "supersecret")
	assert.NotContains(t, string(body), "password")
}

func TestLoginEndpoint(t *testing.T) {
	srv := newAuthServer(t)
	register(t, srv, "a", "d@jwt.com", "diner")

	resp, body := do(t, http.MethodPut, srv.URL+"/", "", `{"email":"d@jwt.com","password":"diner"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "token")

	resp, body = do(t, http.MethodPut, srv.URL+"/", "", `{"email":"d@jwt.com","password":"wrong"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "unknown user")
}

func TestLogoutEndpointRevokesToken(t *testing.T) {
	srv := newAuthServer(t)
	_, token := register(t, srv, "a", "d@jwt.com", "diner")

	resp, body := do(t, http.MethodDelete, srv.URL+"/", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "logout successful")

	// The token no longer authenticates anything.
	resp, _ = do(t, http.MethodDelete, srv.URL+"/", token, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutWithoutTokenIsRejected(t *testing.T) {
	srv := newAuthServer(t)

	resp, _ := do(t, http.MethodDelete, srv.URL+"/", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateUserEndpointAuthorization(t *testing.T) {
	srv := newAuthServer(t)
	target, _ := register(t, srv, "a", "a@jwt.com", "x")
	_, otherToken := register(t, srv, "b", "b@jwt.com", "y")

	resp, body := do(t, http.MethodPut, srv.URL+"/"+itoa(target.ID), otherToken,
		`{"email":"hijack@jwt.com"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "unable to update user")
}

func TestUpdateUserEndpointSelf(t *testing.T) {
	srv := newAuthServer(t)
	user, token := register(t, srv, "a", "a@jwt.com", "x")

	resp, body := do(t, http.MethodPut, srv.URL+"/"+itoa(user.ID), token,
		`{"email":"new@jwt.com","password":"new"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
