package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCurrentClient(t *testing.T) {
	ts := setupTestServer(t)
	auth, sessionID := ts.registerClient(t, "alice")
	ts.createTag(t, auth.AccessToken, "Bike")

	// Bearer token.
	rec := ts.do(t, http.MethodGet, "/api/v1/clients/me", bearer(auth.AccessToken), nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	env := decodeEnvelope[ClientWithTagsResponse](t, rec)
	assert.Equal(t, "alice", env.Data.Client.Name)
	assert.Len(t, env.Data.Tags, 1)

	// Session cookie works too.
	rec = ts.do(t, http.MethodGet, "/api/v1/clients/me",
		map[string]string{"Cookie": sessionCookieName + "=" + sessionID}, nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
}

func TestGetCurrentClient_LegacyHeaders(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerClient(t, "alice")

	rec := ts.do(t, http.MethodGet, "/api/v1/clients/me", map[string]string{
		"X-Client-Name":     "alice",
		"X-Client-Password": testPassword,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	env := decodeEnvelope[ClientWithTagsResponse](t, rec)
	assert.Equal(t, "alice", env.Data.Client.Name)
}

func TestUpdateCurrentClient(t *testing.T) {
	ts := setupTestServer(t)
	auth, _ := ts.registerClient(t, "alice")

	rec := ts.do(t, http.MethodPatch, "/api/v1/clients/me", bearer(auth.AccessToken), map[string]any{
		"name": "alice-renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	env := decodeEnvelope[ClientResponse](t, rec)
	assert.Equal(t, "alice-renamed", env.Data.Name)
}

func TestChangePassword(t *testing.T) {
	ts := setupTestServer(t)
	auth, _ := ts.registerClient(t, "alice")
	newPassword := "An0ther-Secret!"

	rec := ts.do(t, http.MethodPut, "/api/v1/clients/me/password", bearer(auth.AccessToken), map[string]any{
		"current_password": testPassword,
		"new_password":     newPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	// Old password is dead, the new one works.
	rec = ts.do(t, http.MethodGet, "/api/v1/clients/me", map[string]string{
		"X-Client-Name":     "alice",
		"X-Client-Password": testPassword,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/clients/me", map[string]string{
		"X-Client-Name":     "alice",
		"X-Client-Password": newPassword,
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	ts := setupTestServer(t)
	auth, _ := ts.registerClient(t, "alice")

	rec := ts.do(t, http.MethodPut, "/api/v1/clients/me/password", bearer(auth.AccessToken), map[string]any{
		"current_password": "Wr0ng-Password!",
		"new_password":     "An0ther-Secret!",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	env := decodeEnvelope[any](t, rec)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Code)
}

func TestExportData(t *testing.T) {
	ts := setupTestServer(t)
	auth, _ := ts.registerClient(t, "alice")
	ts.createTag(t, auth.AccessToken, "Bike")
	ts.createTag(t, auth.AccessToken, "Keys")

	rec := ts.do(t, http.MethodGet, "/api/v1/clients/me/export", bearer(auth.AccessToken), nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	env := decodeEnvelope[ClientWithTagsResponse](t, rec)
	assert.Equal(t, "alice", env.Data.Client.Name)
	assert.Len(t, env.Data.Tags, 2)
}

func TestDeleteCurrentClient(t *testing.T) {
	ts := setupTestServer(t)
	auth, _ := ts.registerClient(t, "alice")
	tag := ts.createTag(t, auth.AccessToken, "Bike")

	rec := ts.do(t, http.MethodDelete, "/api/v1/clients/me", bearer(auth.AccessToken), nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "account deletion should clear the session cookie")

	// The client and its tags are gone.
	rec = ts.do(t, http.MethodGet, "/api/v1/clients/me", bearer(auth.AccessToken), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/t/"+tag.Slug, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
