package api

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// createTag mints a tag through the API for the given bearer token.
func (ts *testServer) createTag(t *testing.T, token, name string) TagResponse {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/v1/tags", bearer(token), map[string]any{
		"name": name,
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	env := decodeEnvelope[TagResponse](t, rec)
	require.True(t, env.Success)
	return env.Data
}

func TestCreateTag(t *testing.T) {
	ts := setupTestServer(t)
	auth, _ := ts.registerClient(t, "alice")

	rec := ts.do(t, http.MethodPost, "/api/v1/tags", bearer(auth.AccessToken), map[string]any{
		"name":         "Alice's Bike",
		"phone":        "+1 555 0100",
		"url":          "https://example.com/alice",
		"instructions": "Ring the bell twice.",
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	env := decodeEnvelope[TagResponse](t, rec)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Data.ID)
	assert.Regexp(t, `^[0-9a-z]{10}$`, env.Data.Slug)
	assert.Equal(t, "Alice's Bike", env.Data.Name)
	assert.Equal(t, "+1 555 0100", env.Data.Phone)
	assert.Contains(t, env.Data.LandingURL, "/api/v1/t/"+env.Data.Slug)
	assert.Zero(t, env.Data.ScanCount)
	assert.False(t, env.Data.HasImage)
}

func TestCreateTag_Unauthenticated(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/tags", nil, map[string]any{
		"name": "Orphan",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	env := decodeEnvelope[any](t, rec)
	assert.Equal(t, "UNAUTHENTICATED", env.Code)
}

func TestListTags(t *testing.T) {
	ts := setupTestServer(t)
	auth, _ := ts.registerClient(t, "alice")
	ts.createTag(t, auth.AccessToken, "Bike")
	ts.createTag(t, auth.AccessToken, "Keys")

	rec := ts.do(t, http.MethodGet, "/api/v1/tags", bearer(auth.AccessToken), nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	env := decodeEnvelope[[]TagResponse](t, rec)
	assert.Len(t, env.Data, 2)
}

func TestUpdateTag(t *testing.T) {
	ts := setupTestServer(t)
	auth, _ := ts.registerClient(t, "alice")
	tag := ts.createTag(t, auth.AccessToken, "Bike")

	rec := ts.do(t, http.MethodPatch, "/api/v1/tags/"+tag.ID, bearer(auth.AccessToken), map[string]any{
		"phone":   "+1 555 0101",
		"address": "42 Elm Street",
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	env := decodeEnvelope[TagResponse](t, rec)
	assert.Equal(t, "Bike", env.Data.Name)
	assert.Equal(t, "+1 555 0101", env.Data.Phone)
	assert.Equal(t, "42 Elm Street", env.Data.Address)
	assert.Equal(t, tag.Slug, env.Data.Slug)
}

func TestTagOwnership(t *testing.T) {
	ts := setupTestServer(t)
	alice, _ := ts.registerClient(t, "alice")
	bob, _ := ts.registerClient(t, "bob")
	tag := ts.createTag(t, alice.AccessToken, "Bike")

	rec := ts.do(t, http.MethodGet, "/api/v1/tags/"+tag.ID, bearer(bob.AccessToken), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	env := decodeEnvelope[any](t, rec)
	assert.Equal(t, "FORBIDDEN", env.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/tags/"+tag.ID, bearer(bob.AccessToken), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteTag(t *testing.T) {
	ts := setupTestServer(t)
	auth, _ := ts.registerClient(t, "alice")
	tag := ts.createTag(t, auth.AccessToken, "Bike")

	rec := ts.do(t, http.MethodDelete, "/api/v1/tags/"+tag.ID, bearer(auth.AccessToken), nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/v1/tags/"+tag.ID, bearer(auth.AccessToken), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadTagImage(t *testing.T) {
	ts := setupTestServer(t)
	auth, _ := ts.registerClient(t, "alice")
	tag := ts.createTag(t, auth.AccessToken, "Bike")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/tags/"+tag.ID+"/image", bytes.NewReader(testPNG(t)))
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	env := decodeEnvelope[TagResponse](t, rec)
	assert.True(t, env.Data.HasImage)
	assert.NotEmpty(t, env.Data.ImageBlurHash)

	// The public landing image serves as JPEG.
	rec2 := ts.do(t, http.MethodGet, "/api/v1/t/"+tag.Slug+"/image", nil, nil)
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "image/jpeg", rec2.Header().Get("Content-Type"))
	body := rec2.Body.Bytes()
	require.Greater(t, len(body), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, body[:2])
}

func TestUploadTagImage_Invalid(t *testing.T) {
	ts := setupTestServer(t)
	auth, _ := ts.registerClient(t, "alice")
	tag := ts.createTag(t, auth.AccessToken, "Bike")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/tags/"+tag.ID+"/image", bytes.NewReader([]byte("not an image")))
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeEnvelope[any](t, rec)
	assert.Equal(t, "VALIDATION", env.Code)
}
