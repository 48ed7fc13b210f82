package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainerrors "github.com/tagnestapp/tagnest-server/internal/errors"
)

var slugPattern = regexp.MustCompile(`^[0-9a-z]{10}$`)

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

func TestTagService_Create(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "alice", "")

	tag, err := env.tags.Create(ctx, reg.Client, CreateTagRequest{
		Name:         "Bike",
		Phone:        "+49 30 1234567",
		Instructions: "Ring the bell if found",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, tag.ID)
	assert.Regexp(t, slugPattern, tag.Slug)
	assert.Equal(t, reg.Client.ID, tag.ClientID)
	assert.Equal(t, "Bike", tag.Name)
	assert.Zero(t, tag.ScanCount)
}

func TestTagService_Create_Invalid(t *testing.T) {
	env := setupTestEnv(t)
	reg := env.register(t, "alice", "")

	_, err := env.tags.Create(context.Background(), reg.Client, CreateTagRequest{
		Name: "",
	})
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestTagService_Ownership(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice", "")
	bob := env.register(t, "bob", "")

	tag, err := env.tags.Create(ctx, alice.Client, CreateTagRequest{Name: "Bike"})
	require.NoError(t, err)

	// Reads, updates and deletes by a non-owner are forbidden, not hidden.
	_, err = env.tags.Get(ctx, bob.Client, tag.ID)
	assertCode(t, err, domainerrors.CodeForbidden)

	_, err = env.tags.Update(ctx, bob.Client, tag.ID, UpdateTagRequest{Name: strPtr("Stolen")})
	assertCode(t, err, domainerrors.CodeForbidden)

	err = env.tags.Delete(ctx, bob.Client, tag.ID)
	assertCode(t, err, domainerrors.CodeForbidden)

	// The rejected update changed nothing.
	kept, err := env.tags.Get(ctx, alice.Client, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bike", kept.Name)
	assert.Equal(t, alice.Client.ID, kept.ClientID)

	// A missing id stays NOT_FOUND.
	_, err = env.tags.Get(ctx, bob.Client, "tag-missing")
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestTagService_Update(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "alice", "")

	tag, err := env.tags.Create(ctx, reg.Client, CreateTagRequest{Name: "Bike", Phone: "123"})
	require.NoError(t, err)

	updated, err := env.tags.Update(ctx, reg.Client, tag.ID, UpdateTagRequest{
		Name:    strPtr("City Bike"),
		Address: strPtr("Karl-Marx-Allee 1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "City Bike", updated.Name)
	assert.Equal(t, "Karl-Marx-Allee 1", updated.Address)
	// Untouched fields keep their values; the slug never changes.
	assert.Equal(t, "123", updated.Phone)
	assert.Equal(t, tag.Slug, updated.Slug)
}

func TestTagService_Delete(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "alice", "")

	tag, err := env.tags.Create(ctx, reg.Client, CreateTagRequest{Name: "Bike"})
	require.NoError(t, err)

	require.NoError(t, env.tags.Delete(ctx, reg.Client, tag.ID))

	_, err = env.tags.Get(ctx, reg.Client, tag.ID)
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestTagService_PublicView(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "alice", "alice@example.com")

	tag, err := env.tags.Create(ctx, reg.Client, CreateTagRequest{
		Name:  "Bike",
		Phone: "123",
	})
	require.NoError(t, err)

	view, err := env.tags.PublicView(ctx, tag.Slug)
	require.NoError(t, err)
	assert.Equal(t, tag.Slug, view.Slug)
	assert.Equal(t, "Bike", view.Name)
	assert.Equal(t, "123", view.Phone)
	assert.False(t, view.HasImage)

	// Each view bumps the scan counter.
	_, err = env.tags.PublicView(ctx, tag.Slug)
	require.NoError(t, err)
	stored, err := env.store.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stored.ScanCount)
}

func TestTagService_PublicView_UnknownSlug(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.tags.PublicView(context.Background(), "nope")
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestTagService_UploadImage(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "alice", "")

	tag, err := env.tags.Create(ctx, reg.Client, CreateTagRequest{Name: "Bike"})
	require.NoError(t, err)

	updated, err := env.tags.UploadImage(ctx, reg.Client, tag.ID, testPNG(t))
	require.NoError(t, err)
	assert.NotEmpty(t, updated.ImageID)
	assert.NotEmpty(t, updated.ImageBlurHash)
	assert.True(t, env.storage.Exists(updated.ImageID))

	// The public view now advertises the image.
	view, err := env.tags.PublicView(ctx, tag.Slug)
	require.NoError(t, err)
	assert.True(t, view.HasImage)
	assert.Equal(t, updated.ImageBlurHash, view.ImageBlurHash)

	// Re-uploading replaces the stored file under a fresh ID.
	replaced, err := env.tags.UploadImage(ctx, reg.Client, tag.ID, testPNG(t))
	require.NoError(t, err)
	assert.NotEqual(t, updated.ImageID, replaced.ImageID)
	assert.False(t, env.storage.Exists(updated.ImageID))
	assert.True(t, env.storage.Exists(replaced.ImageID))
}

func TestTagService_UploadImage_Invalid(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "alice", "")

	tag, err := env.tags.Create(ctx, reg.Client, CreateTagRequest{Name: "Bike"})
	require.NoError(t, err)

	_, err = env.tags.UploadImage(ctx, reg.Client, tag.ID, []byte("not an image"))
	assertCode(t, err, domainerrors.CodeValidation)

	_, err = env.tags.UploadImage(ctx, reg.Client, tag.ID, nil)
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestTagService_GetImageBySlug(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "alice", "")

	tag, err := env.tags.Create(ctx, reg.Client, CreateTagRequest{Name: "Bike"})
	require.NoError(t, err)

	// No image yet.
	_, err = env.tags.GetImageBySlug(ctx, tag.Slug)
	assertCode(t, err, domainerrors.CodeNotFound)

	_, err = env.tags.UploadImage(ctx, reg.Client, tag.ID, testPNG(t))
	require.NoError(t, err)

	data, err := env.tags.GetImageBySlug(ctx, tag.Slug)
	require.NoError(t, err)
	// Stored normalized as JPEG.
	assert.True(t, bytes.HasPrefix(data, []byte{0xFF, 0xD8}))
}
