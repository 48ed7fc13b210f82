package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every response, success or error, wire-speaks the same envelope:
//
//	{"v":1,"success":true,"data":...}
//	{"v":1,"success":false,"code":"...","message":"...","details":...}
//
// Clients key off these fields, so the shape is a contract.

func TestEnvelopeTransformer_Success(t *testing.T) {
	out, err := EnvelopeTransformer(nil, "200", map[string]string{"hello": "world"})
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Equal(t, float64(1), fields["v"])
	assert.Equal(t, true, fields["success"])
	assert.Equal(t, map[string]any{"hello": "world"}, fields["data"])
	assert.NotContains(t, fields, "code")
	assert.NotContains(t, fields, "message")
}

func TestEnvelopeTransformer_Error(t *testing.T) {
	apiErr := &APIError{
		status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: "tag not found",
	}

	out, err := EnvelopeTransformer(nil, "404", apiErr)
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Equal(t, float64(1), fields["v"])
	assert.Equal(t, false, fields["success"])
	assert.Equal(t, "NOT_FOUND", fields["code"])
	assert.Equal(t, "tag not found", fields["message"])
	assert.NotContains(t, fields, "data")
}

func TestEnvelopeOnTheWire(t *testing.T) {
	ts := setupTestServer(t)

	// Success path.
	rec := ts.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var success map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &success))
	assert.Equal(t, float64(1), success["v"])
	assert.Equal(t, true, success["success"])
	assert.Contains(t, success, "data")
	assert.NotContains(t, success, "code")

	// Error path, including framework-generated errors.
	rec = ts.do(t, http.MethodGet, "/api/v1/t/nosuchslug", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var failure map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failure))
	assert.Equal(t, float64(1), failure["v"])
	assert.Equal(t, false, failure["success"])
	assert.Equal(t, "NOT_FOUND", failure["code"])
	assert.NotEmpty(t, failure["message"])
	assert.NotContains(t, failure, "data")
}
