package httputil

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSucceededEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Succeeded(rec, 200, map[string]string{"id": "abc"})

	require.Equal(t, 200, rec.Code)

	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Succeeded)
	assert.NotNil(t, res.Messages, "messages must serialize as [], not null")
	assert.Empty(t, res.Messages)
}

func TestSucceededWithWarnings(t *testing.T) {
	rec := httptest.NewRecorder()
	Succeeded(rec, 200, nil, "2 recipients skipped")

	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Succeeded)
	assert.Equal(t, []string{"2 recipients skipped"}, res.Messages)
}

func TestFailedEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Failed(rec, 400, "name is required", "email is invalid")

	require.Equal(t, 400, rec.Code)

	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Succeeded)
	assert.Len(t, res.Messages, 2)
}

func TestFailedDefaultsMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Failed(rec, 500)

	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []string{"operation failed"}, res.Messages)
}
