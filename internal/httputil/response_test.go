package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorWithCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithCode(rec, "invalid email or password", CodeInvalidCredentials, http.StatusUnauthorized)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "invalid email or password", body.Error)
	assert.Equal(t, CodeInvalidCredentials, body.Code)
}

func TestRespondJSON_Null(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, nil, http.StatusOK)

	assert.Equal(t, "null\n", rec.Body.String())
}

