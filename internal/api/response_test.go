package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillchat/quill/internal/testutil"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes body with headers", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		WriteJSON(rec, http.StatusCreated, map[string]string{"ok": "yes"})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "yes", body["ok"])
	})

	t.Run("encoding failure yields 500 without partial body", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		WriteJSON(rec, http.StatusOK, map[string]any{"bad": func() {}})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "bad")
	})
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "not_found", "conversation not found", testutil.DiscardLogger())

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error.Code)
	assert.Equal(t, "conversation not found", body.Error.Message)
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	t.Run("valid body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
		var dst struct {
			Name string `json:"name"`
		}
		require.NoError(t, decodeJSON(httptest.NewRecorder(), r, &dst))
		assert.Equal(t, "x", dst.Name)
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		t.Parallel()
		huge := `{"name":"` + strings.Repeat("a", 2<<20) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
		var dst struct {
			Name string `json:"name"`
		}
		assert.Error(t, decodeJSON(httptest.NewRecorder(), r, &dst))
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{broken`))
		var dst map[string]any
		assert.Error(t, decodeJSON(httptest.NewRecorder(), r, &dst))
	})
}
