package httputil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectError bool
	}{
		{
			name:        "valid JSON",
			body:        `{"account_no": "ACC-007"}`,
			expectError: false,
		},
		{
			name:        "invalid JSON",
			body:        `{invalid}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/test", bytes.NewBufferString(tt.body))
			var dest map[string]string

			err := ParseJSON(req, &dest)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "ACC-007", dest["account_no"])
			}
		})
	}
}

func TestParseJSONOrError(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/test", bytes.NewBufferString(`{"subscriber_id": 7}`))
		w := httptest.NewRecorder()
		var dest map[string]int64

		ok := ParseJSONOrError(w, req, &dest)

		assert.True(t, ok)
		assert.Equal(t, int64(7), dest["subscriber_id"])
	})

	t.Run("invalid JSON writes 400", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/test", bytes.NewBufferString(`{broken`))
		w := httptest.NewRecorder()
		var dest map[string]int64

		ok := ParseJSONOrError(w, req, &dest)

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestParsePathInt64(t *testing.T) {
	tests := []struct {
		name        string
		vars        map[string]string
		key         string
		want        int64
		expectError bool
	}{
		{
			name: "valid id",
			vars: map[string]string{"id": "42"},
			key:  "id",
			want: 42,
		},
		{
			name:        "missing key",
			vars:        map[string]string{},
			key:         "id",
			expectError: true,
		},
		{
			name:        "not a number",
			vars:        map[string]string{"id": "abc"},
			key:         "id",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req = mux.SetURLVars(req, tt.vars)

			got, err := ParsePathInt64(req, tt.key)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParsePathInt64OrError(t *testing.T) {
	req := httptest.NewRequest("GET", "/subscribers/abc", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "abc"})
	w := httptest.NewRecorder()

	_, ok := ParsePathInt64OrError(w, req, "id")

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParsePathString(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = mux.SetURLVars(req, map[string]string{"vendor": "mikrotik"})

	val, err := ParsePathString(req, "vendor")
	assert.NoError(t, err)
	assert.Equal(t, "mikrotik", val)

	_, err = ParsePathString(req, "missing")
	assert.Error(t, err)
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/test?limit=50", nil)

	val, err := ParseQueryInt(req, "limit", 100)
	assert.NoError(t, err)
	assert.Equal(t, 50, val)

	val, err = ParseQueryInt(req, "offset", 0)
	assert.NoError(t, err)
	assert.Equal(t, 0, val)

	req = httptest.NewRequest("GET", "/test?limit=abc", nil)
	_, err = ParseQueryInt(req, "limit", 100)
	assert.Error(t, err)
}

func TestParseQueryString(t *testing.T) {
	req := httptest.NewRequest("GET", "/test?search=wanjiru", nil)

	assert.Equal(t, "wanjiru", ParseQueryString(req, "search", ""))
	assert.Equal(t, "fallback", ParseQueryString(req, "missing", "fallback"))
}

func TestRequireNonEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	assert.True(t, RequireNonEmpty(w, "value", "field"))

	w = httptest.NewRecorder()
	assert.False(t, RequireNonEmpty(w, "", "field"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "field is required")
}

func TestRequirePositive(t *testing.T) {
	w := httptest.NewRecorder()
	assert.True(t, RequirePositive(w, 7, "subscriber_id"))

	w = httptest.NewRecorder()
	assert.False(t, RequirePositive(w, 0, "subscriber_id"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
