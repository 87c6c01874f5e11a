package restapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		preserve bool
	}{
		{name: "missing", header: ""},
		{name: "valid", header: "display-kitchen-42", preserve: true},
		{name: "exactly 128 characters", header: strings.Repeat("a", 128), preserve: true},
		{name: "too long", header: strings.Repeat("a", 129)},
		{name: "invalid characters", header: "bad-id-<script>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/trains-data.js", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			rec := httptest.NewRecorder()
			RequestIDMiddleware(next).ServeHTTP(rec, req)

			assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
			if tt.preserve {
				assert.Equal(t, tt.header, seen)
			} else {
				assert.Regexp(t, `^[0-9a-f-]{36}$`, seen)
			}
		})
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetRequestID(req.Context()))
}
