package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"sidesa/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"first forwarded address wins", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.1.1.1:80", "10.0.0.1"},
		{"real ip header", map[string]string{"X-Real-IP": " 10.0.0.9 "}, "1.1.1.1:80", "10.0.0.9"},
		{"remote addr ipv4", nil, "192.168.1.5:5555", "192.168.1.5"},
		{"remote addr ipv6", nil, "[::1]:5555", "::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(req))
		})
	}
}

func TestClientMetadataMiddleware(t *testing.T) {
	var gotIP, gotUA string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.7", gotIP)
	assert.Contains(t, gotUA, "Chrome")
}

func TestSummarizeUserAgent_Empty(t *testing.T) {
	assert.Equal(t, "", SummarizeUserAgent("  "))
}
