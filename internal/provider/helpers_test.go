package provider

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/http/httputil"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

const (
	testContainerID  = "17"
	testDataSourceID = "42"
	testImportID     = "99"
	testToken        = "[token]"
)

// GenerateContainerName a random container name
func GenerateContainerName(t *testing.T) string {
	t.Helper()

	return "tf_" + strings.ToLower(randstr.String(16))
}

// setProviderEnv points the provider at testURL with a key pair, clearing
// any configured access token.
func setProviderEnv(t *testing.T, testURL string) {
	t.Helper()

	configureOnce.Reset()
	t.Setenv("TF_DEEPLYNX_BASE_URL", testURL)
	t.Setenv("TF_DEEPLYNX_API_KEY", "[api-key]")
	t.Setenv("TF_DEEPLYNX_API_SECRET", "[api-secret]")
	t.Setenv("TF_DEEPLYNX_ACCESS_TOKEN", "")
}

func mockDeepLynxAPI(t *testing.T) (string, func(http.HandlerFunc), func()) {
	var (
		mu              sync.Mutex
		receivedCalls   int
		expectedCalls   []http.HandlerFunc
		addExpectedCall = func(h http.HandlerFunc) {
			expectedCalls = append(expectedCalls, h)
		}
		r = require.New(t)
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		reqDump, _ := httputil.DumpRequest(req, true)
		if receivedCalls >= len(expectedCalls) {
			w.WriteHeader(http.StatusNotFound)
			r.Failf("unexpected call",
				"we have already received %d calls from expected %d.\nunexpected request: %s",
				receivedCalls,
				len(expectedCalls),
				string(reqDump),
			)
			return
		}

		expectedCalls[receivedCalls](w, req)

		receivedCalls++
	}))

	return ts.URL, addExpectedCall, func() {
		ts.Close()
		r.Equal(
			len(expectedCalls),
			receivedCalls,
			"expected one more request",
		)
	}
}

// routeDeepLynxAPI answers by "METHOD /path" regardless of order, for tests
// where terraform decides how often it reads.
func routeDeepLynxAPI(t *testing.T, routes map[string]http.HandlerFunc) string {
	r := require.New(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handler, ok := routes[req.Method+" "+req.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			r.Failf("unexpected call", "unexpected request: %s %s", req.Method, req.URL.Path)
			return
		}
		handler(w, req)
	}))
	t.Cleanup(ts.Close)

	return ts.URL
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func healthResponse(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r := require.New(t)
		r.Equal(http.MethodGet, req.Method)
		r.Equal("/health", req.URL.Path)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "OK")
	}
}

func tokenResponse(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r := require.New(t)
		r.Equal(http.MethodGet, req.Method)
		r.Equal("/oauth/token", req.URL.Path)
		r.Equal("[api-key]", req.Header.Get("x-api-key"))
		r.Equal("[api-secret]", req.Header.Get("x-api-secret"))
		r.Equal(defaultTokenLifetime, req.Header.Get("x-api-expiry"))
		writeJSON(w, http.StatusOK, testToken)
	}
}

// expectConfigure queues the calls made the first time the provider is
// configured.
func expectConfigure(t *testing.T, expectRequest func(http.HandlerFunc)) {
	expectRequest(healthResponse(t))
	expectRequest(tokenResponse(t))
}
