package deeplynx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/http/httputil"
	"testing"

	"github.com/stretchr/testify/require"
)

// mockDeepLynxAPI serves the expected calls in order and fails the test on
// any extra or missing call.
func mockDeepLynxAPI(t *testing.T) (string, func(http.HandlerFunc), func()) {
	var (
		receivedCalls   int
		expectedCalls   []http.HandlerFunc
		addExpectedCall = func(h http.HandlerFunc) {
			expectedCalls = append(expectedCalls, h)
		}
		r = require.New(t)
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
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

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
