package workflow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx"
	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx/datasources"
	"github.com/stretchr/testify/require"
)

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

		if receivedCalls >= len(expectedCalls) {
			w.WriteHeader(http.StatusNotFound)
			r.Failf("unexpected call", "unexpected request %s %s", req.Method, req.URL.Path)
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

func TestRunAgainstAPI(t *testing.T) {
	r := require.New(t)
	testURL, expectRequest, close := mockDeepLynxAPI(t)
	defer close()

	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		r.Equal(http.MethodGet, req.Method)
		r.Equal("/health", req.URL.Path)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "OK")
	})
	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		r.Equal(http.MethodGet, req.Method)
		r.Equal("/oauth/token", req.URL.Path)
		r.Equal("[key]", req.Header.Get("x-api-key"))
		r.Equal("[secret]", req.Header.Get("x-api-secret"))
		r.Equal("1h", req.Header.Get("x-api-expiry"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `"[token]"`)
	})
	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		r.Equal(http.MethodPost, req.Method)
		r.Equal("/containers", req.URL.Path)
		r.Equal("Bearer [token]", req.Header.Get("Authorization"))
		var payload map[string]interface{}
		r.NoError(json.NewDecoder(req.Body).Decode(&payload))
		r.Equal(map[string]interface{}{"name": "sdk_test", "description": "Test container"}, payload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"value":[{"id":"17","name":"sdk_test","description":"Test container"}],"isError":false}`)
	})
	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		r.Equal(http.MethodPost, req.Method)
		r.Equal("/containers/17/import/datasources", req.URL.Path)
		r.Equal("Bearer [token]", req.Header.Get("Authorization"))
		var payload map[string]interface{}
		r.NoError(json.NewDecoder(req.Body).Decode(&payload))
		r.Equal(map[string]interface{}{
			"name":        "sdk_test_source",
			"adapterType": "standard",
			"active":      true,
			"config":      map[string]interface{}{},
		}, payload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"value":{"id":"42","container_id":"17","name":"sdk_test_source","adapter_type":"standard","active":true},"isError":false}`)
	})
	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		r.Equal(http.MethodPost, req.Method)
		r.Equal("/containers/17/import/datasources/42/imports", req.URL.Path)
		r.Equal("application/json", req.Header.Get("Content-Type"))
		body, err := io.ReadAll(req.Body)
		r.NoError(err)
		r.JSONEq(`{"test":"data"}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(datasources.ImportResponse{
			Value: datasources.Import{ID: "99", DataSourceID: "42", Status: datasources.ImportStatusReady},
		})
	})
	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		r.Equal(http.MethodDelete, req.Method)
		r.Equal("/containers/17", req.URL.Path)
		r.Equal("true", req.URL.Query().Get("permanent"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"value":true,"isError":false}`)
	})

	client := deeplynx.New(deeplynx.Configuration{BasePath: testURL})
	result, err := Run(context.Background(), client, validCredentials, DefaultOptions())
	r.NoError(err)
	r.Equal("17", result.ContainerID)
	r.Equal("42", result.DataSourceID)
	r.Equal("99", result.ImportID)
	r.True(result.Archived)
}

func TestRunAgainstAPIDataSourceRejected(t *testing.T) {
	r := require.New(t)
	testURL, expectRequest, close := mockDeepLynxAPI(t)
	defer close()

	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "OK")
	})
	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `"[token]"`)
	})
	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"value":[{"id":"17"}],"isError":false}`)
	})
	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"isError":true,"error":"unsupported adapter type"}`)
	})
	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		r.Equal(http.MethodDelete, req.Method)
		r.Equal("/containers/17", req.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	client := deeplynx.New(deeplynx.Configuration{BasePath: testURL})
	opts := DefaultOptions()
	opts.AdapterType = "unsupported"
	result, err := Run(context.Background(), client, validCredentials, opts)
	r.EqualError(err, "creating data source: unsupported adapter type")
	r.Empty(result.DataSourceID)
	r.True(result.Archived)
}

func TestRunAgainstAPIArchivesAfterCancellation(t *testing.T) {
	r := require.New(t)
	testURL, expectRequest, close := mockDeepLynxAPI(t)
	defer close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "OK")
	})
	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `"[token]"`)
	})
	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"value":[{"id":"17"}],"isError":false}`)
	})
	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		r.Equal(http.MethodPost, req.Method)
		r.Equal("/containers/17/import/datasources", req.URL.Path)
		cancel()
		w.WriteHeader(http.StatusOK)
	})
	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		r.Equal(http.MethodDelete, req.Method)
		r.Equal("/containers/17", req.URL.Path)
		r.Equal("true", req.URL.Query().Get("permanent"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"value":true,"isError":false}`)
	})

	client := deeplynx.New(deeplynx.Configuration{BasePath: testURL})
	result, err := Run(ctx, client, validCredentials, DefaultOptions())
	r.Error(err)
	r.Empty(result.DataSourceID)
	r.True(result.Archived)
	r.Equal(StateArchived, result.State)
}

func TestCheckAgainstAPIPaddedHealth(t *testing.T) {
	r := require.New(t)
	testURL, expectRequest, close := mockDeepLynxAPI(t)
	defer close()

	expectRequest(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "  OK\n")
	})

	client := deeplynx.New(deeplynx.Configuration{BasePath: testURL})
	r.Equal(PreconditionSkipUnhealthyService, Check(context.Background(), client, validCredentials))
}

// TestManualImportWorkflow runs the workflow against a live service. It is
// skipped unless API_KEY and API_SECRET are set and the service at
// DEEP_LYNX_URL (default http://localhost:8090) reports healthy.
func TestManualImportWorkflow(t *testing.T) {
	r := require.New(t)
	basePath := os.Getenv("DEEP_LYNX_URL")
	if basePath == "" {
		basePath = "http://localhost:8090"
	}

	creds := CredentialsFromEnv()
	client := deeplynx.New(deeplynx.Configuration{BasePath: basePath})

	ctx := context.Background()
	switch Check(ctx, client, creds) {
	case PreconditionSkipMissingCredentials:
		t.Skip("skipping tests, no api key and secret provided")
	case PreconditionSkipUnhealthyService:
		t.Skip("skipping tests, no connection to Deep Lynx")
	}

	result, err := Run(ctx, client, creds, DefaultOptions())
	r.NoError(err)
	r.NotEmpty(result.ContainerID)
	r.NotEmpty(result.DataSourceID)
	r.NotEmpty(result.ImportID)
	r.True(result.Archived)
}
