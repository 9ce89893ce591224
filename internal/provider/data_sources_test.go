package provider

import (
	"io"
	"net/http"
	"regexp"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/providerserver"
	"github.com/hashicorp/terraform-plugin-go/tfprotov6"
	"github.com/hashicorp/terraform-plugin-sdk/v2/helper/resource"
	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx/containers"
	"github.com/stretchr/testify/require"
)

func TestHealthDataSource(t *testing.T) {
	testUrl := routeDeepLynxAPI(t, map[string]http.HandlerFunc{
		"GET /health":      healthResponse(t),
		"GET /oauth/token": tokenResponse(t),
	})
	setProviderEnv(t, testUrl)

	resource.Test(t, resource.TestCase{
		IsUnitTest: true,
		ProtoV6ProviderFactories: map[string]func() (tfprotov6.ProviderServer, error){
			"deeplynx": providerserver.NewProtocol6WithError(New("")()),
		},
		Steps: []resource.TestStep{
			{
				Config: `data "deeplynx_health" "current" {}`,
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.deeplynx_health.current", "id", testUrl),
					resource.TestCheckResourceAttr("data.deeplynx_health.current", "status", "OK"),
					resource.TestCheckResourceAttr("data.deeplynx_health.current", "healthy", "true"),
				),
			},
		},
	})
}

func TestContainerDataSource(t *testing.T) {
	testUrl := routeDeepLynxAPI(t, map[string]http.HandlerFunc{
		"GET /health":      healthResponse(t),
		"GET /oauth/token": tokenResponse(t),
		"GET /containers/" + testContainerID: func(w http.ResponseWriter, req *http.Request) {
			r := require.New(t)
			r.Equal("Bearer "+testToken, req.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, containers.ContainerResponse{
				Value: containers.Container{
					ID:          testContainerID,
					Name:        "sdk_test",
					Description: testContainerDescription,
					Archived:    true,
					CreatedAt:   "2023-03-01T10:00:00Z",
				},
			})
		},
	})
	setProviderEnv(t, testUrl)

	resource.Test(t, resource.TestCase{
		IsUnitTest: true,
		ProtoV6ProviderFactories: map[string]func() (tfprotov6.ProviderServer, error){
			"deeplynx": providerserver.NewProtocol6WithError(New("")()),
		},
		Steps: []resource.TestStep{
			{
				Config: `
				data "deeplynx_container" "test" {
					id = "17"
				}`,
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.deeplynx_container.test", "name", "sdk_test"),
					resource.TestCheckResourceAttr("data.deeplynx_container.test", "description", testContainerDescription),
					resource.TestCheckResourceAttr("data.deeplynx_container.test", "archived", "true"),
					resource.TestCheckResourceAttr("data.deeplynx_container.test", "created_at", "2023-03-01T10:00:00Z"),
				),
			},
		},
	})
}

func TestContainerDataSource_AccessToken(t *testing.T) {
	testUrl := routeDeepLynxAPI(t, map[string]http.HandlerFunc{
		"GET /health": healthResponse(t),
		"GET /containers/" + testContainerID: func(w http.ResponseWriter, req *http.Request) {
			r := require.New(t)
			r.Equal("Bearer [configured-token]", req.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, containers.ContainerResponse{
				Value: containers.Container{ID: testContainerID, Name: "sdk_test"},
			})
		},
	})
	setProviderEnv(t, testUrl)
	t.Setenv("TF_DEEPLYNX_API_KEY", "")
	t.Setenv("TF_DEEPLYNX_API_SECRET", "")

	resource.Test(t, resource.TestCase{
		IsUnitTest: true,
		ProtoV6ProviderFactories: map[string]func() (tfprotov6.ProviderServer, error){
			"deeplynx": providerserver.NewProtocol6WithError(New("")()),
		},
		Steps: []resource.TestStep{
			{
				Config: `
				provider "deeplynx" {
					access_token = "[configured-token]"
				}

				data "deeplynx_container" "test" {
					id = "17"
				}`,
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.deeplynx_container.test", "name", "sdk_test"),
				),
			},
		},
	})
}

func TestProvider_RejectedCredentials(t *testing.T) {
	testUrl := routeDeepLynxAPI(t, map[string]http.HandlerFunc{
		"GET /health": healthResponse(t),
		"GET /oauth/token": func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"isError": true,
				"error":   "unauthorized",
			})
		},
	})
	setProviderEnv(t, testUrl)

	resource.Test(t, resource.TestCase{
		IsUnitTest: true,
		ProtoV6ProviderFactories: map[string]func() (tfprotov6.ProviderServer, error){
			"deeplynx": providerserver.NewProtocol6WithError(New("")()),
		},
		Steps: []resource.TestStep{
			{
				Config:      `data "deeplynx_health" "current" {}`,
				ExpectError: regexp.MustCompile(`Unable to authenticate with Deep Lynx`),
			},
		},
	})
}

func TestProvider_UnhealthyService(t *testing.T) {
	testUrl := routeDeepLynxAPI(t, map[string]http.HandlerFunc{
		"GET /health": func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, "Service Unavailable")
		},
	})
	setProviderEnv(t, testUrl)

	resource.Test(t, resource.TestCase{
		IsUnitTest: true,
		ProtoV6ProviderFactories: map[string]func() (tfprotov6.ProviderServer, error){
			"deeplynx": providerserver.NewProtocol6WithError(New("")()),
		},
		Steps: []resource.TestStep{
			{
				Config:      `data "deeplynx_health" "current" {}`,
				ExpectError: regexp.MustCompile(`Unable to connect to Deep Lynx`),
			},
		},
	})
}
