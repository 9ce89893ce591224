package provider

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/matryer/resync"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx"
	"github.com/idaholab/terraform-provider-deeplynx/internal/workflow"
)

const (
	defaultBaseURL       = "http://localhost:8090"
	defaultTokenLifetime = "1h"
)

// Ensure deepLynxProvider satisfies various provider interfaces.
var _ provider.Provider = &deepLynxProvider{}

// configureOnce guards the health check and token exchange, which run once
// per provider process.
var (
	configureOnce  resync.Once
	configuredAuth string
	configureErr   error
)

// deepLynxProvider defines the provider implementation.
type deepLynxProvider struct {
	// version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	version string
}

// DeepLynxProviderModel describes the provider data model.
type DeepLynxProviderModel struct {
	BaseURL       types.String `tfsdk:"base_url"`
	APIKey        types.String `tfsdk:"api_key"`
	APISecret     types.String `tfsdk:"api_secret"`
	TokenLifetime types.String `tfsdk:"token_lifetime"`
	AccessToken   types.String `tfsdk:"access_token"`
}

func (p *deepLynxProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "deeplynx"
	resp.Version = p.version
}

func (p *deepLynxProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "The Deep Lynx terraform provider",
		Attributes: map[string]schema.Attribute{
			"base_url": schema.StringAttribute{
				Optional:    true,
				Description: "Base URL of the Deep Lynx API, e.g. http://localhost:8090",
				Validators: []validator.String{
					baseURLValidator{},
				},
			},
			"api_key": schema.StringAttribute{
				MarkdownDescription: "Deep Lynx API key",
				Optional:            true,
				Sensitive:           true,
			},
			"api_secret": schema.StringAttribute{
				MarkdownDescription: "Deep Lynx API secret",
				Optional:            true,
				Sensitive:           true,
			},
			"token_lifetime": schema.StringAttribute{
				Optional:    true,
				Description: "Lifetime requested for the access token, e.g. 1h. Defaults to 1h",
			},
			"access_token": schema.StringAttribute{
				MarkdownDescription: "A bearer token to use instead of exchanging the API key and secret",
				Optional:            true,
				Sensitive:           true,
			},
		},
	}
}

// Function to read environment with a default value
func getEnv(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return value
}

func (p *deepLynxProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	baseURL := getEnv("TF_DEEPLYNX_BASE_URL", defaultBaseURL)
	creds := workflow.Credentials{
		APIKey:    os.Getenv("TF_DEEPLYNX_API_KEY"),
		APISecret: os.Getenv("TF_DEEPLYNX_API_SECRET"),
	}
	accessToken := os.Getenv("TF_DEEPLYNX_ACCESS_TOKEN")
	tokenLifetime := defaultTokenLifetime

	var data DeepLynxProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	// Check configuration data, which should take precedence over
	// environment variable data, if found.
	if data.BaseURL.ValueString() != "" {
		baseURL = data.BaseURL.ValueString()
	}
	if data.APIKey.ValueString() != "" {
		creds.APIKey = data.APIKey.ValueString()
	}
	if data.APISecret.ValueString() != "" {
		creds.APISecret = data.APISecret.ValueString()
	}
	if data.TokenLifetime.ValueString() != "" {
		tokenLifetime = data.TokenLifetime.ValueString()
	}
	if data.AccessToken.ValueString() != "" {
		accessToken = data.AccessToken.ValueString()
	}

	if accessToken == "" && !creds.Complete() {
		resp.Diagnostics.AddError(
			"Missing Deep Lynx Credentials Configuration",
			"While configuring the provider, the API key and secret were not found in "+
				"the TF_DEEPLYNX_API_KEY and TF_DEEPLYNX_API_SECRET environment variables or provider "+
				"configuration block api_key and api_secret attributes.",
		)
		// Not returning early allows the logic to collect all errors.
	}

	if baseURL == "" {
		resp.Diagnostics.AddError(
			"Missing Endpoint Configuration",
			"While configuring the provider, the endpoint was not found in "+
				"the TF_DEEPLYNX_BASE_URL environment variable or provider "+
				"configuration block base_url attribute.",
		)
		// Not returning early allows the logic to collect all errors.
	}

	if resp.Diagnostics.HasError() {
		return
	}

	ctx = tflog.SetField(ctx, "deeplynx_base_url", baseURL)
	ctx = tflog.MaskFieldValuesWithFieldKeys(ctx, "api_secret", "access_token")

	client := deeplynx.New(deeplynx.Configuration{
		BasePath:  baseURL,
		UserAgent: "terraform-provider-deeplynx/" + p.version,
	})

	configureOnce.Do(func() {
		configuredAuth, configureErr = bootstrap(ctx, client, creds, tokenLifetime, accessToken)
	})

	if configureErr != nil {
		if errors.Is(configureErr, deeplynx.ErrorUnauthorized) {
			resp.Diagnostics.AddError(
				"Unable to authenticate with Deep Lynx",
				"While configuring the provider, the API key and secret were not accepted.",
			)
			return
		}
		resp.Diagnostics.AddError(
			"Unable to connect to Deep Lynx",
			"While configuring the provider, the API returns error: "+configureErr.Error(),
		)
		return
	}

	client.SetAccessToken(configuredAuth)

	tflog.Debug(ctx, "configured Deep Lynx client", map[string]interface{}{
		"api_key": creds.APIKey,
	})

	resp.DataSourceData = client
	resp.ResourceData = client
}

// bootstrap checks the service is healthy and returns the token to install,
// exchanging the key pair for one unless a token was configured.
func bootstrap(ctx context.Context, client *deeplynx.Client, creds workflow.Credentials, lifetime, accessToken string) (string, error) {
	health, err := client.Health(ctx)
	if err != nil {
		return "", fmt.Errorf("health check failed: %w", err)
	}
	if !deeplynx.IsHealthy(health) {
		return "", fmt.Errorf("health check returned %q", health)
	}

	if accessToken != "" {
		return accessToken, nil
	}

	if err := workflow.Authenticate(ctx, client, creds, lifetime); err != nil {
		return "", err
	}
	return client.Configuration().AccessToken, nil
}

func (p *deepLynxProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewContainerResource,
		NewDataSourceResource,
		NewManualImportResource,
	}
}

func (p *deepLynxProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewHealthDataSource,
		NewContainerDataSource,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &deepLynxProvider{
			version: version,
		}
	}
}
