package deeplynx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/terraform-plugin-sdk/v2/helper/logging"
	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx/containers"
	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx/datasources"
)

// HealthOK is the body of a healthy /health response.
const HealthOK = "OK"

// Configuration holds the session settings shared by every call. AccessToken
// is empty until a token is installed with SetAccessToken.
type Configuration struct {
	BasePath    string
	AccessToken string
	UserAgent   string
}

type Client struct {
	HTTPClient *resty.Client
	config     Configuration
}

// BoolResponse is the envelope of archive and delete calls.
type BoolResponse struct {
	IsError bool `json:"isError"`
	Value   bool `json:"value"`
}

// RequestOption customizes a single request, e.g. to override a header.
type RequestOption func(*resty.Request)

func WithHeader(key, value string) RequestOption {
	return func(request *resty.Request) {
		request.SetHeader(key, value)
	}
}

func WithQueryParam(key, value string) RequestOption {
	return func(request *resty.Request) {
		request.SetQueryParam(key, value)
	}
}

func New(config Configuration) *Client {
	transport := logging.NewLoggingHTTPTransport(http.DefaultTransport)

	if config.UserAgent == "" {
		clientName, _ := os.Executable()
		config.UserAgent = filepath.Base(clientName)
	}

	client := &Client{
		HTTPClient: resty.NewWithClient(&http.Client{Transport: transport}).
			SetHeader("User-Agent", config.UserAgent).
			SetAuthScheme("Bearer").
			SetBaseURL(config.BasePath).
			EnableTrace(),
		config: config,
	}
	client.SetAccessToken(config.AccessToken)

	return client
}

// Configuration returns a copy of the client's current settings.
func (c *Client) Configuration() Configuration {
	return c.config
}

// SetAccessToken installs the bearer token sent with every following call.
func (c *Client) SetAccessToken(token string) {
	c.config.AccessToken = token
	c.HTTPClient.SetAuthToken(token)
}

// IsHealthy reports whether a /health body means the service is up. A 200
// with any other body is not healthy.
func IsHealthy(status string) bool {
	return status == HealthOK
}

func (c *Client) Health(ctx context.Context) (string, error) {
	resp, err := c.HTTPClient.R().
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", handleError(resp)
	}
	// resp.String() trims whitespace; the body is compared verbatim.
	return string(resp.Body()), nil
}

// RetrieveOAuthToken exchanges an API key and secret for a bearer token valid
// for lifetime (e.g. "1h"). None of the inputs are validated locally.
func (c *Client) RetrieveOAuthToken(ctx context.Context, apiKey, apiSecret, lifetime string) (string, error) {
	resp, err := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetHeader("x-api-key", apiKey).
		SetHeader("x-api-secret", apiSecret).
		SetHeader("x-api-expiry", lifetime).
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		Get("/oauth/token")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", handleError(resp)
	}

	token := resp.String()
	var decoded string
	if err := json.Unmarshal(resp.Body(), &decoded); err == nil {
		token = decoded
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrorEmptyToken
	}
	return token, nil
}

func (c *Client) ListContainers(ctx context.Context) ([]containers.Container, error) {
	resp, err := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetResult(containers.ListContainersResponse{}).
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		Get("/containers")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	response := resp.Result().(*containers.ListContainersResponse)
	if response.Value == nil {
		response.Value = make([]containers.Container, 0)
	}
	return response.Value, nil
}

// CreateContainer creates a container. The response keeps the service's
// array envelope: the new container is Value[0].
func (c *Client) CreateContainer(ctx context.Context, req *containers.CreateContainerRequest) (*containers.CreateContainerResponse, error) {
	resp, err := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetResult(containers.CreateContainerResponse{}).
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		SetBody(req).
		Post("/containers")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	return resp.Result().(*containers.CreateContainerResponse), nil
}

func (c *Client) RetrieveContainer(ctx context.Context, containerID string) (*containers.Container, error) {
	resp, err := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetResult(containers.ContainerResponse{}).
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		SetPathParam("containerID", containerID).
		Get("/containers/{containerID}")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	return &resp.Result().(*containers.ContainerResponse).Value, nil
}

func (c *Client) UpdateContainer(ctx context.Context, containerID string, req *containers.UpdateContainerRequest) (*containers.Container, error) {
	resp, err := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetResult(containers.ContainerResponse{}).
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		SetBody(req).
		SetPathParam("containerID", containerID).
		Put("/containers/{containerID}")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	return &resp.Result().(*containers.ContainerResponse).Value, nil
}

// ArchiveContainer archives a container, or deletes it outright when
// permanent is set. Archiving an unknown or already archived container is
// reported by the service, not treated as a no-op.
func (c *Client) ArchiveContainer(ctx context.Context, containerID string, permanent bool) (bool, error) {
	resp, err := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		SetPathParam("containerID", containerID).
		SetQueryParam("permanent", strconv.FormatBool(permanent)).
		Delete("/containers/{containerID}")
	if err != nil {
		return false, err
	}
	if resp.IsError() {
		return false, handleError(resp)
	}
	return parseBoolResponse(resp)
}

func (c *Client) ListDataSources(ctx context.Context, containerID string) ([]datasources.DataSource, error) {
	resp, err := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetResult(datasources.ListDataSourcesResponse{}).
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		SetPathParam("containerID", containerID).
		Get("/containers/{containerID}/import/datasources")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	response := resp.Result().(*datasources.ListDataSourcesResponse)
	if response.Value == nil {
		response.Value = make([]datasources.DataSource, 0)
	}
	return response.Value, nil
}

// CreateDataSource creates a data source in a container. The new data source
// is the response's Value object.
func (c *Client) CreateDataSource(ctx context.Context, containerID string, req *datasources.CreateDataSourceRequest) (*datasources.DataSourceResponse, error) {
	resp, err := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetResult(datasources.DataSourceResponse{}).
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		SetBody(req).
		SetPathParam("containerID", containerID).
		Post("/containers/{containerID}/import/datasources")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	return resp.Result().(*datasources.DataSourceResponse), nil
}

func (c *Client) RetrieveDataSource(ctx context.Context, containerID, dataSourceID string) (*datasources.DataSource, error) {
	resp, err := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetResult(datasources.DataSourceResponse{}).
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		SetPathParams(map[string]string{
			"containerID":  containerID,
			"dataSourceID": dataSourceID,
		}).
		Get("/containers/{containerID}/import/datasources/{dataSourceID}")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	return &resp.Result().(*datasources.DataSourceResponse).Value, nil
}

func (c *Client) ArchiveDataSource(ctx context.Context, containerID, dataSourceID string) (bool, error) {
	resp, err := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		SetPathParams(map[string]string{
			"containerID":  containerID,
			"dataSourceID": dataSourceID,
		}).
		SetQueryParam("archive", "true").
		Delete("/containers/{containerID}/import/datasources/{dataSourceID}")
	if err != nil {
		return false, err
	}
	if resp.IsError() {
		return false, handleError(resp)
	}
	return parseBoolResponse(resp)
}

// CreateManualImport submits payload as a single import into a data source.
// The payload is sent as JSON unless an option overrides Content-Type, in
// which case strings and byte slices go out unchanged.
func (c *Client) CreateManualImport(
	ctx context.Context,
	containerID string,
	dataSourceID string,
	payload interface{},
	options ...RequestOption,
) (*datasources.ImportResponse, error) {
	request := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	for _, option := range options {
		option(request)
	}
	if payload != nil {
		request.SetBody(payload)
	}
	resp, err := request.
		SetResult(datasources.ImportResponse{}).
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		SetPathParams(map[string]string{
			"containerID":  containerID,
			"dataSourceID": dataSourceID,
		}).
		Post("/containers/{containerID}/import/datasources/{dataSourceID}/imports")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	return resp.Result().(*datasources.ImportResponse), nil
}

func (c *Client) ListImports(ctx context.Context, containerID, dataSourceID string) ([]datasources.Import, error) {
	resp, err := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetResult(datasources.ListImportsResponse{}).
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		SetPathParams(map[string]string{
			"containerID":  containerID,
			"dataSourceID": dataSourceID,
		}).
		Get("/containers/{containerID}/import/datasources/{dataSourceID}/imports")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	response := resp.Result().(*datasources.ListImportsResponse)
	if response.Value == nil {
		response.Value = make([]datasources.Import, 0)
	}
	return response.Value, nil
}

func (c *Client) RetrieveImport(ctx context.Context, containerID, importID string) (*datasources.Import, error) {
	resp, err := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetResult(datasources.ImportResponse{}).
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		SetPathParams(map[string]string{
			"containerID": containerID,
			"importID":    importID,
		}).
		Get("/containers/{containerID}/import/imports/{importID}")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	return &resp.Result().(*datasources.ImportResponse).Value, nil
}

func (c *Client) DeleteImport(ctx context.Context, containerID, importID string) error {
	resp, err := c.HTTPClient.R().
		SetHeader("Accept", "application/json").
		SetError(&ErrorResponse{}).
		SetContext(ctx).
		SetPathParams(map[string]string{
			"containerID": containerID,
			"importID":    importID,
		}).
		Delete("/containers/{containerID}/import/imports/{importID}")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return handleError(resp)
	}
	return nil
}

func parseBoolResponse(resp *resty.Response) (bool, error) {
	if len(resp.Body()) == 0 {
		return true, nil
	}
	var response BoolResponse
	if err := json.Unmarshal(resp.Body(), &response); err != nil {
		return false, err
	}
	return response.Value, nil
}

func handleError(resp *resty.Response) error {
	if resp.StatusCode() == http.StatusNotFound {
		return ErrorNotFound
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return ErrorUnauthorized
	}
	if resp.StatusCode() == http.StatusInternalServerError {
		return errors.New("Deep Lynx API returned 500 Internal Server Error")
	}
	if errResp, ok := resp.Error().(*ErrorResponse); ok && errResp.Error.Message != "" {
		return errors.New(errResp.Error.Message)
	}
	return errors.New(resp.Status())
}
