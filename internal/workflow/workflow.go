// Package workflow runs the manual import workflow against a Deep Lynx
// service: health check, token exchange, container, data source, one manual
// import and finally the container archive.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx"
	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx/containers"
	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx/datasources"
)

const (
	EnvAPIKey    = "API_KEY"
	EnvAPISecret = "API_SECRET"
)

// teardownTimeout bounds the archive call, which runs after the caller's
// context may already be done.
const teardownTimeout = 30 * time.Second

var (
	ErrAuthentication      = errors.New("authentication failed")
	ErrMissingContainerID  = errors.New("container creation returned no id")
	ErrMissingDataSourceID = errors.New("data source creation returned no id")
	ErrMissingImportID     = errors.New("manual import returned no id")
)

// Client is the part of the Deep Lynx SDK the workflow drives.
type Client interface {
	Health(ctx context.Context) (string, error)
	RetrieveOAuthToken(ctx context.Context, apiKey, apiSecret, lifetime string) (string, error)
	SetAccessToken(token string)
	CreateContainer(ctx context.Context, req *containers.CreateContainerRequest) (*containers.CreateContainerResponse, error)
	ArchiveContainer(ctx context.Context, containerID string, permanent bool) (bool, error)
	CreateDataSource(ctx context.Context, containerID string, req *datasources.CreateDataSourceRequest) (*datasources.DataSourceResponse, error)
	CreateManualImport(ctx context.Context, containerID, dataSourceID string, payload interface{}, options ...deeplynx.RequestOption) (*datasources.ImportResponse, error)
}

var _ Client = &deeplynx.Client{}

type Credentials struct {
	APIKey    string
	APISecret string
}

// CredentialsFromEnv reads the key pair from API_KEY and API_SECRET.
func CredentialsFromEnv() Credentials {
	return Credentials{
		APIKey:    os.Getenv(EnvAPIKey),
		APISecret: os.Getenv(EnvAPISecret),
	}
}

func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// authenticationError matches ErrAuthentication and unwraps to the cause.
type authenticationError struct {
	err error
}

func (e *authenticationError) Error() string {
	return ErrAuthentication.Error() + ": " + e.err.Error()
}

func (e *authenticationError) Unwrap() error {
	return e.err
}

func (e *authenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// detachedContext keeps the values of its parent, so tflog still sees the
// logger, but is never cancelled.
type detachedContext struct {
	parent context.Context
}

func detach(ctx context.Context) context.Context {
	return detachedContext{parent: ctx}
}

func (detachedContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detachedContext) Done() <-chan struct{}       { return nil }
func (detachedContext) Err() error                  { return nil }

func (c detachedContext) Value(key interface{}) interface{} {
	return c.parent.Value(key)
}

// Options describe what the workflow creates.
type Options struct {
	ContainerName        string
	ContainerDescription string
	DataSourceName       string
	AdapterType          string
	DataSourceConfig     map[string]interface{}
	TokenLifetime        string
	Payload              interface{}
	ImportContentType    string
}

func DefaultOptions() Options {
	return Options{
		ContainerName:        "sdk_test",
		ContainerDescription: "Test container",
		DataSourceName:       "sdk_test_source",
		AdapterType:          datasources.AdapterStandard,
		DataSourceConfig:     map[string]interface{}{},
		TokenLifetime:        "1h",
		Payload:              map[string]interface{}{"test": "data"},
		ImportContentType:    "application/json",
	}
}

// Result is what a run produced. Ids are empty for steps that were not reached.
type Result struct {
	Precondition Precondition
	State        State
	ContainerID  string
	DataSourceID string
	ImportID     string
	Archived     bool
}

// Check decides whether the workflow can run. It makes no remote call when
// credentials are missing.
func Check(ctx context.Context, client Client, creds Credentials) Precondition {
	if !creds.Complete() {
		tflog.Info(ctx, "skipping, no api key and secret provided")
		return PreconditionSkipMissingCredentials
	}

	health, err := client.Health(ctx)
	if err != nil {
		tflog.Info(ctx, "skipping, no connection to Deep Lynx", map[string]interface{}{
			"error": err.Error(),
		})
		return PreconditionSkipUnhealthyService
	}
	if !deeplynx.IsHealthy(health) {
		tflog.Info(ctx, "skipping, no connection to Deep Lynx", map[string]interface{}{
			"health": health,
		})
		return PreconditionSkipUnhealthyService
	}

	return PreconditionRun
}

// Authenticate exchanges the credentials for a token and installs it on the
// client. An empty token is an error.
func Authenticate(ctx context.Context, client Client, creds Credentials, lifetime string) error {
	token, err := client.RetrieveOAuthToken(ctx, creds.APIKey, creds.APISecret, lifetime)
	if err != nil {
		return &authenticationError{err: err}
	}
	if token == "" {
		return &authenticationError{err: deeplynx.ErrorEmptyToken}
	}
	client.SetAccessToken(token)

	return nil
}

// Run executes the workflow. A skipped run returns a Result whose
// Precondition says why and a nil error. Once a container id is known the
// container is archived exactly once before Run returns, whatever happened
// after its creation, including cancellation of ctx.
func Run(ctx context.Context, client Client, creds Credentials, opts Options) (result *Result, err error) {
	ctx = tflog.MaskFieldValuesWithFieldKeys(ctx, "api_secret", "token")

	result = &Result{State: StateUnauthenticated}
	result.Precondition = Check(ctx, client, creds)
	if result.Precondition != PreconditionRun {
		return result, nil
	}

	if err := Authenticate(ctx, client, creds, opts.TokenLifetime); err != nil {
		return result, err
	}
	result.State = StateAuthenticated
	tflog.Debug(ctx, "authenticated with Deep Lynx", map[string]interface{}{
		"api_key": creds.APIKey,
	})

	defer func() {
		if result.ContainerID == "" {
			return
		}
		teardownCtx, cancel := context.WithTimeout(detach(ctx), teardownTimeout)
		defer cancel()

		archived, archiveErr := client.ArchiveContainer(teardownCtx, result.ContainerID, true)
		if archiveErr != nil {
			tflog.Warn(ctx, "unable to archive container", map[string]interface{}{
				"container_id": result.ContainerID,
				"error":        archiveErr.Error(),
			})
			if err != nil {
				err = multierror.Append(err, fmt.Errorf("archiving container %s: %w", result.ContainerID, archiveErr))
			} else {
				err = fmt.Errorf("archiving container %s: %w", result.ContainerID, archiveErr)
			}
			return
		}
		result.Archived = archived
		if !archived {
			tflog.Warn(ctx, "Deep Lynx did not archive the container", map[string]interface{}{
				"container_id": result.ContainerID,
			})
			return
		}
		result.State = StateArchived
		tflog.Trace(ctx, "archived container", map[string]interface{}{
			"container_id": result.ContainerID,
		})
	}()

	err = submitImport(ctx, client, opts, result)

	return result, err
}

func submitImport(ctx context.Context, client Client, opts Options, result *Result) error {
	container, err := client.CreateContainer(ctx, &containers.CreateContainerRequest{
		Name:        opts.ContainerName,
		Description: opts.ContainerDescription,
	})
	if err != nil {
		return fmt.Errorf("creating container: %w", err)
	}
	if len(container.Value) == 0 || container.Value[0].ID == "" {
		return ErrMissingContainerID
	}
	result.ContainerID = container.Value[0].ID
	result.State = StateContainerReady
	tflog.Trace(ctx, "created container", map[string]interface{}{
		"container_id": result.ContainerID,
	})

	config := opts.DataSourceConfig
	if config == nil {
		config = map[string]interface{}{}
	}
	dataSource, err := client.CreateDataSource(ctx, result.ContainerID, &datasources.CreateDataSourceRequest{
		Name:        opts.DataSourceName,
		AdapterType: opts.AdapterType,
		Active:      true,
		Config:      config,
	})
	if err != nil {
		return fmt.Errorf("creating data source: %w", err)
	}
	if dataSource.Value.ID == "" {
		return ErrMissingDataSourceID
	}
	result.DataSourceID = dataSource.Value.ID
	result.State = StateDataSourceReady
	tflog.Trace(ctx, "created data source", map[string]interface{}{
		"container_id":   result.ContainerID,
		"data_source_id": result.DataSourceID,
	})

	var options []deeplynx.RequestOption
	if opts.ImportContentType != "" {
		options = append(options, deeplynx.WithHeader("Content-Type", opts.ImportContentType))
	}
	manualImport, err := client.CreateManualImport(ctx, result.ContainerID, result.DataSourceID, opts.Payload, options...)
	if err != nil {
		return fmt.Errorf("creating manual import: %w", err)
	}
	if manualImport.Value.ID == "" {
		return ErrMissingImportID
	}
	result.ImportID = manualImport.Value.ID
	result.State = StateImportSubmitted
	tflog.Trace(ctx, "submitted manual import", map[string]interface{}{
		"import_id": result.ImportID,
	})

	return nil
}
