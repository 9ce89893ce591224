package datasources

// AdapterStandard is the adapter type of a data source fed through manual
// imports and the standard ingestion endpoints.
const AdapterStandard = "standard"

// AdapterTypes lists the adapter types the service accepts.
var AdapterTypes = []string{
	AdapterStandard,
	"http",
	"jazz",
	"aveva",
	"p6",
	"timeseries",
	"custom",
}

type DataSource struct {
	ID          string                 `json:"id"`
	ContainerID string                 `json:"container_id"`
	Name        string                 `json:"name"`
	AdapterType string                 `json:"adapter_type"`
	Active      bool                   `json:"active"`
	Archived    bool                   `json:"archived"`
	Config      map[string]interface{} `json:"config,omitempty"`
	Status      string                 `json:"status,omitempty"`
	CreatedAt   string                 `json:"created_at,omitempty"`
	ModifiedAt  string                 `json:"modified_at,omitempty"`
}

// CreateDataSourceRequest is the request body for
// POST /containers/{container_id}/import/datasources.
type CreateDataSourceRequest struct {
	Name        string                 `json:"name"`
	AdapterType string                 `json:"adapterType"`
	Active      bool                   `json:"active"`
	Config      map[string]interface{} `json:"config"`
}

// DataSourceResponse wraps a single data source. Unlike container creation,
// value is an object.
type DataSourceResponse struct {
	IsError bool       `json:"isError"`
	Value   DataSource `json:"value"`
}

type ListDataSourcesResponse struct {
	IsError bool         `json:"isError"`
	Value   []DataSource `json:"value"`
}
