package datasources

const (
	ImportStatusReady      = "ready"
	ImportStatusProcessing = "processing"
	ImportStatusCompleted  = "completed"
	ImportStatusError      = "error"
	ImportStatusStopped    = "stopped"
)

// Import is a single payload ingested into a data source.
type Import struct {
	ID            string `json:"id"`
	DataSourceID  string `json:"data_source_id"`
	Status        string `json:"status"`
	StatusMessage string `json:"status_message,omitempty"`
	Reference     string `json:"reference,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	ModifiedAt    string `json:"modified_at,omitempty"`
}

// Finished reports whether the import reached a status it will not leave
// without user action.
func (i Import) Finished() bool {
	switch i.Status {
	case ImportStatusCompleted, ImportStatusError, ImportStatusStopped:
		return true
	}
	return false
}

type ImportResponse struct {
	IsError bool   `json:"isError"`
	Value   Import `json:"value"`
}

type ListImportsResponse struct {
	IsError bool     `json:"isError"`
	Value   []Import `json:"value"`
}
