package containers

type Container struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Config      map[string]interface{} `json:"config,omitempty"`
	Archived    bool                   `json:"archived"`
	CreatedAt   string                 `json:"created_at,omitempty"`
	ModifiedAt  string                 `json:"modified_at,omitempty"`
	CreatedBy   string                 `json:"created_by,omitempty"`
	ModifiedBy  string                 `json:"modified_by,omitempty"`
}

// CreateContainerResponse is the body of POST /containers. The service
// accepts bulk creation, so value is always an array even for one container.
type CreateContainerResponse struct {
	IsError bool        `json:"isError"`
	Value   []Container `json:"value"`
}

// ContainerResponse wraps a single container, as returned by
// GET and PUT /containers/{id}.
type ContainerResponse struct {
	IsError bool      `json:"isError"`
	Value   Container `json:"value"`
}

type ListContainersResponse struct {
	IsError bool        `json:"isError"`
	Value   []Container `json:"value"`
}
