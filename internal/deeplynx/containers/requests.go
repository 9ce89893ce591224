package containers

type CreateContainerRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateContainerRequest is the request body for PUT /containers/{id}.
type UpdateContainerRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
