package workflow

// Precondition is the outcome of the check run before any side effect.
type Precondition int

const (
	PreconditionRun Precondition = iota
	PreconditionSkipMissingCredentials
	PreconditionSkipUnhealthyService
)

func (p Precondition) String() string {
	switch p {
	case PreconditionRun:
		return "run"
	case PreconditionSkipMissingCredentials:
		return "skip-missing-credentials"
	case PreconditionSkipUnhealthyService:
		return "skip-unhealthy-service"
	}
	return "unknown"
}

// Skip reports whether the workflow must not run.
func (p Precondition) Skip() bool {
	return p != PreconditionRun
}

// State is the last step a run reached. Steps only move forward; a failed
// step leaves the previous state in place.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateContainerReady
	StateDataSourceReady
	StateImportSubmitted
	StateArchived
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateContainerReady:
		return "container_ready"
	case StateDataSourceReady:
		return "datasource_ready"
	case StateImportSubmitted:
		return "import_submitted"
	case StateArchived:
		return "archived"
	}
	return "unknown"
}
