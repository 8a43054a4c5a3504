package fsm

// DeriveRequest is the FSM input for one source image.
type DeriveRequest struct {
	ID         string
	RunID      string
	SourceName string
	SourcePath string
	FullPath   string
	ThumbPath  string
}

// DeriveResponse is the FSM output (accumulated across transitions)
type DeriveResponse struct {
	// From ReadMetadata
	Width  int
	Height int

	// From ProduceFull
	Operation string

	// From RetireSource
	SourceRetired bool
	Delivered     []string

	// From Complete/Failed
	Status      string
	FailedStage string
	Reason      string
}

// State names
const (
	StateReadMetadata     = "read_metadata"
	StateProduceFull      = "produce_full"
	StateProduceThumbnail = "produce_thumbnail"
	StateRetireSource     = "retire_source"
	StateComplete         = "complete"
	StateFailed           = "failed"
)

// Status values reported on DeriveResponse.
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)
