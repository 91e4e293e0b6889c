package pipeline

// Status describes the overall outcome of a job.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusFailure        Status = "failure"
)

// Result is the final accounting for one job run.
type Result struct {
	Status        Status
	OutputPath    string
	TotalPages    int
	CompiledPages int
	FailedPages   int
	BlankPages    int

	InputTokens  int
	OutputTokens int
	TotalCost    float64
}
