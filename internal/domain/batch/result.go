package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusCreated ItemStatus = "created"
	StatusUpdated ItemStatus = "updated"
	StatusError   ItemStatus = "error"
)

// Result is the outcome of processing one item in a batch operation.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewSaved creates a successful result. created distinguishes a new record from a replaced one.
func NewSaved(id string, created bool) Result {
	if created {
		return Result{id: id, status: StatusCreated}
	}
	return Result{id: id, status: StatusUpdated}
}

// NewError creates a failed batch result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary counts results by status.
type Summary struct {
	Created int
	Updated int
	Failed  int
}

// Summarize aggregates a batch of results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.status {
		case StatusCreated:
			s.Created++
		case StatusUpdated:
			s.Updated++
		default:
			s.Failed++
		}
	}
	return s
}
