package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of processing one item in a batch operation.
type Result struct {
	index  int
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result for the item at index.
func NewOK(index int, id string) Result { return Result{index: index, id: id, status: StatusOK} }

// NewError creates a failed batch result for the item at index.
func NewError(index int, id string, err error) Result {
	return Result{index: index, id: id, status: StatusError, err: err}
}

// Index returns the item position in the submitted batch.
func (r Result) Index() int { return r.index }

// ID returns the item identifier ("" if none was assigned).
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// OK reports whether the item was accepted.
func (r Result) OK() bool { return r.status == StatusOK }

// AcceptedIDs returns the IDs of accepted items in result order.
func AcceptedIDs(results []Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.OK() {
			ids = append(ids, r.id)
		}
	}
	return ids
}
