package orders

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
	StatusExpired    Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted,
		StatusCancelled, StatusRefunded, StatusExpired:
		return true
	}
	return false
}

// The engine only ever moves orders out of pending. Everything else is
// terminal: no transitions out of completed or expired, and the remaining
// statuses exist for imported data only.
var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusCompleted: true, StatusExpired: true},
	StatusProcessing: {},
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusRefunded:   {},
	StatusExpired:    {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
