package comanda

// Status is the lifecycle state of a comanda. The happy path is a strict
// linear chain; cancelled is reachable from every state except paid.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusServed    Status = "served"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

var statusChain = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusServed,
	StatusPaid,
}

// Next returns the linear successor of s. The second return value is false
// when s has no successor (paid, cancelled, or an unknown status).
func (s Status) Next() (Status, bool) {
	for i, current := range statusChain {
		if current == s && i+1 < len(statusChain) {
			return statusChain[i+1], true
		}
	}
	return "", false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Cancellable reports whether an order in s may still be cancelled.
func (s Status) Cancellable() bool {
	return s != StatusPaid && s != StatusCancelled
}

// InPreparation reports whether the order still counts as pending work for
// the dashboard: placed but not yet ready for the table.
func (s Status) InPreparation() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusPreparing
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusServed, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// OpenStatuses lists every non-terminal status. Used for referential checks
// such as refusing to remove a table with live orders.
func OpenStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusServed}
}
