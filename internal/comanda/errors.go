package comanda

import "errors"

var (
	// ErrDuplicateTableNumber is returned when an active table already holds
	// the requested number.
	ErrDuplicateTableNumber = errors.New("table number already in use")

	// ErrEmptyCart is returned when an order with no lines is submitted.
	ErrEmptyCart = errors.New("order has no lines")

	// ErrNoValidTransition is returned when an order status has no successor
	// or the requested transition is not allowed.
	ErrNoValidTransition = errors.New("no valid status transition")

	// ErrOrderImmutable is returned when lines are mutated on a paid or
	// cancelled order.
	ErrOrderImmutable = errors.New("order can no longer be modified")

	// ErrTableHasOpenOrders is returned when a table still referenced by a
	// non-terminal order is removed.
	ErrTableHasOpenOrders = errors.New("table is referenced by open orders")

	// ErrDragInProgress is returned when a second drag session is started for
	// a table that already has one active.
	ErrDragInProgress = errors.New("drag already in progress for table")

	ErrTableNotFound       = errors.New("table not found")
	ErrServiceTypeConflict = errors.New("order is either dine-in or takeaway, not both")
)
