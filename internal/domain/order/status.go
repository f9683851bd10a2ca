package order

// OrderStatus represents where an order is in its lifecycle
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusProcessing     OrderStatus = "processing"
	StatusShipped        OrderStatus = "shipped"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
	StatusReturned       OrderStatus = "returned"
	StatusRefunded       OrderStatus = "refunded"
)

// transitions lists the permitted next states for each status
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusProcessing, StatusCancelled},
	StatusProcessing:     {StatusShipped, StatusCancelled},
	StatusShipped:        {StatusOutForDelivery, StatusReturned},
	StatusOutForDelivery: {StatusDelivered, StatusReturned},
	StatusDelivered:      {StatusReturned},
	StatusCancelled:      {StatusRefunded},
	StatusReturned:       {StatusRefunded},
	StatusRefunded:       {},
}

// AllStatuses returns every status in lifecycle order
func AllStatuses() []OrderStatus {
	return []OrderStatus{
		StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusOutForDelivery,
		StatusDelivered, StatusCancelled, StatusReturned, StatusRefunded,
	}
}

// IsValid checks if the status is a known value
func (s OrderStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// NextStatuses returns the statuses reachable from s
func (s OrderStatus) NextStatuses() []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo checks the transition table
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist
func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// RestoresStock reports whether entering s puts the items back in stock
func (s OrderStatus) RestoresStock() bool {
	return s == StatusCancelled || s == StatusReturned
}
