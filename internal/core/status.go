package core

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	StatusNew               OrderStatus = "NEW"
	StatusPaymentPending    OrderStatus = "PAYMENT_PENDING"
	StatusPaid              OrderStatus = "PAID"
	StatusPreparing         OrderStatus = "PREPARING"
	StatusReadyToShip       OrderStatus = "READY_TO_SHIP"
	StatusShipped           OrderStatus = "SHIPPED"
	StatusInDelivery        OrderStatus = "IN_DELIVERY"
	StatusDelivered         OrderStatus = "DELIVERED"
	StatusCancelled         OrderStatus = "CANCELLED"
	StatusExchangeRequested OrderStatus = "EXCHANGE_REQUESTED"
	StatusReturnRequested   OrderStatus = "RETURN_REQUESTED"
)

// orderTransitions is the full legal transition table. CANCELLED is terminal;
// DELIVERED is terminal except for the two post-delivery claim transitions.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusNew:            {StatusPaymentPending, StatusCancelled},
	StatusPaymentPending: {StatusPaid, StatusCancelled},
	StatusPaid:           {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusReadyToShip, StatusCancelled},
	StatusReadyToShip:    {StatusShipped, StatusCancelled},
	StatusShipped:        {StatusInDelivery},
	StatusInDelivery:     {StatusDelivered},
	StatusDelivered:      {StatusExchangeRequested, StatusReturnRequested},
}

// CanTransitionTo reports whether from -> to is in the transition table.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an IllegalTransitionError for any pair not in
// the table. It must be called before every status write.
func ValidateTransition(from, to OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return &IllegalTransitionError{From: from, To: to}
	}
	return nil
}

// ItemsMutable reports whether order items may still be added or removed.
func (s OrderStatus) ItemsMutable() bool {
	return s == StatusNew || s == StatusPaymentPending
}

// IsTerminal reports whether no further automatic transitions exist.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}
