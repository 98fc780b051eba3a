package models

import "fmt"

// Order statuses form a closed enumeration; every change goes through
// the transition table below instead of per-handler conditionals.
const (
	OrderPending    = "pending"
	OrderConfirmed  = "confirmed"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
	OrderRefunded   = "refunded"
)

// Payment statuses, correlated with order status by the actions that
// move both together.
const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
	PaymentPaid      = "paid"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Fulfillment actions.
const (
	ActionConfirm          = "confirm"
	ActionStartFulfillment = "start_fulfillment"
	ActionGenerateLabel    = "generate_label"
	ActionMarkDelivered    = "mark_delivered"
	ActionCancel           = "cancel"
	ActionRefund           = "refund"
)

// transition describes one legal (source set, action) edge.
type transition struct {
	next    string
	sources []string
}

var transitions = map[string]transition{
	ActionConfirm:          {next: OrderConfirmed, sources: []string{OrderPending}},
	ActionStartFulfillment: {next: OrderProcessing, sources: []string{OrderConfirmed}},
	ActionGenerateLabel:    {next: OrderShipped, sources: []string{OrderProcessing}},
	ActionMarkDelivered:    {next: OrderDelivered, sources: []string{OrderShipped}},
	ActionCancel:           {next: OrderCancelled, sources: []string{OrderPending, OrderConfirmed, OrderProcessing}},
	ActionRefund:           {next: OrderRefunded, sources: []string{OrderDelivered}},
}

// NextStatus resolves an action against the current status. It returns
// the target status, or an error naming the illegal pair.
func NextStatus(current, action string) (string, error) {
	tr, ok := transitions[action]
	if !ok {
		return "", fmt.Errorf("unknown fulfillment action %q", action)
	}
	for _, source := range tr.sources {
		if source == current {
			return tr.next, nil
		}
	}
	return "", fmt.Errorf("cannot %s an order in status %q", action, current)
}

// SourceStatuses returns the statuses from which the action is legal.
// Handlers use this to build compare-and-swap updates, so a losing
// racer matches zero rows instead of overwriting the winner.
func SourceStatuses(action string) []string {
	tr, ok := transitions[action]
	if !ok {
		return nil
	}
	out := make([]string, len(tr.sources))
	copy(out, tr.sources)
	return out
}

// KnownAction reports whether the action name exists in the table.
func KnownAction(action string) bool {
	_, ok := transitions[action]
	return ok
}
