package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatusLegalTransitions(t *testing.T) {
	tests := []struct {
		current string
		action  string
		want    string
	}{
		{OrderPending, ActionConfirm, OrderConfirmed},
		{OrderConfirmed, ActionStartFulfillment, OrderProcessing},
		{OrderProcessing, ActionGenerateLabel, OrderShipped},
		{OrderShipped, ActionMarkDelivered, OrderDelivered},
		{OrderPending, ActionCancel, OrderCancelled},
		{OrderConfirmed, ActionCancel, OrderCancelled},
		{OrderProcessing, ActionCancel, OrderCancelled},
		{OrderDelivered, ActionRefund, OrderRefunded},
	}
	for _, tt := range tests {
		t.Run(tt.action+"_from_"+tt.current, func(t *testing.T) {
			next, err := NextStatus(tt.current, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestNextStatusIllegalTransitions(t *testing.T) {
	tests := []struct {
		current string
		action  string
	}{
		{OrderPending, ActionGenerateLabel},
		{OrderPending, ActionMarkDelivered},
		{OrderShipped, ActionCancel},
		{OrderDelivered, ActionCancel},
		{OrderCancelled, ActionConfirm},
		{OrderCancelled, ActionMarkDelivered},
		{OrderRefunded, ActionRefund},
		{OrderDelivered, ActionMarkDelivered},
	}
	for _, tt := range tests {
		t.Run(tt.action+"_from_"+tt.current, func(t *testing.T) {
			_, err := NextStatus(tt.current, tt.action)
			assert.Error(t, err)
		})
	}
}

func TestNextStatusUnknownAction(t *testing.T) {
	_, err := NextStatus(OrderPending, "teleport")
	assert.Error(t, err)
}

func TestSourceStatuses(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{OrderPending, OrderConfirmed, OrderProcessing},
		SourceStatuses(ActionCancel))
	assert.Equal(t, []string{OrderShipped}, SourceStatuses(ActionMarkDelivered))
	assert.Nil(t, SourceStatuses("nonsense"))
}

func TestSourceStatusesReturnsCopy(t *testing.T) {
	first := SourceStatuses(ActionCancel)
	first[0] = "mutated"
	assert.NotEqual(t, first[0], SourceStatuses(ActionCancel)[0])
}

func TestKnownAction(t *testing.T) {
	assert.True(t, KnownAction(ActionConfirm))
	assert.True(t, KnownAction(ActionRefund))
	assert.False(t, KnownAction(""))
	assert.False(t, KnownAction("ship"))
}

// A cancelled order can never be marked delivered afterwards; the
// table has no edge out of cancelled at all.
func TestCancelledIsTerminal(t *testing.T) {
	for action := range transitions {
		_, err := NextStatus(OrderCancelled, action)
		assert.Error(t, err, "action %s should be illegal from cancelled", action)
	}
}
