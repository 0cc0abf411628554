package checkout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/checkout/internal/checkout"
)

func TestOrderStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from checkout.OrderStatus
		to   checkout.OrderStatus
		want bool
	}{
		{checkout.OrderPending, checkout.OrderCompleted, true},
		{checkout.OrderPending, checkout.OrderCancelled, true},
		{checkout.OrderPending, checkout.OrderExpired, true},
		{checkout.OrderPending, checkout.OrderPending, false},
		{checkout.OrderCompleted, checkout.OrderCancelled, false},
		{checkout.OrderCancelled, checkout.OrderPending, false},
		{checkout.OrderExpired, checkout.OrderCompleted, false},
	}

	for _, tt := range tests {
		assert.Equalf(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestPaidStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from checkout.PaidStatus
		to   checkout.PaidStatus
		want bool
	}{
		{checkout.PaidPending, checkout.PaidPaid, true},
		{checkout.PaidPending, checkout.PaidCancelled, true},
		{checkout.PaidPending, checkout.PaidExpired, true},
		{checkout.PaidPaid, checkout.PaidCancelled, false},
		{checkout.PaidCancelled, checkout.PaidPending, false},
		{checkout.PaidExpired, checkout.PaidPaid, false},
	}

	for _, tt := range tests {
		assert.Equalf(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
