package lifecycle_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/hostel-leave/lifecycle"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		client    bool
		retryable bool
		notFound  bool
	}{
		{"missing field", lifecycle.ErrMissingField, true, false, false},
		{"date range", fmt.Errorf("create: %w", lifecycle.ErrInvalidDateRange), true, false, false},
		{"forbidden", lifecycle.ErrForbidden, true, false, false},
		{"invalid state", lifecycle.ErrInvalidState, false, true, false},
		{"stale write", lifecycle.StaleWrite("leave-1", lifecycle.ErrConcurrentModification), false, true, false},
		{"not found", fmt.Errorf("get: %w", lifecycle.ErrNotFound), false, false, true},
		{"internal", fmt.Errorf("disk full"), false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.client, lifecycle.IsClientError(tt.err))
			assert.Equal(t, tt.retryable, lifecycle.IsRetryable(tt.err))
			assert.Equal(t, tt.notFound, lifecycle.IsNotFound(tt.err))
		})
	}
}

func TestParseDecision(t *testing.T) {
	d, ok := lifecycle.ParseDecision("approve")
	assert.True(t, ok)
	assert.Equal(t, lifecycle.DecisionApprove, d)
	assert.Equal(t, lifecycle.OpApprove, d.Operation())

	d, ok = lifecycle.ParseDecision(" Reject ")
	assert.True(t, ok)
	assert.Equal(t, lifecycle.DecisionReject, d)
	assert.Equal(t, "reject", d.String())

	_, ok = lifecycle.ParseDecision("defer")
	assert.False(t, ok)
}
