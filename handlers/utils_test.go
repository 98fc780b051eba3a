package handlers

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOrderNumber(t *testing.T) {
	day := time.Date(2026, time.March, 7, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, "VLR-20260307-000042", formatOrderNumber(day, 42))
	assert.Equal(t, "VLR-20260307-123456", formatOrderNumber(day, 123456))
}

func TestFormatOrderNumberShape(t *testing.T) {
	pattern := regexp.MustCompile(`^VLR-\d{8}-\d{6,}$`)

	for _, seq := range []int64{1, 999999, 1000000} {
		n := formatOrderNumber(time.Now(), seq)
		assert.True(t, pattern.MatchString(n), "order number %q", n)
	}
}

func TestFormatOrderNumberSequenceDistinct(t *testing.T) {
	// Same instant, different sequence values: never equal. The
	// sequence is what keeps concurrent checkouts collision-free.
	now := time.Now()
	a := formatOrderNumber(now, 7)
	b := formatOrderNumber(now, 8)
	require.NotEqual(t, a, b)
}

func TestGenerateTrackingNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^TRK-[0-9A-F]{12}$`)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := generateTrackingNumber()
		assert.True(t, pattern.MatchString(n), "tracking number %q", n)
		assert.False(t, seen[n], "duplicate tracking number %q", n)
		seen[n] = true
	}
}

func TestLegalActions(t *testing.T) {
	assert.ElementsMatch(t, []string{"confirm", "cancel"}, legalActions("pending"))
	assert.ElementsMatch(t, []string{"start_fulfillment", "cancel"}, legalActions("confirmed"))
	assert.ElementsMatch(t, []string{"generate_label", "cancel"}, legalActions("processing"))
	assert.ElementsMatch(t, []string{"mark_delivered"}, legalActions("shipped"))
	assert.ElementsMatch(t, []string{"refund"}, legalActions("delivered"))
	assert.Empty(t, legalActions("cancelled"))
	assert.Empty(t, legalActions("refunded"))
}
