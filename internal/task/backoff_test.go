package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyBoundDoublesAndCaps(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, BaseDelay: time.Minute, MaxDelay: 5 * time.Minute}

	assert.Equal(t, time.Minute, p.Bound(0))
	assert.Equal(t, 2*time.Minute, p.Bound(1))
	assert.Equal(t, 4*time.Minute, p.Bound(2))
	assert.Equal(t, 5*time.Minute, p.Bound(3))
	assert.Equal(t, 5*time.Minute, p.Bound(10))
}

func TestRetryPolicyBoundNonDecreasing(t *testing.T) {
	p := DefaultRetryPolicy()

	prev := time.Duration(0)
	for i := 0; i < 10; i++ {
		b := p.Bound(i)
		assert.GreaterOrEqual(t, b, prev, "bound must not shrink at retry %d", i)
		assert.LessOrEqual(t, b, p.MaxDelay)
		prev = b
	}
}

func TestRetryPolicyDelayWithinBound(t *testing.T) {
	p := DefaultRetryPolicy()

	for i := 0; i < 5; i++ {
		for trial := 0; trial < 100; trial++ {
			d := p.Delay(i)
			assert.Greater(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, p.Bound(i))
		}
	}
}

func TestRetryPolicyNegativeRetryCount(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, p.BaseDelay, p.Bound(-1))
}
