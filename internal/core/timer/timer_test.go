package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeTrackerCountsDown(t *testing.T) {
	tt := NewTimeTracker(100)
	assert.False(t, tt.Passed())

	tt.Update(60)
	assert.False(t, tt.Passed())
	assert.Equal(t, int64(40), tt.Expiry())

	tt.Update(40)
	assert.True(t, tt.Passed(), "zero remaining counts as passed")

	tt.Reset(10)
	assert.False(t, tt.Passed())
}

func TestIntervalTimer(t *testing.T) {
	var it IntervalTimer
	it.SetInterval(100)

	it.Update(70)
	assert.False(t, it.Passed())

	it.Update(50)
	assert.True(t, it.Passed())
	assert.Equal(t, int64(120), it.Current())

	it.Reset()
	assert.Equal(t, int64(20), it.Current())

	it.Update(-500)
	assert.Equal(t, int64(0), it.Current(), "current never goes negative")
}
