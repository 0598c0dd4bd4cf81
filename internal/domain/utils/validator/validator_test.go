package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDuration(t *testing.T) {
	assert.False(t, Duration(0))
	assert.True(t, Duration(1))
	assert.True(t, Duration(MaxDurationMinutes))
	assert.False(t, Duration(181))
	assert.False(t, Duration(240))
}

func TestMaxCapacity(t *testing.T) {
	assert.False(t, MaxCapacity(0))
	assert.True(t, MaxCapacity(1))
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("guest@example.com"))
	assert.False(t, Email("guest"))
	assert.False(t, Email("Guest <guest@example.com>"))
}

func TestApplicationReason(t *testing.T) {
	assert.False(t, ApplicationReason("   "))
	assert.True(t, ApplicationReason("I run the 3-A robotics booth"))
	assert.False(t, ApplicationReason(strings.Repeat("x", 1001)))
}

func TestTags(t *testing.T) {
	assert.True(t, Tags(nil))
	assert.False(t, Tags([]string{""}))
	assert.True(t, Tags([]string{"science", "kids"}))
}
