package calendar

import (
	"bytes"
	"testing"
	"time"

	"github.com/Badsnus/festival-booking/internal/domain/entity"
	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportSlotsToICS(t *testing.T) {
	event := &entity.ClassEvent{
		ID:              "e1",
		ClassName:       "Class 3C",
		EventName:       "Drive a robot",
		Location:        "Robotics workshop",
		DurationMinutes: 120,
	}
	day := time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)
	slots := event.TimeSlots(day, 10, 16)
	require.Len(t, slots, 3)

	data, err := ExportSlotsToICS(event, slots, day)
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "e1-slot-0@festival-booking", events[0].Id())
	assert.Equal(t, "Drive a robot (Class 3C)", events[0].GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "Robotics workshop", events[0].GetProperty(ics.ComponentPropertyLocation).Value)

	start, err := events[2].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2026, 10, 3, 14, 0, 0, 0, time.UTC)))
}

func TestExportSlotsToICS_NoSlots(t *testing.T) {
	data, err := ExportSlotsToICS(&entity.ClassEvent{ID: "e1", EventName: "Cafe"}, nil, time.Now())
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, cal.Events())
}
