package calendar

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Badsnus/festival-booking/internal/domain/entity"
	ics "github.com/arran4/golang-ical"
)

const productID = "-//Festival Booking//EN"

// ExportSlotsToICS converts the time slots of one event into an iCalendar
// (.ics) document. Each slot becomes a VEVENT carrying the event's name,
// description and location, with a reminder fifteen minutes before it starts.
// Slots are informational: holding one does not mean holding a reservation.
func ExportSlotsToICS(event *entity.ClassEvent, slots []entity.TimeSlot, now time.Time) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")
	cal.SetName(event.EventName)

	for _, slot := range slots {
		e := cal.AddEvent(fmt.Sprintf("%s@festival-booking", slot.ID))

		// Mobile clients reject events without DTSTAMP.
		e.SetDtStampTime(now)
		e.SetCreatedTime(event.CreatedAt)
		e.SetModifiedAt(event.UpdatedAt)

		e.SetStartAt(slot.StartTime)
		e.SetEndAt(slot.EndTime)

		e.SetSummary(fmt.Sprintf("%s (%s)", event.EventName, event.ClassName))
		e.SetDescription(event.Description)
		e.SetLocation(event.Location)
		e.SetStatus(ics.ObjectStatusConfirmed)
		e.SetTimeTransparency(ics.TransparencyTransparent)
		e.SetClass(ics.ClassificationPublic)
		e.SetSequence(0)

		alarm := e.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.AddProperty("TRIGGER;VALUE=DURATION", "-PT15M")
		alarm.SetDescription(fmt.Sprintf("Starting soon: %s", event.EventName))
	}

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf); err != nil {
		return nil, fmt.Errorf("error serializing calendar: %w", err)
	}
	return buf.Bytes(), nil
}
