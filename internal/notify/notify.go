// Package notify delivers appointment emails. Every send is best-effort:
// booking and cancellation never fail because a mail relay is down.
package notify

import (
	"fmt"

	"telepsychiatry-server/internal/models"
)

// Notifier receives appointment lifecycle events for both parties.
type Notifier interface {
	AppointmentBooked(appt *models.Appointment)
	AppointmentCancelled(appt *models.Appointment)
	AppointmentReminder(appt *models.Appointment)
}

// Nop discards every notification. Used when no SMTP relay is configured.
type Nop struct{}

func (Nop) AppointmentBooked(*models.Appointment)    {}
func (Nop) AppointmentCancelled(*models.Appointment) {}
func (Nop) AppointmentReminder(*models.Appointment)  {}

func bookedBody(appt *models.Appointment, counterpart string) string {
	return fmt.Sprintf(
		"Your appointment with %s on %s at %s is confirmed.",
		counterpart, appt.Date.UTC().Format("Monday, January 2, 2006"), appt.TimeSlot)
}

func cancelledBody(appt *models.Appointment, counterpart string) string {
	return fmt.Sprintf(
		"Your appointment with %s on %s at %s has been cancelled.",
		counterpart, appt.Date.UTC().Format("Monday, January 2, 2006"), appt.TimeSlot)
}

func reminderBody(appt *models.Appointment, counterpart string) string {
	return fmt.Sprintf(
		"Reminder: you have an appointment with %s tomorrow, %s at %s.",
		counterpart, appt.Date.UTC().Format("Monday, January 2, 2006"), appt.TimeSlot)
}
