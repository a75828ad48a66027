package scheduling

import (
	"time"

	"telepsychiatry-server/internal/models"
)

// Repository is the appointment store the scheduling service runs against.
// Lookup methods return (nil, nil) when the record does not exist; only
// infrastructure failures travel back as errors. Create must enforce the
// non-cancelled uniqueness of (psychiatrist, date, slot) and of (patient,
// date, slot) atomically and return a scheduling Error of kind KindSlotTaken
// or KindDoublyBooked when the insert loses that race; the service-level
// pre-checks are a courtesy, the store is the source of truth.
type Repository interface {
	UserByID(id string) (*models.User, error)
	AppointmentByID(id string) (*models.Appointment, error)

	// BookedSlotLabels returns the TimeSlot labels of every non-cancelled
	// appointment the psychiatrist has on the given UTC day, ordered by label.
	BookedSlotLabels(psychiatristID string, day time.Time) ([]string, error)

	// HasActiveAppointment reports whether a non-cancelled appointment exists
	// for the given party column ("psychiatrist_id" or "patient_id"), day and
	// slot label.
	HasActiveAppointment(partyColumn, partyID string, day time.Time, timeSlot string) (bool, error)

	Create(appt *models.Appointment) error

	// MarkCancelled transitions the row to cancelled and clears its Active
	// marker so the unique indexes release the slot.
	MarkCancelled(appt *models.Appointment) error

	ListByPatient(patientID string) ([]models.Appointment, error)
	ListByPsychiatrist(psychiatristID string) ([]models.Appointment, error)

	// ScheduledOnDay returns every appointment still scheduled on the given
	// UTC day. Used by the reminder job.
	ScheduledOnDay(day time.Time) ([]models.Appointment, error)
}

// Party columns accepted by HasActiveAppointment.
const (
	PartyPsychiatrist = "psychiatrist_id"
	PartyPatient      = "patient_id"
)
