package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Index names referenced when translating MySQL duplicate-key errors into
// "slot taken" vs "patient double-booked".
const (
	UniqPsychiatristSlotIndex = "uniq_psychiatrist_slot"
	UniqPatientSlotIndex      = "uniq_patient_slot"
)

// Appointment represents a booked consultation slot.
//
// Date is a calendar day stored at UTC noon so that serialization through any
// client timezone offset cannot shift it across a day boundary. TimeSlot is
// the rendered label ("2:00 PM - 2:30 PM") and is the slot's identity.
//
// Active is non-nil exactly while the appointment is not cancelled. MySQL
// unique indexes admit any number of NULL rows, so the two composite indexes
// below enforce "at most one non-cancelled appointment per (psychiatrist,
// date, slot)" and the same per patient, while cancelled rows free the slot.
type Appointment struct {
	BaseModel
	PatientID      string            `gorm:"size:36;index;uniqueIndex:uniq_patient_slot" json:"patientId"`
	PsychiatristID string            `gorm:"size:36;index;uniqueIndex:uniq_psychiatrist_slot" json:"psychiatristId"`
	Date           time.Time         `gorm:"uniqueIndex:uniq_psychiatrist_slot;uniqueIndex:uniq_patient_slot" json:"date"`
	TimeSlot       string            `gorm:"size:32;uniqueIndex:uniq_psychiatrist_slot;uniqueIndex:uniq_patient_slot" json:"timeSlot"`
	Status         AppointmentStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	Active         *bool             `gorm:"uniqueIndex:uniq_psychiatrist_slot;uniqueIndex:uniq_patient_slot" json:"-"`

	// Point-in-time identity snapshot for notifications and display; stale
	// names after a profile change are accepted, not a bug.
	PatientName       string `gorm:"size:201" json:"patientName"`
	PatientEmail      string `gorm:"size:255" json:"patientEmail"`
	PsychiatristName  string `gorm:"size:201" json:"psychiatristName"`
	PsychiatristEmail string `gorm:"size:255" json:"psychiatristEmail"`

	// Relations
	Patient      User `gorm:"foreignKey:PatientID" json:"-"`
	Psychiatrist User `gorm:"foreignKey:PsychiatristID" json:"-"`
}

// IsCancelled reports whether the appointment is in its cancelled terminal state.
func (a *Appointment) IsCancelled() bool {
	return a.Status == StatusCancelled
}
