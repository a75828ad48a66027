package models

import (
	"time"
)

// SessionNote is a psychiatrist's written record of a consultation with a
// patient. Readable by the patient and the authoring psychiatrist; only the
// author may amend or delete it.
type SessionNote struct {
	BaseModel
	PatientID      string     `gorm:"size:36;index" json:"patientId"`
	PsychiatristID string     `gorm:"size:36;index" json:"psychiatristId"`
	AppointmentID  string     `gorm:"size:36;index" json:"appointmentId,omitempty"`
	Title          string     `gorm:"size:255" json:"title"`
	Content        string     `gorm:"type:text" json:"content"`
	SessionDate    *time.Time `json:"sessionDate,omitempty"`

	// Relations
	Patient      User `gorm:"foreignKey:PatientID" json:"-"`
	Psychiatrist User `gorm:"foreignKey:PsychiatristID" json:"-"`
}
