package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin        Role = "admin"
	RolePsychiatrist Role = "psychiatrist"
	RolePatient      Role = "patient"
)

// Availability is a psychiatrist's bookable window, embedded on User.
// WorkingDays holds weekday names ("Monday", ...); an empty set is a valid
// state that simply makes the psychiatrist unbookable. Times are wall-clock
// "HH:MM" 24-hour strings.
type Availability struct {
	StartTime   string   `gorm:"size:5" json:"startTime"`
	EndTime     string   `gorm:"size:5" json:"endTime"`
	WorkingDays []string `gorm:"serializer:json" json:"workingDays"`
}

// DefaultAvailability is applied to new psychiatrist accounts.
func DefaultAvailability() Availability {
	return Availability{
		StartTime:   "09:00",
		EndTime:     "17:00",
		WorkingDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
	}
}

// User represents a user in the system
type User struct {
	BaseModel
	Email          string       `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password       string       `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	FirstName      string       `gorm:"size:100" json:"firstName"`
	LastName       string       `gorm:"size:100" json:"lastName"`
	Role           Role         `gorm:"size:20;default:'patient'" json:"role"`
	DateOfBirth    *time.Time   `json:"dateOfBirth,omitempty"`
	PhoneNumber    string       `json:"phoneNumber,omitempty"`
	Specialization string       `gorm:"size:100" json:"specialization,omitempty"`
	ProfileImage   string       `json:"profileImage,omitempty"`
	Availability   Availability `gorm:"embedded;embeddedPrefix:availability_" json:"availability"`

	// Relations (not always preloaded)
	RefreshTokens            []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
	PsychiatristAppointments []Appointment  `gorm:"foreignKey:PsychiatristID" json:"-"`
	PatientAppointments      []Appointment  `gorm:"foreignKey:PatientID" json:"-"`
	SentMessages             []Message      `gorm:"foreignKey:SenderID" json:"-"`
	ReceivedMessages         []Message      `gorm:"foreignKey:ReceiverID" json:"-"`
}

// FullName returns the display name snapshotted onto appointments.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID             string       `json:"id"`
	Email          string       `json:"email"`
	FirstName      string       `json:"firstName"`
	LastName       string       `json:"lastName"`
	Role           Role         `json:"role"`
	DateOfBirth    *time.Time   `json:"dateOfBirth,omitempty"`
	PhoneNumber    string       `json:"phoneNumber,omitempty"`
	Specialization string       `json:"specialization,omitempty"`
	ProfileImage   string       `json:"profileImage,omitempty"`
	Availability   Availability `json:"availability"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.Role,
		DateOfBirth:    u.DateOfBirth,
		PhoneNumber:    u.PhoneNumber,
		Specialization: u.Specialization,
		ProfileImage:   u.ProfileImage,
		Availability:   u.Availability,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
