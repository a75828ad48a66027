package scheduling

import (
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"telepsychiatry-server/internal/models"
)

// GormRepository is the MySQL-backed Repository.
type GormRepository struct {
	DB *gorm.DB
}

// NewGormRepository creates a GormRepository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

func (r *GormRepository) UserByID(id string) (*models.User, error) {
	var user models.User
	if err := r.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepository) AppointmentByID(id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := r.DB.First(&appt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appt, nil
}

func (r *GormRepository) BookedSlotLabels(psychiatristID string, day time.Time) ([]string, error) {
	var labels []string
	err := r.DB.Model(&models.Appointment{}).
		Where("psychiatrist_id = ? AND date = ? AND status <> ?",
			psychiatristID, day, models.StatusCancelled).
		Order("time_slot asc").
		Pluck("time_slot", &labels).Error
	if err != nil {
		return nil, err
	}
	return labels, nil
}

func (r *GormRepository) HasActiveAppointment(partyColumn, partyID string, day time.Time, timeSlot string) (bool, error) {
	if partyColumn != PartyPsychiatrist && partyColumn != PartyPatient {
		return false, errors.New("unknown party column: " + partyColumn)
	}
	var count int64
	err := r.DB.Model(&models.Appointment{}).
		Where(partyColumn+" = ? AND date = ? AND time_slot = ? AND status <> ?",
			partyID, day, timeSlot, models.StatusCancelled).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepository) Create(appt *models.Appointment) error {
	if err := r.DB.Create(appt).Error; err != nil {
		return translateDuplicate(err)
	}
	return nil
}

func (r *GormRepository) MarkCancelled(appt *models.Appointment) error {
	appt.Status = models.StatusCancelled
	appt.Active = nil
	// Updates skips zero values, so clear the marker column explicitly.
	return r.DB.Model(appt).
		Updates(map[string]interface{}{"status": models.StatusCancelled, "active": nil}).Error
}

func (r *GormRepository) ListByPatient(patientID string) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.DB.Where("patient_id = ?", patientID).
		Order("date asc, time_slot asc").
		Find(&appts).Error
	return appts, err
}

func (r *GormRepository) ListByPsychiatrist(psychiatristID string) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.DB.Where("psychiatrist_id = ?", psychiatristID).
		Order("date asc, time_slot asc").
		Find(&appts).Error
	return appts, err
}

func (r *GormRepository) ScheduledOnDay(day time.Time) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.DB.Where("date = ? AND status = ?", day, models.StatusScheduled).
		Order("time_slot asc").
		Find(&appts).Error
	return appts, err
}

// translateDuplicate turns a MySQL duplicate-key violation (error 1062) into
// the booking error for whichever unique index rejected the insert. Losing
// the insert race on uniq_psychiatrist_slot means another patient took the
// slot first; losing it on uniq_patient_slot means this patient already holds
// an appointment at that time.
func translateDuplicate(err error) error {
	var dup *mysql.MySQLError
	if !errors.As(err, &dup) || dup.Number != 1062 {
		return err
	}
	if strings.Contains(dup.Message, models.UniqPatientSlotIndex) {
		return newError(KindDoublyBooked, "you already have an appointment at this time")
	}
	return newError(KindSlotTaken, "this time slot has just been booked, please pick another")
}
