// Package scheduling implements appointment availability, booking and
// cancellation for psychiatrist consultations.
package scheduling

import (
	"time"

	"go.uber.org/zap"

	"telepsychiatry-server/internal/models"
	"telepsychiatry-server/internal/notify"
	"telepsychiatry-server/internal/schedule"
)

// Booking horizon: up to HorizonDays bookable dates are offered, found within
// a LookaheadDays scan so sparse working-day sets still fill the horizon.
const (
	HorizonDays   = 7
	LookaheadDays = 30
)

// Principal is the authenticated caller, resolved by the auth middleware and
// passed in explicitly.
type Principal struct {
	UserID string
	Role   models.Role
}

// BookingRequest is a validated booking attempt for one slot.
type BookingRequest struct {
	PsychiatristID string
	Date           time.Time
	TimeSlot       string
}

// DayAvailability is one bookable date with the slots still free on it.
type DayAvailability struct {
	schedule.BookableDate
	FreeSlots []string `json:"freeSlots"`
}

// SlotCache caches booked-slot sets per (psychiatrist, ISO day). May be nil.
type SlotCache interface {
	Get(psychiatristID, isoDay string) ([]string, bool)
	Set(psychiatristID, isoDay string, labels []string)
	Invalidate(psychiatristID, isoDay string)
}

// Service coordinates the availability calculator, the appointment store and
// the notifier. It is stateless; booking-race correctness lives in the
// store's unique indexes, not here.
type Service struct {
	repo     Repository
	cache    SlotCache
	notifier notify.Notifier
	logger   *zap.Logger

	now func() time.Time
}

// NewService creates a Service. cache may be nil to disable caching.
func NewService(repo Repository, cache SlotCache, notifier notify.Notifier, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// AvailableDays returns the psychiatrist's next bookable dates with the free
// slots remaining on each, already-elapsed slots excluded for today.
func (s *Service) AvailableDays(psychiatristID string) ([]DayAvailability, error) {
	provider, err := s.psychiatrist(psychiatristID)
	if err != nil {
		return nil, err
	}

	// An unbookable provider (no working days, or no usable hour window)
	// advertises no days at all; the calculator's empty-set fallback must not
	// reach this endpoint, it feeds the booking view.
	av := provider.Availability
	allSlots := schedule.Slots(av.StartTime, av.EndTime)
	if len(av.WorkingDays) == 0 || len(allSlots) == 0 {
		return []DayAvailability{}, nil
	}

	now := s.now()
	dates := schedule.BookableDates(av.WorkingDays, HorizonDays, LookaheadDays, now)

	days := make([]DayAvailability, 0, len(dates))
	for _, d := range dates {
		booked, err := s.BookedSlots(psychiatristID, d.Date)
		if err != nil {
			return nil, err
		}
		taken := make(map[string]bool, len(booked))
		for _, label := range booked {
			taken[label] = true
		}

		var free []string
		for _, label := range allSlots {
			if taken[label] {
				continue
			}
			if schedule.SameUTCDay(d.Date, now) {
				if start, err := schedule.SlotStart(label); err == nil && d.Date.Add(start).Before(now) {
					continue
				}
			}
			free = append(free, label)
		}
		days = append(days, DayAvailability{BookableDate: d, FreeSlots: free})
	}
	return days, nil
}

// BookedSlots returns the slot labels already held against the psychiatrist
// on the given day, read through the cache when one is configured.
func (s *Service) BookedSlots(psychiatristID string, day time.Time) ([]string, error) {
	isoDay := schedule.UTCDayStart(day).Format("2006-01-02")
	if s.cache != nil {
		if labels, ok := s.cache.Get(psychiatristID, isoDay); ok {
			return labels, nil
		}
	}
	labels, err := s.repo.BookedSlotLabels(psychiatristID, schedule.NormalizeUTCDay(day))
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(psychiatristID, isoDay, labels)
	}
	return labels, nil
}

// Book runs the booking validation sequence and persists the appointment.
// The pre-checks produce fast, specific errors; the insert's unique-index
// translation is what actually decides a race.
func (s *Service) Book(patientID string, req BookingRequest) (*models.Appointment, error) {
	if req.PsychiatristID == "" || req.TimeSlot == "" || req.Date.IsZero() {
		return nil, newError(KindValidation, "psychiatristId, date and timeSlot are required")
	}
	slotStart, err := schedule.SlotStart(req.TimeSlot)
	if err != nil {
		return nil, newError(KindValidation, "timeSlot is not a valid slot label")
	}

	patient, err := s.repo.UserByID(patientID)
	if err != nil {
		return nil, err
	}
	if patient == nil || patient.Role != models.RolePatient {
		return nil, newError(KindNotFound, "patient not found")
	}
	provider, err := s.psychiatrist(req.PsychiatristID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	day := schedule.NormalizeUTCDay(req.Date)
	dayStart := schedule.UTCDayStart(day)
	if dayStart.Before(schedule.UTCDayStart(now)) {
		return nil, newError(KindPastDate, "cannot book an appointment in the past")
	}
	if schedule.SameUTCDay(day, now) && dayStart.Add(slotStart).Before(now) {
		return nil, newError(KindPastTime, "this time slot has already passed today")
	}

	av := provider.Availability
	offered := schedule.Slots(av.StartTime, av.EndTime)
	if len(av.WorkingDays) == 0 || len(offered) == 0 {
		return nil, newError(KindProviderUnavailable, "this psychiatrist has no availability configured")
	}
	weekday := schedule.WeekdayName(day)
	if !contains(av.WorkingDays, weekday) {
		return nil, newError(KindProviderUnavailable, "this psychiatrist does not take appointments on %ss", weekday)
	}
	// The label must be one the provider's window actually generates; a
	// parsable label off the 30-minute grid or outside working hours is not
	// bookable even on a working day.
	if !contains(offered, req.TimeSlot) {
		return nil, newError(KindProviderUnavailable, "this time slot is outside the psychiatrist's working hours")
	}

	taken, err := s.repo.HasActiveAppointment(PartyPsychiatrist, provider.ID, day, req.TimeSlot)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, newError(KindSlotTaken, "this time slot is already booked")
	}
	mine, err := s.repo.HasActiveAppointment(PartyPatient, patient.ID, day, req.TimeSlot)
	if err != nil {
		return nil, err
	}
	if mine {
		return nil, newError(KindDoublyBooked, "you already have an appointment at this time")
	}

	active := true
	appt := &models.Appointment{
		PatientID:         patient.ID,
		PsychiatristID:    provider.ID,
		Date:              day,
		TimeSlot:          req.TimeSlot,
		Status:            models.StatusScheduled,
		Active:            &active,
		PatientName:       patient.FullName(),
		PatientEmail:      patient.Email,
		PsychiatristName:  provider.FullName(),
		PsychiatristEmail: provider.Email,
	}
	if err := s.repo.Create(appt); err != nil {
		return nil, err
	}

	s.invalidate(provider.ID, day)
	s.notifier.AppointmentBooked(appt)
	s.logger.Info("appointment booked",
		zap.String("appointmentId", appt.ID),
		zap.String("psychiatristId", provider.ID),
		zap.String("date", dayStart.Format("2006-01-02")),
		zap.String("timeSlot", appt.TimeSlot))
	return appt, nil
}

// Cancel transitions an appointment to cancelled on behalf of one of its two
// parties. Cancelling an already-cancelled appointment is an idempotent
// success; a completed appointment cannot be reopened or cancelled.
func (s *Service) Cancel(requester Principal, appointmentID string) (*models.Appointment, error) {
	appt, err := s.repo.AppointmentByID(appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, newError(KindNotFound, "appointment not found")
	}

	var isParty bool
	switch requester.Role {
	case models.RolePatient:
		isParty = appt.PatientID == requester.UserID
	case models.RolePsychiatrist:
		isParty = appt.PsychiatristID == requester.UserID
	}
	if !isParty {
		return nil, newError(KindForbidden, "only the patient or psychiatrist on this appointment may cancel it")
	}

	if appt.IsCancelled() {
		return appt, nil
	}
	if appt.Status == models.StatusCompleted {
		return nil, newError(KindValidation, "a completed appointment cannot be cancelled")
	}

	if err := s.repo.MarkCancelled(appt); err != nil {
		return nil, err
	}

	s.invalidate(appt.PsychiatristID, appt.Date)
	s.notifier.AppointmentCancelled(appt)
	s.logger.Info("appointment cancelled",
		zap.String("appointmentId", appt.ID),
		zap.String("cancelledBy", string(requester.Role)))
	return appt, nil
}

// ListForPatient returns the patient's appointments, earliest first.
func (s *Service) ListForPatient(patientID string) ([]models.Appointment, error) {
	return s.repo.ListByPatient(patientID)
}

// ListForPsychiatrist returns the psychiatrist's appointments, earliest first.
func (s *Service) ListForPsychiatrist(psychiatristID string) ([]models.Appointment, error) {
	return s.repo.ListByPsychiatrist(psychiatristID)
}

func (s *Service) psychiatrist(id string) (*models.User, error) {
	user, err := s.repo.UserByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role != models.RolePsychiatrist {
		return nil, newError(KindNotFound, "psychiatrist not found")
	}
	return user, nil
}

func (s *Service) invalidate(psychiatristID string, day time.Time) {
	if s.cache != nil {
		s.cache.Invalidate(psychiatristID, schedule.UTCDayStart(day).Format("2006-01-02"))
	}
}

func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}
