package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"telepsychiatry-server/internal/middleware"
	"telepsychiatry-server/internal/scheduling"
	"telepsychiatry-server/internal/utils"
)

// AppointmentHandler handles appointment booking and availability requests.
type AppointmentHandler struct {
	Service *scheduling.Service
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(service *scheduling.Service) *AppointmentHandler {
	return &AppointmentHandler{Service: service}
}

// BookAppointmentRequest represents the request body for booking a slot.
type BookAppointmentRequest struct {
	PsychiatristID string    `json:"psychiatristId" binding:"required,uuid"`
	Date           time.Time `json:"date" binding:"required"`
	TimeSlot       string    `json:"timeSlot" binding:"required"`
}

// BookAppointment books a slot for the authenticated patient.
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req BookAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Service.Book(principal.UserID, scheduling.BookingRequest{
		PsychiatristID: req.PsychiatristID,
		Date:           req.Date,
		TimeSlot:       req.TimeSlot,
	})
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Created(c, "Appointment booked successfully", appt)
}

// GetAvailableDays returns the psychiatrist's upcoming bookable dates with
// the free slots remaining on each.
func (h *AppointmentHandler) GetAvailableDays(c *gin.Context) {
	days, err := h.Service.AvailableDays(c.Param("psychiatristId"))
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	utils.Success(c, "Availability fetched successfully", days)
}

// GetBookedSlots returns the slot labels already taken for a psychiatrist on
// a given day (?date=YYYY-MM-DD).
func (h *AppointmentHandler) GetBookedSlots(c *gin.Context) {
	day, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		utils.BadRequest(c, "date query parameter must be YYYY-MM-DD")
		return
	}

	labels, err := h.Service.BookedSlots(c.Param("psychiatristId"), day)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	utils.Success(c, "Booked slots fetched successfully", labels)
}

// CancelAppointment cancels an appointment on behalf of one of its parties.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appt, err := h.Service.Cancel(scheduling.Principal{
		UserID: principal.UserID,
		Role:   principal.Role,
	}, c.Param("id"))
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment cancelled successfully", appt)
}

// GetPatientAppointments lists the authenticated patient's appointments.
func (h *AppointmentHandler) GetPatientAppointments(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appts, err := h.Service.ListForPatient(principal.UserID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}
	utils.Success(c, "Appointments fetched successfully", appts)
}

// GetPsychiatristAppointments lists the authenticated psychiatrist's appointments.
func (h *AppointmentHandler) GetPsychiatristAppointments(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appts, err := h.Service.ListForPsychiatrist(principal.UserID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}
	utils.Success(c, "Appointments fetched successfully", appts)
}

// respondSchedulingError maps booking-domain error kinds onto HTTP statuses.
// Every 400 carries the kind as a machine-readable code; a slot conflict
// tells the client to refresh its availability view.
func respondSchedulingError(c *gin.Context, err error) {
	se, ok := err.(*scheduling.Error)
	if !ok {
		utils.InternalServerError(c, "Unexpected error: "+err.Error())
		return
	}

	switch se.Kind {
	case scheduling.KindNotFound:
		utils.NotFound(c, se.Message)
	case scheduling.KindForbidden:
		utils.Forbidden(c, se.Message)
	case scheduling.KindValidation, scheduling.KindPastDate, scheduling.KindPastTime,
		scheduling.KindProviderUnavailable, scheduling.KindSlotTaken, scheduling.KindDoublyBooked:
		utils.ErrorWithCode(c, 400, string(se.Kind), se.Message)
	default:
		utils.InternalServerError(c, se.Message)
	}
}
