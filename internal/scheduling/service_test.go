package scheduling

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"telepsychiatry-server/internal/models"
	"telepsychiatry-server/internal/schedule"
)

// appointmentDay mirrors the storage form of a request date.
func appointmentDay(t time.Time) time.Time {
	return schedule.NormalizeUTCDay(t)
}

// memoryRepo is an in-memory Repository enforcing the same non-cancelled
// uniqueness the MySQL indexes do, so the race behavior of Create can be
// exercised without a database.
type memoryRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	appts map[string]*models.Appointment
	seq   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users: make(map[string]*models.User),
		appts: make(map[string]*models.Appointment),
	}
}

func (r *memoryRepo) addUser(u *models.User) {
	r.users[u.ID] = u
}

func (r *memoryRepo) UserByID(id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *memoryRepo) AppointmentByID(id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appts[id], nil
}

func (r *memoryRepo) BookedSlotLabels(psychiatristID string, day time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var labels []string
	for _, a := range r.appts {
		if a.PsychiatristID == psychiatristID && a.Date.Equal(day) && !a.IsCancelled() {
			labels = append(labels, a.TimeSlot)
		}
	}
	return labels, nil
}

func (r *memoryRepo) HasActiveAppointment(partyColumn, partyID string, day time.Time, timeSlot string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeExists(partyColumn, partyID, day, timeSlot), nil
}

func (r *memoryRepo) activeExists(partyColumn, partyID string, day time.Time, timeSlot string) bool {
	for _, a := range r.appts {
		if a.IsCancelled() || !a.Date.Equal(day) || a.TimeSlot != timeSlot {
			continue
		}
		if partyColumn == PartyPsychiatrist && a.PsychiatristID == partyID {
			return true
		}
		if partyColumn == PartyPatient && a.PatientID == partyID {
			return true
		}
	}
	return false
}

func (r *memoryRepo) Create(appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Same decision the unique indexes make, atomically under the lock.
	if r.activeExists(PartyPsychiatrist, appt.PsychiatristID, appt.Date, appt.TimeSlot) {
		return newError(KindSlotTaken, "this time slot has just been booked, please pick another")
	}
	if r.activeExists(PartyPatient, appt.PatientID, appt.Date, appt.TimeSlot) {
		return newError(KindDoublyBooked, "you already have an appointment at this time")
	}
	r.seq++
	appt.ID = fmt.Sprintf("appt-%d", r.seq)
	stored := *appt
	r.appts[appt.ID] = &stored
	return nil
}

func (r *memoryRepo) MarkCancelled(appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.appts[appt.ID]
	if !ok {
		return fmt.Errorf("appointment %s not stored", appt.ID)
	}
	stored.Status = models.StatusCancelled
	stored.Active = nil
	appt.Status = models.StatusCancelled
	appt.Active = nil
	return nil
}

func (r *memoryRepo) ListByPatient(patientID string) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.appts {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListByPsychiatrist(psychiatristID string) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.appts {
		if a.PsychiatristID == psychiatristID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memoryRepo) ScheduledOnDay(day time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.appts {
		if a.Date.Equal(day) && a.Status == models.StatusScheduled {
			out = append(out, *a)
		}
	}
	return out, nil
}

// recordingNotifier counts lifecycle events.
type recordingNotifier struct {
	mu        sync.Mutex
	booked    int
	cancelled int
}

func (n *recordingNotifier) AppointmentBooked(*models.Appointment) {
	n.mu.Lock()
	n.booked++
	n.mu.Unlock()
}

func (n *recordingNotifier) AppointmentCancelled(*models.Appointment) {
	n.mu.Lock()
	n.cancelled++
	n.mu.Unlock()
}

func (n *recordingNotifier) AppointmentReminder(*models.Appointment) {}

// Fixed clock: Monday 2024-06-10, 15:00 UTC.
var testNow = time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memoryRepo, *recordingNotifier) {
	t.Helper()
	repo := newMemoryRepo()
	repo.addUser(&models.User{
		BaseModel: models.BaseModel{ID: "doc-1"},
		Email:     "doc1@clinic.test",
		FirstName: "Dana", LastName: "Reyes",
		Role: models.RolePsychiatrist,
		Availability: models.Availability{
			StartTime:   "09:00",
			EndTime:     "10:00",
			WorkingDays: []string{"Monday", "Wednesday"},
		},
	})
	repo.addUser(&models.User{
		BaseModel:    models.BaseModel{ID: "doc-2"},
		Email:        "doc2@clinic.test",
		Role:         models.RolePsychiatrist,
		Availability: models.Availability{StartTime: "09:00", EndTime: "17:00"},
	})
	repo.addUser(&models.User{
		BaseModel: models.BaseModel{ID: "pat-1"},
		Email:     "pat1@example.test",
		FirstName: "Alex", LastName: "Kim",
		Role: models.RolePatient,
	})
	repo.addUser(&models.User{
		BaseModel: models.BaseModel{ID: "pat-2"},
		Email:     "pat2@example.test",
		Role:      models.RolePatient,
	})

	notifier := &recordingNotifier{}
	svc := NewService(repo, nil, notifier, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc, repo, notifier
}

func kindOfT(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil error", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected error kind %s, got %s (%v)", want, got, err)
	}
}

// Wednesday 2024-06-12. The odd time-of-day proves it is pinned to noon.
var wednesday = time.Date(2024, 6, 12, 23, 45, 0, 0, time.UTC)

func TestBookPersistsSnapshot(t *testing.T) {
	svc, repo, notifier := newTestService(t)

	appt, err := svc.Book("pat-1", BookingRequest{
		PsychiatristID: "doc-1",
		Date:           wednesday,
		TimeSlot:       "9:00 AM - 9:30 AM",
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if appt.Status != models.StatusScheduled {
		t.Fatalf("expected scheduled status, got %s", appt.Status)
	}
	if appt.Date.UTC().Format("2006-01-02") != "2024-06-12" {
		t.Fatalf("date normalized to wrong day: %v", appt.Date)
	}
	if appt.Date.UTC().Hour() != 12 {
		t.Fatalf("expected UTC-noon storage, got hour %d", appt.Date.UTC().Hour())
	}
	if appt.PatientName != "Alex Kim" || appt.PsychiatristName != "Dana Reyes" {
		t.Fatalf("party name snapshot wrong: %q / %q", appt.PatientName, appt.PsychiatristName)
	}
	if appt.PatientEmail != "pat1@example.test" || appt.PsychiatristEmail != "doc1@clinic.test" {
		t.Fatalf("party email snapshot wrong: %q / %q", appt.PatientEmail, appt.PsychiatristEmail)
	}
	if appt.Active == nil || !*appt.Active {
		t.Fatal("expected active marker set on a scheduled appointment")
	}
	if stored, _ := repo.AppointmentByID(appt.ID); stored == nil {
		t.Fatal("appointment not persisted")
	}
	if notifier.booked != 1 {
		t.Fatalf("expected 1 booked notification, got %d", notifier.booked)
	}
}

func TestBookValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-1", Date: wednesday})
	kindOfT(t, err, KindValidation)

	_, err = svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-1", Date: wednesday, TimeSlot: "nine-ish"})
	kindOfT(t, err, KindValidation)
}

func TestBookUnknownParties(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Book("ghost", BookingRequest{PsychiatristID: "doc-1", Date: wednesday, TimeSlot: "9:00 AM - 9:30 AM"})
	kindOfT(t, err, KindNotFound)

	_, err = svc.Book("pat-1", BookingRequest{PsychiatristID: "ghost", Date: wednesday, TimeSlot: "9:00 AM - 9:30 AM"})
	kindOfT(t, err, KindNotFound)

	// A patient id is not a psychiatrist.
	_, err = svc.Book("pat-1", BookingRequest{PsychiatristID: "pat-2", Date: wednesday, TimeSlot: "9:00 AM - 9:30 AM"})
	kindOfT(t, err, KindNotFound)
}

func TestBookPastDate(t *testing.T) {
	svc, _, _ := newTestService(t)
	lastWeek := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC) // previous Monday
	_, err := svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-1", Date: lastWeek, TimeSlot: "9:00 AM - 9:30 AM"})
	kindOfT(t, err, KindPastDate)
}

func TestBookPastTimeSameDay(t *testing.T) {
	// Clock is 15:00 UTC on a working Monday; a 9:00 AM slot has elapsed.
	svc, _, _ := newTestService(t)
	_, err := svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-1", Date: testNow, TimeSlot: "9:00 AM - 9:30 AM"})
	kindOfT(t, err, KindPastTime)
}

func TestBookProviderUnavailable(t *testing.T) {
	svc, _, _ := newTestService(t)

	tuesday := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	_, err := svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-1", Date: tuesday, TimeSlot: "9:00 AM - 9:30 AM"})
	kindOfT(t, err, KindProviderUnavailable)

	// doc-2 has working hours but no working days: unbookable by design.
	_, err = svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-2", Date: wednesday, TimeSlot: "9:00 AM - 9:30 AM"})
	kindOfT(t, err, KindProviderUnavailable)
}

func TestBookSlotTakenAndDoubleBooking(t *testing.T) {
	svc, repo, _ := newTestService(t)

	if _, err := svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-1", Date: wednesday, TimeSlot: "9:00 AM - 9:30 AM"}); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	// Another patient, same psychiatrist and slot.
	_, err := svc.Book("pat-2", BookingRequest{PsychiatristID: "doc-1", Date: wednesday, TimeSlot: "9:00 AM - 9:30 AM"})
	kindOfT(t, err, KindSlotTaken)

	// Same patient, same slot with a different provider.
	repo.addUser(&models.User{
		BaseModel: models.BaseModel{ID: "doc-3"},
		Email:     "doc3@clinic.test",
		Role:      models.RolePsychiatrist,
		Availability: models.Availability{
			StartTime: "09:00", EndTime: "12:00",
			WorkingDays: []string{"Wednesday"},
		},
	})
	_, err = svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-3", Date: wednesday, TimeSlot: "9:00 AM - 9:30 AM"})
	kindOfT(t, err, KindDoublyBooked)
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	svc, repo, _ := newTestService(t)

	const attempts = 8
	for i := 0; i < attempts; i++ {
		repo.addUser(&models.User{
			BaseModel: models.BaseModel{ID: fmt.Sprintf("racer-%d", i)},
			Email:     fmt.Sprintf("racer%d@example.test", i),
			Role:      models.RolePatient,
		})
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(fmt.Sprintf("racer-%d", i), BookingRequest{
				PsychiatristID: "doc-1",
				Date:           wednesday,
				TimeSlot:       "9:30 AM - 10:00 AM",
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		if KindOf(err) != KindSlotTaken {
			t.Fatalf("loser got %v, expected slot-taken", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}

	labels, _ := repo.BookedSlotLabels("doc-1", appointmentDay(wednesday))
	if len(labels) != 1 {
		t.Fatalf("expected a single active appointment for the slot, found %d", len(labels))
	}
}

func TestCancelLifecycle(t *testing.T) {
	svc, repo, notifier := newTestService(t)

	appt, err := svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-1", Date: wednesday, TimeSlot: "9:00 AM - 9:30 AM"})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	// A psychiatrist who is not on the appointment may not cancel it.
	_, err = svc.Cancel(Principal{UserID: "doc-2", Role: models.RolePsychiatrist}, appt.ID)
	kindOfT(t, err, KindForbidden)
	stored, _ := repo.AppointmentByID(appt.ID)
	if stored.Status != models.StatusScheduled {
		t.Fatalf("forbidden cancel mutated status to %s", stored.Status)
	}

	// Neither may another patient, nor an admin (not a party).
	_, err = svc.Cancel(Principal{UserID: "pat-2", Role: models.RolePatient}, appt.ID)
	kindOfT(t, err, KindForbidden)
	_, err = svc.Cancel(Principal{UserID: "admin-1", Role: models.RoleAdmin}, appt.ID)
	kindOfT(t, err, KindForbidden)

	// The booking patient cancels.
	cancelled, err := svc.Cancel(Principal{UserID: "pat-1", Role: models.RolePatient}, appt.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if !cancelled.IsCancelled() || cancelled.Active != nil {
		t.Fatalf("expected cancelled inactive appointment, got %+v", cancelled)
	}
	if notifier.cancelled != 1 {
		t.Fatalf("expected 1 cancellation notification, got %d", notifier.cancelled)
	}

	// Cancelling again is an idempotent success, not an error, and does not
	// re-notify.
	again, err := svc.Cancel(Principal{UserID: "pat-1", Role: models.RolePatient}, appt.ID)
	if err != nil {
		t.Fatalf("second Cancel errored: %v", err)
	}
	if !again.IsCancelled() {
		t.Fatalf("expected cancelled status, got %s", again.Status)
	}
	if notifier.cancelled != 1 {
		t.Fatalf("idempotent cancel sent another notification (%d)", notifier.cancelled)
	}

	// The slot is free again.
	if _, err := svc.Book("pat-2", BookingRequest{PsychiatristID: "doc-1", Date: wednesday, TimeSlot: "9:00 AM - 9:30 AM"}); err != nil {
		t.Fatalf("rebooking a freed slot failed: %v", err)
	}
}

func TestCancelMissingAndCompleted(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Cancel(Principal{UserID: "pat-1", Role: models.RolePatient}, "nope")
	kindOfT(t, err, KindNotFound)

	appt, err := svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-1", Date: wednesday, TimeSlot: "9:00 AM - 9:30 AM"})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	stored, _ := repo.AppointmentByID(appt.ID)
	stored.Status = models.StatusCompleted

	_, err = svc.Cancel(Principal{UserID: "pat-1", Role: models.RolePatient}, appt.ID)
	kindOfT(t, err, KindValidation)
}

func TestAvailableDaysOverlay(t *testing.T) {
	svc, _, _ := newTestService(t)

	days, err := svc.AvailableDays("doc-1")
	if err != nil {
		t.Fatalf("AvailableDays failed: %v", err)
	}
	if len(days) != HorizonDays {
		t.Fatalf("expected %d days, got %d", HorizonDays, len(days))
	}
	for _, d := range days {
		wd := d.Date.Weekday()
		if wd != time.Monday && wd != time.Wednesday {
			t.Fatalf("%s is a %s, outside working days", d.ISO, wd)
		}
	}

	// Today (Monday 15:00): both morning slots have elapsed.
	if days[0].ISO != "2024-06-10" || len(days[0].FreeSlots) != 0 {
		t.Fatalf("expected today with no free slots, got %s %v", days[0].ISO, days[0].FreeSlots)
	}
	// Wednesday is fully open.
	if days[1].ISO != "2024-06-12" {
		t.Fatalf("expected 2024-06-12 second, got %s", days[1].ISO)
	}
	wantSlots := []string{"9:00 AM - 9:30 AM", "9:30 AM - 10:00 AM"}
	if len(days[1].FreeSlots) != 2 || days[1].FreeSlots[0] != wantSlots[0] || days[1].FreeSlots[1] != wantSlots[1] {
		t.Fatalf("unexpected free slots: %v", days[1].FreeSlots)
	}

	// Booking one slot removes it from the overlay.
	if _, err := svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-1", Date: wednesday, TimeSlot: "9:00 AM - 9:30 AM"}); err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	days, err = svc.AvailableDays("doc-1")
	if err != nil {
		t.Fatalf("AvailableDays failed: %v", err)
	}
	if len(days[1].FreeSlots) != 1 || days[1].FreeSlots[0] != "9:30 AM - 10:00 AM" {
		t.Fatalf("expected only the later slot free, got %v", days[1].FreeSlots)
	}
}

func TestAvailableDaysUnbookableProvider(t *testing.T) {
	svc, repo, _ := newTestService(t)

	// doc-2 has working hours but an empty working-day set; the booking view
	// must show nothing rather than fall back to every day.
	days, err := svc.AvailableDays("doc-2")
	if err != nil {
		t.Fatalf("AvailableDays failed: %v", err)
	}
	if len(days) != 0 {
		t.Fatalf("unbookable provider advertised %d days: %v", len(days), days)
	}

	// Same for a provider with working days but no usable hour window.
	repo.addUser(&models.User{
		BaseModel:    models.BaseModel{ID: "doc-4"},
		Email:        "doc4@clinic.test",
		Role:         models.RolePsychiatrist,
		Availability: models.Availability{WorkingDays: []string{"Monday"}},
	})
	days, err = svc.AvailableDays("doc-4")
	if err != nil {
		t.Fatalf("AvailableDays failed: %v", err)
	}
	if len(days) != 0 {
		t.Fatalf("provider without hours advertised %d days: %v", len(days), days)
	}
}

func TestBookRejectsOffGridSlot(t *testing.T) {
	svc, _, _ := newTestService(t)

	// Parsable label shifted off the 30-minute grid.
	_, err := svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-1", Date: wednesday, TimeSlot: "9:05 AM - 9:35 AM"})
	kindOfT(t, err, KindProviderUnavailable)

	// Parsable label outside the provider's 09:00-10:00 window.
	_, err = svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-1", Date: wednesday, TimeSlot: "3:00 AM - 3:30 AM"})
	kindOfT(t, err, KindProviderUnavailable)

	// The generated labels themselves stay bookable.
	if _, err := svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-1", Date: wednesday, TimeSlot: "9:30 AM - 10:00 AM"}); err != nil {
		t.Fatalf("on-grid slot rejected: %v", err)
	}
}

// fakeCache records cache traffic for the invalidation contract.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]string
	dropped []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]string)}
}

func (c *fakeCache) Get(psychiatristID, isoDay string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	labels, ok := c.entries[psychiatristID+":"+isoDay]
	return labels, ok
}

func (c *fakeCache) Set(psychiatristID, isoDay string, labels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[psychiatristID+":"+isoDay] = labels
}

func (c *fakeCache) Invalidate(psychiatristID, isoDay string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, psychiatristID+":"+isoDay)
	c.dropped = append(c.dropped, psychiatristID+":"+isoDay)
}

func TestBookedSlotsCacheInvalidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	fc := newFakeCache()
	svc.cache = fc

	// First read fills the cache, second read hits it.
	if _, err := svc.BookedSlots("doc-1", wednesday); err != nil {
		t.Fatalf("BookedSlots failed: %v", err)
	}
	if _, ok := fc.Get("doc-1", "2024-06-12"); !ok {
		t.Fatal("expected cache entry after read")
	}

	appt, err := svc.Book("pat-1", BookingRequest{PsychiatristID: "doc-1", Date: wednesday, TimeSlot: "9:00 AM - 9:30 AM"})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, ok := fc.Get("doc-1", "2024-06-12"); ok {
		t.Fatal("expected cache invalidated after booking")
	}

	labels, err := svc.BookedSlots("doc-1", wednesday)
	if err != nil {
		t.Fatalf("BookedSlots failed: %v", err)
	}
	if len(labels) != 1 || labels[0] != "9:00 AM - 9:30 AM" {
		t.Fatalf("unexpected booked labels: %v", labels)
	}

	if _, err := svc.Cancel(Principal{UserID: "pat-1", Role: models.RolePatient}, appt.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if _, ok := fc.Get("doc-1", "2024-06-12"); ok {
		t.Fatal("expected cache invalidated after cancellation")
	}
}
