package scheduling

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type stubStore struct {
	branchHours func(branch string, weekday time.Weekday) (DayHours, error)
	recurring   func(doctorID, branch string, weekday time.Weekday) ([]Window, error)
	specific    func(doctorID, branch, date string) ([]Window, error)
	appts       func(doctorID, date, excludeID string) ([]Appointment, error)
	doctors     func(branch string) ([]Doctor, error)
}

func (s *stubStore) BranchHours(_ context.Context, branch string, weekday time.Weekday) (DayHours, error) {
	if s.branchHours == nil {
		return DayHours{Closed: true}, nil
	}
	return s.branchHours(branch, weekday)
}

func (s *stubStore) RecurringAvailability(_ context.Context, doctorID, branch string, weekday time.Weekday) ([]Window, error) {
	if s.recurring == nil {
		return nil, nil
	}
	return s.recurring(doctorID, branch, weekday)
}

func (s *stubStore) SpecificAvailability(_ context.Context, doctorID, branch, date string) ([]Window, error) {
	if s.specific == nil {
		return nil, nil
	}
	return s.specific(doctorID, branch, date)
}

func (s *stubStore) Appointments(_ context.Context, doctorID, date, excludeID string) ([]Appointment, error) {
	if s.appts == nil {
		return nil, nil
	}
	return s.appts(doctorID, date, excludeID)
}

func (s *stubStore) Doctors(_ context.Context, branch string) ([]Doctor, error) {
	if s.doctors == nil {
		return nil, nil
	}
	return s.doctors(branch)
}

// 2026-01-05 is a Monday, 2026-01-04 a Sunday.
const (
	monday = "2026-01-05"
	sunday = "2026-01-04"
)

func mondayWindow(start, end string) func(doctorID, branch string, weekday time.Weekday) ([]Window, error) {
	return func(doctorID, branch string, weekday time.Weekday) ([]Window, error) {
		if weekday != time.Monday {
			return nil, nil
		}
		return []Window{{DoctorID: doctorID, Branch: branch, Start: start, End: end}}, nil
	}
}

func TestAvailableTimeSlotsMorningWindow(t *testing.T) {
	store := &stubStore{recurring: mondayWindow("08:00", "12:00")}
	r := NewResolver(store, nil)

	got := r.AvailableTimeSlots(context.Background(), "doc-1", monday, "vigan")
	want := []string{"08:00", "08:30", "09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected slots: got %v want %v", got, want)
	}
}

func TestAvailableTimeSlotsFiltersOverlaps(t *testing.T) {
	store := &stubStore{
		recurring: mondayWindow("08:00", "12:00"),
		appts: func(doctorID, date, excludeID string) ([]Appointment, error) {
			return []Appointment{{ID: "a1", DoctorID: doctorID, Date: date, Time: "09:00", DurationMinutes: 60}}, nil
		},
	}
	r := NewResolver(store, nil)

	got := r.AvailableTimeSlots(context.Background(), "doc-1", monday, "vigan")
	want := []string{"08:00", "08:30", "10:00", "10:30", "11:00", "11:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected 09:00 and 09:30 removed, got %v", got)
	}
}

func TestAvailableTimeSlotsZeroDurationDefaults(t *testing.T) {
	store := &stubStore{
		recurring: mondayWindow("08:00", "10:00"),
		appts: func(doctorID, date, excludeID string) ([]Appointment, error) {
			return []Appointment{{Time: "08:30"}}, nil
		},
	}
	r := NewResolver(store, nil)

	got := r.AvailableTimeSlots(context.Background(), "doc-1", monday, "vigan")
	want := []string{"08:00", "09:00", "09:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected unset duration treated as one slot, got %v", got)
	}
}

func TestAvailableTimeSlotsClosedSunday(t *testing.T) {
	store := &stubStore{
		branchHours: func(branch string, weekday time.Weekday) (DayHours, error) {
			if weekday == time.Sunday {
				return DayHours{Closed: true}, nil
			}
			return DayHours{Open: "08:00", Close: "17:00"}, nil
		},
	}
	r := NewResolver(store, nil)

	if got := r.AvailableTimeSlots(context.Background(), "doc-1", sunday, "cabugao"); len(got) != 0 {
		t.Fatalf("expected no slots on a closed day, got %v", got)
	}
	if got := r.AvailableTimeSlots(context.Background(), "", sunday, "cabugao"); len(got) != 0 {
		t.Fatalf("expected no branch slots on a closed day, got %v", got)
	}
}

func TestAvailableTimeSlotsSpecificOverridesRecurring(t *testing.T) {
	store := &stubStore{
		recurring: mondayWindow("08:00", "17:00"),
		specific: func(doctorID, branch, date string) ([]Window, error) {
			if date != monday {
				return nil, nil
			}
			return []Window{{DoctorID: doctorID, Branch: branch, Start: "14:00", End: "16:00"}}, nil
		},
	}
	r := NewResolver(store, nil)

	got := r.AvailableTimeSlots(context.Background(), "doc-1", monday, "vigan")
	want := []string{"14:00", "14:30", "15:00", "15:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected date-specific windows to replace recurring, got %v", got)
	}
}

func TestAvailableTimeSlotsEmptyWhenNoDoctorSchedule(t *testing.T) {
	// Branch hours answer only doctor-less queries. A doctor without
	// recorded windows gets no slots, so browsing never offers a time
	// that CheckDoctorAvailability would reject.
	store := &stubStore{
		branchHours: func(branch string, weekday time.Weekday) (DayHours, error) {
			return DayHours{Open: "09:00", Close: "11:00"}, nil
		},
	}
	r := NewResolver(store, nil)

	if got := r.AvailableTimeSlots(context.Background(), "doc-1", monday, "vigan"); len(got) != 0 {
		t.Fatalf("expected no slots for a doctor without windows, got %v", got)
	}
	if r.CheckDoctorAvailability(context.Background(), "doc-1", monday, "09:00", "vigan", 30, "") {
		t.Fatal("expected confirmation to agree with browsing and reject")
	}

	got := r.AvailableTimeSlots(context.Background(), "", monday, "vigan")
	want := []string{"09:00", "09:30", "10:00", "10:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected branch hour slots for doctor-less query, got %v", got)
	}
}

func TestAvailableTimeSlotsMissingInput(t *testing.T) {
	r := NewResolver(&stubStore{}, nil)
	if got := r.AvailableTimeSlots(context.Background(), "doc-1", "", "vigan"); len(got) != 0 {
		t.Fatalf("expected empty result for missing date, got %v", got)
	}
	if got := r.AvailableTimeSlots(context.Background(), "doc-1", monday, ""); len(got) != 0 {
		t.Fatalf("expected empty result for missing branch, got %v", got)
	}
	if got := r.AvailableTimeSlots(context.Background(), "doc-1", "not-a-date", "vigan"); len(got) != 0 {
		t.Fatalf("expected empty result for malformed date, got %v", got)
	}
}

func TestAvailableTimeSlotsPermissiveOnConflictError(t *testing.T) {
	store := &stubStore{
		recurring: mondayWindow("08:00", "09:00"),
		appts: func(doctorID, date, excludeID string) ([]Appointment, error) {
			return nil, errors.New("connection reset")
		},
	}
	r := NewResolver(store, nil)

	got := r.AvailableTimeSlots(context.Background(), "doc-1", monday, "vigan")
	want := []string{"08:00", "08:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected unfiltered slots when conflict lookup fails, got %v", got)
	}
}

func TestNextAvailableTimeSlotSameDay(t *testing.T) {
	store := &stubStore{recurring: mondayWindow("08:00", "12:00")}
	r := NewResolver(store, nil)

	res := r.NextAvailableTimeSlot(context.Background(), "doc-1", monday, "09:15", "vigan", 30)
	if res.NextAvailable == nil || *res.NextAvailable != "09:30" {
		t.Fatalf("expected 09:30, got %+v", res)
	}
	if res.Date != monday {
		t.Fatalf("expected same-day result, got %s", res.Date)
	}
}

func TestNextAvailableTimeSlotNeedsConsecutiveRun(t *testing.T) {
	// 11:00 is the last slot of the morning; a 90 minute procedure
	// needs three consecutive slots and must wait for the afternoon
	// block.
	store := &stubStore{
		recurring: func(doctorID, branch string, weekday time.Weekday) ([]Window, error) {
			return []Window{
				{Start: "10:30", End: "11:30"},
				{Start: "14:00", End: "16:00"},
			}, nil
		},
	}
	r := NewResolver(store, nil)

	res := r.NextAvailableTimeSlot(context.Background(), "doc-1", monday, "10:00", "vigan", 90)
	if res.NextAvailable == nil || *res.NextAvailable != "14:00" {
		t.Fatalf("expected 14:00 for a 90 minute booking, got %+v", res)
	}
}

func TestNextAvailableTimeSlotSpillsToNextDay(t *testing.T) {
	store := &stubStore{
		recurring: func(doctorID, branch string, weekday time.Weekday) ([]Window, error) {
			return []Window{{Start: "08:00", End: "12:00"}}, nil
		},
	}
	r := NewResolver(store, nil)

	res := r.NextAvailableTimeSlot(context.Background(), "doc-1", monday, "13:00", "vigan", 30)
	if res.NextAvailable == nil || *res.NextAvailable != "08:00" {
		t.Fatalf("expected first slot of next day, got %+v", res)
	}
	if res.Date != "2026-01-06" {
		t.Fatalf("expected spill into following day, got date %s", res.Date)
	}
}

func TestNextAvailableTimeSlotHorizonBound(t *testing.T) {
	// One 30 minute slot per day never satisfies a 60 minute booking,
	// so the search keeps spilling until the horizon cuts it off.
	calls := 0
	store := &stubStore{
		recurring: func(doctorID, branch string, weekday time.Weekday) ([]Window, error) {
			calls++
			return []Window{{Start: "08:00", End: "08:30"}}, nil
		},
	}
	r := NewResolver(store, nil, WithLookaheadDays(7))

	res := r.NextAvailableTimeSlot(context.Background(), "doc-1", monday, "08:00", "vigan", 60)
	if res.NextAvailable != nil {
		t.Fatalf("expected no slot within horizon, got %v", *res.NextAvailable)
	}
	if calls != 8 {
		t.Fatalf("expected search bounded to 8 days, probed %d", calls)
	}
}

func TestNextAvailableTimeSlotEndsOnEmptyDay(t *testing.T) {
	// Tuesday has open windows, but Monday generates no slots at all;
	// the search stops there instead of scanning forward.
	store := &stubStore{
		recurring: func(doctorID, branch string, weekday time.Weekday) ([]Window, error) {
			if weekday != time.Tuesday {
				return nil, nil
			}
			return []Window{{Start: "08:00", End: "12:00"}}, nil
		},
	}
	r := NewResolver(store, nil)

	res := r.NextAvailableTimeSlot(context.Background(), "doc-1", monday, "08:00", "vigan", 30)
	if res.NextAvailable != nil {
		t.Fatalf("expected nil next slot when the requested day is empty, got %v", *res.NextAvailable)
	}
	if len(res.TimeSlots) != 0 {
		t.Fatalf("expected no candidate slots, got %v", res.TimeSlots)
	}
}

func TestCheckDoctorAvailability(t *testing.T) {
	store := &stubStore{
		recurring: mondayWindow("08:00", "12:00"),
		appts: func(doctorID, date, excludeID string) ([]Appointment, error) {
			appts := []Appointment{{ID: "a1", Time: "09:00", DurationMinutes: 60}}
			if excludeID == "a1" {
				return nil, nil
			}
			return appts, nil
		},
	}
	r := NewResolver(store, nil)
	ctx := context.Background()

	cases := []struct {
		name     string
		at       string
		duration int
		exclude  string
		want     bool
	}{
		{"open slot", "10:00", 30, "", true},
		{"overlaps booking", "09:30", 30, "", false},
		{"long booking runs into conflict", "08:30", 60, "", false},
		{"exact start conflict", "09:00", 30, "", false},
		{"runs past window end", "11:30", 60, "", false},
		{"outside window", "07:00", 30, "", false},
		{"reschedule excludes itself", "09:00", 60, "a1", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.CheckDoctorAvailability(ctx, "doc-1", monday, tc.at, "vigan", tc.duration, tc.exclude)
			if got != tc.want {
				t.Fatalf("at %s duration %d: got %v want %v", tc.at, tc.duration, got, tc.want)
			}
		})
	}
}

func TestCheckDoctorAvailabilityFailsClosed(t *testing.T) {
	ctx := context.Background()

	r := NewResolver(&stubStore{}, nil)
	if r.CheckDoctorAvailability(ctx, "", monday, "10:00", "vigan", 30, "") {
		t.Fatal("expected false for missing doctor")
	}
	if r.CheckDoctorAvailability(ctx, "doc-1", monday, "10:00", "vigan", 30, "") {
		t.Fatal("expected false when no schedule is recorded")
	}

	failing := &stubStore{
		recurring: mondayWindow("08:00", "12:00"),
		appts: func(doctorID, date, excludeID string) ([]Appointment, error) {
			return nil, errors.New("timeout")
		},
	}
	r = NewResolver(failing, nil)
	if r.CheckDoctorAvailability(ctx, "doc-1", monday, "10:00", "vigan", 30, "") {
		t.Fatal("expected false when conflict lookup fails")
	}
}

func TestFindAvailableDoctorsRanking(t *testing.T) {
	appointmentsByDoctor := map[string][]Appointment{
		"doc-busy": {{Time: "08:00"}, {Time: "08:30"}, {Time: "09:00"}},
		"doc-idle": {},
		"doc-ortho": {{Time: "08:00"}},
	}
	store := &stubStore{
		doctors: func(branch string) ([]Doctor, error) {
			return []Doctor{
				{ID: "doc-busy", Name: "Reyes", Specialties: []string{"general"}},
				{ID: "doc-idle", Name: "Santos", Specialties: []string{"general"}},
				{ID: "doc-ortho", Name: "Cruz", Specialties: []string{"orthodontics"}},
			}, nil
		},
		recurring: func(doctorID, branch string, weekday time.Weekday) ([]Window, error) {
			return []Window{{Start: "08:00", End: "17:00"}}, nil
		},
		appts: func(doctorID, date, excludeID string) ([]Appointment, error) {
			return appointmentsByDoctor[doctorID], nil
		},
	}
	r := NewResolver(store, nil)

	got := r.FindAvailableDoctors(context.Background(), monday, "10:00", "vigan", []string{"orthodontics"}, 30, "")
	if len(got) != 3 {
		t.Fatalf("expected all three doctors available, got %d", len(got))
	}
	if got[0].ID != "doc-ortho" {
		t.Fatalf("expected specialty match ranked first, got %s", got[0].ID)
	}
	if got[1].ID != "doc-idle" || got[2].ID != "doc-busy" {
		t.Fatalf("expected lighter load ranked ahead on ties, got %s then %s", got[1].ID, got[2].ID)
	}
	if got[0].SpecialtyMatchScore != 1 || got[1].SpecialtyMatchScore != 0 {
		t.Fatalf("unexpected scores: %+v", got)
	}
	if got[0].NextAvailableTime == nil {
		t.Fatal("expected next available time populated")
	}
}

func TestFindAvailableDoctorsExcludesBooked(t *testing.T) {
	store := &stubStore{
		doctors: func(branch string) ([]Doctor, error) {
			return []Doctor{
				{ID: "doc-free", Name: "Santos"},
				{ID: "doc-taken", Name: "Reyes"},
			}, nil
		},
		recurring: func(doctorID, branch string, weekday time.Weekday) ([]Window, error) {
			return []Window{{Start: "08:00", End: "17:00"}}, nil
		},
		appts: func(doctorID, date, excludeID string) ([]Appointment, error) {
			if doctorID == "doc-taken" {
				return []Appointment{{Time: "10:00", DurationMinutes: 30}}, nil
			}
			return nil, nil
		},
	}
	r := NewResolver(store, nil)

	got := r.FindAvailableDoctors(context.Background(), monday, "10:00", "vigan", nil, 30, "")
	if len(got) != 1 || got[0].ID != "doc-free" {
		t.Fatalf("expected only the free doctor, got %+v", got)
	}
}

func TestFindAvailableDoctorsEmptyOnErrors(t *testing.T) {
	store := &stubStore{
		doctors: func(branch string) ([]Doctor, error) {
			return nil, errors.New("down")
		},
	}
	r := NewResolver(store, nil)

	if got := r.FindAvailableDoctors(context.Background(), monday, "10:00", "vigan", nil, 30, ""); len(got) != 0 {
		t.Fatalf("expected empty result when doctor lookup fails, got %+v", got)
	}
	if got := r.FindAvailableDoctors(context.Background(), "", "10:00", "vigan", nil, 30, ""); len(got) != 0 {
		t.Fatalf("expected empty result for missing date, got %+v", got)
	}
}

func TestSpecialtyMatchScore(t *testing.T) {
	if got := specialtyMatchScore([]string{"Orthodontics", "surgery"}, []string{"orthodontics", "Surgery", "general"}); got != 2 {
		t.Fatalf("expected 2 matches, got %d", got)
	}
	if got := specialtyMatchScore(nil, []string{"general"}); got != 0 {
		t.Fatalf("expected 0 for no requested categories, got %d", got)
	}
}
