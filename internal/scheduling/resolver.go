package scheduling

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dentalops/clinic-platform/internal/observability/metrics"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

const (
	defaultStepMinutes  = 30
	defaultLookaheadDays = 90
)

// Resolver answers slot and availability queries against a Store
// snapshot. Every call is a stateless read-compute-return cycle; the
// resolver holds no session state between calls.
type Resolver struct {
	store   Store
	cache   SlotCache
	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics

	stepMinutes   int
	lookaheadDays int
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithSlotCache enables read-through caching of doctor-less branch-hour
// slot queries.
func WithSlotCache(cache SlotCache) Option {
	return func(r *Resolver) { r.cache = cache }
}

// WithMetrics records query counters and latency histograms.
func WithMetrics(m *metrics.SchedulingMetrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithStepMinutes sets the slot granularity.
func WithStepMinutes(minutes int) Option {
	return func(r *Resolver) {
		if minutes > 0 {
			r.stepMinutes = minutes
		}
	}
}

// WithLookaheadDays bounds the next-slot search horizon.
func WithLookaheadDays(days int) Option {
	return func(r *Resolver) {
		if days > 0 {
			r.lookaheadDays = days
		}
	}
}

// NewResolver creates a resolver over the given store.
func NewResolver(store Store, logger *logging.Logger, opts ...Option) *Resolver {
	if store == nil {
		panic("scheduling: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	r := &Resolver{
		store:         store,
		logger:        logger,
		stepMinutes:   defaultStepMinutes,
		lookaheadDays: defaultLookaheadDays,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AvailableTimeSlots returns the open slot start times for a date and
// branch, chronologically ordered. With a doctor it reflects that
// doctor's personal schedule minus booked time; without one it reflects
// raw branch opening hours (no conflict filtering).
//
// Missing date or branch yields an empty result rather than an error;
// so does an unknown branch or a closed day. Store failures fail soft:
// window lookups degrade to "no availability", conflict lookups degrade
// to the unfiltered slot list (browsing must not deny-all on a flaky
// read, while confirmation paths stay conservative, see
// CheckDoctorAvailability).
func (r *Resolver) AvailableTimeSlots(ctx context.Context, doctorID, date, branch string) []string {
	start := time.Now()
	slots := r.availableTimeSlots(ctx, doctorID, date, branch)
	if r.metrics != nil {
		r.metrics.ObserveResolve("slots", time.Since(start).Seconds())
		r.metrics.ObserveSlotQuery(outcomeLabel(len(slots) > 0))
	}
	return slots
}

func (r *Resolver) availableTimeSlots(ctx context.Context, doctorID, date, branch string) []string {
	if date == "" || branch == "" {
		return nil
	}
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		r.logger.Warn("scheduling: unparseable date", "date", date)
		return nil
	}
	weekday := day.Weekday()

	// A doctor with no recorded schedule yields no slots, matching the
	// fail-closed confirmation path. Branch hours only answer the
	// doctor-less query.
	windows := r.doctorWindows(ctx, doctorID, branch, date, weekday)
	if doctorID == "" {
		if cached, ok := r.cachedBranchSlots(ctx, branch, date); ok {
			return cached
		}
		windows = r.branchWindows(ctx, branch, weekday)
	}
	if len(windows) == 0 {
		return nil
	}

	slots := r.generateSlots(windows)
	if doctorID == "" {
		r.storeBranchSlots(ctx, branch, date, slots)
		return slots
	}

	appts, err := r.store.Appointments(ctx, doctorID, date, "")
	if err != nil {
		// Permissive fallback for browsing: absence of conflict data
		// must not present the whole day as booked.
		r.logger.Error("scheduling: appointment lookup failed, returning unfiltered slots",
			"doctor_id", doctorID, "date", date, "error", err)
		return slots
	}
	return r.filterConflicts(slots, appts)
}

// doctorWindows fetches a doctor's windows for one date. Date-specific
// windows replace recurring ones entirely when present: a one-off entry
// is the authoritative schedule for that date, not an addition to it.
func (r *Resolver) doctorWindows(ctx context.Context, doctorID, branch, date string, weekday time.Weekday) []Window {
	if doctorID == "" {
		return nil
	}
	specific, err := r.store.SpecificAvailability(ctx, doctorID, branch, date)
	if err != nil {
		r.logger.Error("scheduling: specific availability lookup failed", "doctor_id", doctorID, "date", date, "error", err)
		return nil
	}
	if len(specific) > 0 {
		return specific
	}
	recurring, err := r.store.RecurringAvailability(ctx, doctorID, branch, weekday)
	if err != nil {
		r.logger.Error("scheduling: recurring availability lookup failed", "doctor_id", doctorID, "error", err)
		return nil
	}
	return recurring
}

func (r *Resolver) branchWindows(ctx context.Context, branch string, weekday time.Weekday) []Window {
	hours, err := r.store.BranchHours(ctx, branch, weekday)
	if err != nil {
		r.logger.Error("scheduling: branch hours lookup failed", "branch", branch, "error", err)
		return nil
	}
	if hours.Closed || hours.Open == "" || hours.Close == "" {
		return nil
	}
	return []Window{{Branch: branch, Start: hours.Open, End: hours.Close}}
}

// generateSlots expands windows into step-aligned start times. A slot
// is included only when the full step still fits before the window end.
func (r *Resolver) generateSlots(windows []Window) []string {
	seen := make(map[int]struct{})
	var mins []int
	for _, w := range windows {
		startMin, ok1 := parseClock(w.Start)
		endMin, ok2 := parseClock(w.End)
		if !ok1 || !ok2 || startMin >= endMin {
			continue
		}
		for m := startMin; m+r.stepMinutes <= endMin; m += r.stepMinutes {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			mins = append(mins, m)
		}
	}
	sort.Ints(mins)
	slots := make([]string, 0, len(mins))
	for _, m := range mins {
		slots = append(slots, formatClock(m))
	}
	return slots
}

// filterConflicts removes slots whose [start, start+step) interval
// intersects any appointment's [start, start+duration) interval.
func (r *Resolver) filterConflicts(slots []string, appts []Appointment) []string {
	if len(appts) == 0 {
		return slots
	}
	type span struct{ start, end int }
	busy := make([]span, 0, len(appts))
	for _, a := range appts {
		startMin, ok := parseClock(a.Time)
		if !ok {
			continue
		}
		dur := a.DurationMinutes
		if dur <= 0 {
			dur = defaultStepMinutes
		}
		busy = append(busy, span{startMin, startMin + dur})
	}

	out := make([]string, 0, len(slots))
	for _, s := range slots {
		slotStart, ok := parseClock(s)
		if !ok {
			continue
		}
		slotEnd := slotStart + r.stepMinutes
		conflict := false
		for _, b := range busy {
			if slotStart < b.end && slotEnd > b.start {
				conflict = true
				break
			}
		}
		if !conflict {
			out = append(out, s)
		}
	}
	return out
}

// NextAvailableTimeSlot finds the first slot at or after the requested
// time with enough consecutive free slots to cover durationMinutes,
// spilling into following days from midnight when the rest of the day
// cannot fit it. The first day that generates no slots at all ends the
// search with a nil NextAvailable; the configured lookahead horizon
// bounds it otherwise.
func (r *Resolver) NextAvailableTimeSlot(ctx context.Context, doctorID, date, after, branch string, durationMinutes int) NextSlotResult {
	if durationMinutes <= 0 {
		durationMinutes = defaultStepMinutes
	}
	needed := (durationMinutes + r.stepMinutes - 1) / r.stepMinutes

	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return NextSlotResult{TimeSlots: []string{}}
	}

	for offset := 0; offset <= r.lookaheadDays; offset++ {
		if ctx.Err() != nil {
			return NextSlotResult{TimeSlots: []string{}}
		}
		currentDate := day.AddDate(0, 0, offset).Format(DateLayout)
		cursor := after
		if offset > 0 {
			cursor = "00:00"
		}

		slots := r.AvailableTimeSlots(ctx, doctorID, currentDate, branch)
		if len(slots) == 0 {
			// A day with no slots at all ends the search; spilling
			// only happens while the schedule keeps producing slots
			// that fail the cursor or run checks.
			return NextSlotResult{TimeSlots: []string{}}
		}

		// Zero-padded HH:MM compares correctly as strings.
		candidates := slots[:0:0]
		for _, s := range slots {
			if s >= cursor {
				candidates = append(candidates, s)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		present := make(map[string]struct{}, len(candidates))
		for _, s := range candidates {
			present[s] = struct{}{}
		}
		for _, s := range candidates {
			if hasConsecutiveRun(present, s, needed, r.stepMinutes) {
				next := s
				return NextSlotResult{NextAvailable: &next, Date: currentDate, TimeSlots: candidates}
			}
		}
	}
	return NextSlotResult{TimeSlots: []string{}}
}

func hasConsecutiveRun(present map[string]struct{}, start string, needed, step int) bool {
	base, ok := parseClock(start)
	if !ok {
		return false
	}
	for k := 1; k < needed; k++ {
		m := base + k*step
		if m >= 24*60 {
			return false
		}
		if _, ok := present[formatClock(m)]; !ok {
			return false
		}
	}
	return true
}

// CheckDoctorAvailability reports whether a doctor can take a booking
// of the given duration at an exact date and time. It fails closed:
// missing input, no recorded schedule, a window that does not fully
// contain the requested interval, any conflicting appointment, or a
// store failure all yield false. This is the confirmation path, so it
// never guesses in the caller's favor.
//
// Window selection uses the same override semantics as slot generation
// (date-specific entries replace recurring ones) so that a slot offered
// by AvailableTimeSlots is never rejected here for schedule reasons.
func (r *Resolver) CheckDoctorAvailability(ctx context.Context, doctorID, date, at, branch string, durationMinutes int, excludeAppointmentID string) bool {
	start := time.Now()
	ok := r.checkDoctorAvailability(ctx, doctorID, date, at, branch, durationMinutes, excludeAppointmentID)
	if r.metrics != nil {
		r.metrics.ObserveResolve("check", time.Since(start).Seconds())
		r.metrics.ObserveAvailabilityCheck(ok)
	}
	return ok
}

func (r *Resolver) checkDoctorAvailability(ctx context.Context, doctorID, date, at, branch string, durationMinutes int, excludeAppointmentID string) bool {
	if doctorID == "" || date == "" || at == "" || branch == "" {
		return false
	}
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	reqStart, ok := parseClock(at)
	if !ok {
		return false
	}
	if durationMinutes <= 0 {
		durationMinutes = defaultStepMinutes
	}
	reqEnd := reqStart + durationMinutes

	windows := r.doctorWindows(ctx, doctorID, branch, date, day.Weekday())
	if len(windows) == 0 {
		return false
	}

	contained := false
	for _, w := range windows {
		wStart, ok1 := parseClock(w.Start)
		wEnd, ok2 := parseClock(w.End)
		if ok1 && ok2 && reqStart >= wStart && reqEnd <= wEnd {
			contained = true
			break
		}
	}
	if !contained {
		return false
	}

	appts, err := r.store.Appointments(ctx, doctorID, date, excludeAppointmentID)
	if err != nil {
		r.logger.Error("scheduling: conflict lookup failed, failing closed",
			"doctor_id", doctorID, "date", date, "error", err)
		return false
	}
	for _, a := range appts {
		aStart, ok := parseClock(a.Time)
		if !ok {
			continue
		}
		dur := a.DurationMinutes
		if dur <= 0 {
			dur = defaultStepMinutes
		}
		aEnd := aStart + dur
		if reqStart < aEnd && reqEnd > aStart {
			return false
		}
		// Exact start coincidence counts as a conflict even for
		// zero-width edge cases.
		if reqStart == aStart {
			return false
		}
	}
	return true
}

// FindAvailableDoctors returns every enabled doctor able to take the
// requested booking, ranked by specialty match (descending) and then by
// same-day load (ascending). Per-doctor checks are independent reads
// and run concurrently.
func (r *Resolver) FindAvailableDoctors(ctx context.Context, date, at, branch string, serviceCategories []string, durationMinutes int, excludeAppointmentID string) []DoctorCandidate {
	if date == "" || at == "" || branch == "" {
		return []DoctorCandidate{}
	}
	if durationMinutes <= 0 {
		durationMinutes = defaultStepMinutes
	}

	doctors, err := r.store.Doctors(ctx, branch)
	if err != nil {
		r.logger.Error("scheduling: doctor lookup failed", "branch", branch, "error", err)
		return []DoctorCandidate{}
	}
	if len(doctors) == 0 {
		return []DoctorCandidate{}
	}

	start := time.Now()
	results := make([]*DoctorCandidate, len(doctors))
	var wg sync.WaitGroup
	for i, doc := range doctors {
		wg.Add(1)
		go func(i int, doc Doctor) {
			defer wg.Done()
			if !r.CheckDoctorAvailability(ctx, doc.ID, date, at, branch, durationMinutes, excludeAppointmentID) {
				return
			}
			next := r.NextAvailableTimeSlot(ctx, doc.ID, date, at, branch, durationMinutes)
			appts, err := r.store.Appointments(ctx, doc.ID, date, "")
			if err != nil {
				r.logger.Error("scheduling: load count failed", "doctor_id", doc.ID, "error", err)
			}
			results[i] = &DoctorCandidate{
				ID:                  doc.ID,
				Name:                doc.Name,
				Specialties:         doc.Specialties,
				AppointmentCount:    len(appts),
				SpecialtyMatchScore: specialtyMatchScore(serviceCategories, doc.Specialties),
				NextAvailableTime:   next.NextAvailable,
				AvailableTimeSlots:  next.TimeSlots,
			}
		}(i, doc)
	}
	wg.Wait()

	// Compact in fetch order so the stable sort preserves it for ties.
	candidates := make([]DoctorCandidate, 0, len(results))
	for _, c := range results {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].SpecialtyMatchScore != candidates[j].SpecialtyMatchScore {
			return candidates[i].SpecialtyMatchScore > candidates[j].SpecialtyMatchScore
		}
		return candidates[i].AppointmentCount < candidates[j].AppointmentCount
	})

	if r.metrics != nil {
		r.metrics.ObserveResolve("rank", time.Since(start).Seconds())
	}
	return candidates
}

func specialtyMatchScore(requested, specialties []string) int {
	if len(requested) == 0 || len(specialties) == 0 {
		return 0
	}
	have := make(map[string]struct{}, len(specialties))
	for _, s := range specialties {
		have[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	score := 0
	for _, c := range requested {
		if _, ok := have[strings.ToLower(strings.TrimSpace(c))]; ok {
			score++
		}
	}
	return score
}

func (r *Resolver) cachedBranchSlots(ctx context.Context, branch, date string) ([]string, bool) {
	if r.cache == nil {
		return nil, false
	}
	slots, ok, err := r.cache.Get(ctx, branchSlotKey(branch, date))
	if err != nil {
		r.logger.Debug("scheduling: slot cache read failed", "branch", branch, "error", err)
		return nil, false
	}
	return slots, ok
}

func (r *Resolver) storeBranchSlots(ctx context.Context, branch, date string, slots []string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, branchSlotKey(branch, date), slots); err != nil {
		r.logger.Debug("scheduling: slot cache write failed", "branch", branch, "error", err)
	}
}

func branchSlotKey(branch, date string) string {
	return fmt.Sprintf("slots:%s:%s", branch, date)
}

func outcomeLabel(found bool) string {
	if found {
		return "found"
	}
	return "empty"
}

// parseClock converts a zero-padded HH:MM string to minutes past
// midnight.
func parseClock(s string) (int, bool) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
