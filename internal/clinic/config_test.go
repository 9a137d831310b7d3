package clinic

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client)
}

func TestStoreGetReturnsDefaults(t *testing.T) {
	store := newTestStore(t)

	settings, err := store.Get(context.Background(), "vigan")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if settings.Branch != "vigan" {
		t.Errorf("expected branch vigan, got %q", settings.Branch)
	}
	if settings.DisplayName != "Vigan Branch" {
		t.Errorf("unexpected display name %q", settings.DisplayName)
	}
	if settings.Timezone != "Asia/Manila" {
		t.Errorf("unexpected timezone %q", settings.Timezone)
	}
	if settings.ReminderLeadHours != 24 {
		t.Errorf("expected 24h reminder lead, got %d", settings.ReminderLeadHours)
	}
	if len(settings.StaffEmails) != 0 {
		t.Errorf("expected no staff emails by default, got %v", settings.StaffEmails)
	}
}

func TestStoreSetAndGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	settings := DefaultSettings("candon")
	settings.DisplayName = "Candon City Clinic"
	settings.StaffEmails = []string{"frontdesk@dentalops.ph", "manager@dentalops.ph"}
	settings.ReminderLeadHours = 48

	if err := store.Set(ctx, settings); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "candon")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DisplayName != "Candon City Clinic" {
		t.Errorf("unexpected display name %q", got.DisplayName)
	}
	if len(got.StaffEmails) != 2 || got.StaffEmails[0] != "frontdesk@dentalops.ph" {
		t.Errorf("unexpected staff emails %v", got.StaffEmails)
	}
	if got.ReminderLeadHours != 48 {
		t.Errorf("expected 48h reminder lead, got %d", got.ReminderLeadHours)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be stamped")
	}
}

func TestStoreSetValidates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		mutate   func(*Settings)
	}{
		{"missing branch", func(s *Settings) { s.Branch = "" }},
		{"negative reminder lead", func(s *Settings) { s.ReminderLeadHours = -1 }},
		{"negative slot minutes", func(s *Settings) { s.DefaultSlotMinutes = -15 }},
		{"bad timezone", func(s *Settings) { s.Timezone = "Mars/Olympus" }},
		{"bad staff email", func(s *Settings) { s.StaffEmails = []string{"not-an-email"} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			settings := DefaultSettings("vigan")
			tc.mutate(settings)
			if err := store.Set(ctx, settings); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStoreStaffEmails(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	settings := DefaultSettings("vigan")
	settings.StaffEmails = []string{"staff@dentalops.ph"}
	if err := store.Set(ctx, settings); err != nil {
		t.Fatalf("set: %v", err)
	}

	emails, err := store.StaffEmails(ctx, "vigan")
	if err != nil {
		t.Fatalf("staff emails: %v", err)
	}
	if len(emails) != 1 || emails[0] != "staff@dentalops.ph" {
		t.Errorf("unexpected emails %v", emails)
	}
}

func TestSettingsReminderLead(t *testing.T) {
	settings := &Settings{Branch: "vigan", ReminderLeadHours: 12}
	if got := settings.ReminderLead().Hours(); got != 12 {
		t.Errorf("expected 12h lead, got %v", got)
	}

	unset := &Settings{Branch: "vigan"}
	if got := unset.ReminderLead().Hours(); got != 24 {
		t.Errorf("expected default 24h lead, got %v", got)
	}
}
