// Package clinic provides branch-level settings, statistics, and
// dashboard reporting for the practice.
package clinic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Settings holds per-branch operational settings that staff can change
// without a deploy. Anything not set falls back to the defaults.
type Settings struct {
	Branch      string `json:"branch"`
	DisplayName string `json:"display_name,omitempty"`
	Timezone    string `json:"timezone,omitempty"`

	// StaffEmails receive a copy of booking notifications for this branch.
	StaffEmails []string `json:"staff_emails,omitempty"`

	// ReminderLeadHours is how far ahead of an appointment the reminder
	// email goes out. Zero means the default lead.
	ReminderLeadHours int `json:"reminder_lead_hours,omitempty"`

	// DefaultSlotMinutes is the slot granularity shown to front-desk staff
	// when no duration is given.
	DefaultSlotMinutes int `json:"default_slot_minutes,omitempty"`

	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

const (
	defaultTimezone          = "Asia/Manila"
	defaultReminderLeadHours = 24
	defaultSlotMinutes       = 30
)

// DefaultSettings returns the settings used for a branch that has never
// been configured.
func DefaultSettings(branch string) *Settings {
	return &Settings{
		Branch:             branch,
		DisplayName:        branchDisplayName(branch),
		Timezone:           defaultTimezone,
		ReminderLeadHours:  defaultReminderLeadHours,
		DefaultSlotMinutes: defaultSlotMinutes,
	}
}

func branchDisplayName(branch string) string {
	if branch == "" {
		return ""
	}
	return strings.ToUpper(branch[:1]) + branch[1:] + " Branch"
}

// ReminderLead returns the reminder lead as a duration, applying the
// default when unset.
func (s *Settings) ReminderLead() time.Duration {
	hours := s.ReminderLeadHours
	if hours <= 0 {
		hours = defaultReminderLeadHours
	}
	return time.Duration(hours) * time.Hour
}

// Validate checks settings for obvious mistakes before saving.
func (s *Settings) Validate() error {
	if s.Branch == "" {
		return fmt.Errorf("clinic: settings branch is required")
	}
	if s.ReminderLeadHours < 0 {
		return fmt.Errorf("clinic: reminder_lead_hours must not be negative")
	}
	if s.DefaultSlotMinutes < 0 {
		return fmt.Errorf("clinic: default_slot_minutes must not be negative")
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("clinic: unknown timezone %q", s.Timezone)
		}
	}
	for _, addr := range s.StaffEmails {
		if !strings.Contains(addr, "@") {
			return fmt.Errorf("clinic: invalid staff email %q", addr)
		}
	}
	return nil
}

// Store persists branch settings in Redis.
type Store struct {
	redis *redis.Client
}

// NewStore creates a settings store backed by the given Redis client.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(branch string) string {
	return fmt.Sprintf("clinic:settings:%s", branch)
}

// Get retrieves branch settings, returning defaults if never saved.
func (s *Store) Get(ctx context.Context, branch string) (*Settings, error) {
	data, err := s.redis.Get(ctx, s.key(branch)).Bytes()
	if err == redis.Nil {
		return DefaultSettings(branch), nil
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("clinic: unmarshal settings: %w", err)
	}

	return &settings, nil
}

// StaffEmails returns the notification recipients for a branch.
func (s *Store) StaffEmails(ctx context.Context, branch string) ([]string, error) {
	settings, err := s.Get(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("clinic: get staff emails: %w", err)
	}
	return settings.StaffEmails, nil
}

// Set saves branch settings.
func (s *Store) Set(ctx context.Context, settings *Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	settings.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("clinic: marshal settings: %w", err)
	}

	if err := s.redis.Set(ctx, s.key(settings.Branch), data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set settings: %w", err)
	}

	return nil
}
