// Package session persists the operator session, local preferences and the
// recent-activity log on top of a securestore backend.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/progate/internal/log"
	"github.com/felixgeelhaar/progate/internal/securestore"
)

// Storage keys.
const (
	KeyToken            = "user_token"
	KeyRefreshToken     = "refresh_token"
	KeyUser             = "user_info"
	KeyBiometricEnabled = "biometric_enabled"
	KeyThemePreference  = "theme_preference"
	KeyActivity         = "activity_log"
)

// MaxActivity is the number of activity entries retained.
const MaxActivity = 10

// Store is the session store. It is constructed once per process and shared
// with the gateway client.
type Store struct {
	kv     securestore.Store
	logger *log.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for non-fatal storage failures.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger.Component("session")
	}
}

// WithClock overrides the time source for activity timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Store over kv.
func New(kv securestore.Store, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		logger: log.Discard(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// get reads key, treating any failure as absent. Failures other than
// not-found are logged.
func (s *Store) get(ctx context.Context, key string) (string, bool) {
	v, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, securestore.ErrNotFound) {
			s.logger.WithError(err).Warn("failed to read from secure store", "key", key)
		}
		return "", false
	}
	return v, true
}

// SaveToken persists the access token.
func (s *Store) SaveToken(ctx context.Context, token string) error {
	return s.kv.Set(ctx, KeyToken, token)
}

// Token returns the access token, or "" when absent or unreadable.
func (s *Store) Token(ctx context.Context) string {
	v, _ := s.get(ctx, KeyToken)
	return v
}

// SaveRefreshToken persists the refresh token.
func (s *Store) SaveRefreshToken(ctx context.Context, token string) error {
	return s.kv.Set(ctx, KeyRefreshToken, token)
}

// RefreshToken returns the refresh token, or "" when absent or unreadable.
func (s *Store) RefreshToken(ctx context.Context) string {
	v, _ := s.get(ctx, KeyRefreshToken)
	return v
}

// SaveUser persists the operator profile as JSON.
func (s *Store) SaveUser(ctx context.Context, user User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyUser, string(data))
}

// User returns the stored profile. Missing or malformed data, including
// null and a profile without a user id, yields nil.
func (s *Store) User(ctx context.Context) *User {
	raw, ok := s.get(ctx, KeyUser)
	if !ok {
		return nil
	}
	var user *User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.WithError(err).Warn("discarding malformed user profile")
		return nil
	}
	if user == nil || user.ID == "" {
		s.logger.Warn("discarding user profile without a user id")
		return nil
	}
	return user
}

// Session returns the full session, or nil when logged out.
func (s *Store) Session(ctx context.Context) *Session {
	token := s.Token(ctx)
	if token == "" {
		return nil
	}
	return &Session{
		AccessToken:  token,
		RefreshToken: s.RefreshToken(ctx),
		User:         s.User(ctx),
	}
}

// SaveBiometricEnabled persists the biometric opt-in as "true" or "false".
func (s *Store) SaveBiometricEnabled(ctx context.Context, enabled bool) error {
	return s.kv.Set(ctx, KeyBiometricEnabled, strconv.FormatBool(enabled))
}

// BiometricEnabled reports the opt-in; false when unset or unreadable.
func (s *Store) BiometricEnabled(ctx context.Context) bool {
	v, ok := s.get(ctx, KeyBiometricEnabled)
	return ok && v == "true"
}

// SaveThemePreference persists the theme mode.
func (s *Store) SaveThemePreference(ctx context.Context, mode ThemeMode) error {
	return s.kv.Set(ctx, KeyThemePreference, string(mode))
}

// ThemePreference returns the stored mode, or ThemeSystem when unset or invalid.
func (s *Store) ThemePreference(ctx context.Context) ThemeMode {
	v, ok := s.get(ctx, KeyThemePreference)
	if !ok {
		return ThemeSystem
	}
	mode, _ := ParseThemeMode(v)
	return mode
}

// AddActivity prepends an entry and keeps the newest MaxActivity. Failures
// are logged, never returned.
func (s *Store) AddActivity(ctx context.Context, kind ActivityType, title, subtitle string) {
	entry := ActivityEntry{
		ID:        s.newID(),
		Type:      kind,
		Title:     title,
		Subtitle:  subtitle,
		Timestamp: s.now().UnixMilli(),
	}

	entries := append([]ActivityEntry{entry}, s.Activity(ctx)...)
	if len(entries) > MaxActivity {
		entries = entries[:MaxActivity]
	}

	data, err := json.Marshal(entries)
	if err != nil {
		s.logger.WithError(err).Error("failed to encode activity log")
		return
	}
	if err := s.kv.Set(ctx, KeyActivity, string(data)); err != nil {
		s.logger.WithError(err).Error("failed to save activity", "type", string(kind))
	}
}

// Activity returns the log newest first; empty on any failure.
func (s *Store) Activity(ctx context.Context) []ActivityEntry {
	raw, ok := s.get(ctx, KeyActivity)
	if !ok {
		return []ActivityEntry{}
	}
	var entries []ActivityEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logger.WithError(err).Warn("discarding malformed activity log")
		return []ActivityEntry{}
	}
	return entries
}

// Clear removes the session and activity log. Preferences are kept.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyToken, KeyRefreshToken, KeyUser, KeyActivity} {
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
