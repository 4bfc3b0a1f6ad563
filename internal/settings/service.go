package settings

import (
	"context"
	"errors"

	"gitlab.com/yelinaung/subscription-bot/internal/logger"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
	"gitlab.com/yelinaung/subscription-bot/internal/store"
)

// Service loads and saves notification settings.
type Service struct {
	store    store.Store
	onChange func()
}

// NewService creates a settings service backed by st.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// OnChange registers fn to run after every successful Update.
func (s *Service) OnChange(fn func()) {
	s.onChange = fn
}

// Load returns the stored settings. Missing, unreadable or invalid settings
// fall back to the defaults.
func (s *Service) Load(ctx context.Context) models.NotificationSettings {
	out := models.DefaultNotificationSettings()
	err := s.store.Get(ctx, store.KeySettings, &out)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.DefaultNotificationSettings()
	case err != nil:
		logger.Log.Warn().Err(err).Msg("Failed to load notification settings, using defaults")
		return models.DefaultNotificationSettings()
	}

	if err := Validate(out); err != nil {
		logger.Log.Warn().Err(err).Msg("Stored notification settings are invalid, using defaults")
		return models.DefaultNotificationSettings()
	}
	return out
}

// Update validates and persists s.
func (s *Service) Update(ctx context.Context, settings models.NotificationSettings) error {
	if err := Validate(settings); err != nil {
		return err
	}
	if err := s.store.Set(ctx, store.KeySettings, settings); err != nil {
		return err
	}

	logger.Log.Info().
		Bool("enabled", settings.Enabled).
		Int("lookahead_days", settings.LookaheadDays).
		Msg("Notification settings updated")

	if s.onChange != nil {
		s.onChange()
	}
	return nil
}

// SetEnabled toggles the master switch.
func (s *Service) SetEnabled(ctx context.Context, enabled bool) error {
	current := s.Load(ctx)
	current.Enabled = enabled
	return s.Update(ctx, current)
}
