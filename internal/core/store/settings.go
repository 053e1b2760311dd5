package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kburke8/poe-watcher/internal/core"
)

// defaultSettings mirrors the zero state handed out before anything is
// saved.
func defaultSettings() core.Settings {
	return core.Settings{
		SoundEnabled:   true,
		OverlayOpacity: 0.8,
	}
}

// LoadSettings returns the persisted settings row, or the defaults
// when nothing has been saved yet.
func (s *Store) LoadSettings(ctx context.Context) (core.Settings, error) {
	if s == nil || s.DB == nil {
		return core.Settings{}, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var (
		settings       core.Settings
		soundEnabled   int
		overlayEnabled int
	)

	err := s.DB.QueryRowContext(ctx, `
		SELECT poe_log_path, account_name, sound_enabled, overlay_enabled, overlay_opacity
		FROM settings WHERE id = 1
	`).Scan(&settings.LogPath, &settings.AccountName, &soundEnabled, &overlayEnabled, &settings.OverlayOpacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return defaultSettings(), nil
		}
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	settings.SoundEnabled = soundEnabled == 1
	settings.OverlayEnabled = overlayEnabled == 1
	return settings, nil
}

// SaveSettings upserts the single settings row.
func (s *Store) SaveSettings(ctx context.Context, settings core.Settings) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO settings (id, poe_log_path, account_name, sound_enabled, overlay_enabled, overlay_opacity)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			poe_log_path = excluded.poe_log_path,
			account_name = excluded.account_name,
			sound_enabled = excluded.sound_enabled,
			overlay_enabled = excluded.overlay_enabled,
			overlay_opacity = excluded.overlay_opacity
	`, settings.LogPath, settings.AccountName, boolInt(settings.SoundEnabled),
		boolInt(settings.OverlayEnabled), settings.OverlayOpacity)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	return nil
}
