package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dfryer1193/repoblog/blog/domain"
)

var _ domain.SettingsRepository = (*GitSettingsRepository)(nil)

// GitSettingsRepository stores the blog settings as a single JSON file.
type GitSettingsRepository struct {
	source   domain.SourceRepository
	path     string
	defaults domain.Settings
}

func NewSettingsRepository(source domain.SourceRepository, cfg Config) *GitSettingsRepository {
	cfg = cfg.withDefaults()
	return &GitSettingsRepository{
		source:   source,
		path:     cfg.SettingsPath,
		defaults: cfg.DefaultSettings,
	}
}

// Get returns the stored settings. Until a settings file exists the configured defaults
// are returned without a revision.
func (r *GitSettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	file, err := r.source.ReadFile(ctx, r.path)
	if errors.Is(err, domain.ErrNotFound) {
		s := r.defaults
		s.Revision = ""
		return &s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var row settingsRecord
	if err := json.Unmarshal(file.Content, &row); err != nil {
		return nil, fmt.Errorf("settings: %v: %w", err, domain.ErrMalformedDocument)
	}

	s := row.toDomain()
	s.Revision = file.Revision
	return s, nil
}

// Save writes s, creating the file when s carries no revision. It returns the new revision.
func (r *GitSettingsRepository) Save(ctx context.Context, s *domain.Settings) (string, error) {
	if s == nil {
		return "", fmt.Errorf("settings cannot be nil")
	}

	raw, err := json.MarshalIndent(newSettingsRecord(s), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode settings: %w", err)
	}

	rev, err := r.source.WriteFile(ctx, r.path, raw, s.Revision, "Update settings")
	if err != nil {
		return "", fmt.Errorf("failed to save settings: %w", err)
	}
	return rev, nil
}

type settingsRecord struct {
	BlogTitle          string `json:"blogTitle"`
	BlogDescription    string `json:"blogDescription"`
	ProfileName        string `json:"profileName"`
	ProfileDescription string `json:"profileDescription"`
}

func newSettingsRecord(s *domain.Settings) settingsRecord {
	return settingsRecord{
		BlogTitle:          s.BlogTitle,
		BlogDescription:    s.BlogDescription,
		ProfileName:        s.ProfileName,
		ProfileDescription: s.ProfileDescription,
	}
}

func (sr *settingsRecord) toDomain() *domain.Settings {
	return &domain.Settings{
		BlogTitle:          sr.BlogTitle,
		BlogDescription:    sr.BlogDescription,
		ProfileName:        sr.ProfileName,
		ProfileDescription: sr.ProfileDescription,
	}
}
