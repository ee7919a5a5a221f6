package domain

import "context"

// Settings holds the blog-wide texts shown in the header and profile sidebar.
type Settings struct {
	BlogTitle          string
	BlogDescription    string
	ProfileName        string
	ProfileDescription string
	Revision           string
}

type SettingsRepository interface {
	// Get returns the stored settings, or the defaults when none are stored.
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) (string, error)
}
