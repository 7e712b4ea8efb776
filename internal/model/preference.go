package model

import "time"

// Preference keys recognised by the dashboard.
const (
	PrefTutorialSeen      = "tutorial_seen"
	PrefMobileWarningSeen = "mobile_warning_seen"
)

var KnownPreferences = map[string]bool{
	PrefTutorialSeen:      true,
	PrefMobileWarningSeen: true,
}

type Preference struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
