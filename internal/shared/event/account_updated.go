package event

const SettingsUpdatedDestination string = "account.settings.updated"
const SettingsUpdatedConsumerProgress string = "account.settings.updated.progress"

const PremiumUpdatedDestination string = "account.premium.updated"
const PremiumUpdatedConsumerProgress string = "account.premium.updated.progress"

type SettingsUpdatedMessage struct {
	EventID  string         `json:"event_id"`
	UserID   int64          `json:"user_id"`
	Settings map[string]any `json:"settings"`
}

type PremiumUpdatedMessage struct {
	EventID   string `json:"event_id"`
	UserID    int64  `json:"user_id"`
	IsPremium bool   `json:"is_premium"`
	Plan      string `json:"plan,omitempty"`
}
