package event

const AchievementUnlockedDestination string = "gameplay.achievement.unlocked"
const AchievementUnlockedConsumerNotification string = "gameplay.achievement.unlocked.notification"

// AchievementUnlockedMessage is published once per user and achievement; the producer
// guarantees the achievement was not recorded before.
type AchievementUnlockedMessage struct {
	EventID        string `json:"event_id"`
	UserID         int64  `json:"user_id"`
	AchievementKey string `json:"achievement_key"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Points         int64  `json:"points"`
}
