package event

const UserRegisteredDestination string = "identity.user.registered"
const UserRegisteredConsumerNotification string = "identity.user.registered.notification"

type UserRegisteredMessage struct {
	EventID  string `json:"event_id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}
