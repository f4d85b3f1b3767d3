package entity

// NotificationStatus filters the inbox by read state.
type NotificationStatus string

const (
	NotificationStatusAll    NotificationStatus = "all"
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)

// ReadFilter returns the read state to match, or nil for every notification.
// Unknown values behave like NotificationStatusAll.
func (s NotificationStatus) ReadFilter() *bool {
	var read bool
	switch s {
	case NotificationStatusRead:
		read = true
	case NotificationStatusUnread:
		read = false
	default:
		return nil
	}
	return &read
}

func (s NotificationStatus) Matches(n Notification) bool {
	want := s.ReadFilter()
	return want == nil || *want == n.Read()
}
