package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestType_Style(t *testing.T) {
	tests := []struct {
		typ  Type
		want Style
	}{
		{typ: TypeAchievement, want: Style{Icon: "trophy", Color: "warning"}},
		{typ: TypeLevelUp, want: Style{Icon: "zap", Color: "primary"}},
		{typ: TypeStreak, want: Style{Icon: "flame", Color: "success"}},
		{typ: TypeChallenge, want: Style{Icon: "target", Color: "info"}},
		{typ: TypeSystem, want: Style{Icon: "bell", Color: "muted"}},
		{typ: TypeSocial, want: Style{Icon: "users", Color: "accent"}},
		{typ: "quest", want: Style{Icon: "bell", Color: "primary"}},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.Style())
			assert.Equal(t, tt.typ != "quest", tt.typ.Valid())
		})
	}
}

func TestIsStreakMilestone(t *testing.T) {
	milestones := map[int64]bool{3: true, 7: true, 14: true, 30: true, 50: true, 100: true}

	for streak := int64(-1); streak <= 120; streak++ {
		assert.Equal(t, milestones[streak], IsStreakMilestone(streak), "streak %d", streak)
	}
}

func TestNotification_Read(t *testing.T) {
	assert.False(t, Notification{}.Read())
}

func TestNotificationStatus_Matches(t *testing.T) {
	readAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	read := Notification{ID: 1, ReadAt: &readAt}
	unread := Notification{ID: 2}

	tests := []struct {
		status     NotificationStatus
		wantRead   bool
		wantUnread bool
	}{
		{status: NotificationStatusAll, wantRead: true, wantUnread: true},
		{status: NotificationStatusRead, wantRead: true, wantUnread: false},
		{status: NotificationStatusUnread, wantRead: false, wantUnread: true},
		{status: "archived", wantRead: true, wantUnread: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.wantRead, tt.status.Matches(read))
			assert.Equal(t, tt.wantUnread, tt.status.Matches(unread))
		})
	}

	assert.Nil(t, NotificationStatusAll.ReadFilter())
}
