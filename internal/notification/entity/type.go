package entity

// Type classifies a notification and selects its default icon and color.
type Type string

const (
	TypeAchievement Type = "achievement"
	TypeLevelUp     Type = "level_up"
	TypeStreak      Type = "streak"
	TypeChallenge   Type = "challenge"
	TypeSystem      Type = "system"
	TypeSocial      Type = "social"
)

func (t Type) String() string {
	return string(t)
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	switch t {
	case TypeAchievement, TypeLevelUp, TypeStreak, TypeChallenge, TypeSystem, TypeSocial:
		return true
	default:
		return false
	}
}

// Style is the icon and color pair rendered with a notification.
type Style struct {
	Icon  string
	Color string
}

// DefaultStyle is used for types without an entry in the style table.
var DefaultStyle = Style{Icon: "bell", Color: "primary"}

// Style returns the fixed icon and color of t.
func (t Type) Style() Style {
	switch t {
	case TypeAchievement:
		return Style{Icon: "trophy", Color: "warning"}
	case TypeLevelUp:
		return Style{Icon: "zap", Color: "primary"}
	case TypeStreak:
		return Style{Icon: "flame", Color: "success"}
	case TypeChallenge:
		return Style{Icon: "target", Color: "info"}
	case TypeSystem:
		return Style{Icon: "bell", Color: "muted"}
	case TypeSocial:
		return Style{Icon: "users", Color: "accent"}
	default:
		return DefaultStyle
	}
}

// IsStreakMilestone reports whether streak is exactly one of the celebrated day counts.
func IsStreakMilestone(streak int64) bool {
	switch streak {
	case 3, 7, 14, 30, 50, 100:
		return true
	default:
		return false
	}
}
