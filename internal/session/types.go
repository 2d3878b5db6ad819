package session

// User is the operator profile persisted after login.
type User struct {
	ID            string `json:"userId"`
	Role          string `json:"role"`
	EstateID      string `json:"estateId"`
	EstateName    string `json:"estateName,omitempty"`
	EstateLogoURL string `json:"estateLogoUrl,omitempty"`
}

// Session is the persisted authentication state of the device.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

// ActivityType classifies a recent-activity entry.
type ActivityType string

const (
	ActivityScan    ActivityType = "SCAN"
	ActivityVehicle ActivityType = "VEHICLE"
	ActivityAlert   ActivityType = "ALERT"
)

// ActivityEntry is one item of the local recent-activity log.
// Timestamp is Unix milliseconds.
type ActivityEntry struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Title     string       `json:"title"`
	Subtitle  string       `json:"subtitle"`
	Timestamp int64        `json:"timestamp"`
}

// ThemeMode is the operator's display preference.
type ThemeMode string

const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeSystem ThemeMode = "system"
)

// ParseThemeMode returns the mode named by s and whether it is valid.
func ParseThemeMode(s string) (ThemeMode, bool) {
	switch m := ThemeMode(s); m {
	case ThemeLight, ThemeDark, ThemeSystem:
		return m, true
	default:
		return ThemeSystem, false
	}
}
