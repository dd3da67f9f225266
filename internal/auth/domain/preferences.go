package domain

// Preferences is the per-user settings blob. The auth service only stores
// and returns it.
type Preferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	Language      string `json:"language"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: "light", Notifications: true, Language: "en"}
}

// PreferencesPatch carries the fields a caller wants to change. Nil fields
// are left as they are.
type PreferencesPatch struct {
	Theme         *string
	Notifications *bool
	Language      *string
}

// Apply returns p with the non-nil patch fields applied.
func (pp PreferencesPatch) Apply(p Preferences) Preferences {
	if pp.Theme != nil {
		p.Theme = *pp.Theme
	}
	if pp.Notifications != nil {
		p.Notifications = *pp.Notifications
	}
	if pp.Language != nil {
		p.Language = *pp.Language
	}
	return p
}
