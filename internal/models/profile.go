package models

import "time"

// DateLayout is the storage and wire format for calendar dates
const DateLayout = "2006-01-02"

// Profile represents a parent or child in the system.
// Children never have a login identity; they act through an active parent.
type Profile struct {
	ID           string             `json:"id"`
	LoginID      string             `json:"login_id,omitempty"`
	DisplayName  string             `json:"display_name"`
	IsChild      bool               `json:"is_child"`
	DateOfBirth  string             `json:"date_of_birth,omitempty"`
	ConsentGiven bool               `json:"consent_given"`
	ConsentAt    *time.Time         `json:"consent_at,omitempty"`
	Privacy      PrivacyPreferences `json:"privacy"`
	Email        string             `json:"email,omitempty"`
	AvatarColor  string             `json:"avatar_color"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// PrivacyPreferences are opt-in flags; both default to false
type PrivacyPreferences struct {
	ShareData bool `json:"share_data"`
	Analytics bool `json:"analytics"`
}

// IsAdult reports whether the profile belongs to a parent or guardian
func (p *Profile) IsAdult() bool {
	return !p.IsChild
}

// CanOwnRecords reports whether family-scoped rows may be written for this profile
func (p *Profile) CanOwnRecords() bool {
	return !p.IsChild || p.ConsentGiven
}

// ProfilePatch carries the fields a profile update may change. Nil fields are left alone.
type ProfilePatch struct {
	DisplayName *string             `json:"display_name,omitempty"`
	DateOfBirth *string             `json:"date_of_birth,omitempty"`
	AvatarColor *string             `json:"avatar_color,omitempty"`
	Email       *string             `json:"email,omitempty"`
	Privacy     *PrivacyPreferences `json:"privacy,omitempty"`
}

// Apply copies the set fields of the patch onto p
func (patch ProfilePatch) Apply(p *Profile) {
	if patch.DisplayName != nil {
		p.DisplayName = *patch.DisplayName
	}
	if patch.DateOfBirth != nil {
		p.DateOfBirth = *patch.DateOfBirth
	}
	if patch.AvatarColor != nil {
		p.AvatarColor = *patch.AvatarColor
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Privacy != nil {
		p.Privacy = *patch.Privacy
	}
}
