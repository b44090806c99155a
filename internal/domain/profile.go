package domain

import (
	"regexp"
	"strings"
	"time"
)

// UserProfile is the public face of an account.
type UserProfile struct {
	ID           string    `json:"id"`
	Handle       string    `json:"username"`
	DisplayName  string    `json:"full_name"`
	Bio          string    `json:"bio"`
	AvatarURL    string    `json:"avatar_url"`
	InstagramURL string    `json:"instagram_url,omitempty"`
	SpotifyURL   string    `json:"spotify_url,omitempty"`
	Country      string    `json:"country,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProfileUpdate carries a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	Handle       *string `json:"username,omitempty"`
	DisplayName  *string `json:"full_name,omitempty"`
	Bio          *string `json:"bio,omitempty"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
	InstagramURL *string `json:"instagram_url,omitempty"`
	SpotifyURL   *string `json:"spotify_url,omitempty"`
	Country      *string `json:"country,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Handle == nil && u.DisplayName == nil && u.Bio == nil && u.AvatarURL == nil &&
		u.InstagramURL == nil && u.SpotifyURL == nil && u.Country == nil
}

// NormalizeHandle strips whitespace and any leading '@'.
func NormalizeHandle(handle string) string {
	return strings.TrimLeft(strings.TrimSpace(handle), "@")
}

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_.]{3,30}$`)

// ValidHandle reports whether an already normalized handle can be used in a public URL.
func ValidHandle(handle string) bool {
	return handlePattern.MatchString(handle)
}

// ExploreFilter narrows the public profile listing.
type ExploreFilter struct {
	Query   string
	Country string
	Limit   int
}
