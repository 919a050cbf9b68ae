package store

import (
	"time"

	"git.home.luguber.info/inful/linkbio/internal/foundation"
)

// User is a registered account together with its public profile settings.
type User struct {
	ID              string    `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	Username        string    `db:"username" json:"username"`
	Name            string    `db:"name" json:"name"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	Image           *string   `db:"image" json:"image"`
	Theme           *string   `db:"theme" json:"theme"`
	Bio             *string   `db:"bio" json:"bio"`
	BackgroundColor *string   `db:"background_color" json:"backgroundColor"`
	BackgroundImage *string   `db:"background_image" json:"backgroundImage"`
	PageViews       int64     `db:"page_views" json:"pageViews"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// NewUser carries the fields required to create an account.
type NewUser struct {
	Email        string
	Username     string
	Name         string
	PasswordHash string
}

// ProfileUpdate is a partial update of the profile columns. Absent fields are
// left untouched, null fields are cleared.
type ProfileUpdate struct {
	Image           foundation.Field[string]
	Theme           foundation.Field[string]
	Bio             foundation.Field[string]
	BackgroundColor foundation.Field[string]
	BackgroundImage foundation.Field[string]
}

// Link is an entry on a user's public page.
type Link struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"userId"`
	Title         string     `db:"title" json:"title"`
	URL           string     `db:"url" json:"url"`
	Order         int        `db:"position" json:"order"`
	Active        bool       `db:"active" json:"active"`
	IsSocial      bool       `db:"is_social" json:"isSocial"`
	SocialType    *string    `db:"social_type" json:"socialType"`
	Clicks        int64      `db:"clicks" json:"clicks"`
	LastStatus    *int       `db:"last_status" json:"lastStatus"`
	LastCheckedAt *time.Time `db:"last_checked_at" json:"lastCheckedAt"`
	Healthy       *bool      `db:"healthy" json:"healthy"`
	PageTitle     *string    `db:"page_title" json:"pageTitle"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// NewLink carries the fields required to create a link.
type NewLink struct {
	UserID     string
	Title      string
	URL        string
	Order      int
	Active     bool
	IsSocial   bool
	SocialType *string
}

// LinkUpdate is a partial update of a link.
type LinkUpdate struct {
	Title      foundation.Field[string]
	URL        foundation.Field[string]
	Order      foundation.Field[int]
	Active     foundation.Field[bool]
	IsSocial   foundation.Field[bool]
	SocialType foundation.Field[string]
}

// ReorderItem assigns a position to a link.
type ReorderItem struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// Health is the outcome of probing a link.
type Health struct {
	Status    *int
	Healthy   bool
	PageTitle *string
	CheckedAt time.Time
}

// UserStats aggregates counters for the analytics view.
type UserStats struct {
	PageViews   int64 `db:"page_views"`
	TotalClicks int64 `db:"total_clicks"`
	LinkCount   int   `db:"link_count"`
	ActiveLinks int   `db:"active_links"`
	Healthy     int   `db:"healthy_links"`
	Broken      int   `db:"broken_links"`
	Unchecked   int   `db:"unchecked_links"`
}

// nullable turns a nil pointer into SQL NULL and dereferences otherwise.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
