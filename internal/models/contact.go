package models

import "time"

// Contact is a guardian/student contact row consumed by the recipient
// resolver and the campaign composer.
type Contact struct {
	ID        string    `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"firstName"`
	LastName  string    `db:"last_name" json:"lastName"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Form      *string   `db:"form" json:"form,omitempty"`
	Stream    *string   `db:"stream" json:"stream,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ContactFilter narrows down contact listings.
type ContactFilter struct {
	Search   string
	Form     string
	Page     int
	PageSize int
}
