package models

import "time"

// Subscriber represents a newsletter subscription row.
type Subscriber struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Name         *string    `db:"name" json:"name,omitempty"`
	Subscribed   bool       `db:"subscribed" json:"subscribed"`
	SubscribedAt time.Time  `db:"subscribed_at" json:"subscribedAt"`
	RevokedAt    *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
}

// SubscriberFilter narrows down subscriber listings.
type SubscriberFilter struct {
	Search     string
	Subscribed *bool
	Page       int
	PageSize   int
}
