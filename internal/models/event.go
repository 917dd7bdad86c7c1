package models

import "time"

// Event represents a school calendar event.
type Event struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	Date        time.Time `db:"date" json:"date"`
	Time        string    `db:"time" json:"time"`
	Location    string    `db:"location" json:"location"`
	Speaker     *string   `db:"speaker" json:"speaker,omitempty"`
	Attendees   int       `db:"attendees" json:"attendees"`
	Featured    bool      `db:"featured" json:"featured"`
	ImagePath   *string   `db:"image_path" json:"image,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// EventFilter narrows down event listings.
type EventFilter struct {
	Search    string
	Category  string
	Featured  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
