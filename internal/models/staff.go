package models

import "time"

// StaffMember represents a staff directory record.
type StaffMember struct {
	ID         string    `db:"id" json:"id"`
	FullName   string    `db:"full_name" json:"fullName"`
	Email      *string   `db:"email" json:"email,omitempty"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Role       string    `db:"role" json:"role"`
	Department string    `db:"department" json:"department"`
	Position   *string   `db:"position" json:"position,omitempty"`
	Bio        *string   `db:"bio" json:"bio,omitempty"`
	ImagePath  *string   `db:"image_path" json:"image,omitempty"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// StaffFilter captures filtering options for listing staff.
type StaffFilter struct {
	Search     string
	Role       string
	Department string
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
