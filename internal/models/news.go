package models

import "time"

// NewsArticle represents a published or draft news item.
type NewsArticle struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Excerpt     string    `db:"excerpt" json:"excerpt"`
	FullContent string    `db:"full_content" json:"fullContent"`
	Category    string    `db:"category" json:"category"`
	Author      string    `db:"author" json:"author"`
	Date        time.Time `db:"date" json:"date"`
	ImagePath   *string   `db:"image_path" json:"image,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// NewsFilter narrows down news listings.
type NewsFilter struct {
	Search    string
	Category  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
