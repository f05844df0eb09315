package domain

import "time"

// Book is a catalog entry. ImageURL carries either an http(s) URL or a
// base64 data URL embedded when the book was created.
type Book struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
