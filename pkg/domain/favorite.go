package domain

// Favorite bookmarks a book for a user. The delete path is keyed by
// (book_id, user_id), so the id only matters for list rendering, where the
// API also embeds the full book.
type Favorite struct {
	ID     int   `json:"id"`
	UserID int   `json:"user_id"`
	BookID int   `json:"book_id"`
	Book   *Book `json:"book,omitempty"`
}
