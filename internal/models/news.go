package models

import "time"

// Category represents a news category
// News articles always belong to exactly one category from the fixed set below.
type Category string

const (
	CategoryPolitics      Category = "politics"
	CategoryTechnology    Category = "technology"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryBusiness      Category = "business"
)

// Valid reports whether the category is a member of the fixed category set
func (c Category) Valid() bool {
	switch c {
	case CategoryPolitics, CategoryTechnology, CategorySports,
		CategoryEntertainment, CategoryHealth, CategoryBusiness:
		return true
	default:
		return false
	}
}

// AuthorSummary is the populated author reference embedded in news responses.
// Email is only filled on single-item fetches.
type AuthorSummary struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// News represents one article
type News struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Category    Category       `json:"category"`
	ImagePath   string         `json:"imagePath,omitempty"`
	AuthorID    int            `json:"authorId"`
	Author      *AuthorSummary `json:"author,omitempty"`
	IsPublished bool           `json:"isPublished"`
	Views       int            `json:"views"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// CreateNewsRequest represents a request to create an article
type CreateNewsRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Category    string `json:"category"`
	IsPublished bool   `json:"isPublished"`
	ImagePath   string `json:"-"` // set by the upload path, never by the client body
}

// UpdateNewsRequest represents a partial update of an article.
// Pointer fields distinguish "omitted" from "explicitly set": a nil field is
// left untouched, a non-nil field is applied even when it carries a zero value
// (an explicit isPublished=false must unpublish).
type UpdateNewsRequest struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	Category    *string `json:"category"`
	IsPublished *bool   `json:"isPublished"`
	ImagePath   *string `json:"-"` // set by the upload path, never by the client body
}

// ListNewsQuery carries the caller-supplied list parameters
type ListNewsQuery struct {
	Category    string
	Search      string
	Page        int
	Limit       int
	IsPublished *bool
}

// NewsFilter is the resolved predicate executed against the store.
// Published is always set: the visibility rules never leave it open.
type NewsFilter struct {
	Published bool
	Category  Category
	Search    string
	Limit     int
	Offset    int
}

// PaginatedNews is the paginated listing envelope
type PaginatedNews struct {
	Docs        []News `json:"docs"`
	TotalDocs   int64  `json:"totalDocs"`
	Limit       int    `json:"limit"`
	Page        int    `json:"page"`
	TotalPages  int    `json:"totalPages"`
	HasNextPage bool   `json:"hasNextPage"`
	HasPrevPage bool   `json:"hasPrevPage"`
}
