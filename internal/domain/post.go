package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the visibility state of a blog post.
type PostStatus string

const (
	// PostStatusDraft posts are only visible to administrators.
	PostStatusDraft PostStatus = "DRAFT"

	// PostStatusPublished posts are readable by anyone.
	PostStatusPublished PostStatus = "PUBLISHED"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// ParsePostStatus converts s into a PostStatus. Matching is case-insensitive.
func ParsePostStatus(s string) (PostStatus, error) {
	st := PostStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrInvalidPostStatus
	}
	return st, nil
}

// Post is a blog post.
//
// Slug is derived from Title once, at creation, and never changes afterwards.
// PublishedAt stays nil while the post is a draft and is set exactly once,
// when the post first becomes published.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	ReadTime    string     `json:"read_time"`
	Status      PostStatus `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
	Author      string     `json:"author"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsPublished returns true if the post is visible to the public.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// Publish moves the post to PUBLISHED. PublishedAt is stamped with now only
// if it has never been set.
func (p *Post) Publish(now time.Time) {
	p.Status = PostStatusPublished
	if p.PublishedAt == nil {
		ts := now
		p.PublishedAt = &ts
	}
}

// FoldCase returns s folded for case-insensitive search. Queries and stored
// text are both folded with it before comparison.
func FoldCase(s string) string {
	return strings.ToLower(s)
}

// Slugify derives a URL slug from a title: the title is lower-cased, every
// maximal run of characters outside [a-z0-9] becomes a single '-', and
// leading or trailing '-' are stripped.
func Slugify(title string) string {
	lower := strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(lower))

	inRun := false
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
			inRun = false
			continue
		}
		if !inRun {
			b.WriteByte('-')
			inRun = true
		}
	}

	return strings.Trim(b.String(), "-")
}
