package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project is a portfolio entry.
type Project struct {
	// ID is the unique identifier for the project.
	ID uuid.UUID `json:"id"`

	// Name is the display name. Required.
	Name string `json:"name"`

	// Description is a short summary. Required.
	Description string `json:"description"`

	// ImageURL, GithubURL and LiveURL are optional links.
	ImageURL  *string `json:"image_url"`
	GithubURL *string `json:"github_url"`
	LiveURL   *string `json:"live_url"`

	// Technologies lists the stack used. Never nil once persisted.
	Technologies []string `json:"technologies"`

	// Featured marks projects shown on the landing page.
	Featured bool `json:"featured"`

	// DisplayOrder sorts projects ascending; ties fall back to newest first.
	DisplayOrder int `json:"display_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeTechnologies replaces a nil technology list with an empty one so the
// wire format is always an array.
func (p *Project) NormalizeTechnologies() {
	if p.Technologies == nil {
		p.Technologies = []string{}
	}
}
