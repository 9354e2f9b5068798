package cocktail

import (
	"time"

	"github.com/cryptonic-cms/core/internal/models"
)

type relatedRef struct {
	ID    uint   `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// cocktailResponse is the API response shape for a cocktail.
type cocktailResponse struct {
	ID               uint               `json:"id"`
	Slug             string             `json:"slug"`
	Title            string             `json:"title"`
	Text             string             `json:"text"`
	HTML             string             `json:"html,omitempty"`
	Tagline          string             `json:"tagline,omitempty"`
	Ingredients      models.StringArray `json:"ingredients"`
	Preparation      string             `json:"preparation"`
	Variants         models.StringArray `json:"variants"`
	Color            string             `json:"color"`
	ImageURL         string             `json:"image_url,omitempty"`
	FeaturedImageURL string             `json:"featured_image_url,omitempty"`
	Drinks           []relatedRef       `json:"drinks"`
	Created          time.Time          `json:"created"`
	Modified         time.Time          `json:"modified"`
}
