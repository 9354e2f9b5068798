package drink

import (
	"time"

	"github.com/cryptonic-cms/core/internal/models"
)

// ListQuery holds query params for listing drinks.
type ListQuery struct {
	Category *string `form:"type"`
}

// relatedRef is the compact shape for cross-referenced entries.
type relatedRef struct {
	ID    uint   `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// drinkResponse is the API response shape for a drink.
type drinkResponse struct {
	ID               uint               `json:"id"`
	Slug             string             `json:"slug"`
	Title            string             `json:"title"`
	Text             string             `json:"text"`
	HTML             string             `json:"html,omitempty"`
	Category         string             `json:"type"`
	VolumeML         int                `json:"volume_ml,omitempty"`
	TastingNotes     models.StringArray `json:"tasting_notes"`
	Characteristics  models.StringArray `json:"characteristics"`
	SpecialNote      string             `json:"note_speciale,omitempty"`
	Color            string             `json:"color"`
	ImageURL         string             `json:"image_url,omitempty"`
	CutoutImageURL   string             `json:"cutout_image_url,omitempty"`
	FeaturedImageURL string             `json:"featured_image_url,omitempty"`
	FeaturedCocktail *relatedRef        `json:"featured_cocktail,omitempty"`
	Cocktails        []relatedRef       `json:"cocktails"`
	Created          time.Time          `json:"created"`
	Modified         time.Time          `json:"modified"`
}
