package models

// DefaultCocktailColor is applied when an imported cocktail carries no display color.
const DefaultCocktailColor = "#C1D4D3"

// CocktailModel is a cocktail recipe record.
type CocktailModel struct {
	Base
	Slug  string `json:"slug"  gorm:"uniqueIndex;not null"`
	Title string `json:"title" gorm:"not null"`
	Text  string `json:"text"  gorm:"type:longtext"`

	Tagline     string      `json:"tagline"`
	Ingredients StringArray `json:"ingredients" gorm:"type:json"`
	Preparation string      `json:"preparation" gorm:"type:longtext"`
	Variants    StringArray `json:"variants"    gorm:"type:json"`
	Color       string      `json:"color"`

	// Single "image" slot, also the primary display asset.
	ImageID         *uint  `json:"image_id" gorm:"index"`
	ImageURL        string `json:"image_url"`
	FeaturedImageID *uint  `json:"featured_image_id"`

	DrinkIDs          IDList      `json:"drinks" gorm:"type:json"`
	PendingDrinkSlugs StringArray `json:"-"      gorm:"type:json"`
}

func (CocktailModel) TableName() string { return "cocktails" }
