package models

// DefaultDrinkColor is applied when an imported drink carries no display color.
const DefaultDrinkColor = "#ddd49a"

// DrinkModel is a drink record. Image slots come in pairs: the attachment ID
// is authoritative once set, the URL column holds the not-yet-fetched remote
// source. Relation columns likewise pair a resolved-ID list with a pending
// slug marker left over from import.
type DrinkModel struct {
	Base
	Slug  string `json:"slug"  gorm:"uniqueIndex;not null"`
	Title string `json:"title" gorm:"not null"`
	Text  string `json:"text"  gorm:"type:longtext"`

	Category        string      `json:"type"`
	VolumeML        int         `json:"volume_ml"`
	TastingNotes    StringArray `json:"tasting_notes"   gorm:"type:json"`
	Characteristics StringArray `json:"characteristics" gorm:"type:json"`
	SpecialNote     string      `json:"note_speciale"`
	Color           string      `json:"color"`

	// "image" slot (primary display asset) and "cutout_image" slot.
	ImageID        *uint  `json:"image_id"         gorm:"index"`
	ImageURL       string `json:"image_url"`
	CutoutImageID  *uint  `json:"cutout_image_id"`
	CutoutImageURL string `json:"cutout_image_url"`

	// FeaturedImageID mirrors the slot chosen as the record's principal
	// display image.
	FeaturedImageID *uint `json:"featured_image_id"`

	FeaturedCocktailID          *uint       `json:"featured_cocktail_id"`
	PendingFeaturedCocktailSlug string      `json:"-"`
	CocktailIDs                 IDList      `json:"cocktails" gorm:"type:json"`
	PendingCocktailSlugs        StringArray `json:"-"         gorm:"type:json"`
}

func (DrinkModel) TableName() string { return "drinks" }
