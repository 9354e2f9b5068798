package importer

import (
	"time"

	"github.com/cryptonic-cms/core/internal/models"
)

// drinkDocument is the JSON export shape for drinks.
type drinkDocument struct {
	Drinks []DrinkEntry `json:"drinks"`
}

// DrinkEntry is one drink in the import document. Relations are expressed
// as slugs; IDs are assigned by storage during the run.
type DrinkEntry struct {
	Slug                 string   `json:"slug"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Category             string   `json:"type"`
	VolumeML             int      `json:"volume_ml"`
	TastingNotes         []string `json:"tasting_notes"`
	Characteristics      []string `json:"characteristics"`
	SpecialNote          string   `json:"note_speciale"`
	Color                string   `json:"color"`
	Image                string   `json:"image"`
	CutoutImage          string   `json:"cutout_image"`
	FeaturedCocktailSlug string   `json:"featured_cocktail_slug"`
	Cocktails            []string `json:"cocktails"`
}

// cocktailDocument is the JSON export shape for cocktails.
type cocktailDocument struct {
	Cocktails []CocktailEntry `json:"cocktails"`
}

// CocktailEntry is one cocktail in the import document.
type CocktailEntry struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tagline     string   `json:"tagline"`
	Ingredients []string `json:"ingredients"`
	Preparation string   `json:"preparation"`
	Variants    []string `json:"variants"`
	Color       string   `json:"color"`
	Image       string   `json:"image"`
	Drinks      []string `json:"drinks"`
}

// Options tunes one import run.
type Options struct {
	// UpdateExisting controls whether entries whose slug already exists get
	// their attributes rewritten or are skipped.
	UpdateExisting bool
	// DownloadImages fetches referenced images inline during the run;
	// otherwise each image becomes a deferred queue task.
	DownloadImages bool
}

// Report is the outcome of one import run.
type Report struct {
	Success bool                    `json:"success"`
	Stats   models.ImportStats      `json:"stats"`
	Logs    []models.ImportLogEntry `json:"logs"`
}

func (r *Report) log(level, message, slug, url string) {
	r.Logs = append(r.Logs, models.ImportLogEntry{
		Level:   level,
		Message: message,
		Slug:    slug,
		URL:     url,
		Time:    time.Now(),
	})
}

func (r *Report) info(message, slug string)    { r.log("info", message, slug, "") }
func (r *Report) success(message, slug string) { r.log("success", message, slug, "") }
func (r *Report) warn(message, slug string)    { r.log("warning", message, slug, "") }

func (r *Report) errorf(message, slug string) {
	r.Stats.Errors++
	r.log("error", message, slug, "")
}

// ImportRequestDTO is the request body for triggering an import. Documents
// omitted from the body are read from the configured data files.
type ImportRequestDTO struct {
	Drinks         *drinkDocument    `json:"drinks_document"`
	Cocktails      *cocktailDocument `json:"cocktails_document"`
	UpdateExisting *bool             `json:"update_existing"`
	DownloadImages *bool             `json:"download_images"`
}
