package models

import "time"

// ImportStats are the counters accumulated over one import run.
type ImportStats struct {
	DrinksCreated    int `json:"drinks_created"`
	DrinksUpdated    int `json:"drinks_updated"`
	DrinksSkipped    int `json:"drinks_skipped"`
	CocktailsCreated int `json:"cocktails_created"`
	CocktailsUpdated int `json:"cocktails_updated"`
	CocktailsSkipped int `json:"cocktails_skipped"`
	ImagesQueued     int `json:"images_queued"`
	ImagesFetched    int `json:"images_fetched"`
	Errors           int `json:"errors"`
}

// ImportLogEntry is one line of the per-run log. Slug and URL give enough
// context to reconstruct what happened without re-running the import.
type ImportLogEntry struct {
	Level   string    `json:"level"` // info | success | warning | error
	Message string    `json:"message"`
	Slug    string    `json:"slug,omitempty"`
	URL     string    `json:"url,omitempty"`
	Time    time.Time `json:"time"`
}

// ImportRunModel persists the report of one import run.
type ImportRunModel struct {
	Base
	Success bool             `json:"success"`
	Stats   ImportStats      `json:"stats" gorm:"type:longtext;serializer:json"`
	Logs    []ImportLogEntry `json:"logs"  gorm:"type:longtext;serializer:json"`
}

func (ImportRunModel) TableName() string { return "import_runs" }

// OptionModel is a generic key-value store for operational state, such as the
// last integrity-sweep run.
type OptionModel struct {
	ID    uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	Name  string `json:"name"  gorm:"uniqueIndex;not null"`
	Value string `json:"value" gorm:"type:longtext"` // JSON-encoded value
}

func (OptionModel) TableName() string { return "options" }
