package media

import "errors"

// Owner kinds for attachment rows and image tasks.
const (
	OwnerDrink    = "drink"
	OwnerCocktail = "cocktail"
)

// Image slots. A slot is a pair of columns on the owner row: <slot>_id
// (authoritative once set) and <slot>_url (pending download).
const (
	SlotImage  = "image"
	SlotCutout = "cutout_image"
)

var (
	errUnknownOwner = errors.New("unknown owner type")
	errUnknownSlot  = errors.New("unknown image slot")
)

// Options tunes remote image fetching.
type Options struct {
	StaticDir string
	Timeout   int // seconds
	MaxBytes  int
}

// PendingImage is one unresolved slot reported by the pending listing.
type PendingImage struct {
	OwnerType string `json:"owner_type"`
	OwnerID   uint   `json:"owner_id"`
	Slug      string `json:"slug"`
	Slot      string `json:"slot"`
	URL       string `json:"url"`
}

// SweepReport summarizes one integrity sweep.
type SweepReport struct {
	Checked  int      `json:"checked"`
	Healed   int      `json:"healed"`
	Failed   int      `json:"failed"`
	Problems []string `json:"problems,omitempty"`
}
