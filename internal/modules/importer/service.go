package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/cryptonic-cms/core/internal/models"
	"github.com/cryptonic-cms/core/internal/modules/media"
	"github.com/cryptonic-cms/core/internal/pkg/pagination"
	"github.com/cryptonic-cms/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service imports drink and cocktail documents. Entries are keyed by slug:
// one slug is one entity across any number of runs.
type Service struct {
	db       *gorm.DB
	mediaSvc *media.Service
	log      *zap.Logger
}

func NewService(db *gorm.DB, mediaSvc *media.Service, log *zap.Logger) *Service {
	return &Service{db: db, mediaSvc: mediaSvc, log: log}
}

// imageWork is one slot that needs fetching or queueing after its owner row
// is saved.
type imageWork struct {
	ownerType string
	ownerID   uint
	slot      string
	url       string
	slug      string
	label     string
}

// RunFromFiles reads both documents from disk and imports them. An empty path
// skips that side; a requested file that is missing or unparsable fails the
// run.
func (s *Service) RunFromFiles(ctx context.Context, drinksPath, cocktailsPath string, opts Options) (*Report, error) {
	report := &Report{}

	var drinksDoc *drinkDocument
	var cocktailsDoc *cocktailDocument

	if err := readDocument(drinksPath, &drinksDoc); err != nil {
		report.errorf(fmt.Sprintf("drinks document: %v", err), "")
	}
	if err := readDocument(cocktailsPath, &cocktailsDoc); err != nil {
		report.errorf(fmt.Sprintf("cocktails document: %v", err), "")
	}
	return s.run(ctx, report, drinksDoc, cocktailsDoc, opts)
}

// Run imports the given documents. Either side may be nil.
func (s *Service) Run(ctx context.Context, drinksDoc *drinkDocument, cocktailsDoc *cocktailDocument, opts Options) (*Report, error) {
	return s.run(ctx, &Report{}, drinksDoc, cocktailsDoc, opts)
}

func (s *Service) run(ctx context.Context, report *Report, drinksDoc *drinkDocument, cocktailsDoc *cocktailDocument, opts Options) (*Report, error) {
	var work []imageWork

	if drinksDoc != nil {
		work = append(work, s.importDrinks(report, drinksDoc.Drinks, opts)...)
	}
	if cocktailsDoc != nil {
		work = append(work, s.importCocktails(report, cocktailsDoc.Cocktails, opts)...)
	}

	s.resolveRelations(report)
	s.processImages(ctx, report, work, opts)

	report.Success = report.Stats.Errors == 0
	run := models.ImportRunModel{Success: report.Success, Stats: report.Stats, Logs: report.Logs}
	if err := s.db.Create(&run).Error; err != nil {
		return report, err
	}

	if s.log != nil {
		s.log.Info("import finished",
			zap.Bool("success", report.Success),
			zap.Int("drinks_created", report.Stats.DrinksCreated),
			zap.Int("drinks_updated", report.Stats.DrinksUpdated),
			zap.Int("cocktails_created", report.Stats.CocktailsCreated),
			zap.Int("cocktails_updated", report.Stats.CocktailsUpdated),
			zap.Int("errors", report.Stats.Errors),
		)
	}
	return report, nil
}

func (s *Service) importDrinks(report *Report, entries []DrinkEntry, opts Options) []imageWork {
	var work []imageWork

	for _, entry := range entries {
		slug := Slugify(entry.Slug)
		name := strings.TrimSpace(entry.Name)
		if slug == "" || name == "" {
			report.errorf("drink entry missing slug or name", entry.Slug)
			continue
		}

		var d models.DrinkModel
		err := s.db.Where("slug = ?", slug).First(&d).Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			report.errorf(fmt.Sprintf("lookup failed: %v", err), slug)
			continue
		}

		if exists && !opts.UpdateExisting {
			report.Stats.DrinksSkipped++
			report.info("drink exists, skipped", slug)
			continue
		}

		d.Slug = slug
		d.Title = name
		d.Text = entry.Description
		d.Category = strings.TrimSpace(entry.Category)
		d.VolumeML = entry.VolumeML
		d.TastingNotes = cleanList(entry.TastingNotes)
		d.Characteristics = cleanList(entry.Characteristics)
		d.SpecialNote = strings.TrimSpace(entry.SpecialNote)
		d.Color = colorOrDefault(entry.Color, models.DefaultDrinkColor)

		// the document owns the relation set: markers are rebuilt and the
		// resolved IDs re-derived from them after both sides are in
		d.PendingCocktailSlugs = slugifyList(entry.Cocktails)
		d.CocktailIDs = nil
		d.PendingFeaturedCocktailSlug = Slugify(entry.FeaturedCocktailSlug)
		d.FeaturedCocktailID = nil

		if url := strings.TrimSpace(entry.Image); url != "" && !s.slotResolved(d.ImageID, url) {
			d.ImageURL = url
		}
		if url := strings.TrimSpace(entry.CutoutImage); url != "" && !s.slotResolved(d.CutoutImageID, url) {
			d.CutoutImageURL = url
		}

		if err := s.db.Save(&d).Error; err != nil {
			report.errorf(fmt.Sprintf("save failed: %v", err), slug)
			continue
		}

		if exists {
			report.Stats.DrinksUpdated++
			report.success("drink updated", slug)
		} else {
			report.Stats.DrinksCreated++
			report.success("drink created", slug)
		}

		if d.ImageURL != "" {
			work = append(work, imageWork{media.OwnerDrink, d.ID, media.SlotImage, d.ImageURL, slug, name})
		}
		if d.CutoutImageURL != "" {
			work = append(work, imageWork{media.OwnerDrink, d.ID, media.SlotCutout, d.CutoutImageURL, slug, name + " cutout"})
		}
	}
	return work
}

func (s *Service) importCocktails(report *Report, entries []CocktailEntry, opts Options) []imageWork {
	var work []imageWork

	for _, entry := range entries {
		slug := Slugify(entry.Slug)
		name := strings.TrimSpace(entry.Name)
		if slug == "" || name == "" {
			report.errorf("cocktail entry missing slug or name", entry.Slug)
			continue
		}

		var ct models.CocktailModel
		err := s.db.Where("slug = ?", slug).First(&ct).Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			report.errorf(fmt.Sprintf("lookup failed: %v", err), slug)
			continue
		}

		if exists && !opts.UpdateExisting {
			report.Stats.CocktailsSkipped++
			report.info("cocktail exists, skipped", slug)
			continue
		}

		ct.Slug = slug
		ct.Title = name
		ct.Text = entry.Description
		ct.Tagline = strings.TrimSpace(entry.Tagline)
		ct.Ingredients = cleanList(entry.Ingredients)
		ct.Preparation = entry.Preparation
		ct.Variants = cleanList(entry.Variants)
		ct.Color = colorOrDefault(entry.Color, models.DefaultCocktailColor)

		ct.PendingDrinkSlugs = slugifyList(entry.Drinks)
		ct.DrinkIDs = nil

		if url := strings.TrimSpace(entry.Image); url != "" && !s.slotResolved(ct.ImageID, url) {
			ct.ImageURL = url
		}

		if err := s.db.Save(&ct).Error; err != nil {
			report.errorf(fmt.Sprintf("save failed: %v", err), slug)
			continue
		}

		if exists {
			report.Stats.CocktailsUpdated++
			report.success("cocktail updated", slug)
		} else {
			report.Stats.CocktailsCreated++
			report.success("cocktail created", slug)
		}

		if ct.ImageURL != "" {
			work = append(work, imageWork{media.OwnerCocktail, ct.ID, media.SlotImage, ct.ImageURL, slug, name})
		}
	}
	return work
}

// resolveRelations walks every row still carrying slug markers, not just
// the ones touched this run, so references to entries that arrived in a
// later document heal on any subsequent import.
func (s *Service) resolveRelations(report *Report) {
	drinkIdx, err := s.slugIndex(&models.DrinkModel{})
	if err != nil {
		report.errorf(fmt.Sprintf("build drink index: %v", err), "")
		return
	}
	cocktailIdx, err := s.slugIndex(&models.CocktailModel{})
	if err != nil {
		report.errorf(fmt.Sprintf("build cocktail index: %v", err), "")
		return
	}

	var drinks []models.DrinkModel
	if err := s.db.Find(&drinks).Error; err != nil {
		report.errorf(fmt.Sprintf("load drinks: %v", err), "")
		return
	}
	for i := range drinks {
		d := &drinks[i]
		if len(d.PendingCocktailSlugs) == 0 && d.PendingFeaturedCocktailSlug == "" {
			continue
		}

		ids, unresolved := ResolveSlugs(d.PendingCocktailSlugs, cocktailIdx)
		d.CocktailIDs = mergeIDs(d.CocktailIDs, ids)
		d.PendingCocktailSlugs = models.StringArray(unresolved)
		for _, slug := range unresolved {
			report.warn(fmt.Sprintf("cocktail %q not found yet, reference retained", slug), d.Slug)
		}

		if marker := d.PendingFeaturedCocktailSlug; marker != "" {
			if id, ok := cocktailIdx[marker]; ok {
				d.FeaturedCocktailID = &id
				d.PendingFeaturedCocktailSlug = ""
			} else {
				report.warn(fmt.Sprintf("featured cocktail %q not found yet, reference retained", marker), d.Slug)
			}
		}

		if err := s.db.Save(d).Error; err != nil {
			report.errorf(fmt.Sprintf("save relations: %v", err), d.Slug)
		}
	}

	var cocktails []models.CocktailModel
	if err := s.db.Find(&cocktails).Error; err != nil {
		report.errorf(fmt.Sprintf("load cocktails: %v", err), "")
		return
	}
	for i := range cocktails {
		ct := &cocktails[i]
		if len(ct.PendingDrinkSlugs) == 0 {
			continue
		}

		ids, unresolved := ResolveSlugs(ct.PendingDrinkSlugs, drinkIdx)
		ct.DrinkIDs = mergeIDs(ct.DrinkIDs, ids)
		ct.PendingDrinkSlugs = models.StringArray(unresolved)
		for _, slug := range unresolved {
			report.warn(fmt.Sprintf("drink %q not found yet, reference retained", slug), ct.Slug)
		}

		if err := s.db.Save(ct).Error; err != nil {
			report.errorf(fmt.Sprintf("save relations: %v", err), ct.Slug)
		}
	}
}

func (s *Service) processImages(ctx context.Context, report *Report, work []imageWork, opts Options) {
	for _, w := range work {
		if opts.DownloadImages {
			fetched, err := s.mediaSvc.EnsureImage(ctx, w.ownerType, w.ownerID, w.slot, media.EnsureOptions{Description: w.label})
			if err != nil {
				// the pending URL stays on the row; the integrity sweep retries it
				report.log("warning", fmt.Sprintf("image fetch failed: %v", err), w.slug, w.url)
				continue
			}
			if fetched {
				report.Stats.ImagesFetched++
			}
			continue
		}

		if err := s.mediaSvc.QueueFetch(ctx, w.ownerType, w.ownerID, w.slot, w.url); err != nil {
			report.log("warning", fmt.Sprintf("image queue failed: %v", err), w.slug, w.url)
			continue
		}
		report.Stats.ImagesQueued++
	}
}

// Runs lists persisted import reports, newest first.
func (s *Service) Runs(q pagination.Query) ([]models.ImportRunModel, response.Pagination, error) {
	db := s.db.Model(&models.ImportRunModel{}).Order("id DESC")
	var runs []models.ImportRunModel
	pag, err := pagination.Paginate(db, q, &runs)
	return runs, pag, err
}

func (s *Service) slugIndex(model interface{}) (SlugIndex, error) {
	var rows []struct {
		ID   uint
		Slug string
	}
	if err := s.db.Model(model).Select("id, slug").Find(&rows).Error; err != nil {
		return nil, err
	}
	idx := make(SlugIndex, len(rows))
	for _, r := range rows {
		idx[r.Slug] = r.ID
	}
	return idx, nil
}

// slotResolved reports whether the slot's attachment exists and was ingested
// from exactly this source URL, meaning there is nothing to re-fetch.
func (s *Service) slotResolved(id *uint, url string) bool {
	if id == nil || *id == 0 {
		return false
	}
	var a models.AttachmentModel
	if err := s.db.Select("id, source_url").First(&a, *id).Error; err != nil {
		return false
	}
	return a.SourceURL == url
}

// readDocument loads one variant's JSON file. An empty path means the variant
// was not requested; a requested file that cannot be read or parsed is an
// error the run report must surface.
func readDocument(path string, dest interface{}) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(content, dest)
}

func mergeIDs(existing, resolved models.IDList) models.IDList {
	if len(resolved) == 0 {
		return existing
	}
	merged := make(models.IDList, 0, len(existing)+len(resolved))
	seen := map[uint]bool{}
	for _, id := range existing {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range resolved {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged
}

var (
	slugInvalidPattern  = regexp.MustCompile(`[^a-z0-9-]+`)
	slugCollapsePattern = regexp.MustCompile(`-{2,}`)
)

// Slugify normalizes a raw slug: lowercase, hyphens for whitespace and
// underscores, everything else outside [a-z0-9-] stripped.
func Slugify(raw string) string {
	slug := strings.ToLower(strings.TrimSpace(raw))
	slug = strings.NewReplacer(" ", "-", "_", "-").Replace(slug)
	slug = slugInvalidPattern.ReplaceAllString(slug, "")
	slug = slugCollapsePattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func slugifyList(raw []string) models.StringArray {
	var out models.StringArray
	for _, item := range raw {
		if slug := Slugify(item); slug != "" {
			out = append(out, slug)
		}
	}
	return out
}

func cleanList(raw []string) models.StringArray {
	var out models.StringArray
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func colorOrDefault(color, fallback string) string {
	if color = strings.TrimSpace(color); color != "" {
		return color
	}
	return fallback
}
