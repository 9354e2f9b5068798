package drink

import (
	"errors"

	"github.com/cryptonic-cms/core/internal/models"
	"github.com/cryptonic-cms/core/internal/modules/markdown"
	"github.com/cryptonic-cms/core/internal/pkg/pagination"
	"github.com/cryptonic-cms/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(q pagination.Query, lq ListQuery) ([]models.DrinkModel, response.Pagination, error) {
	db := s.db.Model(&models.DrinkModel{}).Order("title ASC")
	if lq.Category != nil && *lq.Category != "" {
		db = db.Where("category = ?", *lq.Category)
	}

	var drinks []models.DrinkModel
	pag, err := pagination.Paginate(db, q, &drinks)
	return drinks, pag, err
}

func (s *Service) GetBySlug(slug string) (*models.DrinkModel, error) {
	var d models.DrinkModel
	if err := s.db.Where("slug = ?", slug).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// ToResponses builds API shapes, resolving image slots and cocktail
// references in bulk so a list page costs three queries total.
func (s *Service) ToResponses(drinks []models.DrinkModel, withHTML bool) ([]drinkResponse, error) {
	attachmentIDs := make([]uint, 0, len(drinks)*3)
	cocktailIDs := make([]uint, 0, len(drinks)*2)
	for i := range drinks {
		for _, id := range []*uint{drinks[i].ImageID, drinks[i].CutoutImageID, drinks[i].FeaturedImageID} {
			if id != nil && *id != 0 {
				attachmentIDs = append(attachmentIDs, *id)
			}
		}
		cocktailIDs = append(cocktailIDs, drinks[i].CocktailIDs...)
		if drinks[i].FeaturedCocktailID != nil {
			cocktailIDs = append(cocktailIDs, *drinks[i].FeaturedCocktailID)
		}
	}

	urls, err := attachmentURLs(s.db, attachmentIDs)
	if err != nil {
		return nil, err
	}
	refs, err := cocktailRefs(s.db, cocktailIDs)
	if err != nil {
		return nil, err
	}

	out := make([]drinkResponse, len(drinks))
	for i := range drinks {
		d := &drinks[i]
		resp := drinkResponse{
			ID:               d.ID,
			Slug:             d.Slug,
			Title:            d.Title,
			Text:             d.Text,
			Category:         d.Category,
			VolumeML:         d.VolumeML,
			TastingNotes:     emptyIfNil(d.TastingNotes),
			Characteristics:  emptyIfNil(d.Characteristics),
			SpecialNote:      d.SpecialNote,
			Color:            d.Color,
			ImageURL:         slotURL(urls, d.ImageID, d.ImageURL),
			CutoutImageURL:   slotURL(urls, d.CutoutImageID, d.CutoutImageURL),
			FeaturedImageURL: slotURL(urls, d.FeaturedImageID, ""),
			Cocktails:        make([]relatedRef, 0, len(d.CocktailIDs)),
			Created:          d.CreatedAt,
			Modified:         d.UpdatedAt,
		}
		if withHTML {
			resp.HTML = markdown.Render(d.Text)
		}
		if d.FeaturedCocktailID != nil {
			if ref, ok := refs[*d.FeaturedCocktailID]; ok {
				resp.FeaturedCocktail = &ref
			}
		}
		for _, id := range d.CocktailIDs {
			if ref, ok := refs[id]; ok {
				resp.Cocktails = append(resp.Cocktails, ref)
			}
		}
		out[i] = resp
	}
	return out, nil
}

// slotURL prefers the ingested attachment, falling back to the pending
// source URL so entries stay renderable before downloads complete.
func slotURL(urls map[uint]string, id *uint, pendingURL string) string {
	if id != nil {
		if url, ok := urls[*id]; ok {
			return url
		}
	}
	return pendingURL
}

func emptyIfNil(a models.StringArray) models.StringArray {
	if a == nil {
		return models.StringArray{}
	}
	return a
}

func attachmentURLs(db *gorm.DB, ids []uint) (map[uint]string, error) {
	urls := map[uint]string{}
	if len(ids) == 0 {
		return urls, nil
	}
	var attachments []models.AttachmentModel
	if err := db.Select("id, url").Where("id IN ?", ids).Find(&attachments).Error; err != nil {
		return nil, err
	}
	for _, a := range attachments {
		urls[a.ID] = a.URL
	}
	return urls, nil
}

func cocktailRefs(db *gorm.DB, ids []uint) (map[uint]relatedRef, error) {
	refs := map[uint]relatedRef{}
	if len(ids) == 0 {
		return refs, nil
	}
	var cocktails []models.CocktailModel
	if err := db.Select("id, slug, title").Where("id IN ?", ids).Find(&cocktails).Error; err != nil {
		return nil, err
	}
	for _, ct := range cocktails {
		refs[ct.ID] = relatedRef{ID: ct.ID, Slug: ct.Slug, Title: ct.Title}
	}
	return refs, nil
}
