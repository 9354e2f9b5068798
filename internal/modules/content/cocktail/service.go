package cocktail

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

func (s *Service) List(q pagination.Query) ([]models.CocktailModel, response.Pagination, error) {
	db := s.db.Model(&models.CocktailModel{}).Order("title ASC")

	var cocktails []models.CocktailModel
	pag, err := pagination.Paginate(db, q, &cocktails)
	return cocktails, pag, err
}

func (s *Service) GetBySlug(slug string) (*models.CocktailModel, error) {
	var ct models.CocktailModel
	if err := s.db.Where("slug = ?", slug).First(&ct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ct, nil
}

// ToResponses builds API shapes, resolving image slots and drink
// references in bulk.
func (s *Service) ToResponses(cocktails []models.CocktailModel, withHTML bool) ([]cocktailResponse, error) {
	attachmentIDs := make([]uint, 0, len(cocktails)*2)
	drinkIDs := make([]uint, 0, len(cocktails)*2)
	for i := range cocktails {
		for _, id := range []*uint{cocktails[i].ImageID, cocktails[i].FeaturedImageID} {
			if id != nil && *id != 0 {
				attachmentIDs = append(attachmentIDs, *id)
			}
		}
		drinkIDs = append(drinkIDs, cocktails[i].DrinkIDs...)
	}

	urls, err := attachmentURLs(s.db, attachmentIDs)
	if err != nil {
		return nil, err
	}
	refs, err := drinkRefs(s.db, drinkIDs)
	if err != nil {
		return nil, err
	}

	out := make([]cocktailResponse, len(cocktails))
	for i := range cocktails {
		ct := &cocktails[i]
		resp := cocktailResponse{
			ID:               ct.ID,
			Slug:             ct.Slug,
			Title:            ct.Title,
			Text:             ct.Text,
			Tagline:          ct.Tagline,
			Ingredients:      emptyIfNil(ct.Ingredients),
			Preparation:      ct.Preparation,
			Variants:         emptyIfNil(ct.Variants),
			Color:            ct.Color,
			ImageURL:         slotURL(urls, ct.ImageID, ct.ImageURL),
			FeaturedImageURL: slotURL(urls, ct.FeaturedImageID, ""),
			Drinks:           make([]relatedRef, 0, len(ct.DrinkIDs)),
			Created:          ct.CreatedAt,
			Modified:         ct.UpdatedAt,
		}
		if withHTML {
			resp.HTML = markdown.Render(ct.Text)
		}
		for _, id := range ct.DrinkIDs {
			if ref, ok := refs[id]; ok {
				resp.Drinks = append(resp.Drinks, ref)
			}
		}
		out[i] = resp
	}
	return out, nil
}

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

func drinkRefs(db *gorm.DB, ids []uint) (map[uint]relatedRef, error) {
	refs := map[uint]relatedRef{}
	if len(ids) == 0 {
		return refs, nil
	}
	var drinks []models.DrinkModel
	if err := db.Select("id, slug, title").Where("id IN ?", ids).Find(&drinks).Error; err != nil {
		return nil, err
	}
	for _, d := range drinks {
		refs[d.ID] = relatedRef{ID: d.ID, Slug: d.Slug, Title: d.Title}
	}
	return refs, nil
}
