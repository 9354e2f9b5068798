package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cryptonic-cms/core/internal/models"
	"github.com/cryptonic-cms/core/internal/pkg/objstore"
	"github.com/cryptonic-cms/core/internal/pkg/taskqueue"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service downloads remote images, stores them as attachments and keeps the
// owner rows' slot columns consistent.
type Service struct {
	db       *gorm.DB
	opts     Options
	queue    *taskqueue.Service
	uploader *objstore.Uploader
	log      *zap.Logger
	client   *http.Client
}

func NewService(db *gorm.DB, opts Options, queue *taskqueue.Service, uploader *objstore.Uploader, log *zap.Logger) *Service {
	if opts.Timeout < 1 {
		opts.Timeout = 8
	}
	if opts.MaxBytes < 1 {
		opts.MaxBytes = 10 << 20
	}
	return &Service{
		db:       db,
		opts:     opts,
		queue:    queue,
		uploader: uploader,
		log:      log,
		client:   &http.Client{Timeout: time.Duration(opts.Timeout) * time.Second},
	}
}

type slotState struct {
	ID   *uint
	URL  string
	Slug string
}

func slotColumns(ownerType, slot string) (idCol, urlCol string, err error) {
	switch ownerType {
	case OwnerDrink:
		switch slot {
		case SlotImage:
			return "image_id", "image_url", nil
		case SlotCutout:
			return "cutout_image_id", "cutout_image_url", nil
		}
		return "", "", errUnknownSlot
	case OwnerCocktail:
		if slot == SlotImage {
			return "image_id", "image_url", nil
		}
		return "", "", errUnknownSlot
	}
	return "", "", errUnknownOwner
}

func ownerTable(ownerType string) (string, error) {
	switch ownerType {
	case OwnerDrink:
		return "drinks", nil
	case OwnerCocktail:
		return "cocktails", nil
	}
	return "", errUnknownOwner
}

func (s *Service) readSlot(ownerType string, ownerID uint, slot string) (*slotState, error) {
	switch ownerType {
	case OwnerDrink:
		var d models.DrinkModel
		if err := s.db.First(&d, ownerID).Error; err != nil {
			return nil, err
		}
		switch slot {
		case SlotImage:
			return &slotState{ID: d.ImageID, URL: d.ImageURL, Slug: d.Slug}, nil
		case SlotCutout:
			return &slotState{ID: d.CutoutImageID, URL: d.CutoutImageURL, Slug: d.Slug}, nil
		}
		return nil, errUnknownSlot
	case OwnerCocktail:
		var ct models.CocktailModel
		if err := s.db.First(&ct, ownerID).Error; err != nil {
			return nil, err
		}
		if slot == SlotImage {
			return &slotState{ID: ct.ImageID, URL: ct.ImageURL, Slug: ct.Slug}, nil
		}
		return nil, errUnknownSlot
	}
	return nil, errUnknownOwner
}

// EnsureOptions tunes a single ensure pass. Force re-downloads even when the
// slot already holds a valid attachment; Description overrides the label
// derived from the owner's slug.
type EnsureOptions struct {
	Force       bool
	Description string
}

// EnsureImage makes one slot consistent: a valid attachment wins and any
// leftover pending URL is cleared; otherwise a pending URL is downloaded and
// attached. Returns whether a download happened.
func (s *Service) EnsureImage(ctx context.Context, ownerType string, ownerID uint, slot string, opts EnsureOptions) (bool, error) {
	state, err := s.readSlot(ownerType, ownerID, slot)
	if err != nil {
		return false, err
	}

	current := s.attachment(state.ID)
	if current != nil && !opts.Force {
		if state.URL == "" {
			return false, nil
		}
		if current.SourceURL == state.URL {
			// leftover pending URL for an already-ingested source
			return false, s.commitSlot(ownerType, ownerID, slot, current.ID, state.ID)
		}
		// a different source is pending: fall through and fetch it
	}

	sourceURL := strings.TrimSpace(state.URL)
	if sourceURL == "" && opts.Force && current != nil {
		sourceURL = current.SourceURL
	}
	if sourceURL == "" {
		return false, nil
	}

	if !opts.Force {
		// a previous run may already have ingested this URL for another slot
		var existing models.AttachmentModel
		err = s.db.Where("source_url = ?", sourceURL).First(&existing).Error
		if err == nil {
			return false, s.commitSlot(ownerType, ownerID, slot, existing.ID, state.ID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
	}

	attachment, err := s.fetch(ctx, ownerType, ownerID, slot, state, sourceURL, opts.Description)
	if err != nil {
		return false, err
	}
	return true, s.commitSlot(ownerType, ownerID, slot, attachment.ID, state.ID)
}

// fetch downloads one remote image and stores it as an attachment row plus a
// file under the static dir (and the S3 mirror when configured).
func (s *Service) fetch(ctx context.Context, ownerType string, ownerID uint, slot string, state *slotState, sourceURL, description string) (*models.AttachmentModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %q: %w", sourceURL, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %q: unexpected status %d", sourceURL, resp.StatusCode)
	}
	contentType := strings.TrimSpace(strings.SplitN(resp.Header.Get("Content-Type"), ";", 2)[0])
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("fetch %q: not an image (%s)", sourceURL, contentType)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, int64(s.opts.MaxBytes)+1))
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", sourceURL, err)
	}
	if len(payload) > s.opts.MaxBytes {
		return nil, fmt.Errorf("fetch %q: exceeds %d bytes", sourceURL, s.opts.MaxBytes)
	}

	fileName := buildFileName(state.Slug, sourceURL, contentType)
	publicURL, err := s.store(ctx, fileName, payload, contentType)
	if err != nil {
		return nil, err
	}

	if description == "" {
		description = strings.TrimSpace(state.Slug + " " + strings.ReplaceAll(slot, "_", " "))
	}
	attachment := models.AttachmentModel{
		FileName:    fileName,
		MIME:        contentType,
		Size:        int64(len(payload)),
		URL:         publicURL,
		SourceURL:   sourceURL,
		OwnerType:   ownerType,
		OwnerID:     ownerID,
		Description: description,
	}
	if err := s.db.Create(&attachment).Error; err != nil {
		return nil, err
	}

	if s.log != nil {
		s.log.Info("image ingested",
			zap.String("owner", ownerType),
			zap.Uint("owner_id", ownerID),
			zap.String("url", sourceURL),
			zap.Int("bytes", len(payload)),
		)
	}
	return &attachment, nil
}

func (s *Service) store(ctx context.Context, fileName string, payload []byte, contentType string) (string, error) {
	if err := os.MkdirAll(s.opts.StaticDir, 0o755); err != nil {
		return "", fmt.Errorf("create static dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.opts.StaticDir, fileName), payload, 0o644); err != nil {
		return "", fmt.Errorf("write %q: %w", fileName, err)
	}

	if s.uploader != nil {
		mirrored, err := s.uploader.Upload(ctx, fileName, payload, contentType)
		if err == nil {
			return mirrored, nil
		}
		if s.log != nil {
			s.log.Warn("s3 mirror failed, serving locally", zap.String("file", fileName), zap.Error(err))
		}
	}
	return "/objects/" + fileName, nil
}

// commitSlot writes the resolved attachment ID and clears the pending URL.
// The primary image is promoted to featured when none is set yet, and when
// the featured image still points at the attachment being replaced it follows
// the new one.
func (s *Service) commitSlot(ownerType string, ownerID uint, slot string, attachmentID uint, prevID *uint) error {
	table, err := ownerTable(ownerType)
	if err != nil {
		return err
	}
	idCol, urlCol, err := slotColumns(ownerType, slot)
	if err != nil {
		return err
	}

	if err := s.db.Table(table).Where("id = ?", ownerID).Updates(map[string]interface{}{
		idCol:  attachmentID,
		urlCol: "",
	}).Error; err != nil {
		return err
	}

	if slot == SlotImage {
		promote := s.db.Table(table)
		if prevID != nil && *prevID != 0 {
			promote = promote.Where("id = ? AND (featured_image_id IS NULL OR featured_image_id = ?)", ownerID, *prevID)
		} else {
			promote = promote.Where("id = ? AND featured_image_id IS NULL", ownerID)
		}
		return promote.Update("featured_image_id", attachmentID).Error
	}
	return nil
}

func (s *Service) attachmentValid(id *uint) bool {
	return s.attachment(id) != nil
}

func (s *Service) attachment(id *uint) *models.AttachmentModel {
	if id == nil || *id == 0 {
		return nil
	}
	var a models.AttachmentModel
	if err := s.db.First(&a, *id).Error; err != nil {
		return nil
	}
	return &a
}

// QueueFetch records a deferred download for one slot.
func (s *Service) QueueFetch(ctx context.Context, ownerType string, ownerID uint, slot, url string) error {
	if s.queue == nil {
		return errors.New("image queue not configured")
	}
	_, err := s.queue.Enqueue(ctx, ownerType, ownerID, slot, url)
	return err
}

// ProcessPending drains the deferred-download queue.
func (s *Service) ProcessPending(ctx context.Context) (fetched, failed int, err error) {
	if s.queue == nil {
		return 0, 0, nil
	}
	tasks, err := s.queue.Pending(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, task := range tasks {
		if task.Status == taskqueue.TaskRunning {
			continue
		}
		_ = s.queue.UpdateStatus(ctx, task.ID, taskqueue.TaskRunning, "")
		if _, ensureErr := s.EnsureImage(ctx, task.OwnerType, task.OwnerID, task.Slot, EnsureOptions{}); ensureErr != nil {
			failed++
			_ = s.queue.UpdateStatus(ctx, task.ID, taskqueue.TaskFailed, ensureErr.Error())
			if s.log != nil {
				s.log.Warn("deferred image fetch failed",
					zap.String("owner", task.OwnerType),
					zap.Uint("owner_id", task.OwnerID),
					zap.String("url", task.URL),
					zap.Error(ensureErr),
				)
			}
			continue
		}
		fetched++
		_ = s.queue.UpdateStatus(ctx, task.ID, taskqueue.TaskCompleted, "")
	}
	return fetched, failed, nil
}

// PendingImages lists every slot still waiting for a download.
func (s *Service) PendingImages() ([]PendingImage, error) {
	var out []PendingImage

	var drinks []models.DrinkModel
	if err := s.db.Where("image_url <> '' OR cutout_image_url <> ''").Find(&drinks).Error; err != nil {
		return nil, err
	}
	for _, d := range drinks {
		if d.ImageURL != "" {
			out = append(out, PendingImage{OwnerType: OwnerDrink, OwnerID: d.ID, Slug: d.Slug, Slot: SlotImage, URL: d.ImageURL})
		}
		if d.CutoutImageURL != "" {
			out = append(out, PendingImage{OwnerType: OwnerDrink, OwnerID: d.ID, Slug: d.Slug, Slot: SlotCutout, URL: d.CutoutImageURL})
		}
	}

	var cocktails []models.CocktailModel
	if err := s.db.Where("image_url <> ''").Find(&cocktails).Error; err != nil {
		return nil, err
	}
	for _, ct := range cocktails {
		out = append(out, PendingImage{OwnerType: OwnerCocktail, OwnerID: ct.ID, Slug: ct.Slug, Slot: SlotImage, URL: ct.ImageURL})
	}
	return out, nil
}

// VerifyIntegrity sweeps every image slot and re-ensures the ones left in a
// pending or broken state, such as an attachment row deleted underneath a
// resolved slot.
func (s *Service) VerifyIntegrity(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}

	var drinks []models.DrinkModel
	if err := s.db.Find(&drinks).Error; err != nil {
		return nil, err
	}
	for _, d := range drinks {
		s.sweepSlot(ctx, report, OwnerDrink, d.ID, d.Slug, SlotImage, d.ImageID, d.ImageURL)
		s.sweepSlot(ctx, report, OwnerDrink, d.ID, d.Slug, SlotCutout, d.CutoutImageID, d.CutoutImageURL)
	}

	var cocktails []models.CocktailModel
	if err := s.db.Find(&cocktails).Error; err != nil {
		return nil, err
	}
	for _, ct := range cocktails {
		s.sweepSlot(ctx, report, OwnerCocktail, ct.ID, ct.Slug, SlotImage, ct.ImageID, ct.ImageURL)
	}

	s.recordSweep(report)
	return report, nil
}

// recordSweep persists the last sweep outcome so it survives restarts.
func (s *Service) recordSweep(report *SweepReport) {
	payload, err := json.Marshal(struct {
		Time time.Time `json:"time"`
		*SweepReport
	}{Time: time.Now(), SweepReport: report})
	if err != nil {
		return
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.OptionModel{Name: "last_image_sweep", Value: string(payload)}).Error
	if err != nil && s.log != nil {
		s.log.Warn("failed to record sweep result", zap.Error(err))
	}
}

// LastSweep returns the persisted outcome of the most recent integrity sweep,
// or nil when none has run yet.
func (s *Service) LastSweep() (json.RawMessage, error) {
	var opt models.OptionModel
	if err := s.db.Where("name = ?", "last_image_sweep").First(&opt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return json.RawMessage(opt.Value), nil
}

func (s *Service) sweepSlot(ctx context.Context, report *SweepReport, ownerType string, ownerID uint, slug, slot string, id *uint, pendingURL string) {
	report.Checked++

	needsWork := pendingURL != "" || (id != nil && *id != 0 && !s.attachmentValid(id))
	if !needsWork {
		return
	}
	if pendingURL == "" {
		// broken reference with no source to re-fetch from
		report.Failed++
		report.Problems = append(report.Problems, fmt.Sprintf("%s %q: %s attachment missing and no source url", ownerType, slug, slot))
		return
	}

	if _, err := s.EnsureImage(ctx, ownerType, ownerID, slot, EnsureOptions{}); err != nil {
		report.Failed++
		report.Problems = append(report.Problems, fmt.Sprintf("%s %q: %s: %v", ownerType, slug, slot, err))
		return
	}
	report.Healed++
}

// buildFileName derives a collision-free local name from the slug, the
// source URL's basename and the content type.
func buildFileName(slug, rawURL, contentType string) string {
	base := ""
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
	}
	ext := filepath.Ext(base)
	if ext == "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		} else {
			ext = ".img"
		}
	}

	prefix := strings.TrimSpace(slug)
	if prefix == "" {
		prefix = "image"
	}
	return fmt.Sprintf("%s-%s%s", prefix, uuid.NewString()[:8], ext)
}
