package service

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"sync"

	catalogerrors "eatme/internal/catalog/errors"
	"eatme/internal/catalog/repository"
	"eatme/internal/catalog/validator"
	"eatme/pkg/blob"
	"eatme/pkg/config"
	apperrors "eatme/pkg/errors"
	httputil "eatme/pkg/http"
	"eatme/pkg/model"
	"eatme/pkg/sanitizer"

	"github.com/google/uuid"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Image is an uploaded file as read from the multipart form.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type MenuService interface {
	List(ctx context.Context, filter repository.Filter, limit int, offset int64) ([]*model.MenuItem, int64, error)
	GetByID(ctx context.Context, id string) (*model.MenuItem, error)
	Create(ctx context.Context, req *model.MenuItemCreate) (*model.MenuItem, error)
	SetAvailability(ctx context.Context, id string, req *model.AvailabilityUpdate) (*model.MenuItem, error)
	UploadImage(ctx context.Context, id string, img *Image) (*model.MenuItem, error)
}

type menuService struct {
	repo      repository.MenuRepository
	uploader  blob.Uploader
	validator *validator.MenuValidator
	cfg       *config.Config
}

// NewMenuService builds the catalog service. A nil uploader disables image uploads.
func NewMenuService(
	repo repository.MenuRepository,
	uploader blob.Uploader,
	validator *validator.MenuValidator,
	cfg *config.Config,
) MenuService {
	return &menuService{
		repo:      repo,
		uploader:  uploader,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *menuService) List(ctx context.Context, filter repository.Filter, limit int, offset int64) ([]*model.MenuItem, int64, error) {
	filter.Category = sanitizer.NormalizeCategory(filter.Category)
	limit = httputil.NormalizeLimit(limit)
	offset = max(0, offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var items []*model.MenuItem
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(sharedCtx, filter)
	}()

	go func() {
		defer wg.Done()
		items, errFind = s.repo.FindAll(sharedCtx, filter, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count menu items", "category", filter.Category, "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count menu items", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list menu items", "category", filter.Category, "error", errFind)
		return nil, 0, apperrors.Internal("Failed to retrieve menu", errFind)
	}
	return items, count, nil
}

func (s *menuService) GetByID(ctx context.Context, id string) (*model.MenuItem, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("Menu item ID cannot be empty")
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve menu item")
	}
	return item, nil
}

func (s *menuService) Create(ctx context.Context, req *model.MenuItemCreate) (*model.MenuItem, error) {
	req.Name = sanitizer.NormalizeName(req.Name)
	req.Description = sanitizer.TrimAndNormalize(req.Description)
	req.Category = sanitizer.NormalizeCategory(req.Category)
	req.ImageURL = sanitizer.NormalizeURL(req.ImageURL)
	req.ImageHint = sanitizer.TrimAndNormalize(req.ImageHint)

	if err := s.validate(req, "Menu item"); err != nil {
		return nil, err
	}

	item := req.ToMenuItem()
	if err := s.repo.Create(ctx, item); err != nil {
		s.cfg.Log.Error("Failed to create menu item", "name", item.Name, "error", err)
		return nil, apperrors.Internal("Failed to create menu item", err)
	}

	s.cfg.Log.Info("Menu item created", "id", item.ID, "name", item.Name, "category", item.Category)
	return item, nil
}

func (s *menuService) SetAvailability(ctx context.Context, id string, req *model.AvailabilityUpdate) (*model.MenuItem, error) {
	if err := s.validate(req, "Availability"); err != nil {
		return nil, err
	}

	item, err := s.repo.SetAvailability(ctx, id, *req.Available)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update menu item")
	}

	s.cfg.Log.Info("Menu item availability changed", "id", id, "available", item.Available)
	return item, nil
}

// UploadImage stores img under menu/<id>/ and points the item at its public URL.
func (s *menuService) UploadImage(ctx context.Context, id string, img *Image) (*model.MenuItem, error) {
	if s.uploader == nil {
		return nil, apperrors.Unavailable("Image storage")
	}

	ext, ok := imageExtensions[img.ContentType]
	if !ok {
		return nil, apperrors.UnsupportedMediaType("Image must be JPEG, PNG or WebP")
	}
	if img.Size <= 0 {
		return nil, apperrors.InvalidInput("Image cannot be empty")
	}

	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	key := path.Join("menu", id, uuid.NewString()+ext)
	url, err := s.uploader.Upload(ctx, key, img.ContentType, img.Body, img.Size)
	if err != nil {
		s.cfg.Log.Error("Failed to upload menu image", "id", id, "key", key, "error", err)
		return nil, apperrors.Unavailable("Image storage")
	}

	item, err := s.repo.SetImageURL(ctx, id, url)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update menu item")
	}

	s.cfg.Log.Info("Menu image uploaded", "id", id, "filename", img.Filename, "url", url)
	return item, nil
}

func (s *menuService) validate(req any, what string) error {
	if err := s.validator.Validate(req); err != nil {
		return apperrors.Validation(what+" validation failed", map[string]any{
			"error": err.Error(),
		})
	}
	return nil
}

func (s *menuService) mapRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, catalogerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Menu item", id)
	case errors.Is(err, catalogerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid menu item ID format")
	default:
		s.cfg.Log.Error(message, "id", id, "error", err)
		return apperrors.Internal(message, err)
	}
}
