package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	catalogerrors "eatme/internal/catalog/errors"
	"eatme/internal/catalog/repository"
	"eatme/internal/catalog/validator"
	"eatme/pkg/config"
	apperrors "eatme/pkg/errors"
	"eatme/pkg/logger"
	"eatme/pkg/model"
)

type mockMenuRepository struct {
	mu        sync.Mutex
	items     map[string]*model.MenuItem
	lastLimit int
	createErr error
}

func newMockMenuRepository(items ...*model.MenuItem) *mockMenuRepository {
	m := &mockMenuRepository{items: map[string]*model.MenuItem{}}
	for _, item := range items {
		m.items[item.ID] = item
	}
	return m
}

func (m *mockMenuRepository) Create(ctx context.Context, item *model.MenuItem) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = "item-" + item.Name
	m.items[item.ID] = item
	return nil
}

func (m *mockMenuRepository) FindByID(ctx context.Context, id string) (*model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "bad" {
		return nil, catalogerrors.ErrInvalidID
	}
	item, ok := m.items[id]
	if !ok {
		return nil, catalogerrors.ErrNotFound
	}
	return item, nil
}

func (m *mockMenuRepository) FindAll(ctx context.Context, filter repository.Filter, limit int, offset int64) ([]*model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	return m.matching(filter), nil
}

func (m *mockMenuRepository) Count(ctx context.Context, filter repository.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.matching(filter))), nil
}

func (m *mockMenuRepository) matching(filter repository.Filter) []*model.MenuItem {
	out := []*model.MenuItem{}
	for _, item := range m.items {
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if !filter.IncludeUnavailable && !item.Available {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (m *mockMenuRepository) SetAvailability(ctx context.Context, id string, available bool) (*model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, catalogerrors.ErrNotFound
	}
	item.Available = available
	return item, nil
}

func (m *mockMenuRepository) SetImageURL(ctx context.Context, id, url string) (*model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, catalogerrors.ErrNotFound
	}
	item.ImageURL = url
	return item, nil
}

type mockUploader struct {
	key         string
	contentType string
	body        string
	err         error
}

func (u *mockUploader) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	raw, _ := io.ReadAll(body)
	u.key, u.contentType, u.body = key, contentType, string(raw)
	return "https://cdn.eatme.test/" + key, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log:          logger.Discard(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func menuFixture() *mockMenuRepository {
	return newMockMenuRepository(
		&model.MenuItem{ID: "jollof", Name: "Jollof Rice", Category: "mains", Price: 45.5, Available: true},
		&model.MenuItem{ID: "waakye", Name: "Waakye", Category: "mains", Price: 30, Available: false},
		&model.MenuItem{ID: "kelewele", Name: "Kelewele", Category: "sides", Price: 20, Available: true},
	)
}

func newTestService(repo repository.MenuRepository, uploader *mockUploader) MenuService {
	cfg := testConfig()
	if uploader == nil {
		return NewMenuService(repo, nil, validator.NewMenuValidator(cfg.Log), cfg)
	}
	return NewMenuService(repo, uploader, validator.NewMenuValidator(cfg.Log), cfg)
}

func TestList_FiltersAndNormalizes(t *testing.T) {
	repo := menuFixture()
	svc := newTestService(repo, nil)

	tests := []struct {
		name   string
		filter repository.Filter
		want   int64
	}{
		{"everything available", repository.Filter{}, 2},
		{"category is normalized", repository.Filter{Category: "  MAINS "}, 1},
		{"admin view includes unavailable", repository.Filter{Category: "mains", IncludeUnavailable: true}, 2},
		{"unknown category", repository.Filter{Category: "drinks"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, count, err := svc.List(context.Background(), tt.filter, 1000, -5)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if count != tt.want || int64(len(items)) != tt.want {
				t.Errorf("got %d items (count %d), want %d", len(items), count, tt.want)
			}
			if repo.lastLimit != 100 {
				t.Errorf("limit = %d, want 100", repo.lastLimit)
			}
		})
	}
}

func TestGetByID_ErrorMapping(t *testing.T) {
	svc := newTestService(menuFixture(), nil)

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"empty", " ", http.StatusBadRequest},
		{"invalid", "bad", http.StatusBadRequest},
		{"missing", "fufu", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetByID(context.Background(), tt.id)
			appErr := apperrors.AsAppError(err)
			if appErr == nil || appErr.HTTPStatus != tt.status {
				t.Errorf("expected status %d, got %v", tt.status, err)
			}
		})
	}

	item, err := svc.GetByID(context.Background(), "jollof")
	if err != nil || item.Price != 45.5 {
		t.Errorf("GetByID(jollof) = %+v, %v", item, err)
	}
}

func TestCreate(t *testing.T) {
	repo := newMockMenuRepository()
	svc := newTestService(repo, nil)

	item, err := svc.Create(context.Background(), &model.MenuItemCreate{
		Name:     "  Red   Red ",
		Category: " Mains",
		Price:    35,
		ImageURL: "http://CDN.example.com/redred.png",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.Name != "Red Red" || item.Category != "mains" {
		t.Errorf("not sanitized: %+v", item)
	}
	if item.ImageURL != "https://cdn.example.com/redred.png" {
		t.Errorf("image url = %q", item.ImageURL)
	}
	if !item.Available {
		t.Error("new items should default to available")
	}

	_, err = svc.Create(context.Background(), &model.MenuItemCreate{Name: "x", Category: "mains"})
	if appErr := apperrors.AsAppError(err); appErr == nil || appErr.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected validation error, got %v", err)
	}

	repo.createErr = errors.New("connection reset")
	_, err = svc.Create(context.Background(), &model.MenuItemCreate{Name: "Banku", Category: "mains", Price: 25})
	if appErr := apperrors.AsAppError(err); appErr == nil || appErr.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestSetAvailability(t *testing.T) {
	svc := newTestService(menuFixture(), nil)

	yes := true
	item, err := svc.SetAvailability(context.Background(), "waakye", &model.AvailabilityUpdate{Available: &yes})
	if err != nil {
		t.Fatalf("set availability: %v", err)
	}
	if !item.Available {
		t.Error("expected waakye to be available")
	}

	if _, err := svc.SetAvailability(context.Background(), "waakye", &model.AvailabilityUpdate{}); err == nil {
		t.Error("expected validation error when available is missing")
	}
	if _, err := svc.SetAvailability(context.Background(), "fufu", &model.AvailabilityUpdate{Available: &yes}); apperrors.AsAppError(err).HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestUploadImage(t *testing.T) {
	uploader := &mockUploader{}
	svc := newTestService(menuFixture(), uploader)

	item, err := svc.UploadImage(context.Background(), "jollof", &Image{
		Filename:    "jollof.png",
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("\x89PNG"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(uploader.key, "menu/jollof/") || !strings.HasSuffix(uploader.key, ".png") {
		t.Errorf("key = %q", uploader.key)
	}
	if item.ImageURL != "https://cdn.eatme.test/"+uploader.key {
		t.Errorf("image url = %q", item.ImageURL)
	}
}

func TestUploadImage_Rejections(t *testing.T) {
	png := func() *Image {
		return &Image{Filename: "a.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x")}
	}

	tests := []struct {
		name     string
		uploader *mockUploader
		id       string
		img      *Image
		status   int
	}{
		{"storage not configured", nil, "jollof", png(), http.StatusServiceUnavailable},
		{"not an image", &mockUploader{}, "jollof", &Image{ContentType: "application/pdf", Size: 1, Body: strings.NewReader("x")}, http.StatusUnsupportedMediaType},
		{"empty file", &mockUploader{}, "jollof", &Image{ContentType: "image/jpeg", Body: strings.NewReader("")}, http.StatusBadRequest},
		{"unknown item", &mockUploader{}, "fufu", png(), http.StatusNotFound},
		{"upload fails", &mockUploader{err: errors.New("denied")}, "jollof", png(), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(menuFixture(), tt.uploader)
			_, err := svc.UploadImage(context.Background(), tt.id, tt.img)
			appErr := apperrors.AsAppError(err)
			if appErr == nil || appErr.HTTPStatus != tt.status {
				t.Errorf("expected status %d, got %v", tt.status, err)
			}
		})
	}
}
