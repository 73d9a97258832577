package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eatme/internal/pricing"
	"eatme/internal/reservations/service"
	apperrors "eatme/pkg/errors"
	httputil "eatme/pkg/http"
	"eatme/pkg/logger"
	"eatme/pkg/middleware"
	"eatme/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockReservationService struct {
	submitFunc    func(ctx context.Context, uid string) (*model.Reservation, error)
	setStatusFunc func(ctx context.Context, id string, update *model.StatusUpdate) (*service.StatusResult, error)
	updateFunc    func(ctx context.Context, uid string, update *model.DraftUpdate) (*service.DraftView, []string, error)
	listAllFunc   func(ctx context.Context, status model.ReservationStatus, limit int, offset int64) ([]*model.Reservation, int64, error)
}

func (m *mockReservationService) GetDraft(ctx context.Context, uid string) (*service.DraftView, error) {
	return &service.DraftView{}, nil
}

func (m *mockReservationService) UpdateDraft(ctx context.Context, uid string, update *model.DraftUpdate) (*service.DraftView, []string, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, uid, update)
	}
	return &service.DraftView{}, nil, nil
}

func (m *mockReservationService) CancelDraft(ctx context.Context, uid string) error { return nil }

func (m *mockReservationService) Pricing() pricing.Config { return pricing.Defaults() }

func (m *mockReservationService) Quote(duration string, band model.GuestBand) pricing.Quote {
	return pricing.Compute(duration, band, pricing.Defaults())
}

func (m *mockReservationService) Submit(ctx context.Context, uid string) (*model.Reservation, error) {
	return m.submitFunc(ctx, uid)
}

func (m *mockReservationService) SetStatus(ctx context.Context, id string, update *model.StatusUpdate) (*service.StatusResult, error) {
	return m.setStatusFunc(ctx, id, update)
}

func (m *mockReservationService) GetByID(ctx context.Context, id, uid string, isAdmin bool) (*model.Reservation, error) {
	return &model.Reservation{ID: id}, nil
}

func (m *mockReservationService) ListMine(ctx context.Context, uid string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	return []*model.Reservation{}, 0, nil
}

func (m *mockReservationService) ListAll(ctx context.Context, status model.ReservationStatus, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx, status, limit, offset)
	}
	return []*model.Reservation{}, 0, nil
}

func newRouter(svc service.ReservationService) *httprouter.Router {
	router := httprouter.New()
	NewReservationHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func as(req *http.Request, uid, role string) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{UID: uid, Role: role}))
}

func TestSubmit_RequiresAuthentication(t *testing.T) {
	called := false
	router := newRouter(&mockReservationService{
		submitFunc: func(ctx context.Context, uid string) (*model.Reservation, error) {
			called = true
			return &model.Reservation{}, nil
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if called {
		t.Error("service must not be reached without a user")
	}
}

func TestSubmit_RetryableFailure(t *testing.T) {
	router := newRouter(&mockReservationService{
		submitFunc: func(ctx context.Context, uid string) (*model.Reservation, error) {
			return nil, apperrors.RetryLater("Reservation could not be submitted, please try again", nil)
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil), "u1", ""))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body httputil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Details["retry"] != true {
		t.Errorf("expected retry detail, got %+v", body.Details)
	}
}

func TestSubmit_CreatedForUser(t *testing.T) {
	var gotUID string
	router := newRouter(&mockReservationService{
		submitFunc: func(ctx context.Context, uid string) (*model.Reservation, error) {
			gotUID = uid
			return &model.Reservation{ID: "r1", UID: uid, Status: model.StatusPending}, nil
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil), "u1", ""))

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if gotUID != "u1" {
		t.Errorf("uid = %q, want u1", gotUID)
	}
}

func TestSetStatus_AdminOnly(t *testing.T) {
	router := newRouter(&mockReservationService{
		setStatusFunc: func(ctx context.Context, id string, update *model.StatusUpdate) (*service.StatusResult, error) {
			return &service.StatusResult{Reservation: &model.Reservation{ID: id, Status: update.Status}}, nil
		},
	})

	body := `{"status":"Confirmed"}`
	tests := []struct {
		name string
		role string
		want int
	}{
		{"customer", middleware.RoleCustomer, http.StatusForbidden},
		{"admin", middleware.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/reservations/r1/status", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, as(req, "someone", tt.role))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSetStatus_BonusWarningIsSuccess(t *testing.T) {
	router := newRouter(&mockReservationService{
		setStatusFunc: func(ctx context.Context, id string, update *model.StatusUpdate) (*service.StatusResult, error) {
			return &service.StatusResult{
				Reservation:  &model.Reservation{ID: id, Status: model.StatusConfirmed},
				BonusWarning: "bonus failed",
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/reservations/r1/status", strings.NewReader(`{"status":"Confirmed"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, as(req, "admin-1", middleware.RoleAdmin))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp httputil.SuccessResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0] != "bonus failed" {
		t.Errorf("warnings = %v", resp.Warnings)
	}
}

func TestUpdateDraft_InvalidBody(t *testing.T) {
	router := newRouter(&mockReservationService{})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/reservation-draft", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, as(req, "u1", ""))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListAll_InvalidPaging(t *testing.T) {
	router := newRouter(&mockReservationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/reservations?limit=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, as(req, "a", middleware.RoleAdmin))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestQuote_Public(t *testing.T) {
	router := newRouter(&mockReservationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing/quote?duration=3hrs&guests=9-15+guests", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Data pricing.Quote `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Total != 650 {
		t.Errorf("total = %v, want 650", resp.Data.Total)
	}
}
