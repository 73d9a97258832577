package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"eatme/internal/loyalty"
	"eatme/internal/pricing"
	"eatme/internal/reservations/draft"
	reservationerrors "eatme/internal/reservations/errors"
	"eatme/internal/reservations/repository"
	"eatme/internal/reservations/validator"
	"eatme/pkg/config"
	apperrors "eatme/pkg/errors"
	"eatme/pkg/events"
	httputil "eatme/pkg/http"
	"eatme/pkg/model"
	"eatme/pkg/sanitizer"
	"eatme/pkg/storage"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	draftNotSavedWarning = "Draft changes could not be saved and may be lost"
	bonusFailedWarning   = "Birthday bonus could not be awarded; it will be retried on the next confirmation"
)

// DraftView is a draft together with its current price.
type DraftView struct {
	Draft         model.ReservationDraft `json:"draft"`
	Quote         pricing.Quote          `json:"quote"`
	DetailsFilled bool                   `json:"details_filled"`
}

type StatusResult struct {
	Reservation  *model.Reservation `json:"reservation"`
	BonusAwarded bool               `json:"bonus_awarded"`
	BonusWarning string             `json:"bonus_warning,omitempty"`
}

type ReservationService interface {
	GetDraft(ctx context.Context, uid string) (*DraftView, error)
	// UpdateDraft returns warnings when the merge applied but could not be persisted.
	UpdateDraft(ctx context.Context, uid string, update *model.DraftUpdate) (*DraftView, []string, error)
	CancelDraft(ctx context.Context, uid string) error
	Pricing() pricing.Config
	Quote(duration string, band model.GuestBand) pricing.Quote
	Submit(ctx context.Context, uid string) (*model.Reservation, error)
	SetStatus(ctx context.Context, id string, update *model.StatusUpdate) (*StatusResult, error)
	GetByID(ctx context.Context, id, uid string, isAdmin bool) (*model.Reservation, error)
	ListMine(ctx context.Context, uid string, limit int, offset int64) ([]*model.Reservation, int64, error)
	ListAll(ctx context.Context, status model.ReservationStatus, limit int, offset int64) ([]*model.Reservation, int64, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	loyalty   loyalty.Repository
	store     storage.Store
	pricing   draft.ConfigSource
	validator *validator.ReservationValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	loyaltyRepo loyalty.Repository,
	store storage.Store,
	pricingSource draft.ConfigSource,
	validator *validator.ReservationValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &reservationService{
		repo:      repo,
		loyalty:   loyaltyRepo,
		store:     store,
		pricing:   pricingSource,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *reservationService) loadDraft(ctx context.Context, uid string) (*draft.Manager, error) {
	if uid == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	m := draft.NewManager(s.store, uid, s.pricing)
	if err := m.Load(ctx); err != nil {
		s.cfg.Log.Error("Failed to load reservation draft", "uid", uid, "error", err)
		return nil, apperrors.Unavailable("Draft storage")
	}
	return m, nil
}

func view(m *draft.Manager) *DraftView {
	d := m.Draft()
	return &DraftView{
		Draft:         d,
		Quote:         m.Total(),
		DetailsFilled: d.IsDetailsFilled(),
	}
}

func (s *reservationService) GetDraft(ctx context.Context, uid string) (*DraftView, error) {
	m, err := s.loadDraft(ctx, uid)
	if err != nil {
		return nil, err
	}
	return view(m), nil
}

func (s *reservationService) UpdateDraft(ctx context.Context, uid string, update *model.DraftUpdate) (*DraftView, []string, error) {
	if err := s.validator.ValidateDraftUpdate(update); err != nil {
		s.cfg.Log.Warn("Draft update validation failed", "uid", uid, "error", err)
		return nil, nil, apperrors.Validation("Draft validation failed", map[string]any{
			"error": err.Error(),
		})
	}
	sanitizeDraftUpdate(update)

	m, err := s.loadDraft(ctx, uid)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if err := m.Update(ctx, *update); err != nil {
		s.cfg.Log.Warn("Reservation draft not persisted", "uid", uid, "error", err)
		warnings = append(warnings, draftNotSavedWarning)
	}
	return view(m), warnings, nil
}

func (s *reservationService) CancelDraft(ctx context.Context, uid string) error {
	m, err := s.loadDraft(ctx, uid)
	if err != nil {
		return err
	}
	if err := m.Clear(ctx); err != nil {
		s.cfg.Log.Error("Failed to clear reservation draft", "uid", uid, "error", err)
		return apperrors.Unavailable("Draft storage")
	}
	return nil
}

func (s *reservationService) Pricing() pricing.Config {
	return s.pricing.GetConfig()
}

func (s *reservationService) Quote(duration string, band model.GuestBand) pricing.Quote {
	return pricing.Compute(duration, band, s.pricing.GetConfig())
}

// Submit writes the caller's draft as a Pending reservation. The draft is kept
// when the write fails so the user can retry without re-entering anything.
func (s *reservationService) Submit(ctx context.Context, uid string) (*model.Reservation, error) {
	m, err := s.loadDraft(ctx, uid)
	if err != nil {
		return nil, err
	}

	d := m.Draft()
	if !d.IsDetailsFilled() {
		return nil, apperrors.Validation("Name and phone are required before submitting", map[string]any{
			"fields": missingDetails(d),
		})
	}

	res := &model.Reservation{
		UID:                 uid,
		Name:                sanitizer.NormalizeName(d.Name),
		Phone:               normalizePhone(d.Phone, s.cfg.PhoneRegions),
		Date:                d.DateLabel(),
		Time:                d.TimeLabel(),
		Duration:            d.Duration,
		Guests:              d.GuestBand,
		Occasion:            d.Occasion,
		SpecialInstructions: sanitizer.TrimAndNormalize(d.SpecialInstructions),
		Total:               m.Total().Total,
		Status:              model.StatusPending,
	}

	if err := s.repo.Create(ctx, res); err != nil {
		s.cfg.Log.Error("Failed to submit reservation",
			"uid", uid,
			"date", res.Date,
			"error", err,
		)
		return nil, apperrors.RetryLater("Reservation could not be submitted, please try again", err)
	}

	if err := m.Clear(ctx); err != nil {
		s.cfg.Log.Warn("Reservation submitted but draft not cleared", "uid", uid, "id", res.ID, "error", err)
	}

	s.publish(ctx, events.NewReservationEvent(events.TypeReservationSubmitted, res, 0))

	s.cfg.Log.Info("Reservation submitted",
		"id", res.ID,
		"uid", uid,
		"date", res.Date,
		"guests", res.Guests,
		"total", res.Total,
	)
	return res, nil
}

// SetStatus writes the new status first. A birthday bonus earned by the change is
// applied afterwards; if that fails the status stays committed and the result
// carries a warning instead of an error.
func (s *reservationService) SetStatus(ctx context.Context, id string, update *model.StatusUpdate) (*StatusResult, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		return nil, apperrors.Validation("Status validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	res, err := s.repo.UpdateStatus(ctx, id, update.Status)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update reservation status")
	}

	result := &StatusResult{Reservation: res}
	s.publish(ctx, events.NewReservationEvent(events.TypeReservationStatusChanged, res, 0))

	if res.QualifiesForBirthdayBonus(update.Status) {
		awarded, err := s.awardBirthdayBonus(ctx, res)
		switch {
		case err != nil:
			s.cfg.Log.Warn("Birthday bonus not awarded",
				"id", id,
				"uid", res.UID,
				"error", err,
			)
			result.BonusWarning = bonusFailedWarning
		case awarded:
			res.BonusAwarded = true
			result.BonusAwarded = true
			s.publish(ctx, events.NewReservationEvent(events.TypeReservationBonusAwarded, res, s.cfg.BirthdayBonusPoints))
		}
	}

	s.cfg.Log.Info("Reservation status updated",
		"id", id,
		"status", update.Status,
		"bonus_awarded", result.BonusAwarded,
	)
	return result, nil
}

// awardBirthdayBonus flips the reservation's bonus flag and credits the points in one
// transaction, so the award lands at most once however often the status toggles.
func (s *reservationService) awardBirthdayBonus(ctx context.Context, res *model.Reservation) (bool, error) {
	var awarded bool
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		awarded = false
		marked, err := s.repo.MarkBonusAwarded(sessCtx, res.ID)
		if err != nil {
			return err
		}
		if !marked {
			return nil
		}
		if err := s.loyalty.Increment(sessCtx, res.UID, int64(s.cfg.BirthdayBonusPoints)); err != nil {
			return err
		}
		awarded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return awarded, nil
}

func (s *reservationService) GetByID(ctx context.Context, id, uid string, isAdmin bool) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve reservation")
	}
	if !isAdmin && res.UID != uid {
		return nil, apperrors.NotFoundWithID("Reservation", id)
	}
	return res, nil
}

func (s *reservationService) ListMine(ctx context.Context, uid string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if uid == "" {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}
	return s.list(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.CountByUID(ctx, uid) },
		func(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
			return s.repo.FindByUID(ctx, uid, limit, offset)
		},
		limit, offset)
}

func (s *reservationService) ListAll(ctx context.Context, status model.ReservationStatus, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Unknown reservation status: %s", status))
	}
	return s.list(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.Count(ctx, status) },
		func(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
			return s.repo.FindAll(ctx, status, limit, offset)
		},
		limit, offset)
}

// list runs the count and the page query concurrently under one shared deadline.
func (s *reservationService) list(
	ctx context.Context,
	count func(context.Context) (int64, error),
	find func(context.Context, int, int64) ([]*model.Reservation, error),
	limit int,
	offset int64,
) ([]*model.Reservation, int64, error) {
	limit = httputil.NormalizeLimit(limit)
	offset = max(0, offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var total int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		total, errCount = count(sharedCtx)
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = find(sharedCtx, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count reservations", "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count reservations", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list reservations", "limit", limit, "offset", offset, "error", errFind)
		return nil, 0, apperrors.Internal("Failed to retrieve reservations", errFind)
	}
	return reservations, total, nil
}

func (s *reservationService) mapRepoError(err error, id, message string) error {
	if errors.Is(err, reservationerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Reservation", id)
	}
	if errors.Is(err, reservationerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid reservation ID format")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}

func (s *reservationService) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		s.cfg.Log.Warn("Failed to publish event",
			"type", evt.Type,
			"key", evt.Key,
			"error", err,
		)
	}
}

func sanitizeDraftUpdate(u *model.DraftUpdate) {
	for _, field := range []*string{u.Name, u.Phone, u.Occasion, u.Duration, u.Day, u.Month, u.Hour} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}
	if u.Period != nil {
		p := strings.ToUpper(strings.TrimSpace(*u.Period))
		u.Period = &p
	}
}

// normalizePhone prefers E.164 but keeps what the user typed when it cannot be parsed.
func normalizePhone(phone string, regions []string) string {
	if normalized := sanitizer.NormalizePhone(phone, regions...); normalized != "" {
		return normalized
	}
	return strings.TrimSpace(phone)
}

func missingDetails(d model.ReservationDraft) []string {
	var fields []string
	if strings.TrimSpace(d.Name) == "" {
		fields = append(fields, "name")
	}
	if strings.TrimSpace(d.Phone) == "" {
		fields = append(fields, "phone")
	}
	return fields
}
