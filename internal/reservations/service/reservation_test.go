package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"eatme/internal/pricing"
	reservationerrors "eatme/internal/reservations/errors"
	"eatme/internal/reservations/validator"
	"eatme/pkg/config"
	mongotx "eatme/pkg/db/mongo"
	apperrors "eatme/pkg/errors"
	"eatme/pkg/events"
	"eatme/pkg/logger"
	"eatme/pkg/model"
	"eatme/pkg/storage"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockReservationRepository struct {
	mu sync.Mutex

	createFunc       func(ctx context.Context, r *model.Reservation) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Reservation, error)
	updateStatusFunc func(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error)
	markBonusFunc    func(ctx context.Context, id string) (bool, error)
	countFunc        func(ctx context.Context, status model.ReservationStatus) (int64, error)
	findAllFunc      func(ctx context.Context, status model.ReservationStatus, limit int, offset int64) ([]*model.Reservation, error)
}

func (m *mockReservationRepository) Create(ctx context.Context, r *model.Reservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, r)
	}
	r.ID = "65f000000000000000000001"
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, reservationerrors.ErrNotFound
}

func (m *mockReservationRepository) FindByUID(ctx context.Context, uid string, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) CountByUID(ctx context.Context, uid string) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) FindAll(ctx context.Context, status model.ReservationStatus, limit int, offset int64) ([]*model.Reservation, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, status, limit, offset)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) Count(ctx context.Context, status model.ReservationStatus) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, status)
	}
	return 0, nil
}

func (m *mockReservationRepository) UpdateStatus(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error) {
	return m.updateStatusFunc(ctx, id, status)
}

func (m *mockReservationRepository) MarkBonusAwarded(ctx context.Context, id string) (bool, error) {
	return m.markBonusFunc(ctx, id)
}

// ExecuteTransaction serialises callers the way a write conflict would.
func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(nil)
}

type mockLoyalty struct {
	mu           sync.Mutex
	balances     map[string]int64
	incrementErr error
}

func (m *mockLoyalty) Balance(ctx context.Context, uid string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[uid], nil
}

func (m *mockLoyalty) Increment(ctx context.Context, uid string, delta int64) error {
	if m.incrementErr != nil {
		return m.incrementErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances == nil {
		m.balances = map[string]int64{}
	}
	m.balances[uid] += delta
	return nil
}

func (m *mockLoyalty) Redeem(ctx context.Context, uid string, points int64) error {
	return m.Increment(ctx, uid, -points)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type staticPricing struct{ cfg pricing.Config }

func (s staticPricing) GetConfig() pricing.Config { return s.cfg }

type failingSetStore struct {
	*storage.MemoryStore
}

func (f failingSetStore) Set(context.Context, string, []byte) error {
	return errors.New("redis down")
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                 logger.Discard(),
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        5 * time.Second,
		BirthdayBonusPoints: 50,
		PhoneRegions:        []string{"GH"},
	}
}

func newTestService(repo *mockReservationRepository, loyaltyRepo *mockLoyalty, store storage.Store, pub *recordingPublisher) *reservationService {
	cfg := testConfig()
	return &reservationService{
		repo:      repo,
		loyalty:   loyaltyRepo,
		store:     store,
		pricing:   staticPricing{cfg: pricing.Defaults()},
		validator: validator.NewReservationValidator(cfg.Log),
		publisher: pub,
		cfg:       cfg,
	}
}

func strPtr(s string) *string { return &s }

func TestSubmit_RequiresDetails(t *testing.T) {
	svc := newTestService(&mockReservationRepository{}, &mockLoyalty{}, storage.NewMemoryStore(), &recordingPublisher{})

	_, err := svc.Submit(context.Background(), "u1")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmit_WritesPendingAndClearsDraft(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	pub := &recordingPublisher{}

	var saved *model.Reservation
	repo := &mockReservationRepository{
		createFunc: func(ctx context.Context, r *model.Reservation) error {
			r.ID = "65f000000000000000000002"
			saved = r
			return nil
		},
	}
	svc := newTestService(repo, &mockLoyalty{}, store, pub)

	band := model.GuestBandLarge
	_, warnings, err := svc.UpdateDraft(ctx, "u1", &model.DraftUpdate{
		Name:      strPtr("  Ama  Mensah "),
		Phone:     strPtr("024 123 4567"),
		Duration:  strPtr("3hrs"),
		GuestBand: &band,
	})
	if err != nil || len(warnings) != 0 {
		t.Fatalf("update draft: err=%v warnings=%v", err, warnings)
	}

	res, err := svc.Submit(ctx, "u1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res != saved {
		t.Fatal("returned reservation should be the stored record")
	}
	if res.Status != model.StatusPending {
		t.Errorf("status = %s, want Pending", res.Status)
	}
	if res.Total != 650 {
		t.Errorf("total = %v, want 650", res.Total)
	}
	if res.Name != "Ama Mensah" || res.Phone != "+233241234567" {
		t.Errorf("details not normalised: name=%q phone=%q", res.Name, res.Phone)
	}
	if store.Len() != 0 {
		t.Error("draft should be cleared after a successful submit")
	}
	if got := pub.types(); len(got) != 1 || got[0] != events.TypeReservationSubmitted {
		t.Errorf("published %v", got)
	}
}

func TestSubmit_FailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := &mockReservationRepository{
		createFunc: func(ctx context.Context, r *model.Reservation) error {
			return errors.New("no primary")
		},
	}
	pub := &recordingPublisher{}
	svc := newTestService(repo, &mockLoyalty{}, store, pub)

	_, _, _ = svc.UpdateDraft(ctx, "u1", &model.DraftUpdate{Name: strPtr("Kojo"), Phone: strPtr("0201234567")})

	_, err := svc.Submit(ctx, "u1")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeUnavailable || !appErr.Retryable() {
		t.Fatalf("expected retryable unavailable error, got %v", err)
	}

	view, err := svc.GetDraft(ctx, "u1")
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if view.Draft.Name != "Kojo" || !view.DetailsFilled {
		t.Errorf("draft should be retained, got %+v", view.Draft)
	}
	if len(pub.types()) != 0 {
		t.Error("nothing should be published for a failed submit")
	}
}

func TestUpdateDraft_WarnsWhenNotPersisted(t *testing.T) {
	svc := newTestService(&mockReservationRepository{}, &mockLoyalty{}, failingSetStore{storage.NewMemoryStore()}, &recordingPublisher{})

	view, warnings, err := svc.UpdateDraft(context.Background(), "u1", &model.DraftUpdate{Name: strPtr("Esi")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	if view.Draft.Name != "Esi" {
		t.Error("response should reflect the merged draft")
	}
}

func TestUpdateDraft_RejectsUnknownBand(t *testing.T) {
	svc := newTestService(&mockReservationRepository{}, &mockLoyalty{}, storage.NewMemoryStore(), &recordingPublisher{})

	band := model.GuestBand("VIP Hall")
	_, _, err := svc.UpdateDraft(context.Background(), "u1", &model.DraftUpdate{GuestBand: &band})
	if apperrors.AsAppError(err).Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQuote_UnknownBandFallsBack(t *testing.T) {
	svc := newTestService(&mockReservationRepository{}, &mockLoyalty{}, storage.NewMemoryStore(), &recordingPublisher{})

	q := svc.Quote("abc", "VIP Hall")
	if q.DurationCost != 0 || q.GuestsCost != 500 || q.Total != 500 {
		t.Errorf("Quote = %+v", q)
	}
}

// birthdayRepo keeps one reservation document in memory so status toggles behave
// like the real collection.
func birthdayRepo() *mockReservationRepository {
	doc := &model.Reservation{ID: "r1", UID: "u1", Occasion: model.OccasionBirthday, Status: model.StatusPending}
	var docMu sync.Mutex

	return &mockReservationRepository{
		updateStatusFunc: func(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error) {
			docMu.Lock()
			defer docMu.Unlock()
			doc.Status = status
			cp := *doc
			return &cp, nil
		},
		markBonusFunc: func(ctx context.Context, id string) (bool, error) {
			docMu.Lock()
			defer docMu.Unlock()
			if doc.BonusAwarded {
				return false, nil
			}
			doc.BonusAwarded = true
			return true, nil
		},
	}
}

func TestSetStatus_BirthdayBonusAwardedOnce(t *testing.T) {
	ctx := context.Background()
	loyaltyRepo := &mockLoyalty{}
	pub := &recordingPublisher{}
	svc := newTestService(birthdayRepo(), loyaltyRepo, storage.NewMemoryStore(), pub)

	confirm := &model.StatusUpdate{Status: model.StatusConfirmed}
	pending := &model.StatusUpdate{Status: model.StatusPending}

	first, err := svc.SetStatus(ctx, "r1", confirm)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !first.BonusAwarded {
		t.Error("first confirmation should award the bonus")
	}

	for _, u := range []*model.StatusUpdate{pending, confirm, pending, confirm} {
		res, err := svc.SetStatus(ctx, "r1", u)
		if err != nil {
			t.Fatalf("toggle: %v", err)
		}
		if res.BonusAwarded {
			t.Error("bonus awarded again after toggling")
		}
	}

	if got, _ := loyaltyRepo.Balance(ctx, "u1"); got != 50 {
		t.Errorf("balance = %d, want 50", got)
	}

	awards := 0
	for _, typ := range pub.types() {
		if typ == events.TypeReservationBonusAwarded {
			awards++
		}
	}
	if awards != 1 {
		t.Errorf("bonus events = %d, want 1", awards)
	}
}

func TestSetStatus_ConcurrentConfirmationsAwardOnce(t *testing.T) {
	ctx := context.Background()
	loyaltyRepo := &mockLoyalty{}
	svc := newTestService(birthdayRepo(), loyaltyRepo, storage.NewMemoryStore(), &recordingPublisher{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.SetStatus(ctx, "r1", &model.StatusUpdate{Status: model.StatusConfirmed})
		}()
	}
	wg.Wait()

	if got, _ := loyaltyRepo.Balance(ctx, "u1"); got != 50 {
		t.Errorf("balance = %d, want exactly one award of 50", got)
	}
}

func TestSetStatus_BonusFailureIsWarning(t *testing.T) {
	repo := birthdayRepo()
	repo.markBonusFunc = func(ctx context.Context, id string) (bool, error) {
		return false, mongo.CommandError{Message: "write conflict"}
	}
	svc := newTestService(repo, &mockLoyalty{}, storage.NewMemoryStore(), &recordingPublisher{})

	res, err := svc.SetStatus(context.Background(), "r1", &model.StatusUpdate{Status: model.StatusConfirmed})
	if err != nil {
		t.Fatalf("status change should commit despite bonus failure: %v", err)
	}
	if res.Reservation.Status != model.StatusConfirmed {
		t.Errorf("status = %s, want Confirmed", res.Reservation.Status)
	}
	if res.BonusAwarded || res.BonusWarning == "" {
		t.Errorf("expected a bonus warning, got %+v", res)
	}
}

func TestSetStatus_DinnerEarnsNothing(t *testing.T) {
	repo := &mockReservationRepository{
		updateStatusFunc: func(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error) {
			return &model.Reservation{ID: id, UID: "u1", Occasion: model.OccasionDinner, Status: status}, nil
		},
		markBonusFunc: func(ctx context.Context, id string) (bool, error) {
			t.Error("bonus must not be attempted for a dinner reservation")
			return false, nil
		},
	}
	svc := newTestService(repo, &mockLoyalty{}, storage.NewMemoryStore(), &recordingPublisher{})

	if _, err := svc.SetStatus(context.Background(), "r1", &model.StatusUpdate{Status: model.StatusConfirmed}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetStatus_MapsRepositoryErrors(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		wantCode string
	}{
		{"not found", reservationerrors.ErrNotFound, apperrors.CodeNotFound},
		{"invalid id", reservationerrors.ErrInvalidID, apperrors.CodeInvalidInput},
		{"driver failure", errors.New("socket closed"), apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockReservationRepository{
				updateStatusFunc: func(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error) {
					return nil, tt.repoErr
				},
			}
			svc := newTestService(repo, &mockLoyalty{}, storage.NewMemoryStore(), &recordingPublisher{})

			_, err := svc.SetStatus(context.Background(), "x", &model.StatusUpdate{Status: model.StatusCancelled})
			if got := apperrors.AsAppError(err).Code; got != tt.wantCode {
				t.Errorf("code = %s, want %s", got, tt.wantCode)
			}
		})
	}
}

func TestGetByID_HidesOtherUsersReservations(t *testing.T) {
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{ID: id, UID: "owner"}, nil
		},
	}
	svc := newTestService(repo, &mockLoyalty{}, storage.NewMemoryStore(), &recordingPublisher{})
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, "r1", "owner", false); err != nil {
		t.Errorf("owner should see the reservation: %v", err)
	}
	if _, err := svc.GetByID(ctx, "r1", "admin", true); err != nil {
		t.Errorf("admin should see the reservation: %v", err)
	}
	if _, err := svc.GetByID(ctx, "r1", "stranger", false); apperrors.AsAppError(err).Code != apperrors.CodeNotFound {
		t.Errorf("stranger should get not found, got %v", err)
	}
}

func TestListAll_PassesStatusAndNormalisesPaging(t *testing.T) {
	var gotStatus model.ReservationStatus
	var gotLimit int
	repo := &mockReservationRepository{
		countFunc: func(ctx context.Context, status model.ReservationStatus) (int64, error) {
			return 3, nil
		},
		findAllFunc: func(ctx context.Context, status model.ReservationStatus, limit int, offset int64) ([]*model.Reservation, error) {
			gotStatus, gotLimit = status, limit
			return []*model.Reservation{{ID: "a"}}, nil
		},
	}
	svc := newTestService(repo, &mockLoyalty{}, storage.NewMemoryStore(), &recordingPublisher{})

	list, total, err := svc.ListAll(context.Background(), model.StatusPending, 1000, -4)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(list) != 1 {
		t.Errorf("total=%d len=%d", total, len(list))
	}
	if gotStatus != model.StatusPending || gotLimit != 100 {
		t.Errorf("status=%s limit=%d", gotStatus, gotLimit)
	}

	if _, _, err := svc.ListAll(context.Background(), "Seated", 10, 0); apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
		t.Errorf("unknown status should be rejected, got %v", err)
	}
}

func TestPublishFailureDoesNotFailSubmit(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(&mockReservationRepository{}, &mockLoyalty{}, storage.NewMemoryStore(), pub)

	_, _, _ = svc.UpdateDraft(ctx, "u1", &model.DraftUpdate{Name: strPtr("Yaw"), Phone: strPtr("0241234567")})
	if _, err := svc.Submit(ctx, "u1"); err != nil {
		t.Fatalf("submit should succeed when publishing fails: %v", err)
	}
}
