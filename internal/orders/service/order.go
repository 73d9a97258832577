package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"eatme/internal/cart"
	"eatme/internal/loyalty"
	ordererrors "eatme/internal/orders/errors"
	"eatme/internal/orders/repository"
	"eatme/internal/orders/validator"
	"eatme/pkg/config"
	apperrors "eatme/pkg/errors"
	"eatme/pkg/events"
	httputil "eatme/pkg/http"
	"eatme/pkg/model"
	"eatme/pkg/sanitizer"
	"eatme/pkg/sealer"
	"eatme/pkg/storage"

	"go.mongodb.org/mongo-driver/mongo"
)

const cartNotSavedWarning = "Cart changes could not be saved and may be lost"

// MenuLookup resolves a menu item so cart prices come from the catalog.
type MenuLookup interface {
	GetByID(ctx context.Context, id string) (*model.MenuItem, error)
}

type CartView struct {
	Items  []model.CartItem `json:"items"`
	Totals cart.Totals      `json:"totals"`
}

// checkoutClaims travel inside the sealed checkout token handed to the payment gateway.
type checkoutClaims struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	AmountMinor int64     `json:"amount_minor"`
	IssuedAt    time.Time `json:"iat"`
}

type OrderService interface {
	GetCart(ctx context.Context, uid string) (*CartView, error)
	AddItem(ctx context.Context, uid string, req *model.AddCartItemRequest) (*CartView, []string, error)
	UpdateItem(ctx context.Context, uid, itemID string, req *model.QuantityUpdate) (*CartView, []string, error)
	RemoveItem(ctx context.Context, uid, itemID string) (*CartView, []string, error)
	ClearCart(ctx context.Context, uid string) error
	BeginCheckout(ctx context.Context, uid string, req *model.CheckoutRequest) (*model.CheckoutIntent, error)
	// CompleteCheckout records the order for a successful payment. uid may be empty
	// for gateway webhooks, in which case the caller is taken from the checkout token.
	CompleteCheckout(ctx context.Context, uid string, outcome *model.PaymentOutcome) (*model.Order, error)
	GetByID(ctx context.Context, id, uid string, isAdmin bool) (*model.Order, error)
	ListMine(ctx context.Context, uid string, limit int, offset int64) ([]*model.Order, int64, error)
}

type orderService struct {
	repo      repository.OrderRepository
	menu      MenuLookup
	loyalty   loyalty.Repository
	store     storage.Store
	sealer    *sealer.Sealer
	validator *validator.OrderValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewOrderService(
	repo repository.OrderRepository,
	menu MenuLookup,
	loyaltyRepo loyalty.Repository,
	store storage.Store,
	sealer *sealer.Sealer,
	validator *validator.OrderValidator,
	publisher events.Publisher,
	cfg *config.Config,
) OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &orderService{
		repo:      repo,
		menu:      menu,
		loyalty:   loyaltyRepo,
		store:     store,
		sealer:    sealer,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// loadCart builds the caller's cart with the configured redemption policy. The
// balance policy reads the stored points on every call so totals stay current.
func (s *orderService) loadCart(ctx context.Context, uid string) (*cart.Manager, error) {
	if uid == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	var policy cart.RedemptionPolicy = cart.NewFlatRedemption(s.cfg.CartFlatRedemptionPoints)
	if s.cfg.CartRedemptionPolicy == config.RedemptionBalance {
		balance, err := s.loyalty.Balance(ctx, uid)
		if err != nil {
			s.cfg.Log.Warn("Loyalty balance unavailable, no points redeemed", "uid", uid, "error", err)
			balance = 0
		}
		policy = cart.BalanceRedemption{Balance: balance}
	}

	m := cart.NewManager(s.store, uid, policy)
	if err := m.Load(ctx); err != nil {
		s.cfg.Log.Error("Failed to load cart", "uid", uid, "error", err)
		return nil, apperrors.Unavailable("Cart storage")
	}
	return m, nil
}

func cartView(m *cart.Manager) *CartView {
	return &CartView{Items: m.Items(), Totals: m.Totals()}
}

func (s *orderService) mutationWarnings(uid string, err error) ([]string, error) {
	if err == nil {
		return nil, nil
	}
	if errors.Is(err, storage.ErrNotPersisted) {
		s.cfg.Log.Warn("Cart not persisted", "uid", uid, "error", err)
		return []string{cartNotSavedWarning}, nil
	}
	if errors.Is(err, cart.ErrInvalidItem) {
		return nil, apperrors.InvalidInput(err.Error())
	}
	return nil, apperrors.Internal("Failed to update cart", err)
}

func (s *orderService) validate(req any, what string) error {
	if err := s.validator.Validate(req); err != nil {
		return apperrors.Validation(what+" validation failed", map[string]any{
			"error": err.Error(),
		})
	}
	return nil
}

func (s *orderService) GetCart(ctx context.Context, uid string) (*CartView, error) {
	m, err := s.loadCart(ctx, uid)
	if err != nil {
		return nil, err
	}
	return cartView(m), nil
}

func (s *orderService) AddItem(ctx context.Context, uid string, req *model.AddCartItemRequest) (*CartView, []string, error) {
	if err := s.validate(req, "Cart item"); err != nil {
		return nil, nil, err
	}

	item, err := s.menu.GetByID(ctx, strings.TrimSpace(req.MenuItemID))
	if err != nil {
		return nil, nil, err
	}
	if !item.Available {
		return nil, nil, apperrors.Conflict("Menu item is currently unavailable")
	}

	m, err := s.loadCart(ctx, uid)
	if err != nil {
		return nil, nil, err
	}

	warnings, err := s.mutationWarnings(uid, m.Add(ctx, item.ToCartItem(sanitizer.TrimAndNormalize(req.Extras))))
	if err != nil {
		return nil, nil, err
	}
	return cartView(m), warnings, nil
}

func (s *orderService) UpdateItem(ctx context.Context, uid, itemID string, req *model.QuantityUpdate) (*CartView, []string, error) {
	if err := s.validate(req, "Quantity"); err != nil {
		return nil, nil, err
	}

	m, err := s.loadCart(ctx, uid)
	if err != nil {
		return nil, nil, err
	}

	warnings, err := s.mutationWarnings(uid, m.UpdateQuantity(ctx, itemID, sanitizer.ClampQuantity(*req.Quantity)))
	if err != nil {
		return nil, nil, err
	}
	return cartView(m), warnings, nil
}

func (s *orderService) RemoveItem(ctx context.Context, uid, itemID string) (*CartView, []string, error) {
	m, err := s.loadCart(ctx, uid)
	if err != nil {
		return nil, nil, err
	}

	warnings, err := s.mutationWarnings(uid, m.Remove(ctx, itemID))
	if err != nil {
		return nil, nil, err
	}
	return cartView(m), warnings, nil
}

func (s *orderService) ClearCart(ctx context.Context, uid string) error {
	m, err := s.loadCart(ctx, uid)
	if err != nil {
		return err
	}
	if err := m.Clear(ctx); err != nil {
		s.cfg.Log.Error("Failed to clear cart", "uid", uid, "error", err)
		return apperrors.Unavailable("Cart storage")
	}
	return nil
}

func (s *orderService) BeginCheckout(ctx context.Context, uid string, req *model.CheckoutRequest) (*model.CheckoutIntent, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := s.validate(req, "Checkout"); err != nil {
		return nil, err
	}

	m, err := s.loadCart(ctx, uid)
	if err != nil {
		return nil, err
	}
	if m.IsEmpty() {
		return nil, apperrors.Conflict("Cart is empty")
	}

	totals := m.Totals()
	token, err := s.sealer.Seal(checkoutClaims{
		UID:         uid,
		Email:       req.Email,
		AmountMinor: totals.AmountMinor,
		IssuedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to start checkout", err)
	}

	s.cfg.Log.Info("Checkout started",
		"uid", uid,
		"amount_minor", totals.AmountMinor,
		"items", totals.ItemCount,
	)
	return &model.CheckoutIntent{
		Email:         req.Email,
		AmountMinor:   totals.AmountMinor,
		Currency:      s.cfg.Currency,
		Total:         totals.Total,
		CheckoutToken: token,
	}, nil
}

func (s *orderService) CompleteCheckout(ctx context.Context, uid string, outcome *model.PaymentOutcome) (*model.Order, error) {
	if err := s.validate(outcome, "Payment outcome"); err != nil {
		return nil, err
	}
	if outcome.Status != model.PaymentSuccess {
		s.cfg.Log.Info("Payment not completed", "uid", uid, "outcome", outcome.Status)
		return nil, apperrors.PaymentNotCompleted(string(outcome.Status))
	}

	claims, err := s.openToken(outcome.CheckoutToken, uid)
	if err != nil {
		return nil, err
	}
	uid = claims.UID

	if existing, err := s.repo.FindByPaymentReference(ctx, outcome.Reference); err == nil {
		return s.ownedOrder(existing, uid)
	} else if !errors.Is(err, ordererrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to look up payment reference", "reference", outcome.Reference, "error", err)
		return nil, apperrors.Internal("Failed to complete checkout", err)
	}

	m, err := s.loadCart(ctx, uid)
	if err != nil {
		return nil, err
	}
	if m.IsEmpty() {
		return nil, apperrors.Conflict("Cart is empty")
	}

	totals := m.Totals()
	if totals.AmountMinor != claims.AmountMinor {
		s.cfg.Log.Warn("Cart changed after checkout started",
			"uid", uid,
			"paid_minor", claims.AmountMinor,
			"cart_minor", totals.AmountMinor,
		)
		return nil, apperrors.Conflict("Cart changed after checkout started")
	}

	email := claims.Email
	if email == "" {
		email = sanitizer.NormalizeEmail(outcome.Email)
	}
	order := &model.Order{
		UID:              uid,
		Email:            email,
		Items:            m.Items(),
		Subtotal:         totals.Subtotal,
		LoyaltyDiscount:  totals.LoyaltyDiscount,
		Total:            totals.Total,
		AmountMinor:      totals.AmountMinor,
		Currency:         s.cfg.Currency,
		PaymentReference: outcome.Reference,
		Status:           model.OrderPaid,
	}

	if err := s.recordOrder(ctx, order, m.LoyaltyDiscount().IntPart()); err != nil {
		if errors.Is(err, loyalty.ErrInsufficientPoints) {
			s.cfg.Log.Warn("Loyalty balance changed after checkout started", "uid", uid, "reference", outcome.Reference)
			return nil, apperrors.Conflict("Loyalty balance changed after checkout started")
		}
		if errors.Is(err, ordererrors.ErrDuplicateReference) {
			existing, findErr := s.repo.FindByPaymentReference(ctx, outcome.Reference)
			if findErr != nil {
				return nil, apperrors.Internal("Failed to complete checkout", findErr)
			}
			return s.ownedOrder(existing, uid)
		}
		s.cfg.Log.Error("Failed to record order",
			"uid", uid,
			"reference", outcome.Reference,
			"error", err,
		)
		return nil, apperrors.RetryLater("Order could not be recorded, please try again", err)
	}

	if err := m.Clear(ctx); err != nil {
		s.cfg.Log.Warn("Order recorded but cart not cleared", "uid", uid, "order_id", order.ID, "error", err)
	}

	if err := s.publisher.Publish(context.WithoutCancel(ctx), events.NewOrderPlaced(order)); err != nil {
		s.cfg.Log.Warn("Failed to publish event", "type", events.TypeOrderPlaced, "order_id", order.ID, "error", err)
	}

	s.cfg.Log.Info("Order placed",
		"id", order.ID,
		"uid", uid,
		"amount_minor", order.AmountMinor,
		"reference", order.PaymentReference,
	)
	return order, nil
}

// ownedOrder returns an order already recorded for a payment reference, but only to
// the user who paid it.
func (s *orderService) ownedOrder(order *model.Order, uid string) (*model.Order, error) {
	if order.UID != uid {
		s.cfg.Log.Warn("Payment reference already used by another user",
			"uid", uid,
			"order_id", order.ID,
			"reference", order.PaymentReference,
		)
		return nil, apperrors.Conflict("Payment reference has already been used")
	}
	return order, nil
}

// recordOrder inserts the order and, under the balance policy, spends the redeemed
// points in the same transaction. The spend fails rather than overdraw the balance.
func (s *orderService) recordOrder(ctx context.Context, order *model.Order, spent int64) error {
	if s.cfg.CartRedemptionPolicy != config.RedemptionBalance || spent <= 0 {
		return s.repo.Create(ctx, order)
	}

	return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		order.ID = ""
		if err := s.repo.Create(sessCtx, order); err != nil {
			return err
		}
		return s.loyalty.Redeem(sessCtx, order.UID, spent)
	})
}

func (s *orderService) openToken(token, uid string) (*checkoutClaims, error) {
	var claims checkoutClaims
	if err := s.sealer.Open(token, &claims); err != nil {
		return nil, apperrors.InvalidInput("Invalid checkout token")
	}
	if uid != "" && claims.UID != uid {
		return nil, apperrors.Forbidden("Checkout token belongs to another user")
	}
	if s.now().Sub(claims.IssuedAt) > s.cfg.CheckoutTokenTTL {
		return nil, apperrors.Conflict("Checkout has expired, please start again")
	}
	return &claims, nil
}

func (s *orderService) GetByID(ctx context.Context, id, uid string, isAdmin bool) (*model.Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Order ID cannot be empty")
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ordererrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Order", id)
		}
		if errors.Is(err, ordererrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid order ID format")
		}
		s.cfg.Log.Error("Failed to get order by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve order", err)
	}
	if !isAdmin && order.UID != uid {
		return nil, apperrors.NotFoundWithID("Order", id)
	}
	return order, nil
}

func (s *orderService) ListMine(ctx context.Context, uid string, limit int, offset int64) ([]*model.Order, int64, error) {
	if uid == "" {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}
	limit = httputil.NormalizeLimit(limit)
	offset = max(0, offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var orders []*model.Order
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByUID(sharedCtx, uid)
	}()

	go func() {
		defer wg.Done()
		orders, errFind = s.repo.FindByUID(sharedCtx, uid, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count orders", "uid", uid, "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count orders", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list orders", "uid", uid, "error", errFind)
		return nil, 0, apperrors.Internal("Failed to retrieve orders", errFind)
	}
	return orders, count, nil
}
