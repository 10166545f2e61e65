package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/fulfillment"
	"pizza-franchise-api/models"
	"pizza-franchise-api/policy"
	"pizza-franchise-api/store"

	"github.com/google/uuid"
)

// Fulfiller hands accepted orders to the factory.
type Fulfiller interface {
	Submit(ctx context.Context, req fulfillment.Request) (*fulfillment.Receipt, error)
}

// Orders is the order pipeline and the read-only menu.
type Orders struct {
	env
	orders      *store.Orders
	menu        *store.Menu
	franchises  *store.Franchises
	users       *store.Users
	fulfiller   Fulfiller
	fulfillTime time.Duration
}

func NewOrders(orders *store.Orders, menu *store.Menu, franchises *store.Franchises, users *store.Users, fulfiller Fulfiller, fulfillTimeout time.Duration, opts Options) *Orders {
	if fulfillTimeout <= 0 {
		fulfillTimeout = 10 * time.Second
	}
	return &Orders{
		env:         newEnv(opts),
		orders:      orders,
		menu:        menu,
		franchises:  franchises,
		users:       users,
		fulfiller:   fulfiller,
		fulfillTime: fulfillTimeout,
	}
}

type OrderItemInput struct {
	MenuID      uint
	Description string
	Price       float64
}

type OrderRequest struct {
	FranchiseID uint
	StoreID     uint
	Items       []OrderItemInput
	// IdempotencyKey makes a retried request return the first result.
	IdempotencyKey string
}

// PlacedOrder is an accepted order with the factory's receipt.
type PlacedOrder struct {
	Order     *models.Order `json:"order"`
	Receipt   string        `json:"jwt"`
	ReportURL string        `json:"reportUrl,omitempty"`
	// Replayed is set when the idempotency key matched an earlier order.
	Replayed bool `json:"-"`
}

type OrderPage struct {
	DinerID uint           `json:"dinerId,omitempty"`
	Orders  []models.Order `json:"orders"`
	Page    int            `json:"page"`
	More    bool           `json:"more"`
}

// Menu returns the catalog.
func (o *Orders) Menu(ctx context.Context, s *policy.Subject) ([]models.MenuItem, error) {
	if err := o.require(s, policy.ActionRead, policy.Menu()); err != nil {
		return nil, err
	}
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	items, err := o.menu.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	return items, nil
}

// Create submits the order to the factory and records it once accepted.
// Nothing is stored for a rejected order.
func (o *Orders) Create(ctx context.Context, s *policy.Subject, req OrderRequest) (*PlacedOrder, error) {
	var uid uint
	if s != nil {
		uid = s.UserID
	}
	if err := o.require(s, policy.ActionCreate, policy.Order(uid, req.FranchiseID)); err != nil {
		return nil, err
	}
	if err := validateOrder(req); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(req.IdempotencyKey)

	if key != "" {
		if prior, err := o.findByKey(ctx, uid, key); err != nil || prior != nil {
			return prior, err
		}
	}

	diner, err := o.prepare(ctx, uid, req)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		Reference:   uuid.NewString(),
		UserID:      uid,
		FranchiseID: req.FranchiseID,
		StoreID:     req.StoreID,
		Items:       make([]models.OrderItem, len(req.Items)),
	}
	if key != "" {
		order.IdempotencyKey = &key
	}
	submit := fulfillment.Request{
		Diner: fulfillment.Diner{ID: diner.ID, Name: diner.Name, Email: diner.Email},
		Order: fulfillment.Order{
			Reference:   order.Reference,
			FranchiseID: req.FranchiseID,
			StoreID:     req.StoreID,
			Items:       make([]fulfillment.Item, len(req.Items)),
		},
	}
	for i, it := range req.Items {
		desc := strings.TrimSpace(it.Description)
		order.Items[i] = models.OrderItem{MenuID: it.MenuID, Description: desc, Price: it.Price}
		submit.Order.Items[i] = fulfillment.Item{MenuID: it.MenuID, Description: desc, Price: it.Price}
	}

	receipt, err := o.submit(ctx, submit)
	if err != nil {
		return nil, err
	}
	order.Receipt = receipt.JWT
	order.ReportURL = receipt.ReportURL

	sctx, cancel := o.withTimeout(ctx)
	defer cancel()
	if err := o.orders.Insert(sctx, order); err != nil {
		if key != "" && errors.Is(err, apperr.Conflict) {
			// A concurrent request with the same key won the insert.
			if prior, ferr := o.findByKey(ctx, uid, key); ferr == nil && prior != nil {
				return prior, nil
			}
		}
		o.logger.Error("accepted order could not be recorded",
			slog.String("reference", order.Reference),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	o.logger.Info("order placed",
		slog.Uint64("order_id", uint64(order.ID)),
		slog.Uint64("user_id", uint64(uid)),
		slog.Uint64("franchise_id", uint64(req.FranchiseID)),
	)
	return &PlacedOrder{Order: order, Receipt: order.Receipt, ReportURL: order.ReportURL}, nil
}

func validateOrder(req OrderRequest) error {
	if req.FranchiseID == 0 || req.StoreID == 0 {
		return apperr.New(apperr.KindMalformed, "franchiseId and storeId are required")
	}
	if len(req.Items) == 0 {
		return apperr.New(apperr.KindMalformed, "an order needs at least one item")
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.Description) == "" {
			return apperr.New(apperr.KindMalformed, "item %d has no description", i)
		}
		if it.Price < 0 {
			return apperr.New(apperr.KindMalformed, "item %d has a negative price", i)
		}
	}
	return nil
}

// findByKey returns the earlier order for key, or nil when there is none.
func (o *Orders) findByKey(ctx context.Context, uid uint, key string) (*PlacedOrder, error) {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	prior, err := o.orders.FindByIdempotencyKey(ctx, uid, key)
	if errors.Is(err, apperr.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &PlacedOrder{Order: prior, Receipt: prior.Receipt, ReportURL: prior.ReportURL, Replayed: true}, nil
}

// prepare checks the store belongs to the franchise and loads the diner.
func (o *Orders) prepare(ctx context.Context, uid uint, req OrderRequest) (*models.User, error) {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	if _, err := o.franchises.GetStore(ctx, req.FranchiseID, req.StoreID); err != nil {
		return nil, err
	}
	return o.users.GetUserByID(ctx, uid)
}

func (o *Orders) submit(ctx context.Context, req fulfillment.Request) (*fulfillment.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, o.fulfillTime)
	defer cancel()

	start := time.Now()
	receipt, err := o.fulfiller.Submit(ctx, req)
	outcome := "accepted"
	if err != nil {
		outcome = "rejected"
		if e, ok := apperr.As(err); ok && e.Retryable {
			outcome = "unavailable"
		}
	}
	o.metrics.RecordFulfillment(outcome, time.Since(start))
	return receipt, err
}

// List returns the caller's orders, newest first.
func (o *Orders) List(ctx context.Context, s *policy.Subject, page int) (*OrderPage, error) {
	var uid uint
	if s != nil {
		uid = s.UserID
	}
	if err := o.require(s, policy.ActionList, policy.Order(uid, 0)); err != nil {
		return nil, err
	}
	p := NewPage(page, DefaultPageSize)
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	list, more, err := o.orders.ListByUser(ctx, uid, p.Offset(), p.Limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Order{}
	}
	return &OrderPage{DinerID: uid, Orders: list, Page: p.Number, More: more}, nil
}

// ListFranchiseOrders returns a franchise's orders for its admins.
func (o *Orders) ListFranchiseOrders(ctx context.Context, s *policy.Subject, franchiseID uint, page int) (*OrderPage, error) {
	if err := o.require(s, policy.ActionList, policy.FranchiseOrders(franchiseID)); err != nil {
		return nil, err
	}
	p := NewPage(page, DefaultPageSize)
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	if _, err := o.franchises.Get(ctx, franchiseID); err != nil {
		return nil, err
	}
	list, more, err := o.orders.ListByFranchise(ctx, franchiseID, p.Offset(), p.Limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Order{}
	}
	return &OrderPage{Orders: list, Page: p.Number, More: more}, nil
}
