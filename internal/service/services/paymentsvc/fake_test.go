package paymentsvc

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ipaymentrepo"
	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/checkout"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"github.com/google/uuid"
)

type memStore struct {
	tx       sync.Mutex
	orders   map[uuid.UUID]order.Order
	items    map[uuid.UUID][]orderitem.OrderItem
	payments map[uuid.UUID]payment.Payment

	failPaymentUpdate error
	commits           int
}

func newMemStore() *memStore {
	return &memStore{
		orders:   map[uuid.UUID]order.Order{},
		items:    map[uuid.UUID][]orderitem.OrderItem{},
		payments: map[uuid.UUID]payment.Payment{},
	}
}

func (s *memStore) newUOW() *memUOW {
	return &memUOW{store: s}
}

type memUOW struct {
	store    *memStore
	inTx     bool
	orders   map[uuid.UUID]order.Order
	payments map[uuid.UUID]payment.Payment
}

func (u *memUOW) Begin(context.Context) error {
	u.store.tx.Lock()
	u.inTx = true
	u.orders = maps.Clone(u.store.orders)
	u.payments = maps.Clone(u.store.payments)

	return nil
}

func (u *memUOW) Commit(context.Context) error {
	if !u.inTx {
		return errors.New("commit without begin")
	}
	u.inTx = false
	u.store.commits++
	u.store.tx.Unlock()

	return nil
}

func (u *memUOW) Rollback(context.Context) error {
	if !u.inTx {
		return nil
	}
	u.store.orders = u.orders
	u.store.payments = u.payments
	u.inTx = false
	u.store.tx.Unlock()

	return nil
}

func (u *memUOW) OrderRepository() iorderrepo.IOrderRepository {
	return memOrders{u.store}
}

func (u *memUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return memOrderItems{u.store}
}

func (u *memUOW) PaymentRepository() ipaymentrepo.IPaymentRepository {
	return memPayments{u.store}
}

type memOrders struct{ s *memStore }

func (r memOrders) Insert(_ context.Context, o order.Order) (order.Order, error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.s.orders[o.ID] = o

	return o, nil
}

func (r memOrders) Get(_ context.Context, id uuid.UUID) (order.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return order.Order{}, errs.NotFoundf("order %s", id)
	}

	return o, nil
}

func (r memOrders) GetForUpdate(ctx context.Context, id uuid.UUID) (order.Order, error) {
	return r.Get(ctx, id)
}

func (r memOrders) UpdateStatuses(_ context.Context, id uuid.UUID, update order.StatusUpdate) (order.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return order.Order{}, errs.NotFoundf("order %s", id)
	}
	if update.PaymentStatus != nil {
		o.PaymentStatus = *update.PaymentStatus
	}
	r.s.orders[id] = o

	return o, nil
}

func (r memOrders) SetPaymentStatus(ctx context.Context, id uuid.UUID, st status.PaymentStatus) error {
	_, err := r.UpdateStatuses(ctx, id, order.StatusUpdate{PaymentStatus: &st})

	return err
}

type memOrderItems struct{ s *memStore }

func (r memOrderItems) BulkInsert(_ context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	for _, item := range items {
		r.s.items[item.OrderID] = append(r.s.items[item.OrderID], item)
	}

	return items, nil
}

func (r memOrderItems) ListByOrder(_ context.Context, orderID uuid.UUID) ([]orderitem.OrderItem, error) {
	return slices.Clone(r.s.items[orderID]), nil
}

type memPayments struct{ s *memStore }

func (r memPayments) Insert(_ context.Context, p payment.Payment) (payment.Payment, error) {
	r.s.payments[p.OrderID] = p

	return p, nil
}

func (r memPayments) GetByOrder(_ context.Context, orderID uuid.UUID) (payment.Payment, error) {
	p, ok := r.s.payments[orderID]
	if !ok {
		return payment.Payment{}, errs.NotFoundf("payment for order %s", orderID)
	}

	return p, nil
}

func (r memPayments) GetByOrderForUpdate(ctx context.Context, orderID uuid.UUID) (payment.Payment, error) {
	return r.GetByOrder(ctx, orderID)
}

func (r memPayments) UpdateStatus(_ context.Context, orderID uuid.UUID, st status.PaymentStatus) error {
	if r.s.failPaymentUpdate != nil {
		return r.s.failPaymentUpdate
	}
	p, ok := r.s.payments[orderID]
	if !ok {
		return errs.NotFoundf("payment for order %s", orderID)
	}
	p.Status = st
	r.s.payments[orderID] = p

	return nil
}

func (r memPayments) SetSessionID(_ context.Context, orderID uuid.UUID, sessionID string) error {
	p, ok := r.s.payments[orderID]
	if !ok {
		return errs.NotFoundf("payment for order %s", orderID)
	}
	p.SessionID = sessionID
	r.s.payments[orderID] = p

	return nil
}

type fakeGateway struct {
	mu        sync.Mutex
	requests  []checkout.SessionRequest
	createErr error
	states    map[string]checkout.SessionState
	getErr    error
	events    map[string]checkout.WebhookEvent
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req checkout.SessionRequest) (checkout.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	if g.createErr != nil {
		return checkout.Session{}, g.createErr
	}

	return checkout.Session{
		ID:        "cs_test_" + req.OrderID,
		URL:       "https://checkout.example/" + req.OrderID,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (g *fakeGateway) RetrieveSession(_ context.Context, sessionID string) (checkout.SessionState, error) {
	if g.getErr != nil {
		return checkout.SessionState{}, g.getErr
	}
	st, ok := g.states[sessionID]
	if !ok {
		return checkout.SessionState{}, errors.New("no such session")
	}

	return st, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, _ string) (checkout.WebhookEvent, error) {
	ev, ok := g.events[string(payload)]
	if !ok {
		return checkout.WebhookEvent{}, errors.New("signature mismatch")
	}

	return ev, nil
}

type memCache struct {
	sessions map[uuid.UUID]checkout.Session
	getErr   error
}

func (c *memCache) Get(_ context.Context, orderID uuid.UUID) (checkout.Session, bool, error) {
	if c.getErr != nil {
		return checkout.Session{}, false, c.getErr
	}
	sess, ok := c.sessions[orderID]

	return sess, ok, nil
}

func (c *memCache) Set(_ context.Context, orderID uuid.UUID, sess checkout.Session, _ time.Duration) error {
	c.sessions[orderID] = sess

	return nil
}

func (c *memCache) Delete(_ context.Context, orderID uuid.UUID) error {
	delete(c.sessions, orderID)

	return nil
}
