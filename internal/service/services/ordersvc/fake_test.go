package ordersvc

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/icartrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ipaymentrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ivariantrepo"
	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/cartitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"github.com/google/uuid"
)

type memState struct {
	cart     map[uuid.UUID]cartitem.CartItem
	variants map[uuid.UUID]catalog.ReservedVariant
	orders   map[uuid.UUID]order.Order
	items    map[uuid.UUID][]orderitem.OrderItem
	payments map[uuid.UUID]payment.Payment
}

func (st memState) clone() memState {
	items := make(map[uuid.UUID][]orderitem.OrderItem, len(st.items))
	for k, v := range st.items {
		items[k] = slices.Clone(v)
	}

	return memState{
		cart:     maps.Clone(st.cart),
		variants: maps.Clone(st.variants),
		orders:   maps.Clone(st.orders),
		items:    items,
		payments: maps.Clone(st.payments),
	}
}

// memStore is an in-memory database. A unit of work holds the store lock from Begin
// until Commit or Rollback, which stands in for row locks.
type memStore struct {
	tx sync.Mutex
	memState

	failPaymentInsert error
	commits           int
}

func newMemStore() *memStore {
	return &memStore{memState: memState{
		cart:     map[uuid.UUID]cartitem.CartItem{},
		variants: map[uuid.UUID]catalog.ReservedVariant{},
		orders:   map[uuid.UUID]order.Order{},
		items:    map[uuid.UUID][]orderitem.OrderItem{},
		payments: map[uuid.UUID]payment.Payment{},
	}}
}

func (s *memStore) newUOW() *memUOW {
	return &memUOW{store: s}
}

type memUOW struct {
	store  *memStore
	backup *memState
}

func (u *memUOW) Begin(context.Context) error {
	u.store.tx.Lock()
	b := u.store.memState.clone()
	u.backup = &b

	return nil
}

func (u *memUOW) Commit(context.Context) error {
	if u.backup == nil {
		return errors.New("commit without begin")
	}
	u.backup = nil
	u.store.commits++
	u.store.tx.Unlock()

	return nil
}

func (u *memUOW) Rollback(context.Context) error {
	if u.backup == nil {
		return nil
	}
	u.store.memState = *u.backup
	u.backup = nil
	u.store.tx.Unlock()

	return nil
}

func (u *memUOW) CartItemRepository() icartrepo.ICartItemRepository {
	return memCart{u.store}
}

func (u *memUOW) VariantRepository() ivariantrepo.IVariantRepository {
	return memVariants{u.store}
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

type memCart struct{ s *memStore }

func (r memCart) GetForUpdate(_ context.Context, ids []uuid.UUID) ([]cartitem.CartItem, error) {
	var out []cartitem.CartItem
	for _, id := range ids {
		if item, ok := r.s.cart[id]; ok {
			out = append(out, item)
		}
	}

	return out, nil
}

func (r memCart) DeleteByIDs(_ context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(r.s.cart, id)
	}

	return nil
}

type memVariants struct{ s *memStore }

func (r memVariants) DecrementIfAvailable(
	_ context.Context,
	id uuid.UUID,
	quantity int,
) (catalog.ReservedVariant, bool, error) {
	v, ok := r.s.variants[id]
	if !ok || v.Stock < quantity {
		return catalog.ReservedVariant{}, false, nil
	}
	v.Stock -= quantity
	r.s.variants[id] = v

	return v, true, nil
}

func (r memVariants) Increment(_ context.Context, id uuid.UUID, quantity int) error {
	v, ok := r.s.variants[id]
	if !ok {
		return errs.NotFoundf("variant %s", id)
	}
	v.Stock += quantity
	r.s.variants[id] = v

	return nil
}

func (r memVariants) Get(_ context.Context, id uuid.UUID) (catalog.Variant, error) {
	v, ok := r.s.variants[id]
	if !ok {
		return catalog.Variant{}, errs.NotFoundf("variant %s", id)
	}

	return v.Variant, nil
}

type memOrders struct{ s *memStore }

func (r memOrders) Insert(_ context.Context, o order.Order) (order.Order, error) {
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	shell := o
	shell.Items = nil
	shell.Payment = nil
	r.s.orders[o.ID] = shell

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
	if update.OrderStatus != nil {
		o.OrderStatus = *update.OrderStatus
	}
	if update.PaymentStatus != nil {
		o.PaymentStatus = *update.PaymentStatus
	}
	if update.DeliveryStatus != nil {
		o.DeliveryStatus = *update.DeliveryStatus
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
	out := slices.Clone(items)
	for i := range out {
		out[i].ID = uuid.New()
		r.s.items[out[i].OrderID] = append(r.s.items[out[i].OrderID], out[i])
	}

	return out, nil
}

func (r memOrderItems) ListByOrder(_ context.Context, orderID uuid.UUID) ([]orderitem.OrderItem, error) {
	return slices.Clone(r.s.items[orderID]), nil
}

type memPayments struct{ s *memStore }

func (r memPayments) Insert(_ context.Context, p payment.Payment) (payment.Payment, error) {
	if r.s.failPaymentInsert != nil {
		return payment.Payment{}, r.s.failPaymentInsert
	}
	p.ID = uuid.New()
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
