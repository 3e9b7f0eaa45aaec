package uow

import (
	"context"
	"errors"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/icartrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/icatalogrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iinboxrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ipaymentrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ivariantrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	cartrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/cartitem/postgres"
	catalogrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/catalog/postgres"
	inboxrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/inbox/postgres"
	orderrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/outbox/postgres"
	paymentrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/payment/postgres"
	variantrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/variant/postgres"
	"github.com/jackc/pgx/v5"
)

// UnitOfWork hands out repositories bound either to the pool or, after Begin, to one transaction.
type UnitOfWork struct {
	client *postgres.Client
	tx     pgx.Tx

	cartItemRepo  icartrepo.ICartItemRepository
	variantRepo   ivariantrepo.IVariantRepository
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	paymentRepo   ipaymentrepo.IPaymentRepository
	catalogRepo   icatalogrepo.ICatalogRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
	inboxRepo     iinboxrepo.IInboxRepository
}

func (u *UnitOfWork) CartItemRepository() icartrepo.ICartItemRepository {
	return u.cartItemRepo
}

func (u *UnitOfWork) VariantRepository() ivariantrepo.IVariantRepository {
	return u.variantRepo
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *UnitOfWork) PaymentRepository() ipaymentrepo.IPaymentRepository {
	return u.paymentRepo
}

func (u *UnitOfWork) CatalogRepository() icatalogrepo.ICatalogRepository {
	return u.catalogRepo
}

func (u *UnitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

func (u *UnitOfWork) InboxRepository() iinboxrepo.IInboxRepository {
	return u.inboxRepo
}

// NewUnitOfWork creates a unit of work whose repositories run on the pool until Begin is called.
func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	u := &UnitOfWork{client: client}
	u.bind(client.Pool())

	return u
}

func (u *UnitOfWork) bind(conn postgres.Conn) {
	u.cartItemRepo = cartrepo.NewPostgresCartItemRepository(conn)
	u.variantRepo = variantrepo.NewPostgresVariantRepository(conn)
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(conn)
	u.paymentRepo = paymentrepo.NewPostgresPaymentRepository(conn)
	u.catalogRepo = catalogrepo.NewPostgresCatalogRepository(conn)
	u.outboxRepo = outboxrepo.NewOutboxRepository(conn)
	u.inboxRepo = inboxrepo.NewInboxRepository(conn)
}

// Begin starts a transaction and rebinds every repository to it.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.bind(tx)

	return nil
}

// Commit commits the transaction, a no-op when Begin was not called.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Commit(ctx)
}

// Rollback rolls the transaction back. Rolling back a finished transaction is not an error,
// so it is safe to defer right after Begin.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(context.WithoutCancel(ctx))
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}

	return err
}
