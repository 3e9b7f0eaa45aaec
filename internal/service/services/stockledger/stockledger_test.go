package stockledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memVariants struct {
	mu       sync.Mutex
	variants map[uuid.UUID]catalog.Variant
	order    []uuid.UUID
}

func newMemVariants(vs ...catalog.Variant) *memVariants {
	m := &memVariants{variants: make(map[uuid.UUID]catalog.Variant)}
	for _, v := range vs {
		m.variants[v.ID] = v
	}

	return m
}

func (m *memVariants) DecrementIfAvailable(
	_ context.Context,
	id uuid.UUID,
	quantity int,
) (catalog.ReservedVariant, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order = append(m.order, id)
	v, ok := m.variants[id]
	if !ok || v.Stock < quantity {
		return catalog.ReservedVariant{}, false, nil
	}
	v.Stock -= quantity
	m.variants[id] = v

	return catalog.ReservedVariant{Variant: v}, true, nil
}

func (m *memVariants) Increment(_ context.Context, id uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.variants[id]
	if !ok {
		return errs.NotFoundf("variant %s", id)
	}
	v.Stock += quantity
	m.variants[id] = v

	return nil
}

func (m *memVariants) Get(_ context.Context, id uuid.UUID) (catalog.Variant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.variants[id]
	if !ok {
		return catalog.Variant{}, errs.NotFoundf("variant %s", id)
	}

	return v, nil
}

func (m *memVariants) stock(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.variants[id].Stock
}

func variant(name string, stock int) catalog.Variant {
	return catalog.Variant{ID: uuid.New(), Name: name, Stock: stock, Price: decimal.NewFromInt(10)}
}

func TestReserve_DecrementsStock(t *testing.T) {
	v := variant("Rose 30ml", 5)
	repo := newMemVariants(v)

	reserved, err := New(repo).Reserve(context.Background(), v.ID, 3)

	require.NoError(t, err)
	assert.Equal(t, v.ID, reserved.ID)
	assert.Equal(t, 2, repo.stock(v.ID))
}

func TestReserve_OutOfStockReportsAvailable(t *testing.T) {
	v := variant("Oud 50ml", 1)
	repo := newMemVariants(v)

	_, err := New(repo).Reserve(context.Background(), v.ID, 2)

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrOutOfStock)

	var oos *errs.OutOfStockError
	require.True(t, errors.As(err, &oos))
	assert.Equal(t, 1, oos.Available)
	assert.Equal(t, 2, oos.Requested)
	assert.Equal(t, "insufficient stock for variant Oud 50ml, 1 available", oos.Error())
	assert.Equal(t, 1, repo.stock(v.ID))
}

func TestReserve_MissingVariant(t *testing.T) {
	_, err := New(newMemVariants()).Reserve(context.Background(), uuid.New(), 1)

	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestReserve_RejectsNonPositiveQuantity(t *testing.T) {
	v := variant("Rose 30ml", 5)

	_, err := New(newMemVariants(v)).Reserve(context.Background(), v.ID, 0)

	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestReserveAll_LocksInIDOrderAndKeepsRequestOrder(t *testing.T) {
	a, b, c := variant("a", 5), variant("b", 5), variant("c", 5)
	repo := newMemVariants(a, b, c)

	reqs := []Request{{c.ID, 1}, {a.ID, 1}, {b.ID, 1}}
	out, err := New(repo).ReserveAll(context.Background(), reqs)

	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, c.ID, out[0].ID)
	assert.Equal(t, a.ID, out[1].ID)
	assert.Equal(t, b.ID, out[2].ID)

	for i := 1; i < len(repo.order); i++ {
		assert.Negative(t, compareUUID(repo.order[i-1], repo.order[i]))
	}
}

func compareUUID(a, b uuid.UUID) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}

	return 0
}

func TestReserve_ConcurrentNeverOversells(t *testing.T) {
	v := variant("Limited", 1)
	repo := newMemVariants(v)
	ledger := New(repo)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		oos     int
	)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Reserve(context.Background(), v.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
			} else if errors.Is(err, errs.ErrOutOfStock) {
				oos++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 1, oos)
	assert.Equal(t, 0, repo.stock(v.ID))
}

func TestRestock(t *testing.T) {
	v := variant("Rose 30ml", 0)
	repo := newMemVariants(v)

	require.NoError(t, New(repo).Restock(context.Background(), v.ID, 4))
	assert.Equal(t, 4, repo.stock(v.ID))

	assert.ErrorIs(t, New(repo).Restock(context.Background(), v.ID, -1), errs.ErrInvalidInput)
}
