package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/barberdesk/barberdesk/internal/booking"
	"github.com/barberdesk/barberdesk/internal/cart"
	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeStore runs settlements against in memory state and restores a snapshot
// when the transaction callback fails, mirroring a database rollback.
type fakeStore struct {
	products     map[int64]*domain.Product
	scheduledAt  map[time.Time]int
	appointments []domain.Appointment
	orders       []domain.Order
	orderItems   []domain.OrderItem
	txCount      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:    map[int64]*domain.Product{},
		scheduledAt: map[time.Time]int{},
	}
}

func (s *fakeStore) addProduct(id int64, quantity, sold int) {
	s.products[id] = &domain.Product{ID: id, Quantity: quantity, SoldQuantity: sold}
}

func (s *fakeStore) InTransaction(ctx context.Context, fn func(tx Tx) error) error {
	s.txCount++

	snapProducts := map[int64]*domain.Product{}
	for id, p := range s.products {
		cp := *p
		snapProducts[id] = &cp
	}
	snapSlots := map[time.Time]int{}
	for at, n := range s.scheduledAt {
		snapSlots[at] = n
	}
	snapAppts := append([]domain.Appointment(nil), s.appointments...)
	snapOrders := append([]domain.Order(nil), s.orders...)
	snapItems := append([]domain.OrderItem(nil), s.orderItems...)

	if err := fn(&fakeTx{store: s}); err != nil {
		s.products = snapProducts
		s.scheduledAt = snapSlots
		s.appointments = snapAppts
		s.orders = snapOrders
		s.orderItems = snapItems
		return err
	}
	return nil
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := t.store.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *fakeTx) DecrementStock(ctx context.Context, productID int64, n int) (bool, error) {
	p, ok := t.store.products[productID]
	if !ok || p.Quantity < n {
		return false, nil
	}
	p.Quantity -= n
	p.SoldQuantity += n
	return true, nil
}

func (t *fakeTx) CountScheduledAt(ctx context.Context, at time.Time) (int64, error) {
	return int64(t.store.scheduledAt[at]), nil
}

func (t *fakeTx) CreateAppointment(ctx context.Context, appt *domain.Appointment) error {
	t.store.scheduledAt[appt.StartAt]++
	t.store.appointments = append(t.store.appointments, *appt)
	return nil
}

func (t *fakeTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	t.store.orders = append(t.store.orders, *order)
	return nil
}

func (t *fakeTx) CreateOrderItems(ctx context.Context, items []domain.OrderItem) error {
	t.store.orderItems = append(t.store.orderItems, items...)
	return nil
}

// fakeCartStore keeps cart snapshots in a map.
type fakeCartStore struct {
	carts   map[string]*cart.Cart
	loadErr error
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: map[string]*cart.Cart{}}
}

func (s *fakeCartStore) Load(ctx context.Context, id string) (*cart.Cart, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if c, ok := s.carts[id]; ok {
		return c, nil
	}
	return cart.New(id), nil
}

func (s *fakeCartStore) Save(ctx context.Context, c *cart.Cart) error {
	s.carts[c.ID] = c
	return nil
}

func (s *fakeCartStore) Delete(ctx context.Context, id string) error {
	delete(s.carts, id)
	return nil
}

func TestSettleRequiresAuthentication(t *testing.T) {
	svc := NewCheckoutService(newFakeStore(), newFakeCartStore())

	_, err := svc.Settle(context.Background(), 0, "sess-1")

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSettleEmptyCart(t *testing.T) {
	store := newFakeStore()
	svc := NewCheckoutService(store, newFakeCartStore())

	_, err := svc.Settle(context.Background(), 42, "sess-1")

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, store.txCount)
}

func TestSettleUnknownProduct(t *testing.T) {
	store := newFakeStore()
	carts := newFakeCartStore()
	c := cart.New("sess-1")
	c.AddItem(cart.Item{ID: 99, Kind: cart.KindProduct, Name: "Ghost", Price: 5, Quantity: 1})
	carts.carts["sess-1"] = c

	svc := NewCheckoutService(store, carts)
	_, err := svc.Settle(context.Background(), 42, "sess-1")

	assert.ErrorIs(t, err, ErrProductNotFound)
	// the error names the failing line
	assert.Contains(t, err.Error(), "Ghost")
	assert.Empty(t, store.orders)
	// the cart survives a failed settlement
	assert.Contains(t, carts.carts, "sess-1")
}

func TestSettleInsufficientStock(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, 2, 0)
	carts := newFakeCartStore()
	c := cart.New("sess-1")
	c.AddItem(cart.Item{ID: 1, Kind: cart.KindProduct, Name: "Pomade", Price: 12.5, Quantity: 3})
	carts.carts["sess-1"] = c

	svc := NewCheckoutService(store, carts)
	_, err := svc.Settle(context.Background(), 42, "sess-1")

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Pomade")
	// no stock moved
	assert.Equal(t, 2, store.products[1].Quantity)
	assert.Equal(t, 0, store.products[1].SoldQuantity)
	assert.Empty(t, store.orders)
}

func TestSettleSlotConflict(t *testing.T) {
	store := newFakeStore()
	taken, err := parseSlot(t, "2026-09-01", "10:00")
	require.NoError(t, err)
	store.scheduledAt[taken] = 1

	carts := newFakeCartStore()
	c := cart.New("sess-1")
	c.AddItem(cart.Item{ID: 5, Kind: cart.KindService, Name: "Haircut", Price: 30, Quantity: 1, Date: "2026-09-01", Time: "10:00"})
	carts.carts["sess-1"] = c

	svc := NewCheckoutService(store, carts)
	_, err = svc.Settle(context.Background(), 42, "sess-1")

	assert.ErrorIs(t, err, booking.ErrSlotTaken)
	assert.Empty(t, store.orders)
	assert.Empty(t, store.appointments)
}

func TestSettleRollsBackEarlierLines(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, 5, 0)
	store.addProduct(2, 0, 0)

	carts := newFakeCartStore()
	c := cart.New("sess-1")
	c.AddItem(cart.Item{ID: 1, Kind: cart.KindProduct, Name: "Pomade", Price: 12.5, Quantity: 2})
	c.AddItem(cart.Item{ID: 2, Kind: cart.KindProduct, Name: "Wax", Price: 8, Quantity: 1})
	carts.carts["sess-1"] = c

	svc := NewCheckoutService(store, carts)
	_, err := svc.Settle(context.Background(), 42, "sess-1")

	assert.ErrorIs(t, err, ErrInsufficientStock)
	// the first line's decrement was rolled back with the transaction
	assert.Equal(t, 5, store.products[1].Quantity)
	assert.Equal(t, 0, store.products[1].SoldQuantity)
}

func TestSettleMixedCart(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, 5, 3)

	carts := newFakeCartStore()
	c := cart.New("sess-1")
	c.AddItem(cart.Item{ID: 1, Kind: cart.KindProduct, Name: "Pomade", Price: 12.5, Quantity: 2})
	c.AddItem(cart.Item{ID: 5, Kind: cart.KindService, Name: "Haircut", Price: 30, Quantity: 1, Date: "2026-09-01", Time: "10:00"})
	carts.carts["sess-1"] = c

	svc := NewCheckoutService(store, carts)
	receipt, err := svc.Settle(context.Background(), 42, "sess-1")
	require.NoError(t, err)

	// stock moved exactly once
	assert.Equal(t, 3, store.products[1].Quantity)
	assert.Equal(t, 5, store.products[1].SoldQuantity)

	// appointment landed on the requested slot
	require.Len(t, receipt.Appointments, 1)
	appt := receipt.Appointments[0]
	assert.Equal(t, int64(42), appt.UserID)
	assert.Equal(t, domain.AppointmentScheduled, appt.Status)
	assert.Equal(t, "2026-09-01 10:00", appt.StartAt.UTC().Format("2006-01-02 15:04"))

	// receipt covers both lines at cart prices
	require.Len(t, receipt.Items, 2)
	assert.Equal(t, domain.OrderPaid, receipt.Order.Status)
	assert.InDelta(t, 55.0, receipt.Order.TotalAmount, 0.0001)
	assert.Equal(t, 3, receipt.Order.ItemCount)
	assert.Equal(t, appt.ID, receipt.Items[1].AppointmentID)

	// cart cleared after commit
	assert.NotContains(t, carts.carts, "sess-1")

	require.Len(t, store.orders, 1)
	assert.Len(t, store.orderItems, 2)
	assert.Equal(t, 1, store.txCount)
}

func TestSettleUndatedServiceLine(t *testing.T) {
	store := newFakeStore()
	carts := newFakeCartStore()
	c := cart.New("sess-1")
	c.AddItem(cart.Item{ID: 5, Kind: cart.KindService, Name: "Haircut", Price: 30, Quantity: 2})
	carts.carts["sess-1"] = c

	svc := NewCheckoutService(store, carts)
	receipt, err := svc.Settle(context.Background(), 42, "sess-1")
	require.NoError(t, err)

	assert.Empty(t, receipt.Appointments)
	require.Len(t, receipt.Items, 1)
	assert.Nil(t, receipt.Items[0].StartAt)
}

func TestSettleCartLoadFailure(t *testing.T) {
	carts := newFakeCartStore()
	carts.loadErr = errors.New("store offline")

	svc := NewCheckoutService(newFakeStore(), carts)
	_, err := svc.Settle(context.Background(), 42, "sess-1")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyCart)
}

func parseSlot(t *testing.T, date, clock string) (time.Time, error) {
	t.Helper()
	return time.Parse("2006-01-02 15:04", date+" "+clock)
}
