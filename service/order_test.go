package service

import (
	"context"
	"testing"
	"time"

	"github.com/exceptionzofficial/testing-backend-akshaya/apperror"
	"github.com/exceptionzofficial/testing-backend-akshaya/events"
	"github.com/exceptionzofficial/testing-backend-akshaya/events/mocks"
	"github.com/exceptionzofficial/testing-backend-akshaya/models"
	"github.com/exceptionzofficial/testing-backend-akshaya/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestOrderLedger_CreateValidation(t *testing.T) {
	ledger := NewOrderLedger(storetest.New(t), quietPublisher(t), newTestLogger())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"no items", func(in *CreateOrderInput) { in.Items = []models.OrderItem{} }},
		{"no customer", func(in *CreateOrderInput) { in.Customer = nil }},
		{"no customer name", func(in *CreateOrderInput) { in.Customer.Name = "" }},
		{"no customer phone", func(in *CreateOrderInput) { in.Customer.Phone = "" }},
		{"zero total", func(in *CreateOrderInput) { in.TotalAmount = 0 }},
		{"negative total", func(in *CreateOrderInput) { in.TotalAmount = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validOrderInput()
			tt.mutate(&in)
			_, err := ledger.Create(ctx, in)
			assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)
		})
	}
}

func TestOrderLedger_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	ledger := NewOrderLedger(storetest.New(t), pub, newTestLogger())
	ctx := context.Background()

	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev events.Event) {
		assert.Equal(t, events.OrderCreated, ev.Type)
		assert.Equal(t, string(models.OrderPlaced), ev.Status)
	})

	order, err := ledger.Create(ctx, validOrderInput())
	require.NoError(t, err)
	assert.Len(t, order.ID, 35)
	assert.Equal(t, "ORD", order.ID[:3])
	assert.Equal(t, models.OrderPlaced, order.Status)
	assert.Nil(t, order.RiderID)
	assert.Nil(t, order.RiderName)
	assert.Nil(t, order.DeliveredAt)
	assert.Equal(t, 240.0, order.TotalAmount)

	stored, err := ledger.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Veg Thali", stored.Items[0].Name)
	assert.Equal(t, "12 MG Road", stored.Customer.Address)
}

func TestOrderLedger_StatusLifecycle(t *testing.T) {
	ledger := NewOrderLedger(storetest.New(t), quietPublisher(t), newTestLogger())
	ctx := context.Background()

	order, err := ledger.Create(ctx, validOrderInput())
	require.NoError(t, err)

	updated, prev, err := ledger.UpdateStatus(ctx, order.ID, "inProgress")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPlaced, prev)
	assert.Equal(t, models.OrderInProgress, updated.Status)
	assert.Nil(t, updated.DeliveredAt)

	ledger.now = fixedClock(order.CreatedAt.Add(30 * time.Minute))
	updated, prev, err = ledger.UpdateStatus(ctx, order.ID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, prev)
	require.NotNil(t, updated.DeliveredAt)
	assert.False(t, updated.DeliveredAt.Before(order.CreatedAt))

	delivered, err := ledger.Get(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, delivered.DeliveredAt)
	stamp := *delivered.DeliveredAt

	// Moving back out of a terminal state is accepted and leaves the
	// delivery stamp in place.
	ledger.now = fixedClock(order.CreatedAt.Add(time.Hour))
	updated, prev, err = ledger.UpdateStatus(ctx, order.ID, "placed")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, prev)
	assert.Equal(t, models.OrderPlaced, updated.Status)

	stored, err := ledger.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPlaced, stored.Status)
	require.NotNil(t, stored.DeliveredAt)
	assert.True(t, stamp.Equal(*stored.DeliveredAt), "deliveredAt moved from %v to %v", stamp, *stored.DeliveredAt)
}

func TestOrderLedger_CancelLeavesDeliveredAtUnset(t *testing.T) {
	ledger := NewOrderLedger(storetest.New(t), quietPublisher(t), newTestLogger())
	ctx := context.Background()

	order, err := ledger.Create(ctx, validOrderInput())
	require.NoError(t, err)
	_, _, err = ledger.UpdateStatus(ctx, order.ID, "inProgress")
	require.NoError(t, err)

	updated, prev, err := ledger.UpdateStatus(ctx, order.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, prev)
	assert.Equal(t, models.OrderCancelled, updated.Status)
	assert.Nil(t, updated.DeliveredAt)

	stored, err := ledger.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.DeliveredAt)
}

func TestOrderLedger_CreateAcceptsSparseItems(t *testing.T) {
	ledger := NewOrderLedger(storetest.New(t), quietPublisher(t), newTestLogger())
	in := validOrderInput()
	in.Items = []models.OrderItem{{Name: "Thali"}}

	order, err := ledger.Create(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Thali", order.Items[0].Name)
	assert.Zero(t, order.Items[0].Qty)
}

func TestOrderLedger_UpdateStatusErrors(t *testing.T) {
	st := storetest.New(t)
	ledger := NewOrderLedger(st, quietPublisher(t), newTestLogger())
	ctx := context.Background()

	order, err := ledger.Create(ctx, validOrderInput())
	require.NoError(t, err)

	_, _, err = ledger.UpdateStatus(ctx, order.ID, "shipped")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, _, err = ledger.UpdateStatus(ctx, "ORD404", "delivered")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	stored, err := st.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPlaced, stored.Status)
}

func TestOrderLedger_Queries(t *testing.T) {
	ledger := NewOrderLedger(storetest.New(t), quietPublisher(t), newTestLogger())
	ctx := context.Background()
	base := time.Now()

	var ids []string
	for i, phone := range []string{"1111111111", "2222222222", "1111111111"} {
		ledger.now = fixedClock(base.Add(time.Duration(i) * time.Second))
		in := validOrderInput()
		in.Customer.Phone = phone
		o, err := ledger.Create(ctx, in)
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	_, _, err := ledger.UpdateStatus(ctx, ids[1], "cancelled")
	require.NoError(t, err)

	all, err := ledger.List(ctx, OrderQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	mine, err := ledger.List(ctx, OrderQuery{CustomerPhone: "1111111111"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	cancelled, err := ledger.ListByStatus(ctx, "cancelled")
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, ids[1], cancelled[0].ID)

	_, err = ledger.ListByStatus(ctx, "lost")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = ledger.Get(ctx, "ORD404")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestOrderLedger_Stats(t *testing.T) {
	st := storetest.New(t)
	ledger := NewOrderLedger(st, quietPublisher(t), newTestLogger())
	ctx := context.Background()
	noon := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	ledger.now = fixedClock(noon)

	delivered, err := ledger.Create(ctx, validOrderInput())
	require.NoError(t, err)
	_, _, err = ledger.UpdateStatus(ctx, delivered.ID, "delivered")
	require.NoError(t, err)

	_, err = ledger.Create(ctx, validOrderInput())
	require.NoError(t, err)

	ledger.now = fixedClock(noon.AddDate(0, 0, -1))
	old, err := ledger.Create(ctx, validOrderInput())
	require.NoError(t, err)
	_, _, err = ledger.UpdateStatus(ctx, old.ID, "delivered")
	require.NoError(t, err)

	ledger.now = fixedClock(noon)
	stats, err := ledger.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.TodayOrders)
	assert.Equal(t, 240.0, stats.TodayRevenue)
	assert.Equal(t, 2, stats.ByStatus[models.OrderDelivered])
	assert.Equal(t, 1, stats.ByStatus[models.OrderPlaced])
	assert.Equal(t, 0, stats.ByStatus[models.OrderCancelled])
	assert.Contains(t, stats.ByStatus, models.OrderInProgress)
}

func TestOrderLedger_UpdateDetails(t *testing.T) {
	ledger := NewOrderLedger(storetest.New(t), quietPublisher(t), newTestLogger())
	ctx := context.Background()

	order, err := ledger.Create(ctx, validOrderInput())
	require.NoError(t, err)

	notes := "ring the bell"
	addr := "14 MG Road"
	patch := OrderPatch{Notes: &notes}
	patch.Customer = &struct {
		Address *string `json:"address"`
	}{Address: &addr}

	updated, err := ledger.UpdateDetails(ctx, order.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, addr, updated.Customer.Address)
	assert.Equal(t, "Asha", updated.Customer.Name)
	assert.Equal(t, models.OrderPlaced, updated.Status)

	_, err = ledger.UpdateDetails(ctx, order.ID, OrderPatch{})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = ledger.UpdateDetails(ctx, "ORD404", OrderPatch{Notes: &notes})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
