package orders

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbhardware/shop-backend/api/validators"
	"github.com/rbhardware/shop-backend/pkg/enums"
	"github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/types"
)

var orderIDPattern = regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{4}$`)

func validCreateInput() CreateInput {
	total := types.MustMoney("150.00")
	return CreateInput{
		Items: []types.OrderItem{
			{ProductID: "p1", Name: "Door handle", Price: types.MustMoney("50.00"), Quantity: 3},
		},
		ShippingAddress: &types.Address{Name: "Asha", Street: "1 Main", City: "Pune", State: "MH", ZipCode: "411001"},
		PaymentMethod:   "COD",
		Total:           &total,
	}
}

func TestNewOrderIDFormat(t *testing.T) {
	now := time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC)
	id, err := NewOrderID(now, bytes.NewReader([]byte{0xab, 0x0c}))
	require.NoError(t, err)
	require.Equal(t, "ORD-20260105-AB0C", id)

	for i := 0; i < 100; i++ {
		id, err := NewOrderID(time.Now(), nil)
		require.NoError(t, err)
		require.Regexp(t, orderIDPattern, id)
	}
}

func TestCreateInputValidationOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateInput)
		msg    string
	}{
		{"no items", func(in *CreateInput) { in.Items = nil; in.ShippingAddress = nil }, "Order must contain at least one item"},
		{"no address", func(in *CreateInput) { in.ShippingAddress = nil }, "Shipping address is required"},
		{"no payment", func(in *CreateInput) { in.PaymentMethod = " " }, "Payment method is required"},
		{"no total", func(in *CreateInput) { in.Total = nil }, "Valid order total is required"},
		{"negative total", func(in *CreateInput) { m := types.MustMoney("-1"); in.Total = &m }, "Valid order total is required"},
		{"zero total", func(in *CreateInput) { in.Total = &types.Money{} }, "Valid order total is required"},
		{"empty items", func(in *CreateInput) { in.Items = []types.OrderItem{} }, "Order must contain at least one item"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCreateInput()
			tc.mutate(&in)
			err := validators.Struct(in)
			require.True(t, errors.IsCode(err, errors.CodeValidation))
			require.Equal(t, tc.msg, errors.As(err).Message())
		})
	}
}

func TestBuildDefaults(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	order := Build(validCreateInput(), "ORD-20260201-0001", now)

	require.Equal(t, enums.OrderStatusProcessing, order.Status)
	require.Len(t, order.StatusHistory, 1)
	require.Equal(t, "Order placed", order.StatusHistory[0].Comment)
	require.Equal(t, now.Add(7*24*time.Hour), *order.EstimatedDelivery)
	require.Nil(t, order.PaymentDetails.ID)
	require.Equal(t, enums.PaymentStatusPending, order.PaymentDetails.Status)
	require.Equal(t, "COD", order.PaymentDetails.Method)
	require.Nil(t, order.Notes)
	require.NotEmpty(t, order.ID)
	require.Equal(t, now, order.PlacedAt())
}

func TestCancelOnlyFromPendingOrProcessing(t *testing.T) {
	now := time.Now()
	order := Build(validCreateInput(), "ORD-20260201-0001", now)

	order.Status = enums.OrderStatusInTransit
	err := Cancel(&order, "", now)
	require.True(t, errors.IsCode(err, errors.CodeInvalidTransition))
	require.Equal(t, "Order cannot be cancelled in In Transit state", errors.As(err).Message())
	require.Len(t, order.StatusHistory, 1)

	order.Status = enums.OrderStatusProcessing
	require.NoError(t, Cancel(&order, "", now))
	require.Equal(t, enums.OrderStatusCancelled, order.Status)
	last := order.StatusHistory[len(order.StatusHistory)-1]
	require.Equal(t, enums.OrderStatusCancelled, last.Status)
	require.Equal(t, "Cancelled by user", last.Comment)

	pending := Build(validCreateInput(), "ORD-20260201-0002", now)
	pending.Status = enums.OrderStatusPending
	require.NoError(t, Cancel(&pending, "changed my mind", now))
	require.Equal(t, "changed my mind", pending.StatusHistory[1].Comment)
}

func TestParseAdminStatus(t *testing.T) {
	_, err := ParseAdminStatus("")
	require.Equal(t, "Status is required", errors.As(err).Message())

	_, err = ParseAdminStatus("Pending")
	require.Equal(t, "Invalid status", errors.As(err).Message())

	_, err = ParseAdminStatus("Lost")
	require.Equal(t, "Invalid status", errors.As(err).Message())

	status, err := ParseAdminStatus("Shipped")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusInTransit, status)
}

func TestAdminMayRewindDeliveredOrder(t *testing.T) {
	now := time.Now()
	order := Build(validCreateInput(), "ORD-20260201-0001", now)
	order.Status = enums.OrderStatusDelivered

	SetStatusByAdmin(&order, enums.OrderStatusProcessing, now)
	require.Equal(t, enums.OrderStatusProcessing, order.Status)
	require.Equal(t, "Status updated to Processing by admin", order.StatusHistory[len(order.StatusHistory)-1].Comment)
}

func TestSortNewestFirstFallsBackToHistory(t *testing.T) {
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []AdminOrder{
		{Order: types.Order{OrderID: "none"}},
		{Order: types.Order{OrderID: "old", CreatedAt: &older}},
		{Order: types.Order{OrderID: "history", StatusHistory: []types.StatusHistoryEntry{{Timestamp: newer}}}},
	}
	SortNewestFirst(list)
	require.Equal(t, "history", list[0].OrderID)
	require.Equal(t, "old", list[1].OrderID)
	require.Equal(t, "none", list[2].OrderID)
}

func TestFindMatchesOrderIDOrInternalID(t *testing.T) {
	list := types.OrderList{{ID: "a", OrderID: "ORD-1"}, {ID: "b", OrderID: "ORD-2"}}
	require.Equal(t, 1, Find(list, "ORD-2"))
	require.Equal(t, 0, Find(list, "a"))
	require.Equal(t, -1, Find(list, "zzz"))
}
