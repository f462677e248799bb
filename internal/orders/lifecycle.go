package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rbhardware/shop-backend/pkg/enums"
	"github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/types"
)

const (
	estimatedDeliveryWindow = 7 * 24 * time.Hour

	commentPlaced    = "Order placed"
	commentCancelled = "Cancelled by user"

	msgNoItems         = "Order must contain at least one item"
	msgNoShipping      = "Shipping address is required"
	msgNoPayment       = "Payment method is required"
	msgInvalidTotal    = "Valid order total is required"
	msgOrderNotFound   = "Order not found"
	msgStatusRequired  = "Status is required"
	msgInvalidStatus   = "Invalid status"
	msgCannotCancelFmt = "Order cannot be cancelled in %s state"
)

// CreateInput is the checkout payload.
type CreateInput struct {
	Items           []types.OrderItem     `json:"items" validate:"required,min=1"`
	ShippingAddress *types.Address        `json:"shippingAddress" validate:"required"`
	PaymentMethod   string                `json:"paymentMethod" validate:"required,notblank"`
	PaymentDetails  *types.PaymentDetails `json:"paymentDetails"`
	Total           *types.Money          `json:"total" validate:"required,gt=0"`
	Notes           *string               `json:"notes"`
}

// ValidationMessage maps the first failing field to its checkout message.
// Fields are declared in the order the client expects errors.
func (CreateInput) ValidationMessage(field, tag string) string {
	switch field {
	case "items":
		return msgNoItems
	case "shippingAddress":
		return msgNoShipping
	case "paymentMethod":
		return msgNoPayment
	case "total":
		return msgInvalidTotal
	}
	return ""
}

// NewOrderID returns ORD-YYYYMMDD-XXXX where XXXX is two random bytes in
// upper-case hex.
func NewOrderID(now time.Time, random io.Reader) (string, error) {
	if random == nil {
		random = rand.Reader
	}
	buf := make([]byte, 2)
	if _, err := io.ReadFull(random, buf); err != nil {
		return "", fmt.Errorf("read order id entropy: %w", err)
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(buf))), nil
}

// Build assembles a new order from a validated checkout payload.
func Build(in CreateInput, orderID string, now time.Time) types.Order {
	now = now.UTC()
	eta := now.Add(estimatedDeliveryWindow)

	details := types.PaymentDetails{Status: enums.PaymentStatusPending, Method: in.PaymentMethod}
	if in.PaymentDetails != nil {
		details = *in.PaymentDetails
		if !details.Status.IsValid() {
			details.Status = enums.PaymentStatusPending
		}
		if strings.TrimSpace(details.Method) == "" {
			details.Method = in.PaymentMethod
		}
	}

	var notes *string
	if in.Notes != nil && strings.TrimSpace(*in.Notes) != "" {
		notes = in.Notes
	}

	items := make([]types.OrderItem, len(in.Items))
	copy(items, in.Items)

	return types.Order{
		ID:              uuid.NewString(),
		OrderID:         orderID,
		Items:           items,
		ShippingAddress: *in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		PaymentDetails:  details,
		TotalAmount:     types.NewMoney(in.Total.Decimal),
		Status:          enums.OrderStatusProcessing,
		StatusHistory: []types.StatusHistoryEntry{
			{Status: enums.OrderStatusProcessing, Timestamp: now, Comment: commentPlaced},
		},
		EstimatedDelivery: &eta,
		Notes:             notes,
		CreatedAt:         &now,
	}
}

// Cancel moves a Pending or Processing order to Cancelled.
func Cancel(order *types.Order, reason string, now time.Time) error {
	if !order.Status.IsCancellable() {
		return errors.New(errors.CodeInvalidTransition, fmt.Sprintf(msgCannotCancelFmt, order.Status))
	}
	comment := strings.TrimSpace(reason)
	if comment == "" {
		comment = commentCancelled
	}
	transition(order, enums.OrderStatusCancelled, comment, now)
	return nil
}

// ParseAdminStatus validates a status submitted by an administrator.
func ParseAdminStatus(raw string) (enums.OrderStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errors.New(errors.CodeValidation, msgStatusRequired)
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil || !status.IsAdminSettable() {
		return "", errors.New(errors.CodeValidation, msgInvalidStatus)
	}
	return status, nil
}

// SetStatusByAdmin applies any admin-settable status regardless of the current one.
func SetStatusByAdmin(order *types.Order, status enums.OrderStatus, now time.Time) {
	transition(order, status, fmt.Sprintf("Status updated to %s by admin", status), now)
}

func transition(order *types.Order, status enums.OrderStatus, comment string, now time.Time) {
	order.Status = status
	order.StatusHistory = append(order.StatusHistory, types.StatusHistoryEntry{
		Status:    status,
		Timestamp: now.UTC(),
		Comment:   comment,
	})
}

// Find returns the index of the order whose orderId or internal id equals ref.
func Find(list types.OrderList, ref string) int {
	for i, order := range list {
		if order.OrderID == ref || order.ID == ref {
			return i
		}
	}
	return -1
}

// SortNewestFirst orders admin listings by placement time, newest first.
func SortNewestFirst(list []AdminOrder) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].PlacedAt().After(list[j].PlacedAt())
	})
}
