package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	catalogmodels "storefront/internal/catalog/models"
	"storefront/internal/order/models"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/requestcontext"
)

// LineInput is one requested order line.
type LineInput struct {
	ProductID id.ProductID
	Quantity  int
}

// MaxQuantity bounds one line, and the sum of lines for one product, to the
// order_items.quantity column.
const MaxQuantity = math.MaxInt32

type CreateInput struct {
	Items           []LineInput
	ShippingAddress string
	Notes           string
}

// Validate checks the request shape before any store access.
func (in CreateInput) Validate() error {
	if len(in.Items) == 0 {
		return dErrors.NewField(dErrors.CodeValidation, "items", "Order must contain at least one item.")
	}
	for _, l := range in.Items {
		if l.Quantity < 1 {
			return dErrors.NewField(dErrors.CodeValidation, "items", "Ensure quantity is greater than or equal to 1.")
		}
		if l.Quantity > MaxQuantity {
			return dErrors.NewField(dErrors.CodeValidation, "items", fmt.Sprintf("Ensure quantity is less than or equal to %d.", MaxQuantity))
		}
	}
	if _, _, err := in.aggregate(); err != nil {
		return err
	}
	if in.ShippingAddress == "" {
		return dErrors.NewField(dErrors.CodeValidation, "shipping_address", "This field is required.")
	}
	return nil
}

// Create places an order for the caller. Stock checks, the order, its items
// and the stock decrements commit together or not at all.
func (s *Service) Create(ctx context.Context, p requestcontext.Principal, in CreateInput) (view *OrderView, err error) {
	ctx, span := s.tracer.Start(ctx, "order.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant.id", p.TenantID.String()),
		attribute.Int("order.lines", len(in.Items)),
	)
	start := time.Now()
	defer func() {
		s.metrics.ObserveCreateDuration(time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
	}()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		order, txErr = s.placeOrder(txCtx, p, in)
		return txErr
	})
	if err != nil {
		return nil, wrapOrderErr(err)
	}

	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.String("order.number", order.OrderNumber),
	)
	s.metrics.IncrementOrdersCreated()
	s.emit(ctx, p, audit.EventOrderCreated, order.ID, map[string]string{
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount.StringFixed(2),
		"items":        strconv.Itoa(order.ItemsCount()),
	})
	s.logger.InfoContext(ctx, "order created",
		"tenant_id", p.TenantID.String(),
		"order_id", order.ID.String(),
		"order_number", order.OrderNumber,
		"total_amount", order.TotalAmount.StringFixed(2),
	)
	return s.view(ctx, order)
}

// aggregate sums quantities per product, in first-seen order. A product's
// total may not exceed MaxQuantity.
func (in CreateInput) aggregate() (map[id.ProductID]int, []id.ProductID, error) {
	requested := make(map[id.ProductID]int)
	var productIDs []id.ProductID
	for _, l := range in.Items {
		total, seen := requested[l.ProductID]
		if !seen {
			productIDs = append(productIDs, l.ProductID)
		}
		if l.Quantity > MaxQuantity-total {
			return nil, nil, dErrors.NewField(dErrors.CodeValidation, "items",
				fmt.Sprintf("Total quantity for product %s exceeds %d.", l.ProductID, MaxQuantity))
		}
		requested[l.ProductID] = total + l.Quantity
	}
	return requested, productIDs, nil
}

// placeOrder runs inside the transaction. Stock is checked for every product
// before the first write; the in-memory stores undo their writes if a later
// step fails.
func (s *Service) placeOrder(ctx context.Context, p requestcontext.Principal, in CreateInput) (*models.Order, error) {
	requested, productIDs, err := in.aggregate()
	if err != nil {
		return nil, err
	}

	locked, err := s.products.LockForOrder(ctx, p.TenantID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	products := make(map[id.ProductID]*catalogmodels.Product, len(locked))
	for _, product := range locked {
		products[product.ID] = product
	}

	lines := make([]models.Line, 0, len(in.Items))
	for _, l := range in.Items {
		product, ok := products[l.ProductID]
		if !ok || !product.IsActive {
			return nil, errProductUnavailable(l.ProductID)
		}
		lines = append(lines, models.Line{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    l.Quantity,
			Price:       product.Price,
		})
	}
	for _, productID := range productIDs {
		product := products[productID]
		if product.Stock < requested[productID] {
			s.metrics.IncrementStockRejections()
			return nil, errInsufficientStock(product)
		}
	}

	number, err := s.uniqueOrderNumber(ctx)
	if err != nil {
		return nil, err
	}
	order, err := models.NewOrder(id.OrderID(uuid.New()), p.TenantID, p.UserID, number, in.ShippingAddress, in.Notes, lines, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}
	for _, productID := range productIDs {
		if err := s.products.DecrementStock(ctx, p.TenantID, productID, requested[productID]); err != nil {
			if errors.Is(err, sentinel.ErrInsufficientStock) {
				s.metrics.IncrementStockRejections()
				return nil, errInsufficientStock(products[productID])
			}
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

func (s *Service) uniqueOrderNumber(ctx context.Context) (string, error) {
	for range maxOrderNumberAttempts {
		number := s.newNumber()
		exists, err := s.orders.NumberExists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
		if !exists {
			return number, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInternal, "could not allocate a unique order number")
}
