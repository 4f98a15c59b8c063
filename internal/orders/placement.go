package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CompensationToken is the ReleaseOnce token used to undo the reservation of
// an order whose record could not be written.
func CompensationToken(orderID string) string { return "compensate:" + orderID }

// PlaceOrder reserves stock, snapshots the product price and records the
// order. A reservation whose order cannot be persisted is released again
// before the failure is reported.
func (s *Service) PlaceOrder(ctx context.Context, userID, productID string, qty int) (Order, error) {
	log := s.logger().With(zap.String("user_id", userID), zap.String("product_id", productID), zap.Int("quantity", qty))

	if err := ValidateQuantity(qty); err != nil {
		return Order{}, err
	}

	if _, err := s.Users.GetUser(ctx, userID); err != nil {
		return Order{}, fmt.Errorf("get user: %w", err)
	}
	current, err := s.Products.GetProduct(ctx, productID)
	if err != nil {
		return Order{}, fmt.Errorf("get product: %w", err)
	}
	if _, err := OrderTotal(current.Price, qty); err != nil {
		return Order{}, err
	}

	// The reservation is the only availability check. It is detached from
	// the caller so a cancelled request cannot abandon an applied decrement
	// without compensation; only the storage deadline bounds it.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reserveTimeout)
	res, err := s.Ledger.Reserve(rctx, productID, qty)
	cancel()
	if err != nil {
		return Order{}, err
	}

	orderID := s.newID()
	log = log.With(zap.String("order_id", orderID))

	// Price is read after the reservation so the snapshot matches granted stock.
	product, err := s.Products.GetProduct(ctx, productID)
	if err != nil {
		return Order{}, s.abortPlacement(ctx, log, orderID, productID, qty, fmt.Errorf("reread product: %w", err))
	}

	// The price may have risen since the first read.
	total, err := OrderTotal(product.Price, qty)
	if err != nil {
		return Order{}, s.abortPlacement(ctx, log, orderID, productID, qty, err)
	}

	order := Order{
		ID:        orderID,
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: product.Price,
		Total:     total,
		Status:    StatusPlaced,
		CreatedAt: s.now(),
	}
	if err := s.Orders.InsertOrder(ctx, order); err != nil {
		return Order{}, s.abortPlacement(ctx, log, orderID, productID, qty, fmt.Errorf("insert order: %w", err))
	}

	log.Info("order placed", zap.Int("remaining_stock", res.Remaining), zap.String("total", order.Total.StringFixed(2)))

	s.cache(ctx, order)
	if err := s.publish(ctx, TopicOrderPlaced, EventOrderPlaced, order.ID, OrderPlacedPayload{
		OrderID:   order.ID,
		UserID:    order.UserID,
		ProductID: order.ProductID,
		Quantity:  order.Quantity,
		UnitPrice: order.UnitPrice.StringFixed(2),
		Total:     order.Total.StringFixed(2),
	}); err != nil {
		log.Warn("publish order placed failed", zap.Error(err))
	}
	return order, nil
}

// abortPlacement gives the reserved units back and converts cause into the
// error reported to the caller.
func (s *Service) abortPlacement(ctx context.Context, log *zap.Logger, orderID, productID string, qty int, cause error) error {
	// The caller may already have given up; compensation must still run.
	ctx = context.WithoutCancel(ctx)

	err := s.compensate(ctx, log, orderID, productID, qty)
	if IsKind(err, KindNotFound) {
		// The product was deleted meanwhile and its stock went with it.
		log.Warn("product removed before its reservation was released", zap.Error(cause))
		return NotFound("product", productID)
	}
	if err != nil {
		log.Error("stock reservation could not be released, reconciliation required",
			zap.NamedError("cause", cause), zap.Error(err))

		if perr := s.publish(ctx, TopicStockReleaseRequested, EventStockReleaseRequested, orderID, StockReleaseRequestedPayload{
			Token:     CompensationToken(orderID),
			OrderID:   orderID,
			ProductID: productID,
			Quantity:  qty,
			Reason:    cause.Error(),
		}); perr != nil {
			log.Error("publish release request failed", zap.Error(perr))
			err = errors.Join(err, perr)
		}
		return StorageFailure("order could not be saved and its stock reservation is pending reconciliation",
			errors.Join(cause, err))
	}

	log.Warn("order placement aborted, reservation released", zap.Error(cause))
	if k := KindOf(cause); k == KindNotFound || k == KindInvalidInput {
		return cause
	}
	return StorageFailure("order could not be saved", cause)
}

func (s *Service) compensate(ctx context.Context, log *zap.Logger, orderID, productID string, qty int) error {
	token := CompensationToken(orderID)
	attempts := s.compensationAttempts()
	backoff := s.compensationBackoff()

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if _, err = s.Ledger.ReleaseOnce(ctx, token, productID, qty); err == nil || IsKind(err, KindNotFound) {
			return err
		}
		log.Warn("compensating release failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < attempts {
			time.Sleep(time.Duration(attempt) * backoff)
		}
	}
	return err
}
