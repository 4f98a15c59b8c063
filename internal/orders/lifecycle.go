package orders

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CancelToken is the ReleaseOnce token that returns a cancelled order's units.
func CancelToken(orderID string) string { return "cancel:" + orderID }

// CancelOrder returns the order's units to stock and marks it cancelled.
// The release is keyed by order, so a retry after a failed status write, or a
// concurrent second cancel, never returns the units twice.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (Order, error) {
	log := s.logger().With(zap.String("order_id", orderID))

	o, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(o.Status, StatusCancelled) {
		return Order{}, InvalidState(fmt.Sprintf("order %s is already %s", orderID, o.Status))
	}

	applied, err := s.Ledger.ReleaseOnce(ctx, CancelToken(orderID), o.ProductID, o.Quantity)
	if err != nil {
		return Order{}, StorageFailure("release stock", err)
	}

	cancelled, err := s.Orders.MarkCancelled(ctx, orderID, s.now())
	if err != nil {
		if IsKind(err, KindInvalidState) || IsKind(err, KindNotFound) {
			return Order{}, err
		}
		log.Warn("stock released but order status not updated, cancellation must be retried",
			zap.Bool("release_applied", applied), zap.Error(err))
		return Order{}, StorageFailure("order status could not be updated, retry the cancellation", err)
	}

	log.Info("order cancelled", zap.Int("quantity", cancelled.Quantity), zap.Bool("release_applied", applied))

	s.cache(ctx, cancelled)
	if err := s.publish(ctx, TopicOrderCancelled, EventOrderCancelled, orderID, OrderCancelledPayload{
		OrderID:   cancelled.ID,
		ProductID: cancelled.ProductID,
		Quantity:  cancelled.Quantity,
	}); err != nil {
		log.Warn("publish order cancelled failed", zap.Error(err))
	}
	return cancelled, nil
}
