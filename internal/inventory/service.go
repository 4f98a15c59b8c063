// Package inventory hosts the stock operations that sit outside order
// placement: explicit restocks and the reconciler that applies releases the
// placement engine could not apply inline.
package inventory

import (
	"context"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-shop-orders/internal/kafka"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

// Deduper short-circuits events that were already handled.
type Deduper interface {
	FirstSeen(ctx context.Context, service, id string) (bool, error)
	Forget(ctx context.Context, service, id string) error
}

type Service struct {
	Ledger      orders.StockLedger
	Products    orders.ProductRepository
	Dedup       Deduper // optional
	Logger      *zap.Logger
	ServiceName string
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Restock adds qty units to a product and returns the updated product.
func (s *Service) Restock(ctx context.Context, productID string, qty int) (orders.Product, error) {
	if err := orders.ValidateQuantity(qty); err != nil {
		return orders.Product{}, err
	}
	stock, err := s.Ledger.Release(ctx, productID, qty)
	if err != nil {
		return orders.Product{}, err
	}
	s.logger().Info("product restocked", zap.String("product_id", productID), zap.Int("quantity", qty), zap.Int("stock", stock))
	return s.Products.GetProduct(ctx, productID)
}

// HandleReleaseRequested is installed as the consumer handler for
// orders.TopicStockReleaseRequested.
func (s *Service) HandleReleaseRequested(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m)
	if err != nil {
		// undecodable messages can never succeed; drop them
		s.logger().Error("dropping malformed event", zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventStockReleaseRequested {
		return nil
	}

	if s.Dedup != nil {
		first, err := s.Dedup.FirstSeen(ctx, s.ServiceName, env.EventID)
		if err != nil {
			return err
		}
		if !first {
			return nil
		}
	}

	if err := s.applyRelease(ctx, env); err != nil {
		if s.Dedup != nil {
			if ferr := s.Dedup.Forget(ctx, s.ServiceName, env.EventID); ferr != nil {
				s.logger().Warn("dedup forget failed", zap.String("event_id", env.EventID), zap.Error(ferr))
			}
		}
		return err
	}
	return nil
}

func (s *Service) applyRelease(ctx context.Context, env orders.Envelope) error {
	p, err := orders.DecodePayload[orders.StockReleaseRequestedPayload](env)
	if err != nil {
		s.logger().Error("dropping release request with bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	log := s.logger().With(zap.String("event_id", env.EventID), zap.String("order_id", p.OrderID),
		zap.String("product_id", p.ProductID), zap.Int("quantity", p.Quantity))

	applied, err := s.Ledger.ReleaseOnce(ctx, p.Token, p.ProductID, p.Quantity)
	switch orders.KindOf(err) {
	case "":
	case orders.KindNotFound, orders.KindInvalidInput:
		// nothing left to give the units back to
		log.Error("release request cannot be applied", zap.Error(err))
		return nil
	default:
		return fmt.Errorf("release once: %w", err)
	}

	log.Info("reconciled stock release", zap.Bool("applied", applied))
	return nil
}
