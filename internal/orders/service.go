package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultCompensationAttempts = 3
	minCompensationAttempts     = 2
	defaultCompensationBackoff  = 50 * time.Millisecond
	reserveTimeout              = 5 * time.Second
)

// Service hosts order placement and the order lifecycle. Events and Cache are
// optional.
type Service struct {
	Users    UserRepository
	Products ProductRepository
	Orders   OrderRepository
	Ledger   StockLedger
	Events   EventPublisher
	Cache    OrderCache
	Logger   *zap.Logger

	ServiceName          string
	CompensationAttempts int
	CompensationBackoff  time.Duration

	Now   func() time.Time
	NewID func() string
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) compensationAttempts() int {
	if s.CompensationAttempts == 0 {
		return defaultCompensationAttempts
	}
	return max(s.CompensationAttempts, minCompensationAttempts)
}

func (s *Service) compensationBackoff() time.Duration {
	if s.CompensationBackoff <= 0 {
		return defaultCompensationBackoff
	}
	return s.CompensationBackoff
}

// GetOrder reads through the cache; cache errors only cost a database read.
func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	if s.Cache != nil {
		o, ok, err := s.Cache.Get(ctx, id)
		if err != nil {
			s.logger().Warn("order cache read failed", zap.String("order_id", id), zap.Error(err))
		} else if ok {
			return o, nil
		}
	}

	o, err := s.Orders.GetOrder(ctx, id)
	if err != nil {
		return Order{}, err
	}
	s.cache(ctx, o)
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, f OrderFilter) ([]Order, error) {
	if f.Status != "" {
		if _, err := ToStatus(string(f.Status)); err != nil {
			return nil, err
		}
	}
	return s.Orders.ListOrders(ctx, f)
}

func (s *Service) cache(ctx context.Context, o Order) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Put(ctx, o); err != nil {
		s.logger().Warn("order cache write failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

// publish is best effort: the database is the source of truth and a lost
// event never rolls back a committed order.
func (s *Service) publish(ctx context.Context, topic, eventType, orderID string, payload any) error {
	if s.Events == nil {
		return nil
	}
	env, err := NewEnvelope(eventType, s.ServiceName, orderID, payload)
	if err != nil {
		return err
	}
	if err := s.Events.Publish(ctx, topic, orderID, env); err != nil {
		return err
	}
	return nil
}
