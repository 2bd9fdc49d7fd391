package transaction

import (
	"context"
	"fmt"
	"time"

	"merx/internal/models"
	"merx/internal/services/risk"
)

func velocityKeys(tenantID uint, customerEmail string, merchantID uint) (custHour, custDay, merchHour string) {
	custHour = fmt.Sprintf("velocity:%d:customer_hour:%s", tenantID, customerEmail)
	custDay = fmt.Sprintf("velocity:%d:customer_day:%s", tenantID, customerEmail)
	merchHour = fmt.Sprintf("velocity:%d:merchant_hour:%d", tenantID, merchantID)
	return
}

// gatherSignals assembles the scorer input for a payment: velocity from
// Redis counters with SQL fallback, customer history from scoped
// aggregates. An anonymous payment (no customer email) contributes no
// customer velocity or history and scores as a new customer.
func (s *service) gatherSignals(ctx context.Context, tenantID uint, merchant *models.Merchant, req CreateRequest, at time.Time) (risk.Input, error) {
	input := risk.Input{
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		OccurredAt:    at,
		Geo: risk.GeoSignals{
			CustomerCountry: req.CustomerCountry,
			IPCountry:       req.IPCountry,
			IPAddress:       req.IPAddress,
		},
	}

	custHourKey, custDayKey, merchHourKey := velocityKeys(tenantID, req.CustomerEmail, merchant.ID)

	if req.CustomerEmail != "" {
		custHour, err := s.counterOrCount(ctx, custHourKey, func(ctx context.Context) (int64, error) {
			return s.repo.CountByCustomerSince(ctx, tenantID, req.CustomerEmail, at.Add(-velocityHourWindow))
		})
		if err != nil {
			return risk.Input{}, err
		}
		custDay, err := s.counterOrCount(ctx, custDayKey, func(ctx context.Context) (int64, error) {
			return s.repo.CountByCustomerSince(ctx, tenantID, req.CustomerEmail, at.Add(-velocityDayWindow))
		})
		if err != nil {
			return risk.Input{}, err
		}
		input.Velocity.CustomerTxnsLastHour = int(custHour)
		input.Velocity.CustomerTxnsLastDay = int(custDay)

		stats, err := s.repo.GetCustomerStats(ctx, tenantID, req.CustomerEmail)
		if err != nil {
			return risk.Input{}, err
		}
		input.Customer.PreviousTransactions = int(stats.Total)
		if stats.Total > 0 {
			input.Customer.FailureRate = float64(stats.Failed) / float64(stats.Total)
		}
		input.Customer.ChargebackCount = int(stats.Chargebacks)
	}

	merchHour, err := s.counterOrCount(ctx, merchHourKey, func(ctx context.Context) (int64, error) {
		return s.repo.CountByMerchantSince(ctx, tenantID, merchant.ID, at.Add(-velocityHourWindow))
	})
	if err != nil {
		return risk.Input{}, err
	}
	input.Velocity.MerchantTxnsLastHour = int(merchHour)

	return input, nil
}

// counterOrCount reads a velocity counter, falling back to a SQL count
// when the counter is cold or Redis is down.
func (s *service) counterOrCount(ctx context.Context, key string, fallback func(ctx context.Context) (int64, error)) (int64, error) {
	if s.counters != nil {
		if n, ok := s.counters.GetCounter(ctx, key); ok {
			return n, nil
		}
	}
	return fallback(ctx)
}

// bumpVelocity runs after commit. Failures only lose counter freshness;
// the next read falls back to SQL.
func (s *service) bumpVelocity(ctx context.Context, tenantID uint, customerEmail string, merchantID uint) {
	if s.counters == nil {
		return
	}
	custHour, custDay, merchHour := velocityKeys(tenantID, customerEmail, merchantID)
	if customerEmail != "" {
		_, _ = s.counters.IncrementCounter(ctx, custHour, velocityHourWindow)
		_, _ = s.counters.IncrementCounter(ctx, custDay, velocityDayWindow)
	}
	_, _ = s.counters.IncrementCounter(ctx, merchHour, velocityHourWindow)
}
