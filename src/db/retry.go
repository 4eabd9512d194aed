package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// RetryPolicy bounds how a query is attempted.
type RetryPolicy struct {
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Timeout:         5 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// RetryingStore runs every query with a per-attempt timeout and retries
// transient failures with exponential backoff. Failures that survive the
// retries are reported as ErrStoreQuery.
type RetryingStore struct {
	next    RecordStore
	policy  RetryPolicy
	log     zerolog.Logger
	tracer  trace.Tracer
	total   metric.Int64Counter
	retries metric.Int64Counter
}

// NewRetryingStore binds its tracer and counters to the global otel
// providers, so telemetry must be initialized first.
func NewRetryingStore(next RecordStore, policy RetryPolicy, log zerolog.Logger) (*RetryingStore, error) {
	meter := otel.Meter("finboard/db")
	total, err := meter.Int64Counter("store.query.total", metric.WithDescription("Record store queries by outcome"))
	if err != nil {
		return nil, fmt.Errorf("create store.query.total counter: %w", err)
	}
	retries, err := meter.Int64Counter("store.query.retries", metric.WithDescription("Record store query attempts that were retried"))
	if err != nil {
		return nil, fmt.Errorf("create store.query.retries counter: %w", err)
	}
	return &RetryingStore{
		next:    next,
		policy:  policy,
		log:     log,
		tracer:  otel.Tracer("finboard/db"),
		total:   total,
		retries: retries,
	}, nil
}

func (s *RetryingStore) Query(ctx context.Context, q Query) (Page, error) {
	if err := q.Validate(); err != nil {
		return Page{}, err
	}

	ctx, span := s.tracer.Start(ctx, "store.query",
		trace.WithAttributes(
			attribute.String("store.index", q.Index),
			attribute.String("store.sort_key_prefix", q.SortKeyPrefix),
			attribute.Int("store.limit", q.Limit),
		),
	)
	defer span.End()

	attempt := func() (Page, error) {
		actx := ctx
		if s.policy.Timeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, s.policy.Timeout)
			defer cancel()
		}
		page, err := s.next.Query(actx, q)
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil || errors.Is(err, ErrInvalidQuery) {
			return Page{}, backoff.Permanent(err)
		}
		return Page{}, err
	}

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(s.policy.InitialInterval),
		backoff.WithMaxInterval(s.policy.MaxInterval),
		backoff.WithMaxElapsedTime(0),
	)
	notify := func(err error, next time.Duration) {
		s.retries.Add(ctx, 1)
		s.log.Warn().Err(err).Str("partition_key", q.PartitionKey).Dur("backoff", next).Msg("Retrying record store query")
	}

	page, err := backoff.RetryNotifyWithData[Page](attempt, backoff.WithContext(backoff.WithMaxRetries(b, s.policy.MaxRetries), ctx), notify)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.total.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		if ctx.Err() != nil {
			return Page{}, ctx.Err()
		}
		if errors.Is(err, ErrInvalidQuery) {
			return Page{}, err
		}
		return Page{}, fmt.Errorf("%w: %w", ErrStoreQuery, err)
	}

	s.total.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "success")))
	span.SetAttributes(attribute.Int("store.records", len(page.Records)))
	return page, nil
}
