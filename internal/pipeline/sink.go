package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/db4e/db4e-supervisor/internal/db"
	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/extractor"
	"github.com/db4e/db4e-supervisor/internal/observability/metrics"
	"github.com/db4e/db4e-supervisor/internal/queue"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier receives every newly recorded discrete event.
//
//go:generate mockery --name=Notifier --output=../../tests/mocks --outpkg=mocks --filename=mock_notifier.go
type Notifier interface {
	PushEvent(ctx context.Context, event *queue.EventMessage) error
}

const (
	defaultWriteAttempts   uint = 4
	defaultWriteRetryDelay      = 250 * time.Millisecond
)

// Sink applies extracted updates to the mining store. It holds no state
// besides its collaborators, so several pipelines may share one store.
// Store writes are retried with backoff before an update is given up.
type Sink struct {
	store    db.MiningStore
	notifier Notifier
	instance string
	apiDir   string

	writeAttempts   uint
	writeRetryDelay time.Duration
}

// NewSink builds a sink for one pool instance. notifier may be nil.
func NewSink(store db.MiningStore, notifier Notifier, instance, apiDir string) *Sink {
	return &Sink{
		store:           store,
		notifier:        notifier,
		instance:        instance,
		apiDir:          apiDir,
		writeAttempts:   defaultWriteAttempts,
		writeRetryDelay: defaultWriteRetryDelay,
	}
}

func (s *Sink) Apply(ctx context.Context, update extractor.Update) error {
	switch u := update.(type) {
	case extractor.DiscreteEvent:
		return s.applyEvent(ctx, u)
	case extractor.Hashrate:
		if err := s.write(ctx, "UpsertGauge", func() error {
			return s.store.UpsertGauge(ctx, u.Metric, u.Value, u.Observed)
		}); err != nil {
			return fmt.Errorf("failed to update %s gauge: %w", u.Metric, err)
		}
		if err := s.write(ctx, "UpsertHashrateBucket", func() error {
			return s.store.UpsertHashrateBucket(ctx, u.Metric, u.Value, u.Observed)
		}); err != nil {
			return fmt.Errorf("failed to update %s bucket: %w", u.Metric, err)
		}
		return nil
	case extractor.SidechainMinersRefresh:
		miners, err := ReadSidechainMiners(s.apiDir)
		if err != nil {
			return err
		}
		return s.write(ctx, "UpsertMinersBucket", func() error {
			return s.store.UpsertMinersBucket(ctx, miners, u.Observed)
		})
	case extractor.SharePosition:
		return s.write(ctx, "SetSharePosition", func() error {
			return s.store.SetSharePosition(ctx, u.Position, u.Observed)
		})
	case extractor.WorkerStat:
		return s.write(ctx, "UpsertWorker", func() error {
			return s.store.UpsertWorker(ctx, u.Worker, u.Hashrate, u.Observed)
		})
	default:
		return fmt.Errorf("unsupported update %T", update)
	}
}

func (s *Sink) applyEvent(ctx context.Context, event extractor.DiscreteEvent) error {
	doc, err := toEventDocument(event)
	if err != nil {
		return err
	}

	inserted, err := writeWithData(ctx, s, "InsertEvent", func() (bool, error) {
		return s.store.InsertEvent(ctx, doc)
	})
	if err != nil {
		return fmt.Errorf("failed to insert %s event: %w", event.DocType, err)
	}
	metrics.RecordEventStored(event.DocType.String(), inserted)

	// a stored payment is credited even when seen again, in case crediting
	// failed the first time; the store counts each payment once
	if event.DocType == types.DocXmrPayment {
		credited, err := writeWithData(ctx, s, "CreditWallet", func() (bool, error) {
			return s.store.CreditWallet(ctx, event.Timestamp, event.Payment)
		})
		if err != nil {
			return fmt.Errorf("failed to credit wallet with %s: %w", event.Payment, err)
		}
		if credited && !inserted {
			log.Ctx(ctx).Warn().
				Time("timestamp", event.Timestamp).
				Stringer("payment", event.Payment).
				Msg("credited previously uncredited payment")
		}
	}

	if !inserted {
		log.Ctx(ctx).Debug().
			Stringer("doc_type", event.DocType).
			Time("timestamp", event.Timestamp).
			Msg("event already recorded")
		return nil
	}

	log.Ctx(ctx).Info().
		Stringer("doc_type", event.DocType).
		Time("timestamp", event.Timestamp).
		Msg("recorded new event")

	s.notify(ctx, event)
	return nil
}

func (s *Sink) write(ctx context.Context, method string, f func() error) error {
	_, err := writeWithData(ctx, s, method, func() (struct{}, error) {
		return struct{}{}, f()
	})
	return err
}

func writeWithData[T any](ctx context.Context, s *Sink, method string, f func() (T, error)) (T, error) {
	return retry.DoWithData(
		f,
		retry.Context(ctx),
		retry.Attempts(s.writeAttempts),
		retry.Delay(s.writeRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).
				Str("method", method).
				Uint("attempt", n+1).
				Msg("store write failed, retrying")
		}),
	)
}

func (s *Sink) notify(ctx context.Context, event extractor.DiscreteEvent) {
	if s.notifier == nil {
		return
	}

	msg := &queue.EventMessage{
		EventType: event.DocType.String(),
		Instance:  s.instance,
		Timestamp: event.Timestamp,
		Worker:    event.Worker,
		IPAddr:    event.IPAddr,
		Effort:    event.Effort,
	}
	if event.DocType == types.DocXmrPayment {
		msg.Payment = event.Payment.String()
	}

	if err := s.notifier.PushEvent(ctx, msg); err != nil {
		log.Ctx(ctx).Warn().Err(err).Stringer("doc_type", event.DocType).Msg("failed to publish event")
	}
}

func toEventDocument(event extractor.DiscreteEvent) (*model.EventDocument, error) {
	doc := &model.EventDocument{
		DocType:   event.DocType,
		Timestamp: event.Timestamp,
	}

	switch event.DocType {
	case types.DocShareFound:
		effort := event.Effort
		doc.Worker = event.Worker
		doc.IPAddr = event.IPAddr
		doc.Effort = &effort
	case types.DocXmrPayment:
		payment, err := primitive.ParseDecimal128(event.Payment.String())
		if err != nil {
			return nil, fmt.Errorf("invalid payment %s: %w", event.Payment, err)
		}
		doc.Payment = &payment
	}

	return doc, nil
}
