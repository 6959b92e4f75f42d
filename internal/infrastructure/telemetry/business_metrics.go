package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when business metrics are created without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// BusinessMetrics counts registrations, trips and payments from the domain
// events and records background job runs
type BusinessMetrics struct {
	registrations metric.Int64Counter
	trips         metric.Int64Counter
	tripDistance  metric.Float64Histogram
	payments      metric.Int64Counter
	paymentAmount metric.Float64Histogram
	recalculated  metric.Int64Counter
	jobRuns       metric.Int64Counter
	jobDuration   metric.Float64Histogram
	logger        *zap.Logger
}

// NewBusinessMetrics creates the instruments on meter
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	in := NewInstruments(meter)
	m := &BusinessMetrics{
		registrations: in.Counter("dpnk_registrations_total", "Registered user accounts", "{user}"),
		trips:         in.Counter("dpnk_trips_logged_total", "Logged trips", "{trip}"),
		tripDistance:  in.Histogram("dpnk_trip_distance_km", "Distance of logged trips", "km", TripDistanceBuckets),
		payments:      in.Counter("dpnk_payments_total", "Payment status changes", "{payment}"),
		paymentAmount: in.Histogram("dpnk_payment_amount_czk", "Amount of payments reaching a done status", "CZK", PaymentAmountBuckets),
		recalculated:  in.Counter("dpnk_results_recalculated_total", "Recalculated competition results", "{result}"),
		jobRuns:       in.Counter("dpnk_job_runs_total", "Background job runs", "{run}"),
		jobDuration:   in.Histogram("dpnk_job_duration_seconds", "Duration of background job runs", "s", JobDurationBuckets),
		logger:        logger,
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// EventTypes returns the event types the metrics subscribe to
func (m *BusinessMetrics) EventTypes() []string {
	return []string{
		identity.EventTypeUserRegistered,
		trip.EventTypeTripSaved,
		payment.EventTypePaymentStatusChanged,
	}
}

// Handle records one domain event. Unknown events are ignored.
func (m *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	campaign := AttrCampaign.String(event.CampaignID().String())

	switch e := event.(type) {
	case *identity.UserRegisteredEvent:
		m.registrations.Add(ctx, 1, With(attribute.String("language", string(e.Language))))
	case *trip.TripSavedEvent:
		source := e.SourceApplication
		if source == "" {
			source = "web"
		}
		attrs := []attribute.KeyValue{campaign, AttrCommuteMode.String(string(e.CommuteMode)), AttrSource.String(source)}
		m.trips.Add(ctx, 1, With(attrs...))
		if e.Distance.IsPositive() {
			m.tripDistance.Record(ctx, e.Distance.InexactFloat64(), With(attrs[:2]...))
		}
	case *payment.PaymentStatusChangedEvent:
		if e.OldStatus == e.NewStatus {
			return nil
		}
		m.payments.Add(ctx, 1, With(campaign,
			AttrPayType.String(string(e.PayType)),
			AttrPaymentStatus.String(e.NewStatus.String()),
		))
		if e.NewStatus.IsDone() && !e.OldStatus.IsDone() && e.Amount.IsPositive() {
			m.paymentAmount.Record(ctx, e.Amount.InexactFloat64(), With(campaign, AttrPayType.String(string(e.PayType))))
		}
	default:
		m.logger.Debug("ignoring event", zap.String("event_type", event.EventType()))
	}
	return nil
}

// RecordResultsRecalculated counts results written by a recalculation run
func (m *BusinessMetrics) RecordResultsRecalculated(ctx context.Context, competitionType string, count int) {
	if count <= 0 {
		return
	}
	m.recalculated.Add(ctx, int64(count), With(AttrCompetitionType.String(competitionType)))
}

// RecordJob records a finished background job run
func (m *BusinessMetrics) RecordJob(ctx context.Context, job string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.jobRuns.Add(ctx, 1, With(AttrJob.String(job), attribute.String("status", status)))
	m.jobDuration.Record(ctx, d.Seconds(), With(AttrJob.String(job)))
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
