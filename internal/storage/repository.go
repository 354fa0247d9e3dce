package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flightops/arrivals/internal/flight"
)

// DefaultBatchSize matches the upstream page size; it tunes round trips, not
// correctness.
const DefaultBatchSize = 200

// Batcher abstracts the subset of pgxpool.Pool used by ArrivalRepository.
// This allows injection of a mock in tests.
type Batcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// ArrivalRepository persists canonical flight records.
type ArrivalRepository struct {
	db        Batcher
	batchSize int
}

// NewArrivalRepository constructs an ArrivalRepository backed by the given pool.
func NewArrivalRepository(pool *pgxpool.Pool, batchSize int) *ArrivalRepository {
	return newArrivalRepository(pool, batchSize)
}

// NewArrivalRepositoryWithBatcher constructs an ArrivalRepository with a
// custom Batcher (for tests).
func NewArrivalRepositoryWithBatcher(db Batcher, batchSize int) *ArrivalRepository {
	return newArrivalRepository(db, batchSize)
}

func newArrivalRepository(db Batcher, batchSize int) *ArrivalRepository {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ArrivalRepository{db: db, batchSize: batchSize}
}

const upsertArrivalSQL = `
	INSERT INTO arrivals (
		arrival_id,
		type,
		status,
		airline_iata_code,
		airline_icao_code,
		airline_name,
		flight_iata_number,
		flight_icao_number,
		flight_duration,
		departure_baggage,
		departure_delay,
		departure_estimated_time,
		departure_gate,
		departure_iata_code,
		departure_icao_code,
		departure_scheduled_time,
		departure_terminal,
		arrival_baggage,
		arrival_delay,
		arrival_estimated_time,
		arrival_gate,
		arrival_iata_code,
		arrival_icao_code,
		arrival_scheduled_time,
		arrival_terminal
	)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
	ON CONFLICT (arrival_id) DO UPDATE SET
		type                     = EXCLUDED.type,
		status                   = EXCLUDED.status,
		airline_iata_code        = EXCLUDED.airline_iata_code,
		airline_icao_code        = EXCLUDED.airline_icao_code,
		airline_name             = EXCLUDED.airline_name,
		flight_iata_number       = EXCLUDED.flight_iata_number,
		flight_icao_number       = EXCLUDED.flight_icao_number,
		flight_duration          = EXCLUDED.flight_duration,
		departure_baggage        = EXCLUDED.departure_baggage,
		departure_delay          = EXCLUDED.departure_delay,
		departure_estimated_time = EXCLUDED.departure_estimated_time,
		departure_gate           = EXCLUDED.departure_gate,
		departure_iata_code      = EXCLUDED.departure_iata_code,
		departure_icao_code      = EXCLUDED.departure_icao_code,
		departure_scheduled_time = EXCLUDED.departure_scheduled_time,
		departure_terminal       = EXCLUDED.departure_terminal,
		arrival_baggage          = EXCLUDED.arrival_baggage,
		arrival_delay            = EXCLUDED.arrival_delay,
		arrival_estimated_time   = EXCLUDED.arrival_estimated_time,
		arrival_gate             = EXCLUDED.arrival_gate,
		arrival_iata_code        = EXCLUDED.arrival_iata_code,
		arrival_icao_code        = EXCLUDED.arrival_icao_code,
		arrival_scheduled_time   = EXCLUDED.arrival_scheduled_time,
		arrival_terminal         = EXCLUDED.arrival_terminal
`

// UpsertBatch writes records keyed by arrival_id, inserting new rows and
// overwriting all non-key columns of existing ones. Re-running a pipeline
// over the same flights leaves the table unchanged. An empty input is a
// no-op.
func (r *ArrivalRepository) UpsertBatch(ctx context.Context, records []flight.Record) error {
	if len(records) == 0 {
		return nil
	}

	for start := 0; start < len(records); start += r.batchSize {
		end := start + r.batchSize
		if end > len(records) {
			end = len(records)
		}

		batch := &pgx.Batch{}
		for _, rec := range records[start:end] {
			batch.Queue(upsertArrivalSQL,
				rec.Key,
				rec.Type,
				rec.Status,
				rec.AirlineIATA,
				rec.AirlineICAO,
				rec.AirlineName,
				rec.FlightIATA,
				rec.FlightICAO,
				rec.DurationMinutes,
				rec.Departure.Baggage,
				rec.Departure.Delay,
				rec.Departure.EstimatedTime,
				rec.Departure.Gate,
				rec.Departure.IATA,
				rec.Departure.ICAO,
				rec.Departure.ScheduledTime,
				rec.Departure.Terminal,
				rec.Arrival.Baggage,
				rec.Arrival.Delay,
				rec.Arrival.EstimatedTime,
				rec.Arrival.Gate,
				rec.Arrival.IATA,
				rec.Arrival.ICAO,
				rec.Arrival.ScheduledTime,
				rec.Arrival.Terminal,
			)
		}

		if err := r.sendBatch(ctx, batch); err != nil {
			return err
		}
	}

	return nil
}

func (r *ArrivalRepository) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting arrival batch (statement %d of %d): %w", i+1, batch.Len(), err)
		}
	}

	return results.Close()
}
