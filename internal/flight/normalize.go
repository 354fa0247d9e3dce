package flight

import (
	"context"
	"strings"

	"github.com/flightops/arrivals/internal/airports"
	"github.com/flightops/arrivals/internal/timetable"
)

// Normalizer turns raw timetable entries into canonical Records.
type Normalizer struct {
	index     *airports.Index
	estimator *DurationEstimator
}

// NewNormalizer constructs a Normalizer over the world reference index.
func NewNormalizer(index *airports.Index, estimator *DurationEstimator) *Normalizer {
	return &Normalizer{index: index, estimator: estimator}
}

// Normalize produces the canonical record for one raw entry. It returns
// ok == false for codeshare legs, which are marketing duplicates of the
// operating carrier's flight and never become independent records.
//
// Field extraction is defensive throughout: status and type fall back to
// "N/A", code fields to the empty string, free-text fields to nil. Airport
// codes are validated against the reference set before the key is built, so
// the key always embeds either a real code or UnknownAirport.
func (n *Normalizer) Normalize(ctx context.Context, e timetable.Entry) (Record, bool) {
	if e.Codeshared != nil {
		return Record{}, false
	}

	depIATA := n.validateCode(e.Departure.IATACode)
	arrIATA := n.validateCode(e.Arrival.IATACode)

	rec := Record{
		Type:        orNA(e.Type),
		Status:      orNA(e.Status),
		AirlineIATA: strings.TrimSpace(e.Airline.IATACode.String()),
		AirlineICAO: strings.TrimSpace(e.Airline.ICAOCode.String()),
		AirlineName: e.Airline.Name.Ptr(),
		FlightIATA:  e.Flight.IATANumber.Ptr(),
		FlightICAO:  e.Flight.ICAONumber.Ptr(),
		Departure:   normalizeLeg(e.Departure, depIATA),
		Arrival:     normalizeLeg(e.Arrival, arrIATA),
	}

	rec.Key = buildKey(rec.Arrival.ScheduledTime, arrIATA, rec.FlightIATA)

	if n.estimator != nil {
		if minutes, ok := n.estimator.Minutes(ctx, depIATA, arrIATA,
			deref(rec.Departure.ScheduledTime), deref(rec.Arrival.ScheduledTime)); ok {
			rec.DurationMinutes = &minutes
		}
	}

	return rec, true
}

// validateCode trims the raw code and substitutes UnknownAirport for
// anything not present in the reference set.
func (n *Normalizer) validateCode(raw timetable.Text) string {
	code := strings.TrimSpace(raw.String())
	if n.index.IsValid(code) {
		return code
	}
	return UnknownAirport
}

func normalizeLeg(leg timetable.Leg, validatedIATA string) LegFields {
	return LegFields{
		Baggage:       leg.Baggage.Ptr(),
		Delay:         leg.Delay.Ptr(),
		EstimatedTime: cleanPtr(leg.EstimatedTime),
		Gate:          leg.Gate.Ptr(),
		IATA:          validatedIATA,
		ICAO:          strings.TrimSpace(leg.ICAOCode.String()),
		ScheduledTime: cleanPtr(leg.ScheduledTime),
		Terminal:      leg.Terminal.Ptr(),
	}
}

// buildKey joins the canonical arrival time, validated arrival code, and
// IATA flight number. Absent parts render as empty strings; the result is a
// deterministic function of those three fields alone.
func buildKey(arrScheduled *string, arrIATA string, flightIATA *string) string {
	return deref(arrScheduled) + "_" + arrIATA + "_" + deref(flightIATA)
}

func cleanPtr(raw timetable.Text) *string {
	cleaned, ok := CleanTimestamp(raw.String())
	if !ok {
		return nil
	}
	return &cleaned
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
