package flight

// UnknownAirport is stored in place of any airport code absent from the
// world reference set, so every persisted code is either verifiably real or
// this explicit marker.
const UnknownAirport = "999"

// Record is the canonical, storage-ready form of one timetable entry.
// Records are built once by the Normalizer and never mutated afterwards.
//
// Key is the idempotency key: arrival scheduled time, validated arrival IATA
// code, and IATA flight number joined with underscores. Two fetches of the
// same flight yield the same key, so re-running the pipeline overwrites
// rather than duplicates.
type Record struct {
	Key string

	Type   string
	Status string

	AirlineIATA string
	AirlineICAO string
	AirlineName *string

	FlightIATA *string
	FlightICAO *string

	Departure LegFields
	Arrival   LegFields

	// DurationMinutes is the timezone-adjusted scheduled flight time.
	// Nil when it could not be computed.
	DurationMinutes *int
}

// LegFields is one side (departure or arrival) of a Record. IATA is always a
// validated code or UnknownAirport; timestamps are canonical
// "YYYY-MM-DD HH:MM:SS" strings or nil.
type LegFields struct {
	Baggage       *string
	Delay         *string
	EstimatedTime *string
	Gate          *string
	IATA          string
	ICAO          string
	ScheduledTime *string
	Terminal      *string
}
