package flight

import (
	"context"
	"log/slog"
	"time"

	"github.com/flightops/arrivals/internal/airports"
)

// TimezoneResolver maps an airport position to its time zone. Implemented by
// tzlookup.Resolver; tests substitute fixed zones.
type TimezoneResolver interface {
	Resolve(ctx context.Context, iataCode string, coords airports.Coordinates) (*time.Location, error)
}

// DurationEstimator computes scheduled flight time in minutes from two local
// timestamps and the two airports' geographic time zones.
type DurationEstimator struct {
	index *airports.Index
	tz    TimezoneResolver
	log   *slog.Logger
}

// NewDurationEstimator constructs a DurationEstimator over the given
// reference index and resolver.
func NewDurationEstimator(index *airports.Index, tz TimezoneResolver, log *slog.Logger) *DurationEstimator {
	return &DurationEstimator{index: index, tz: tz, log: log}
}

// Minutes returns the whole minutes elapsed between the departure and
// arrival instants, both interpreted as wall-clock time at their respective
// airports and compared in UTC. Sub-minute remainders truncate toward zero.
//
// The result is absent (ok == false) when either airport has no known
// coordinates, either time zone cannot be resolved, either timestamp is
// missing or unparseable, or the difference comes out negative (crossed or
// corrupt data). This is a best-effort, absent-on-failure contract: the
// function never fails its caller.
func (e *DurationEstimator) Minutes(ctx context.Context, depIATA, arrIATA, depTime, arrTime string) (int, bool) {
	depCoords, ok := e.index.Coordinates(depIATA)
	if !ok {
		return 0, false
	}
	arrCoords, ok := e.index.Coordinates(arrIATA)
	if !ok {
		return 0, false
	}

	depLoc, err := e.tz.Resolve(ctx, depIATA, depCoords)
	if err != nil {
		e.log.Warn("timezone resolution failed", "iata", depIATA, "err", err)
		return 0, false
	}
	arrLoc, err := e.tz.Resolve(ctx, arrIATA, arrCoords)
	if err != nil {
		e.log.Warn("timezone resolution failed", "iata", arrIATA, "err", err)
		return 0, false
	}

	if depTime == "" || arrTime == "" {
		return 0, false
	}

	dep, err := time.ParseInLocation(CanonicalTimeLayout, depTime, depLoc)
	if err != nil {
		return 0, false
	}
	arr, err := time.ParseInLocation(CanonicalTimeLayout, arrTime, arrLoc)
	if err != nil {
		return 0, false
	}

	minutes := int(arr.UTC().Sub(dep.UTC()) / time.Minute)
	if minutes < 0 {
		return 0, false
	}
	return minutes, true
}
