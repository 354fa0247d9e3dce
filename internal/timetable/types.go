package timetable

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Entry is one raw timetable record as returned by the upstream API. Nested
// objects may be missing entirely; the zero value of each block stands in.
type Entry struct {
	Type       string      `json:"type"`
	Status     string      `json:"status"`
	Departure  Leg         `json:"departure"`
	Arrival    Leg         `json:"arrival"`
	Airline    Airline     `json:"airline"`
	Flight     FlightIdent `json:"flight"`
	Codeshared *Codeshared `json:"codeshared"`
}

// Leg is the departure or arrival side of an entry.
type Leg struct {
	IATACode      Text `json:"iataCode"`
	ICAOCode      Text `json:"icaoCode"`
	Terminal      Text `json:"terminal"`
	Gate          Text `json:"gate"`
	Baggage       Text `json:"baggage"`
	Delay         Text `json:"delay"`
	ScheduledTime Text `json:"scheduledTime"`
	EstimatedTime Text `json:"estimatedTime"`
	ActualTime    Text `json:"actualTime"`
}

// Airline identifies the operating carrier.
type Airline struct {
	Name     Text `json:"name"`
	IATACode Text `json:"iataCode"`
	ICAOCode Text `json:"icaoCode"`
}

// FlightIdent carries the flight numbers.
type FlightIdent struct {
	Number     Text `json:"number"`
	IATANumber Text `json:"iataNumber"`
	ICAONumber Text `json:"icaoNumber"`
}

// Codeshared marks an entry as a marketing leg of another carrier's flight.
// Only its presence matters to the pipeline.
type Codeshared struct {
	Airline Airline     `json:"airline"`
	Flight  FlightIdent `json:"flight"`
}

// Text is a defensively decoded field: the upstream API emits strings,
// numbers, or null interchangeably (delay and terminal in particular).
// Null and absent both decode to the unset zero value.
type Text struct {
	Value string
	Set   bool
}

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		t.Value, t.Set = s, true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}
	t.Value, t.Set = n.String(), true
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Set {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// String returns the value, empty when unset.
func (t Text) String() string { return t.Value }

// Ptr returns the value as a nullable string: nil when unset.
func (t Text) Ptr() *string {
	if !t.Set {
		return nil
	}
	v := t.Value
	return &v
}

// NewText builds a set Text, used by tests and fixtures.
func NewText(s string) Text { return Text{Value: s, Set: true} }

// NewNumber builds a set Text from an integer, mirroring numeric API fields.
func NewNumber(n int) Text { return Text{Value: strconv.Itoa(n), Set: true} }
