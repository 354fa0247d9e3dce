package airports

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Coordinates is an airport position in decimal degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Index holds the world airport reference data: the set of every known IATA
// code and, for airports that carry coordinates, the IATA → position map.
// An Index is immutable after Load and safe for concurrent reads.
type Index struct {
	valid  map[string]struct{}
	coords map[string]Coordinates
}

// NewIndex builds an Index from explicit entries: coords maps codes to
// positions, extraCodes lists codes that are valid but carry no coordinates.
// Production loads from datasets; this is for tests and tooling.
func NewIndex(coords map[string]Coordinates, extraCodes ...string) *Index {
	ix := &Index{
		valid:  make(map[string]struct{}, len(coords)+len(extraCodes)),
		coords: make(map[string]Coordinates, len(coords)),
	}
	for code, c := range coords {
		ix.valid[code] = struct{}{}
		ix.coords[code] = c
	}
	for _, code := range extraCodes {
		ix.valid[code] = struct{}{}
	}
	return ix
}

// IsValid reports whether code is a known IATA code.
func (ix *Index) IsValid(code string) bool {
	_, ok := ix.valid[code]
	return ok
}

// Coordinates returns the position for code, if the reference data carries one.
// A code can be valid yet have no coordinates.
func (ix *Index) Coordinates(code string) (Coordinates, bool) {
	c, ok := ix.coords[code]
	return c, ok
}

// Len returns the number of known IATA codes.
func (ix *Index) Len() int { return len(ix.valid) }

// airportRecord is one entry of either reference dataset. The coordinate
// fields appear only in the world dataset and arrive as either JSON numbers
// or numeric strings depending on the export.
type airportRecord struct {
	IATACode    string `json:"iata_code"`
	LatitudeDeg degree `json:"latitude_deg"`
	LongitudeDg degree `json:"longitude_deg"`
}

// degree tolerates JSON numbers, numeric strings, and null. Blank or
// malformed values are remembered as unset rather than failing the whole
// dataset decode.
type degree struct {
	value float64
	ok    bool
}

func (d *degree) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	d.value = v
	d.ok = true
	return nil
}

// LoadTargets reads the target-airport dataset and returns its IATA codes in
// file order. Entries without a code are skipped.
func LoadTargets(path string) ([]string, error) {
	records, err := readDataset(path)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(records))
	for _, r := range records {
		if code := strings.TrimSpace(r.IATACode); code != "" {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

// LoadIndex reads the world-airport dataset into an Index. Every entry with a
// code joins the valid set; only entries whose latitude and longitude both
// parse join the coordinate map.
func LoadIndex(path string) (*Index, error) {
	records, err := readDataset(path)
	if err != nil {
		return nil, err
	}

	ix := &Index{
		valid:  make(map[string]struct{}, len(records)),
		coords: make(map[string]Coordinates, len(records)),
	}
	for _, r := range records {
		code := strings.TrimSpace(r.IATACode)
		if code == "" {
			continue
		}
		ix.valid[code] = struct{}{}

		if !r.LatitudeDeg.ok || !r.LongitudeDg.ok {
			continue
		}
		ix.coords[code] = Coordinates{Lat: r.LatitudeDeg.value, Lng: r.LongitudeDg.value}
	}
	return ix, nil
}

// Load reads both reference datasets concurrently. Either failure is returned
// to the caller, who treats it as fatal before any fetch begins.
func Load(ctx context.Context, targetsPath, worldPath string) ([]string, *Index, error) {
	var (
		targets []string
		index   *Index
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := LoadTargets(targetsPath)
		if err != nil {
			return err
		}
		targets = t
		return nil
	})
	g.Go(func() error {
		ix, err := LoadIndex(worldPath)
		if err != nil {
			return err
		}
		index = ix
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return targets, index, nil
}

func readDataset(path string) ([]airportRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening airport dataset %s: %w", path, err)
	}
	defer f.Close()

	var records []airportRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding airport dataset %s: %w", path, err)
	}
	return records, nil
}
