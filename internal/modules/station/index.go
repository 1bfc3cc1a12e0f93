package station

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"railbook/internal/domain"
	"railbook/internal/pkg/refdata"

	"github.com/sirupsen/logrus"
)

const earthRadiusKm = 6371.0

// Index resolves stations by name or code and measures distances between
// them. It is read-only after construction.
type Index struct {
	byCode map[string]domain.Station
	keys   map[string]string // lower-cased name or code -> code
	labels []string
}

func NewIndex(stations []domain.Station) *Index {
	idx := &Index{
		byCode: make(map[string]domain.Station, len(stations)),
		keys:   make(map[string]string, len(stations)*2),
	}
	for _, s := range stations {
		idx.byCode[s.Code] = s
		idx.keys[strings.ToLower(s.Name)] = s.Code
		idx.keys[strings.ToLower(s.Code)] = s.Code
	}
	idx.labels = make([]string, 0, len(idx.byCode))
	for _, s := range idx.byCode {
		idx.labels = append(idx.labels, s.Label())
	}
	sort.Strings(idx.labels)
	return idx
}

// Load reads station_coordinates CSV data. A missing file gives an empty
// index; rows with bad coordinates are skipped.
func Load(path string) (*Index, error) {
	records, err := refdata.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logrus.WithField("path", path).Warn("station file not found, starting with empty station index")
		return NewIndex(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}
	return fromRecords(path, records), nil
}

// Parse builds an index from CSV content.
func Parse(r io.Reader) (*Index, error) {
	records, err := refdata.Read(r)
	if err != nil {
		return nil, fmt.Errorf("parse stations: %w", err)
	}
	return fromRecords("", records), nil
}

func fromRecords(source string, records []refdata.Record) *Index {
	stations := make([]domain.Station, 0, len(records))
	for i, rec := range records {
		code := rec.Get("station_code")
		lat, latErr := strconv.ParseFloat(rec.Get("latitude"), 64)
		lon, lonErr := strconv.ParseFloat(rec.Get("longitude"), 64)
		if code == "" || latErr != nil || lonErr != nil {
			logrus.WithFields(logrus.Fields{"source": source, "row": i + 2}).Warn("skipping malformed station row")
			continue
		}
		stations = append(stations, domain.Station{
			Code:      code,
			Name:      rec.Get("station_name"),
			Latitude:  lat,
			Longitude: lon,
		})
	}
	logrus.WithFields(logrus.Fields{"source": source, "stations": len(stations)}).Info("station index loaded")
	return NewIndex(stations)
}

func (idx *Index) Len() int {
	return len(idx.byCode)
}

// Lookup accepts a station name or code in any letter case.
func (idx *Index) Lookup(nameOrCode string) (domain.Station, error) {
	code, ok := idx.keys[strings.ToLower(strings.TrimSpace(nameOrCode))]
	if !ok {
		return domain.Station{}, fmt.Errorf("%w: %q", ErrStationNotFound, nameOrCode)
	}
	return idx.byCode[code], nil
}

// Distance is the great-circle distance in whole kilometres (truncated).
func (idx *Index) Distance(a, b string) (int, error) {
	from, err := idx.Lookup(a)
	if err != nil {
		return 0, err
	}
	to, err := idx.Lookup(b)
	if err != nil {
		return 0, err
	}
	return int(haversineKm(from, to)), nil
}

func haversineKm(a, b domain.Station) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// Autocomplete returns every "Name (CODE)" label in lexicographic order.
func (idx *Index) Autocomplete() []string {
	out := make([]string, len(idx.labels))
	copy(out, idx.labels)
	return out
}

// Suggest filters Autocomplete by a case-insensitive substring. limit <= 0
// means no limit.
func (idx *Index) Suggest(query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0)
	for _, l := range idx.labels {
		if q != "" && !strings.Contains(strings.ToLower(l), q) {
			continue
		}
		out = append(out, l)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
