package fare

import (
	"fmt"
	"math"
	"strings"
	"time"

	"railbook/internal/domain"
)

const (
	defaultClassRate = 1.0
	platformRate     = 10.0
	seasonDailyRate  = 0.36
	seasonDays       = 30

	// DateLayout is the date-only format used for season ticket validity.
	DateLayout = "2006-01-02"
)

// per kilometre, per passenger
var classRates = map[string]float64{
	"1A": 4.5,
	"2A": 2.5,
	"3A": 1.8,
	"SL": 0.8,
	"EC": 2.2,
	"CC": 1.5,
	"2S": 0.6,
}

type categoryRate struct {
	adult float64
	child float64
}

var categoryRates = map[string]categoryRate{
	"MAIL":      {adult: 0.36, child: 0.18},
	"ORDINARY":  {adult: 0.19, child: 0.10},
	"SUPERFAST": {adult: 0.39, child: 0.22},
}

// DistanceSource resolves the distance in km between two stations given by
// name or code.
type DistanceSource interface {
	Distance(a, b string) (int, error)
}

type TrainSource interface {
	Get(trainNo string) (domain.Train, error)
}

type Calculator struct {
	stations DistanceSource
	trains   TrainSource
}

func NewCalculator(stations DistanceSource, trains TrainSource) *Calculator {
	return &Calculator{stations: stations, trains: trains}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClassRate returns the per-km rate for a class, 1.0 for unknown classes.
func ClassRate(classCode string) float64 {
	if r, ok := classRates[classCode]; ok {
		return r
	}
	return defaultClassRate
}

// ReservedFare prices a reserved booking over a known distance.
func ReservedFare(distanceKm int, classCode string, passengers int) float64 {
	return round2(float64(distanceKm) * ClassRate(classCode) * float64(passengers))
}

// Reserved prices a booking on trainNo between the train's own source and
// destination. It returns 0 when the train or its route cannot be resolved.
func (c *Calculator) Reserved(trainNo, classCode string, passengers int) float64 {
	t, err := c.trains.Get(trainNo)
	if err != nil {
		return 0
	}
	km, err := c.stations.Distance(t.Source, t.Destination)
	if err != nil {
		return 0
	}
	return ReservedFare(km, classCode, passengers)
}

func NormalizeCategory(category string) string {
	return strings.ToUpper(strings.TrimSpace(category))
}

func KnownCategory(category string) bool {
	_, ok := categoryRates[NormalizeCategory(category)]
	return ok
}

// Unreserved returns 0 for an unknown category.
func Unreserved(category string, distanceKm, adults, children int) float64 {
	r, ok := categoryRates[NormalizeCategory(category)]
	if !ok {
		return 0
	}
	d := float64(distanceKm)
	return round2(float64(adults)*r.adult*d + float64(children)*r.child*d)
}

// UnreservedQuote resolves the route and prices it. The resolved distance
// is returned alongside the fare. A zero distance counts as unresolved.
func (c *Calculator) UnreservedQuote(source, destination, category string, adults, children int) (float64, int, error) {
	if !KnownCategory(category) {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	km, err := c.stations.Distance(source, destination)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrRouteUnresolved, err)
	}
	if km == 0 {
		return 0, 0, fmt.Errorf("%w: %s and %s are the same place", ErrRouteUnresolved, source, destination)
	}
	return Unreserved(category, km, adults, children), km, nil
}

func Platform(persons int) float64 {
	return platformRate * float64(persons)
}

// SeasonFare is thirty days of one-way mail fare.
func SeasonFare(distanceKm int) float64 {
	return round2(float64(distanceKm) * seasonDailyRate * seasonDays)
}

// Season prices a monthly season ticket. A zero distance counts as
// unresolved.
func (c *Calculator) Season(source, destination string) (float64, int, error) {
	km, err := c.stations.Distance(source, destination)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrRouteUnresolved, err)
	}
	if km == 0 {
		return 0, 0, fmt.Errorf("%w: %s and %s are the same place", ErrRouteUnresolved, source, destination)
	}
	return SeasonFare(km), km, nil
}

// SeasonValidity returns the date-only validity window starting on the
// calendar day of issued.
func SeasonValidity(issued time.Time) (from, until string) {
	y, m, d := issued.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, issued.Location())
	return start.Format(DateLayout), start.AddDate(0, 0, seasonDays).Format(DateLayout)
}
