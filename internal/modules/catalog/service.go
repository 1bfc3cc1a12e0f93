package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"railbook/internal/domain"
	"railbook/internal/pkg/refdata"

	"github.com/sirupsen/logrus"
)

// Service is the read-only train catalog.
type Service struct {
	trains map[string]domain.Train
}

func NewService(trains []domain.Train) *Service {
	s := &Service{trains: make(map[string]domain.Train, len(trains))}
	for _, t := range trains {
		s.trains[t.Number] = t
	}
	return s
}

// Load reads the trains CSV: one row per (train, class). A missing file
// yields an empty catalog.
func Load(path string) (*Service, error) {
	records, err := refdata.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logrus.WithField("path", path).Warn("train file not found, starting with empty catalog")
		return NewService(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load trains: %w", err)
	}
	return fromRecords(path, records), nil
}

func Parse(r io.Reader) (*Service, error) {
	records, err := refdata.Read(r)
	if err != nil {
		return nil, fmt.Errorf("parse trains: %w", err)
	}
	return fromRecords("", records), nil
}

func fromRecords(source string, records []refdata.Record) *Service {
	var order []string
	byNo := make(map[string]*domain.Train)

	for i, rec := range records {
		no := rec.Get("train_no")
		code := rec.Get("class_code")
		seats, err := strconv.Atoi(rec.Get("seats"))
		if no == "" || code == "" || err != nil || seats < 0 {
			logrus.WithFields(logrus.Fields{"source": source, "row": i + 2}).Warn("skipping malformed train row")
			continue
		}
		tatkaal, _ := strconv.Atoi(rec.Get("tatkaal_seats"))

		t, ok := byNo[no]
		if !ok {
			t = &domain.Train{
				Number:      no,
				Name:        rec.Get("train_name"),
				Source:      rec.Get("source"),
				Destination: rec.Get("destination"),
				Departure:   rec.Get("departure"),
				Arrival:     rec.Get("arrival"),
			}
			byNo[no] = t
			order = append(order, no)
		}

		class := domain.ClassInfo{Code: code, Name: rec.Get("class_name"), Seats: seats, TatkaalSeats: tatkaal}
		replaced := false
		for j := range t.Classes {
			if t.Classes[j].Code == code {
				t.Classes[j] = class
				replaced = true
			}
		}
		if !replaced {
			t.Classes = append(t.Classes, class)
		}
	}

	trains := make([]domain.Train, 0, len(order))
	for _, no := range order {
		trains = append(trains, *byNo[no])
	}
	logrus.WithFields(logrus.Fields{"source": source, "trains": len(trains)}).Info("train catalog loaded")
	return NewService(trains)
}

func (s *Service) Len() int {
	return len(s.trains)
}

func (s *Service) Get(trainNo string) (domain.Train, error) {
	t, ok := s.trains[strings.TrimSpace(trainNo)]
	if !ok {
		return domain.Train{}, fmt.Errorf("%w: %s", ErrTrainNotFound, trainNo)
	}
	return t, nil
}

// Class resolves a class of a train.
func (s *Service) Class(trainNo, classCode string) (domain.Train, domain.ClassInfo, error) {
	t, err := s.Get(trainNo)
	if err != nil {
		return domain.Train{}, domain.ClassInfo{}, err
	}
	c, ok := t.Class(classCode)
	if !ok {
		return domain.Train{}, domain.ClassInfo{}, fmt.Errorf("%w: %s on %s", ErrClassNotFound, classCode, trainNo)
	}
	return t, c, nil
}

// All returns every train ordered by train number.
func (s *Service) All() []domain.Train {
	out := make([]domain.Train, 0, len(s.trains))
	for _, t := range s.trains {
		out = append(out, t)
	}
	sortByNumber(out)
	return out
}

// FindTrains matches source and destination as case-insensitive substrings
// of the train's source and destination names. Either input empty gives an
// empty result.
func (s *Service) FindTrains(source, destination string) map[string]domain.Train {
	found := make(map[string]domain.Train)
	src := strings.ToLower(strings.TrimSpace(source))
	dst := strings.ToLower(strings.TrimSpace(destination))
	if src == "" || dst == "" {
		return found
	}
	for no, t := range s.trains {
		if strings.Contains(strings.ToLower(t.Source), src) && strings.Contains(strings.ToLower(t.Destination), dst) {
			found[no] = t
		}
	}
	return found
}

// Search is FindTrains as a slice ordered by train number.
func (s *Service) Search(source, destination string) []domain.Train {
	found := s.FindTrains(source, destination)
	out := make([]domain.Train, 0, len(found))
	for _, t := range found {
		out = append(out, t)
	}
	sortByNumber(out)
	return out
}

func sortByNumber(trains []domain.Train) {
	sort.Slice(trains, func(i, j int) bool { return trains[i].Number < trains[j].Number })
}
