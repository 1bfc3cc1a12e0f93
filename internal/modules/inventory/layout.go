package inventory

import (
	"math/rand"
	"strconv"
	"strings"

	"railbook/internal/domain"
)

const (
	sleeperSeatsPerCoach = 72
	defaultSeatsPerCoach = 64
)

// BerthPicker decides the berth type of each generated slot.
type BerthPicker func(coach string, number int) domain.BerthType

// RandomPicker assigns every slot an independent, uniformly random berth
// type. Real coaches have a fixed layout per seat position; the random
// layout is kept for compatibility with existing data.
func RandomPicker() BerthPicker {
	return func(string, int) domain.BerthType {
		return domain.BerthTypes[rand.Intn(len(domain.BerthTypes))]
	}
}

// CyclePicker repeats types by seat position: seat n gets types[(n-1)%len].
func CyclePicker(types ...domain.BerthType) BerthPicker {
	return func(_ string, number int) domain.BerthType {
		return types[(number-1)%len(types)]
	}
}

func SeatsPerCoach(classCode string) int {
	if classCode == "SL" {
		return sleeperSeatsPerCoach
	}
	return defaultSeatsPerCoach
}

func CoachCount(classCode string, totalSeats int) int {
	per := SeatsPerCoach(classCode)
	return (totalSeats + per - 1) / per
}

// CoachName strips every 'A' from the class code and appends the 1-based
// coach index: 3A -> 31, 32, ...; SL -> SL1, SL2, ...
func CoachName(classCode string, index int) string {
	return strings.ReplaceAll(classCode, "A", "") + strconv.Itoa(index)
}
