package inventory

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"railbook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainWith(classes ...domain.ClassInfo) domain.Train {
	return domain.Train{Number: "12951", Name: "Rajdhani", Source: "Mumbai Central", Destination: "New Delhi", Classes: classes}
}

func passenger(name string, age int, pref domain.BerthType) domain.Passenger {
	return domain.Passenger{Name: name, Age: age, Gender: "F", Preference: pref}
}

func onlyFirstLower(_ string, number int) domain.BerthType {
	if number == 1 {
		return domain.BerthLower
	}
	return domain.BerthUpper
}

func TestCoachLayout(t *testing.T) {
	assert.Equal(t, 72, SeatsPerCoach("SL"))
	assert.Equal(t, 64, SeatsPerCoach("3A"))
	assert.Equal(t, 2, CoachCount("SL", 144))
	assert.Equal(t, 3, CoachCount("SL", 145))
	assert.Equal(t, 2, CoachCount("3A", 100))
	assert.Equal(t, 0, CoachCount("1A", 0))

	assert.Equal(t, "11", CoachName("1A", 1))
	assert.Equal(t, "23", CoachName("2A", 3))
	assert.Equal(t, "SL2", CoachName("SL", 2))
	assert.Equal(t, "CC1", CoachName("CC", 1))
}

func TestBuild_CoachesAndSlots(t *testing.T) {
	inv := Build([]domain.Train{trainWith(
		domain.ClassInfo{Code: "SL", Seats: 144},
		domain.ClassInfo{Code: "3A", Seats: 100},
	)}, CyclePicker(domain.BerthTypes...), Policy{})

	sl, err := inv.Availability("12951", "SL")
	require.NoError(t, err)
	assert.Equal(t, 2, sl.Coaches)
	assert.Equal(t, 144, sl.Remaining)

	ac, err := inv.Availability("12951", "3A")
	require.NoError(t, err)
	assert.Equal(t, 2, ac.Coaches)
	assert.Equal(t, 128, ac.Remaining)
	// 64 seats cycling over 5 types: LB gets seats 1,6,...,61
	assert.Equal(t, 2*13, ac.ByType[domain.BerthLower])
}

func TestBuild_RandomPickerUsesKnownTypes(t *testing.T) {
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "SL", Seats: 72})}, nil, Policy{})

	a, err := inv.Availability("12951", "SL")
	require.NoError(t, err)
	sum := 0
	for typ, n := range a.ByType {
		assert.Contains(t, domain.BerthTypes, typ)
		sum += n
	}
	assert.Equal(t, 72, sum)
}

func TestAllocate_SeniorsFirstThenPreferenceThenFallback(t *testing.T) {
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "SL", Seats: 72})},
		CyclePicker(domain.BerthTypes...), Policy{AtomicAllocation: true})

	got, err := inv.Allocate("12951", "SL", []domain.Passenger{
		passenger("Asha", 65, domain.BerthUpper),
		passenger("Ravi", 30, domain.BerthUpper),
		passenger("Kamla", 72, ""),
		passenger("Neel", 12, domain.BerthPreferNone),
	})
	require.NoError(t, err)
	require.Len(t, got.Passengers, 4)

	// input order is kept
	assert.Equal(t, "Asha", got.Passengers[0].Name)
	assert.Equal(t, "1LB", got.Passengers[0].Berth)
	assert.Equal(t, "SL1", got.Passengers[0].Coach)
	assert.Equal(t, "3UB", got.Passengers[1].Berth)
	assert.Equal(t, "6LB", got.Passengers[2].Berth)
	assert.Equal(t, "2MB", got.Passengers[3].Berth)

	// slots in the order they were taken: seniors, then the rest
	require.Len(t, got.Slots, 4)
	assert.Equal(t, 1, got.Slots[0].Number)
	assert.Equal(t, 6, got.Slots[1].Number)
	assert.Equal(t, 3, got.Slots[2].Number)
	assert.Equal(t, 2, got.Slots[3].Number)

	a, _ := inv.Availability("12951", "SL")
	assert.Equal(t, 68, a.Remaining)
}

func TestAllocate_DoesNotMutateInput(t *testing.T) {
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "SL", Seats: 72})},
		CyclePicker(domain.BerthTypes...), Policy{})
	in := []domain.Passenger{passenger("Ravi", 30, domain.BerthMiddle)}

	_, err := inv.Allocate("12951", "SL", in)
	require.NoError(t, err)
	assert.Empty(t, in[0].Berth)
	assert.Empty(t, in[0].Coach)
}

func TestAllocate_PreferenceMissingFallsBack(t *testing.T) {
	allLower := func(string, int) domain.BerthType { return domain.BerthLower }
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "3A", Seats: 64})}, allLower, Policy{})

	got, err := inv.Allocate("12951", "3A", []domain.Passenger{passenger("Ravi", 30, domain.BerthSideUpper)})
	require.NoError(t, err)
	assert.Equal(t, "31", got.Passengers[0].Coach)
	assert.Equal(t, "1LB", got.Passengers[0].Berth)
}

func TestAllocate_PreferenceScansAcrossCoaches(t *testing.T) {
	// only the second coach has a side upper berth
	picker := func(coach string, number int) domain.BerthType {
		if coach == "SL2" && number == 40 {
			return domain.BerthSideUpper
		}
		return domain.BerthMiddle
	}
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "SL", Seats: 144})}, picker, Policy{})

	got, err := inv.Allocate("12951", "SL", []domain.Passenger{passenger("Ravi", 30, domain.BerthSideUpper)})
	require.NoError(t, err)
	assert.Equal(t, "SL2", got.Passengers[0].Coach)
	assert.Equal(t, "40SUB", got.Passengers[0].Berth)
}

func TestAllocate_EverySeniorGetsLowerBerth(t *testing.T) {
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "SL", Seats: 720})}, RandomPicker(), Policy{})
	a, err := inv.Availability("12951", "SL")
	require.NoError(t, err)

	n := a.ByType[domain.BerthLower]
	if n > 20 {
		n = 20
	}
	require.Positive(t, n)

	group := make([]domain.Passenger, 0, n+3)
	for i := 0; i < n; i++ {
		group = append(group, passenger(fmt.Sprintf("senior-%d", i), 60+i, domain.BerthUpper))
	}
	group = append(group, passenger("a", 20, ""), passenger("b", 59, domain.BerthLower), passenger("c", 5, ""))

	got, err := inv.Allocate("12951", "SL", group)
	require.NoError(t, err)
	for _, p := range got.Passengers {
		assert.NotEmpty(t, p.Berth, p.Name)
		if p.IsSenior() {
			assert.True(t, strings.HasSuffix(p.Berth, "LB"), "%s got %s", p.Name, p.Berth)
		}
	}
}

func TestAllocate_NoLowerBerthForSenior_Atomic(t *testing.T) {
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "3A", Seats: 64})}, onlyFirstLower, Policy{AtomicAllocation: true})

	_, err := inv.Allocate("12951", "3A", []domain.Passenger{
		passenger("Asha", 61, ""),
		passenger("Kamla", 80, ""),
	})
	assert.ErrorIs(t, err, ErrAllocationFailed)

	a, _ := inv.Availability("12951", "3A")
	assert.Equal(t, 64, a.Remaining)
	assert.Equal(t, 1, a.ByType[domain.BerthLower])
}

func TestAllocate_NoLowerBerthForSenior_LegacyKeepsPartialConsumption(t *testing.T) {
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "3A", Seats: 64})}, onlyFirstLower, Policy{AtomicAllocation: false})

	_, err := inv.Allocate("12951", "3A", []domain.Passenger{
		passenger("Asha", 61, ""),
		passenger("Kamla", 80, ""),
	})
	assert.ErrorIs(t, err, ErrAllocationFailed)

	a, _ := inv.Availability("12951", "3A")
	assert.Equal(t, 63, a.Remaining)
	assert.Equal(t, 0, a.ByType[domain.BerthLower])
}

func TestAllocate_ExhaustedPool(t *testing.T) {
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "CC", Seats: 10})},
		CyclePicker(domain.BerthTypes...), Policy{AtomicAllocation: true})

	group := make([]domain.Passenger, 64)
	for i := range group {
		group[i] = passenger(fmt.Sprintf("p%d", i), 30, "")
	}
	got, err := inv.Allocate("12951", "CC", group)
	require.NoError(t, err)
	assert.Len(t, got.Slots, 64)

	_, err = inv.Allocate("12951", "CC", []domain.Passenger{passenger("late", 30, "")})
	assert.ErrorIs(t, err, ErrAllocationFailed)
}

func TestAllocate_BadInput(t *testing.T) {
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "SL", Seats: 72})}, nil, Policy{})

	_, err := inv.Allocate("12951", "SL", nil)
	assert.ErrorIs(t, err, ErrNoPassengers)

	_, err = inv.Allocate("12951", "1A", []domain.Passenger{passenger("x", 30, "")})
	assert.ErrorIs(t, err, ErrPoolNotFound)

	_, err = inv.Allocate("00000", "SL", []domain.Passenger{passenger("x", 30, "")})
	assert.ErrorIs(t, err, ErrPoolNotFound)
}

func TestRelease_RestoresSeatOrderAndIsIdempotent(t *testing.T) {
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "SL", Seats: 72})},
		CyclePicker(domain.BerthTypes...), Policy{})

	first, err := inv.Allocate("12951", "SL", []domain.Passenger{passenger("a", 30, ""), passenger("b", 30, "")})
	require.NoError(t, err)

	require.NoError(t, inv.Release("12951", "SL", first.Slots))
	require.NoError(t, inv.Release("12951", "SL", first.Slots))

	a, _ := inv.Availability("12951", "SL")
	assert.Equal(t, 72, a.Remaining)

	again, err := inv.Allocate("12951", "SL", []domain.Passenger{passenger("c", 30, "")})
	require.NoError(t, err)
	assert.Equal(t, "1LB", again.Passengers[0].Berth)
}

func TestRelease_UnknownCoach(t *testing.T) {
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "SL", Seats: 72})}, nil, Policy{})

	err := inv.Release("12951", "SL", []domain.BerthSlot{{Coach: "B9", Number: 1, Type: domain.BerthLower}})
	assert.ErrorIs(t, err, ErrUnknownCoach)
}

func TestClaim_RemovesExactBerths(t *testing.T) {
	layout := []domain.Train{trainWith(domain.ClassInfo{Code: "SL", Seats: 72})}
	before := Build(layout, CyclePicker(domain.BerthTypes...), Policy{AtomicAllocation: true})
	held, err := before.Allocate("12951", "SL", []domain.Passenger{passenger("a", 70, ""), passenger("b", 30, domain.BerthUpper)})
	require.NoError(t, err)

	// same layout built again, as after a restart
	after := Build(layout, CyclePicker(domain.BerthTypes...), Policy{AtomicAllocation: true})
	require.NoError(t, after.Claim("12951", "SL", held.Slots))

	a, _ := after.Availability("12951", "SL")
	assert.Equal(t, 70, a.Remaining)

	next, err := after.Allocate("12951", "SL", []domain.Passenger{passenger("c", 70, ""), passenger("d", 30, domain.BerthUpper)})
	require.NoError(t, err)
	for _, s := range next.Slots {
		assert.NotContains(t, held.Slots, s)
	}
}

func TestClaim_TakenOrChangedBerthRemovesNothing(t *testing.T) {
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "SL", Seats: 72})},
		CyclePicker(domain.BerthTypes...), Policy{AtomicAllocation: true})

	sold, err := inv.Allocate("12951", "SL", []domain.Passenger{passenger("a", 70, "")})
	require.NoError(t, err)
	require.Equal(t, domain.BerthSlot{Coach: "SL1", Number: 1, Type: domain.BerthLower}, sold.Slots[0])

	free := domain.BerthSlot{Coach: "SL1", Number: 2, Type: domain.BerthMiddle}
	err = inv.Claim("12951", "SL", []domain.BerthSlot{free, sold.Slots[0]})
	assert.ErrorIs(t, err, ErrBerthTaken)

	err = inv.Claim("12951", "SL", []domain.BerthSlot{{Coach: "SL1", Number: 2, Type: domain.BerthUpper}})
	assert.ErrorIs(t, err, ErrBerthTaken)

	err = inv.Claim("12951", "SL", []domain.BerthSlot{{Coach: "B9", Number: 1, Type: domain.BerthLower}})
	assert.ErrorIs(t, err, ErrUnknownCoach)

	a, _ := inv.Availability("12951", "SL")
	assert.Equal(t, 71, a.Remaining)
	require.NoError(t, inv.Claim("12951", "SL", []domain.BerthSlot{free}))
}

func TestAllocate_ConcurrentCallersNeverShareABerth(t *testing.T) {
	inv := Build([]domain.Train{trainWith(domain.ClassInfo{Code: "CC", Seats: 64})}, RandomPicker(), Policy{AtomicAllocation: true})

	const callers = 80
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		seen  = map[string]int{}
		fails int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := inv.Allocate("12951", "CC", []domain.Passenger{passenger(fmt.Sprintf("p%d", i), 30, "")})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fails++
				return
			}
			seen[got.Passengers[0].Coach+"/"+got.Passengers[0].Berth]++
		}(i)
	}
	wg.Wait()

	assert.Len(t, seen, 64)
	assert.Equal(t, callers-64, fails)
	for k, n := range seen {
		assert.Equal(t, 1, n, k)
	}
}
