package inventory

import (
	"fmt"
	"sort"
	"sync"

	"railbook/internal/domain"

	"github.com/sirupsen/logrus"
)

type Policy struct {
	// AtomicAllocation puts back berths taken earlier in a call that ends
	// up failing. Off reproduces the legacy partial consumption.
	AtomicAllocation bool
}

type coach struct {
	name  string
	slots []domain.BerthSlot
}

// pool is the mutable berth set of one (train, class). mu covers every
// scan-then-remove sequence.
type pool struct {
	mu      sync.Mutex
	coaches []*coach
	byName  map[string]*coach
}

type poolKey struct {
	train string
	class string
}

// Inventory owns all berth pools. The pool map itself is fixed after Build.
type Inventory struct {
	pools  map[poolKey]*pool
	policy Policy
}

// Allocation is the result of a successful Allocate call. Passengers keep
// the caller's order; Slots lists berths in the order they were taken.
type Allocation struct {
	Passengers []domain.Passenger
	Slots      []domain.BerthSlot
}

type Availability struct {
	TrainNumber string                   `json:"train_number"`
	ClassCode   string                   `json:"class_code"`
	Coaches     int                      `json:"coaches"`
	Remaining   int                      `json:"remaining"`
	ByType      map[domain.BerthType]int `json:"by_type"`
}

// Build lays out coaches for every class of every train.
func Build(trains []domain.Train, pick BerthPicker, policy Policy) *Inventory {
	if pick == nil {
		pick = RandomPicker()
	}
	inv := &Inventory{pools: make(map[poolKey]*pool), policy: policy}
	total := 0
	for _, t := range trains {
		for _, c := range t.Classes {
			p := newPool(c.Code, c.Seats, pick)
			inv.pools[poolKey{t.Number, c.Code}] = p
			total += len(p.coaches)
		}
	}
	logrus.WithFields(logrus.Fields{"pools": len(inv.pools), "coaches": total}).Info("berth inventory generated")
	return inv
}

func newPool(classCode string, totalSeats int, pick BerthPicker) *pool {
	per := SeatsPerCoach(classCode)
	n := CoachCount(classCode, totalSeats)
	p := &pool{coaches: make([]*coach, 0, n), byName: make(map[string]*coach, n)}
	for i := 1; i <= n; i++ {
		c := &coach{name: CoachName(classCode, i), slots: make([]domain.BerthSlot, 0, per)}
		for seat := 1; seat <= per; seat++ {
			c.slots = append(c.slots, domain.BerthSlot{Coach: c.name, Number: seat, Type: pick(c.name, seat)})
		}
		p.coaches = append(p.coaches, c)
		p.byName[c.name] = c
	}
	return p
}

func (inv *Inventory) Policy() Policy {
	return inv.policy
}

func (inv *Inventory) pool(trainNo, classCode string) (*pool, error) {
	p, ok := inv.pools[poolKey{trainNo, classCode}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrPoolNotFound, trainNo, classCode)
	}
	return p, nil
}

// Allocate seats passengers in trainNo/classCode:
//   - seniors (age >= 60) first, each on the first lower berth found;
//   - everyone else on the first berth of their preferred type, falling
//     back to the first berth of the first non-empty coach.
//
// Coaches are scanned in creation order and slots in seat order.
func (inv *Inventory) Allocate(trainNo, classCode string, passengers []domain.Passenger) (*Allocation, error) {
	if len(passengers) == 0 {
		return nil, ErrNoPassengers
	}
	p, err := inv.pool(trainNo, classCode)
	if err != nil {
		return nil, err
	}

	var seniors, others []int
	for i, ps := range passengers {
		if ps.IsSenior() {
			seniors = append(seniors, i)
		} else {
			others = append(others, i)
		}
	}

	out := make([]domain.Passenger, len(passengers))
	copy(out, passengers)
	taken := make([]domain.BerthSlot, 0, len(passengers))

	p.mu.Lock()
	defer p.mu.Unlock()

	fail := func(who domain.Passenger) (*Allocation, error) {
		if inv.policy.AtomicAllocation {
			p.restore(taken)
		}
		logrus.WithFields(logrus.Fields{
			"train":    trainNo,
			"class":    classCode,
			"consumed": len(taken),
			"restored": inv.policy.AtomicAllocation,
		}).Warn("berth allocation failed")
		return nil, fmt.Errorf("%w: %s (age %d)", ErrAllocationFailed, who.Name, who.Age)
	}

	for _, i := range seniors {
		slot, ok := p.take(func(s domain.BerthSlot) bool { return s.Type == domain.BerthLower })
		if !ok {
			return fail(out[i])
		}
		assign(&out[i], slot)
		taken = append(taken, slot)
	}

	for _, i := range others {
		pref := out[i].Preference
		slot, ok := p.take(func(s domain.BerthSlot) bool { return s.Type == pref })
		if !ok {
			slot, ok = p.takeFirst()
		}
		if !ok {
			return fail(out[i])
		}
		assign(&out[i], slot)
		taken = append(taken, slot)
	}

	return &Allocation{Passengers: out, Slots: taken}, nil
}

func assign(ps *domain.Passenger, slot domain.BerthSlot) {
	ps.Coach = slot.Coach
	ps.Berth = slot.Label()
}

// Release hands berths back to their pool, each at its seat position.
// Berths already present are ignored, so releasing twice is harmless.
func (inv *Inventory) Release(trainNo, classCode string, slots []domain.BerthSlot) error {
	if len(slots) == 0 {
		return nil
	}
	p, err := inv.pool(trainNo, classCode)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range slots {
		if _, ok := p.byName[s.Coach]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCoach, s.Coach)
		}
	}
	p.restore(slots)
	return nil
}

// Claim removes exactly the given berths from the pool, as when holds
// recorded elsewhere are re-applied to a freshly built inventory. A berth
// that is missing or has a different type fails the whole call and nothing
// is removed.
func (inv *Inventory) Claim(trainNo, classCode string, slots []domain.BerthSlot) error {
	if len(slots) == 0 {
		return nil
	}
	p, err := inv.pool(trainNo, classCode)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	claimed := make([]domain.BerthSlot, 0, len(slots))
	for _, want := range slots {
		if _, ok := p.byName[want.Coach]; !ok {
			p.restore(claimed)
			return fmt.Errorf("%w: %s", ErrUnknownCoach, want.Coach)
		}
		slot, ok := p.take(func(s domain.BerthSlot) bool { return s == want })
		if !ok {
			p.restore(claimed)
			return fmt.Errorf("%w: %s %s", ErrBerthTaken, want.Coach, want.Label())
		}
		claimed = append(claimed, slot)
	}
	return nil
}

func (inv *Inventory) Availability(trainNo, classCode string) (Availability, error) {
	p, err := inv.pool(trainNo, classCode)
	if err != nil {
		return Availability{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	a := Availability{
		TrainNumber: trainNo,
		ClassCode:   classCode,
		Coaches:     len(p.coaches),
		ByType:      make(map[domain.BerthType]int, len(domain.BerthTypes)),
	}
	for _, c := range p.coaches {
		for _, s := range c.slots {
			a.ByType[s.Type]++
			a.Remaining++
		}
	}
	return a, nil
}

func (p *pool) take(match func(domain.BerthSlot) bool) (domain.BerthSlot, bool) {
	for _, c := range p.coaches {
		for i, s := range c.slots {
			if match(s) {
				c.slots = append(c.slots[:i], c.slots[i+1:]...)
				return s, true
			}
		}
	}
	return domain.BerthSlot{}, false
}

func (p *pool) takeFirst() (domain.BerthSlot, bool) {
	for _, c := range p.coaches {
		if len(c.slots) > 0 {
			s := c.slots[0]
			c.slots = c.slots[1:]
			return s, true
		}
	}
	return domain.BerthSlot{}, false
}

func (p *pool) restore(slots []domain.BerthSlot) {
	for _, s := range slots {
		c, ok := p.byName[s.Coach]
		if !ok {
			continue
		}
		i := sort.Search(len(c.slots), func(i int) bool { return c.slots[i].Number >= s.Number })
		if i < len(c.slots) && c.slots[i].Number == s.Number {
			continue
		}
		c.slots = append(c.slots, domain.BerthSlot{})
		copy(c.slots[i+1:], c.slots[i:])
		c.slots[i] = s
	}
}
