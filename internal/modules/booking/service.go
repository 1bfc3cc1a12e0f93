package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"railbook/internal/domain"
	"railbook/internal/modules/fare"
	"railbook/internal/modules/inventory"
	"railbook/internal/pkg/validator"
	"railbook/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPendingTTL = 15 * time.Minute
	defaultQuota      = "GENERAL"
)

type Options struct {
	PendingTTL time.Duration

	// HoldOnPending allocates berths when a reserved booking is created and
	// keeps them until payment or expiry. Off allocates at payment time.
	HoldOnPending bool

	// RestockOnCancel returns a cancelled ticket's berths to the inventory.
	RestockOnCancel bool
}

type Deps struct {
	Catalog   TrainCatalog
	Stations  StationIndex
	Inventory BerthInventory
	Fares     FareCalculator
	Ledger    TicketLedger
	Pending   PendingStore
	Renderer  TicketRenderer
}

type Service struct {
	catalog   TrainCatalog
	stations  StationIndex
	inventory BerthInventory
	fares     FareCalculator
	ledger    TicketLedger
	pending   PendingStore
	renderer  TicketRenderer

	opts Options
	now  func() time.Time
}

func NewService(deps Deps, opts Options) *Service {
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = DefaultPendingTTL
	}
	return &Service{
		catalog:   deps.Catalog,
		stations:  deps.Stations,
		inventory: deps.Inventory,
		fares:     deps.Fares,
		ledger:    deps.Ledger,
		pending:   deps.Pending,
		renderer:  deps.Renderer,
		opts:      opts,
		now:       time.Now,
	}
}

func validate(req any) error {
	if err := validator.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

func (s *Service) newPending(userID int64, kind domain.TicketKind, amount float64) *domain.PendingBooking {
	now := s.now()
	return &domain.PendingBooking{
		Token:     uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Amount:    amount,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.PendingTTL),
	}
}

func toPassengers(in []PassengerInput) ([]domain.Passenger, error) {
	out := make([]domain.Passenger, 0, len(in))
	bad := validator.FieldErrors{}
	for i, p := range in {
		pref, ok := domain.ParseBerthPreference(p.Preference)
		if !ok {
			bad[fmt.Sprintf("passengers[%d].preference", i)] = "oneof"
			continue
		}
		out = append(out, domain.Passenger{
			Name:       strings.TrimSpace(p.Name),
			Age:        p.Age,
			Gender:     strings.TrimSpace(p.Gender),
			Preference: pref,
		})
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrValidation, bad)
	}
	return out, nil
}

// CreateReserved starts a reserved booking. With HoldOnPending the berths
// are allocated now and travel with the pending booking.
func (s *Service) CreateReserved(ctx context.Context, userID int64, req CreateReservedRequest) (*domain.PendingBooking, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	passengers, err := toPassengers(req.Passengers)
	if err != nil {
		return nil, err
	}

	train, class, err := s.catalog.Class(req.TrainNumber, req.ClassCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	quota := strings.ToUpper(strings.TrimSpace(req.Quota))
	if quota == "" {
		quota = defaultQuota
	}
	draft := &domain.ReservedDraft{
		TrainNumber: train.Number,
		ClassCode:   class.Code,
		Passengers:  passengers,
		JourneyDate: req.JourneyDate,
		Quota:       quota,
	}

	if s.opts.HoldOnPending {
		alloc, err := s.inventory.Allocate(train.Number, class.Code, passengers)
		if err != nil {
			return nil, err
		}
		draft.Passengers = alloc.Passengers
		draft.Held = alloc.Slots
	}

	p := s.newPending(userID, domain.KindReserved, s.fares.Reserved(train.Number, class.Code, len(passengers)))
	p.Reserved = draft

	if err := s.pending.Save(ctx, p); err != nil {
		s.releaseHeld(p, "save failed")
		return nil, fmt.Errorf("save pending booking: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"token":      p.Token,
		"user_id":    userID,
		"train":      train.Number,
		"class":      class.Code,
		"passengers": len(passengers),
		"held":       len(draft.Held),
	}).Info("reserved booking pending payment")
	return p, nil
}

func (s *Service) QuoteUnreserved(_ context.Context, req UnreservedRequest) (*UnreservedQuote, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Adults+req.Children == 0 {
		return nil, fmt.Errorf("%w: at least one traveller is required", ErrValidation)
	}

	src, dst, err := s.resolveRoute(req.Source, req.Destination)
	if err != nil {
		return nil, err
	}
	amount, km, err := s.fares.UnreservedQuote(src.Name, dst.Name, req.TrainCategory, req.Adults, req.Children)
	if err != nil {
		return nil, mapFareError(err)
	}
	return &UnreservedQuote{
		Source:        src.Name,
		Destination:   dst.Name,
		DistanceKm:    km,
		TrainCategory: fare.NormalizeCategory(req.TrainCategory),
		Adults:        req.Adults,
		Children:      req.Children,
		Fare:          amount,
	}, nil
}

func (s *Service) CreateUnreserved(ctx context.Context, userID int64, req UnreservedRequest) (*domain.PendingBooking, error) {
	q, err := s.QuoteUnreserved(ctx, req)
	if err != nil {
		return nil, err
	}

	p := s.newPending(userID, domain.KindUnreserved, q.Fare)
	p.Unreserved = &domain.UnreservedTicket{
		TicketBase:    domain.TicketBase{UserID: userID, Status: domain.TicketBooked, Fare: q.Fare},
		Source:        q.Source,
		Destination:   q.Destination,
		DistanceKm:    q.DistanceKm,
		TrainCategory: q.TrainCategory,
		Adults:        q.Adults,
		Children:      q.Children,
	}
	return p, s.savePending(ctx, p)
}

func (s *Service) CreatePlatform(ctx context.Context, userID int64, req PlatformRequest) (*domain.PendingBooking, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	// any station name is accepted; known stations are stored canonically
	name := strings.TrimSpace(req.Station)
	if st, err := s.stations.Lookup(name); err == nil {
		name = st.Name
	}

	amount := fare.Platform(req.Persons)
	p := s.newPending(userID, domain.KindPlatform, amount)
	p.Platform = &domain.PlatformTicket{
		TicketBase: domain.TicketBase{UserID: userID, Status: domain.TicketConfirmed, Fare: amount},
		Station:    name,
		Persons:    req.Persons,
	}
	return p, s.savePending(ctx, p)
}

func (s *Service) CreateSeason(ctx context.Context, userID int64, req SeasonRequest) (*domain.PendingBooking, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	src, dst, err := s.resolveRoute(req.Source, req.Destination)
	if err != nil {
		return nil, err
	}
	amount, _, err := s.fares.Season(src.Name, dst.Name)
	if err != nil {
		return nil, mapFareError(err)
	}

	from, until := fare.SeasonValidity(s.now())
	p := s.newPending(userID, domain.KindSeason, amount)
	p.Season = &domain.SeasonTicket{
		TicketBase:    domain.TicketBase{UserID: userID, Status: domain.TicketBooked, Fare: amount},
		Source:        src.Name,
		Destination:   dst.Name,
		PassengerName: strings.TrimSpace(req.PassengerName),
		PassengerAge:  req.PassengerAge,
		PhoneNumber:   strings.TrimSpace(req.PhoneNumber),
		ValidFrom:     from,
		ValidUntil:    until,
	}
	return p, s.savePending(ctx, p)
}

func (s *Service) resolveRoute(source, destination string) (domain.Station, domain.Station, error) {
	src, err := s.stations.Lookup(source)
	if err != nil {
		return domain.Station{}, domain.Station{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	dst, err := s.stations.Lookup(destination)
	if err != nil {
		return domain.Station{}, domain.Station{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return src, dst, nil
}

func mapFareError(err error) error {
	switch {
	case errors.Is(err, fare.ErrRouteUnresolved):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, fare.ErrUnknownCategory):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return err
}

func (s *Service) savePending(ctx context.Context, p *domain.PendingBooking) error {
	if err := s.pending.Save(ctx, p); err != nil {
		return fmt.Errorf("save pending booking: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"token":   p.Token,
		"user_id": p.UserID,
		"kind":    p.Kind,
		"amount":  p.Amount,
	}).Info("booking pending payment")
	return nil
}

func (s *Service) ownPending(ctx context.Context, userID int64, token string) (*domain.PendingBooking, error) {
	p, err := s.pending.Get(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrPendingNotFound) {
			return nil, ErrPendingNotFound
		}
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrPendingNotFound
	}
	return p, nil
}

// GetPending returns the booking awaiting payment. The reserved amount is
// recomputed from the current fare table.
func (s *Service) GetPending(ctx context.Context, userID int64, token string) (*domain.PendingBooking, error) {
	p, err := s.ownPending(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	if p.Expired(s.now()) {
		return nil, ErrPendingExpired
	}
	if p.Kind == domain.KindReserved && p.Reserved != nil {
		p.Amount = s.fares.Reserved(p.Reserved.TrainNumber, p.Reserved.ClassCode, len(p.Reserved.Passengers))
	}
	return p, nil
}

// ConfirmPayment turns a pending booking into an issued ticket. The pending
// entry is consumed whatever the outcome.
func (s *Service) ConfirmPayment(ctx context.Context, userID int64, token string) (domain.Ticket, error) {
	if _, err := s.ownPending(ctx, userID, token); err != nil {
		return nil, err
	}
	p, err := s.pending.Take(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrPendingNotFound) {
			return nil, ErrPendingNotFound
		}
		return nil, err
	}
	if p.Expired(s.now()) {
		s.releaseHeld(p, "expired at payment")
		return nil, ErrPendingExpired
	}

	var t domain.Ticket
	switch p.Kind {
	case domain.KindReserved:
		t, err = s.confirmReserved(p)
	case domain.KindUnreserved:
		t, err = s.issueDraft(p, p.Unreserved)
	case domain.KindPlatform:
		t, err = s.issueDraft(p, p.Platform)
	case domain.KindSeason:
		t, err = s.issueDraft(p, p.Season)
	default:
		err = fmt.Errorf("%w: unknown booking kind %q", ErrValidation, p.Kind)
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"token":   token,
		"user_id": userID,
		"kind":    t.Kind(),
		"ticket":  t.Base().ID,
		"fare":    t.Base().Fare,
	}).Info("payment confirmed, ticket issued")
	return t, nil
}

func (s *Service) confirmReserved(p *domain.PendingBooking) (*domain.ReservedTicket, error) {
	d := p.Reserved
	if d == nil {
		return nil, fmt.Errorf("%w: reserved booking without details", ErrValidation)
	}

	train, class, err := s.catalog.Class(d.TrainNumber, d.ClassCode)
	if err != nil {
		s.releaseHeld(p, "train vanished")
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	passengers, slots := d.Passengers, d.Held
	if len(slots) == 0 {
		alloc, err := s.inventory.Allocate(train.Number, class.Code, d.Passengers)
		if err != nil {
			return nil, err
		}
		passengers, slots = alloc.Passengers, alloc.Slots
	}

	t := &domain.ReservedTicket{
		TicketBase: domain.TicketBase{
			UserID:    p.UserID,
			Status:    domain.TicketConfirmed,
			CreatedAt: s.now(),
			Fare:      s.fares.Reserved(train.Number, class.Code, len(passengers)),
		},
		Train:       train,
		ClassCode:   class.Code,
		ClassName:   class.Name,
		Passengers:  passengers,
		Berths:      slots,
		JourneyDate: d.JourneyDate,
		Quota:       d.Quota,
	}
	if err := s.ledger.IssueReserved(t); err != nil {
		s.release(train.Number, class.Code, slots, "issue failed")
		return nil, fmt.Errorf("issue reserved ticket: %w", err)
	}
	return t, nil
}

func (s *Service) issueDraft(p *domain.PendingBooking, draft domain.Ticket) (domain.Ticket, error) {
	if draft == nil || isNilTicket(draft) {
		return nil, fmt.Errorf("%w: %s booking without details", ErrValidation, p.Kind)
	}
	b := draft.Base()
	b.UserID = p.UserID
	b.Fare = p.Amount
	b.ID = ""
	b.CreatedAt = s.now()
	if err := s.ledger.Issue(draft); err != nil {
		return nil, fmt.Errorf("issue %s ticket: %w", p.Kind, err)
	}
	return draft, nil
}

// isNilTicket catches typed nil pointers stored in the interface.
func isNilTicket(t domain.Ticket) bool {
	switch v := t.(type) {
	case *domain.UnreservedTicket:
		return v == nil
	case *domain.PlatformTicket:
		return v == nil
	case *domain.SeasonTicket:
		return v == nil
	case *domain.ReservedTicket:
		return v == nil
	}
	return false
}

func (s *Service) releaseHeld(p *domain.PendingBooking, reason string) {
	if p.Reserved == nil || len(p.Reserved.Held) == 0 {
		return
	}
	s.release(p.Reserved.TrainNumber, p.Reserved.ClassCode, p.Reserved.Held, reason)
}

func (s *Service) release(trainNo, classCode string, slots []domain.BerthSlot, reason string) {
	if len(slots) == 0 {
		return
	}
	entry := logrus.WithFields(logrus.Fields{
		"train":  trainNo,
		"class":  classCode,
		"berths": len(slots),
		"reason": reason,
	})
	if err := s.inventory.Release(trainNo, classCode, slots); err != nil {
		entry.WithError(err).Error("failed to release berths")
		return
	}
	entry.Info("berths released")
}

// ExpirePending drops every pending booking expired at now and releases
// the berths it held. It returns how many bookings were dropped.
func (s *Service) ExpirePending(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.pending.ListExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list expired bookings: %w", err)
	}

	n := 0
	for _, e := range expired {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if !e.Expired(now) {
			continue
		}
		p, err := s.pending.Take(ctx, e.Token)
		if errors.Is(err, repository.ErrPendingNotFound) {
			// paid or swept concurrently
			continue
		}
		if err != nil {
			return n, fmt.Errorf("take expired booking %s: %w", e.Token, err)
		}
		s.releaseHeld(p, "pending expired")
		n++
	}
	return n, nil
}

// RestoreHolds re-applies the berths held by stored pending bookings to the
// inventory, which is rebuilt full on every start. A booking whose berths
// can no longer be claimed is dropped, as is one that expired while the
// process was down. It returns how many bookings kept their berths.
func (s *Service) RestoreHolds(ctx context.Context) (int, error) {
	stored, err := s.pending.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending bookings: %w", err)
	}

	now := s.now()
	n := 0
	for _, p := range stored {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if p.Reserved == nil || len(p.Reserved.Held) == 0 {
			continue
		}
		entry := logrus.WithFields(logrus.Fields{
			"token": p.Token,
			"train": p.Reserved.TrainNumber,
			"class": p.Reserved.ClassCode,
		})
		if p.Expired(now) {
			// never claimed here, so there is nothing to release
			s.dropPending(ctx, entry, p.Token, "expired")
			continue
		}
		if err := s.inventory.Claim(p.Reserved.TrainNumber, p.Reserved.ClassCode, p.Reserved.Held); err != nil {
			entry.WithError(err).Warn("held berths unavailable, dropping pending booking")
			s.dropPending(ctx, entry, p.Token, "berths unavailable")
			continue
		}
		n++
	}
	return n, nil
}

func (s *Service) dropPending(ctx context.Context, entry *logrus.Entry, token, reason string) {
	if _, err := s.pending.Take(ctx, token); err != nil && !errors.Is(err, repository.ErrPendingNotFound) {
		entry.WithError(err).Error("failed to drop pending booking")
		return
	}
	entry.WithField("reason", reason).Info("pending booking dropped")
}

// Cancel cancels the user's reserved ticket. Berths go back to the
// inventory only when RestockOnCancel is set.
func (s *Service) Cancel(ctx context.Context, userID int64, pnr string) (*domain.ReservedTicket, error) {
	t, err := s.Ticket(ctx, userID, pnr)
	if err != nil {
		return nil, err
	}
	if t.Kind() != domain.KindReserved {
		return nil, fmt.Errorf("%w: %s", ErrNotCancellable, pnr)
	}

	cancelled, err := s.ledger.Cancel(pnr)
	if err != nil {
		return nil, err
	}
	if s.opts.RestockOnCancel {
		s.release(cancelled.Train.Number, cancelled.ClassCode, cancelled.Berths, "ticket cancelled")
	}

	logrus.WithFields(logrus.Fields{
		"pnr":     pnr,
		"user_id": userID,
		"restock": s.opts.RestockOnCancel,
	}).Info("ticket cancelled")
	return cancelled, nil
}

func (s *Service) Availability(_ context.Context, trainNo, classCode string) (inventory.Availability, error) {
	if _, _, err := s.catalog.Class(trainNo, classCode); err != nil {
		return inventory.Availability{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return s.inventory.Availability(trainNo, classCode)
}

// Ticket returns one of the user's tickets by PNR or ticket id. Tickets of
// other users are reported as not found.
func (s *Service) Ticket(_ context.Context, userID int64, id string) (domain.Ticket, error) {
	t, err := s.ledger.Find(id)
	if err != nil {
		return nil, err
	}
	if t.Base().UserID != userID {
		return nil, fmt.Errorf("%w: %s", ErrTicketNotFound, id)
	}
	return t, nil
}

func (s *Service) ListTickets(_ context.Context, userID int64) *MyBookings {
	out := &MyBookings{
		Reserved:   []*domain.ReservedTicket{},
		Unreserved: []*domain.UnreservedTicket{},
		Platform:   []*domain.PlatformTicket{},
		Season:     []*domain.SeasonTicket{},
	}
	for _, t := range s.ledger.ListByUser(userID, "") {
		switch v := t.(type) {
		case *domain.ReservedTicket:
			out.Reserved = append(out.Reserved, v)
		case *domain.UnreservedTicket:
			out.Unreserved = append(out.Unreserved, v)
		case *domain.PlatformTicket:
			out.Platform = append(out.Platform, v)
		case *domain.SeasonTicket:
			out.Season = append(out.Season, v)
		}
	}
	return out
}

func (s *Service) QRContent(ctx context.Context, userID int64, id string) (string, error) {
	t, err := s.Ticket(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return QRText(t), nil
}

func (s *Service) PrintPDF(ctx context.Context, userID int64, id string) ([]byte, error) {
	t, err := s.Ticket(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if s.renderer == nil {
		return nil, errors.New("no ticket renderer configured")
	}
	return s.renderer.Render(t, QRText(t))
}
