package booking

import "railbook/internal/domain"

type PassengerInput struct {
	Name       string `json:"name" validate:"required,max=100"`
	Age        int    `json:"age" validate:"required,gte=1,lte=125"`
	Gender     string `json:"gender" validate:"required,max=16"`
	Preference string `json:"preference" validate:"omitempty,max=8"`
}

type CreateReservedRequest struct {
	TrainNumber string           `json:"train_number" validate:"required"`
	ClassCode   string           `json:"class_code" validate:"required"`
	JourneyDate string           `json:"journey_date" validate:"omitempty,datetime=2006-01-02"`
	Quota       string           `json:"quota" validate:"omitempty,max=16"`
	Passengers  []PassengerInput `json:"passengers" validate:"required,min=1,max=6,dive"`
}

type UnreservedRequest struct {
	Source        string `json:"source" validate:"required"`
	Destination   string `json:"destination" validate:"required"`
	TrainCategory string `json:"train_category" validate:"required"`
	Adults        int    `json:"adults" validate:"gte=0,lte=20"`
	Children      int    `json:"children" validate:"gte=0,lte=20"`
}

type PlatformRequest struct {
	Station string `json:"station" validate:"required"`
	Persons int    `json:"persons" validate:"required,gte=1,lte=20"`
}

type SeasonRequest struct {
	Source        string `json:"source" validate:"required"`
	Destination   string `json:"destination" validate:"required"`
	PassengerName string `json:"passenger_name" validate:"required,max=100"`
	PassengerAge  int    `json:"passenger_age" validate:"required,gte=1,lte=125"`
	PhoneNumber   string `json:"phone_number" validate:"required,min=6,max=20"`
}

type UnreservedQuote struct {
	Source        string  `json:"source"`
	Destination   string  `json:"destination"`
	DistanceKm    int     `json:"distance_km"`
	TrainCategory string  `json:"train_category"`
	Adults        int     `json:"adults"`
	Children      int     `json:"children"`
	Fare          float64 `json:"fare"`
}

// MyBookings groups a user's tickets by kind, oldest first.
type MyBookings struct {
	Reserved   []*domain.ReservedTicket   `json:"reserved"`
	Unreserved []*domain.UnreservedTicket `json:"unreserved"`
	Platform   []*domain.PlatformTicket   `json:"platform"`
	Season     []*domain.SeasonTicket     `json:"mst"`
}
