package domain

const SeniorAge = 60

type Passenger struct {
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	Gender     string    `json:"gender"`
	Preference BerthType `json:"preference,omitempty"`
	Coach      string    `json:"coach,omitempty"`
	Berth      string    `json:"berth,omitempty"`
}

func (p Passenger) IsSenior() bool {
	return p.Age >= SeniorAge
}
