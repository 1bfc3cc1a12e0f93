package domain

import "fmt"

type Station struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Label is the autocomplete form "Name (CODE)".
func (s Station) Label() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.Code)
}
