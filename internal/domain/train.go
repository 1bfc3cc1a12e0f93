package domain

type ClassInfo struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Seats        int    `json:"seats"`
	TatkaalSeats int    `json:"tatkaal_seats"`
}

type Train struct {
	Number      string `json:"number"`
	Name        string `json:"name"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Departure   string `json:"departure"`
	Arrival     string `json:"arrival"`

	// Classes keeps the order in which classes appeared in the reference data.
	Classes []ClassInfo `json:"classes"`
}

func (t Train) Class(code string) (ClassInfo, bool) {
	for _, c := range t.Classes {
		if c.Code == code {
			return c, true
		}
	}
	return ClassInfo{}, false
}
