package models

// Organizer is the public organizer summary embedded in an event.
type Organizer struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// EventIdentity is the event a check-in session verifies against.
// It is fetched once per session and never mutated afterwards.
type EventIdentity struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	Place       string     `json:"place,omitempty"`
	MeetingInfo string     `json:"meetingInfo,omitempty"`
	QRSecret    string     `json:"qrCode,omitempty"`
	Description string     `json:"description,omitempty"`
	Organizer   *Organizer `json:"organizer,omitempty"`
}

// Location returns the physical place, or the meeting info for online events.
func (e EventIdentity) Location() string {
	if e.Place != "" {
		return e.Place
	}
	return e.MeetingInfo
}
