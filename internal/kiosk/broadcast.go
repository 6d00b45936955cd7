package kiosk

import (
	"github.com/ttatard/attendance-frontend/internal/checkin"
	"github.com/ttatard/attendance-frontend/internal/manualcode"
	"github.com/ttatard/attendance-frontend/internal/realtime"
)

// Publish pushes check-in snapshots and code popups to UI clients of the matching event,
// and sends the current state to every client as it joins.
func Publish(hub *realtime.Hub, machine *checkin.Machine, codes *manualcode.Registry) {
	if machine != nil {
		machine.Subscribe(func(s checkin.Snapshot) {
			hub.BroadcastToEvent(s.EventID, realtime.EventCheckinState, s)
		})
	}
	codes.OnChange(func(e manualcode.Entry) {
		hub.BroadcastToEvent(e.EventID, realtime.EventCodePopup, e)
	})
	hub.SetJoinHandler(func(c *realtime.Client) {
		if machine != nil {
			if s := machine.Snapshot(); s.EventID == c.EventID {
				hub.Send(c, realtime.EventCheckinState, s)
			}
		}
		if e, ok := codes.Get(c.EventID); ok {
			hub.Send(c, realtime.EventCodePopup, e)
		}
	})
}
