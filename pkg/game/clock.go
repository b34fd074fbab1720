package game

import "time"

// dayLayout is the wire format of a game day identifier.
const dayLayout = "2006-01-02"

// DayFunc yields the identifier of the current game day. All quota rollover
// and active-ownership checks compare stored days against this value, so a
// single DayFunc must be shared by every component of one engine.
type DayFunc func() string

// FixedOffsetDay returns a DayFunc that derives the game day from the wall
// clock shifted by a fixed UTC offset. Counters and holdings roll over at
// midnight in that offset, not in the host timezone.
func FixedOffsetDay(offsetHours int) DayFunc {
	zone := time.FixedZone("game", offsetHours*3600)
	return func() string {
		return time.Now().In(zone).Format(dayLayout)
	}
}
