package domain

import "strings"

// TimeControl is one of the fixed game pacing categories tracked by the
// platform. Each maps 1:1 to a stats payload key and to a stored series table.
type TimeControl string

const (
	Bullet TimeControl = "bullet"
	Blitz  TimeControl = "blitz"
	Rapid  TimeControl = "rapid"
	Daily  TimeControl = "daily"
)

// TimeControls returns the closed enumeration in a fixed order.
func TimeControls() []TimeControl {
	return []TimeControl{Bullet, Blitz, Rapid, Daily}
}

func (tc TimeControl) String() string {
	return string(tc)
}

// StatsKey is the per-control key used by the stats API payload.
func (tc TimeControl) StatsKey() string {
	return "chess_" + string(tc)
}

func (tc TimeControl) Valid() bool {
	switch tc {
	case Bullet, Blitz, Rapid, Daily:
		return true
	}
	return false
}

// ControlFromTimeClass maps a game record's time_class value to a
// TimeControl. Variant classes the crawler does not track report ok=false.
func ControlFromTimeClass(class string) (TimeControl, bool) {
	tc := TimeControl(strings.ToLower(class))
	return tc, tc.Valid()
}
