package domain

import "time"

// Profile is the public account record for a single player.
type Profile struct {
	PlayerID   int64
	Username   string
	Name       string
	Country    string
	Joined     time.Time
	LastOnline time.Time
	Status     string
	League     string
	Followers  int
	IsStreamer bool
}

// ControlStats is the per-control summary from the stats payload.
type ControlStats struct {
	Rating int
	Wins   int
	Losses int
	Draws  int
}

// GameCount is the total number of finished games in this control.
func (cs ControlStats) GameCount() int {
	return cs.Wins + cs.Losses + cs.Draws
}

// Stats is the account-wide stats payload, keyed by time control. Controls
// the player has never played in are absent from the map.
type Stats struct {
	Controls map[TimeControl]ControlStats
}

// RatingPoint is one observed rating at the end of a finished game.
type RatingPoint struct {
	At     time.Time
	Rating int
}

// RatingHistory is a chronological rating series for one time control.
type RatingHistory struct {
	Points []RatingPoint
}

// PuzzleHistory holds tactics and puzzle rush results.
type PuzzleHistory struct {
	BestAttempts  int
	BestScore     int
	HighestRating int
	HighestAt     time.Time
	LowestRating  int
	LowestAt      time.Time
}

// Opponent is one past adversary, with the rating they held in that game.
// The same username may appear once per game played against them.
type Opponent struct {
	Username string
	Rating   int
	Control  TimeControl
}

// Snapshot accumulates everything fetched about one player during a crawl
// step. Fields start nil and are filled in by fetchers; nil means "never
// fetched", which accessors report as a MissingFieldError. A fetched field
// that is merely empty is served with its documented zero value instead.
type Snapshot struct {
	Identifier string

	Profile   *Profile
	Stats     *Stats
	Ratings   map[TimeControl]*RatingHistory
	Puzzles   *PuzzleHistory
	Opponents []Opponent

	FetchedAt time.Time
}

// NewSnapshot starts an empty snapshot for the given player identifier.
func NewSnapshot(identifier string) *Snapshot {
	return &Snapshot{Identifier: identifier}
}

// Is reports whether the snapshot describes the given player identifier.
func (s *Snapshot) Is(identifier string) bool {
	return SameIdentifier(s.Identifier, identifier)
}

func (s *Snapshot) missing(field string) error {
	return &MissingFieldError{Identifier: s.Identifier, Field: field}
}

// Account returns the fetched profile.
func (s *Snapshot) Account() (*Profile, error) {
	if s.Profile == nil {
		return nil, s.missing("profile")
	}
	return s.Profile, nil
}

// CurrentRating returns the player's latest rating in the given control.
// A player whose stats were fetched but who never played the control has
// rating 0.
func (s *Snapshot) CurrentRating(tc TimeControl) (int, error) {
	if s.Stats == nil {
		return 0, s.missing("stats")
	}
	return s.Stats.Controls[tc].Rating, nil
}

// GameCount returns how many finished games the player has in the given
// control, 0 when the control was never played.
func (s *Snapshot) GameCount(tc TimeControl) (int, error) {
	if s.Stats == nil {
		return 0, s.missing("stats")
	}
	return s.Stats.Controls[tc].GameCount(), nil
}

// RatingSeries returns the fetched rating history for one control. Series
// are fetched per control, so each control is tracked separately.
func (s *Snapshot) RatingSeries(tc TimeControl) (*RatingHistory, error) {
	h, ok := s.Ratings[tc]
	if !ok || h == nil {
		return nil, s.missing("ratings." + string(tc))
	}
	return h, nil
}

// SetRatingSeries records a fetched rating history for one control.
func (s *Snapshot) SetRatingSeries(tc TimeControl, h *RatingHistory) {
	if s.Ratings == nil {
		s.Ratings = make(map[TimeControl]*RatingHistory, 4)
	}
	s.Ratings[tc] = h
}

// PuzzleStats returns the fetched puzzle history.
func (s *Snapshot) PuzzleStats() (*PuzzleHistory, error) {
	if s.Puzzles == nil {
		return nil, s.missing("puzzles")
	}
	return s.Puzzles, nil
}

// PastOpponents returns the fetched opponent list. An empty non-nil slice
// means the fetch ran and found no finished games.
func (s *Snapshot) PastOpponents() ([]Opponent, error) {
	if s.Opponents == nil {
		return nil, s.missing("opponents")
	}
	return s.Opponents, nil
}
