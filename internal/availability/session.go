package availability

import (
	"fmt"

	"github.com/google/uuid"

	"puntoazul/internal/entities"
	"puntoazul/internal/schedule"
)

type SessionState string

const (
	SessionClosed    SessionState = "closed"
	SessionOpen      SessionState = "open"
	SessionCommitted SessionState = "committed"
	SessionDiscarded SessionState = "discarded"
)

type SessionMode string

const (
	FullDayBlock    SessionMode = "full_day"
	PartialDayBlock SessionMode = "partial_day"
)

// Default range offered by AddInterval.
const (
	DefaultIntervalStart = "10:00 am"
	DefaultIntervalEnd   = "11:00 am"
)

// EditSession is the draft of one date's exception. Nothing reaches the
// workspace until Commit or Delete.
type EditSession struct {
	ID         string
	VenueIndex int
	Date       string

	state     SessionState
	fullDay   bool
	intervals []entities.TimeInterval
	existing  bool
}

// OpenSession starts editing wireDate for a venue, preloading any exception already stored for it.
func OpenSession(ws *Workspace, venueIndex int, wireDate string) (*EditSession, error) {
	key, err := schedule.NormalizeKey(wireDate)
	if err != nil {
		return nil, err
	}
	exc, found, err := ws.Exception(venueIndex, key)
	if err != nil {
		return nil, err
	}
	s := &EditSession{
		ID:         uuid.NewString(),
		VenueIndex: venueIndex,
		Date:       key,
		state:      SessionOpen,
		intervals:  []entities.TimeInterval{},
		existing:   found,
	}
	if found {
		s.fullDay = exc.IsFullDay()
		if !s.fullDay {
			s.intervals = append(s.intervals, exc.Intervals...)
		}
	}
	return s, nil
}

func (s *EditSession) State() SessionState {
	return s.state
}

// Mode is only meaningful while the session is open.
func (s *EditSession) Mode() SessionMode {
	if s.fullDay {
		return FullDayBlock
	}
	return PartialDayBlock
}

// Existing reports whether the date already had an exception when the session opened.
func (s *EditSession) Existing() bool {
	return s.existing
}

func (s *EditSession) FullDay() bool {
	return s.fullDay
}

func (s *EditSession) Intervals() []entities.TimeInterval {
	return append([]entities.TimeInterval(nil), s.intervals...)
}

// Draft is the exception Commit would store.
func (s *EditSession) Draft() entities.BlockException {
	if s.fullDay {
		return entities.BlockException{Date: s.Date, Kind: entities.FullDay}
	}
	return entities.BlockException{Date: s.Date, Kind: entities.PartialDay, Intervals: s.Intervals()}
}

func (s *EditSession) ensureOpen() error {
	if s.state != SessionOpen {
		return fmt.Errorf("session %s is %s: %w", s.ID, s.state, ErrSessionNotOpen)
	}
	return nil
}

// SetFullDay toggles the whole-day block. Turning it on drops every range.
func (s *EditSession) SetFullDay(on bool) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	s.fullDay = on
	if on {
		s.intervals = []entities.TimeInterval{}
	}
	return nil
}

func (s *EditSession) AddInterval() error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	s.intervals = append(s.intervals, entities.TimeInterval{Start: DefaultIntervalStart, End: DefaultIntervalEnd})
	return nil
}

func (s *EditSession) UpdateInterval(i int, start, end string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if i < 0 || i >= len(s.intervals) {
		return fmt.Errorf("interval %d: %w", i, ErrIntervalMissing)
	}
	s.intervals[i] = entities.TimeInterval{Start: normalizeTime(start), End: normalizeTime(end)}
	return nil
}

func (s *EditSession) RemoveInterval(i int) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if i < 0 || i >= len(s.intervals) {
		return fmt.Errorf("interval %d: %w", i, ErrIntervalMissing)
	}
	s.intervals = append(s.intervals[:i], s.intervals[i+1:]...)
	return nil
}

// Replace overwrites the whole draft.
func (s *EditSession) Replace(req entities.BlockRequest) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	s.fullDay = req.FullDay
	s.intervals = []entities.TimeInterval{}
	if !req.FullDay {
		for _, iv := range req.Intervals {
			s.intervals = append(s.intervals, entities.TimeInterval{Start: normalizeTime(iv.Start), End: normalizeTime(iv.End)})
		}
	}
	return nil
}

// Commit writes the draft into ws. A partial-day draft that fails validation
// leaves the session open and returns the *schedule.ValidationError.
func (s *EditSession) Commit(ws *Workspace) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := ws.UpsertException(s.VenueIndex, s.Date, s.Draft()); err != nil {
		return err
	}
	s.state = SessionCommitted
	return nil
}

// Delete removes the date's exception from ws and commits the session.
func (s *EditSession) Delete(ws *Workspace) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := ws.RemoveException(s.VenueIndex, s.Date); err != nil {
		return err
	}
	s.fullDay = false
	s.intervals = []entities.TimeInterval{}
	s.state = SessionCommitted
	return nil
}

func (s *EditSession) Discard() error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	s.state = SessionDiscarded
	return nil
}

// Close ends the session. Closing an open session behaves like Discard.
func (s *EditSession) Close() {
	s.state = SessionClosed
}
