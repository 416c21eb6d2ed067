package availability

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"puntoazul/internal/entities"
	"puntoazul/internal/schedule"
	"puntoazul/internal/utils"
)

type Field string

const (
	FieldName                 Field = "name"
	FieldAddress              Field = "address"
	FieldReservationStart     Field = "reservation_start"
	FieldReservationEnd       Field = "reservation_end"
	FieldServiceUntil         Field = "service_until"
	FieldMaxPartySize         Field = "max_party_size"
	FieldMaxDailyReservations Field = "max_daily_reservations"
)

// LoadReport lists the records Load had to leave out and the data it dropped
// from the ones it kept.
type LoadReport struct {
	Loaded   int
	Skipped  []entities.SkippedRecord
	Warnings []entities.LoadWarning
}

// Workspace is one user's in-memory copy of the venue list. It is not safe for
// concurrent use; callers serialize access.
type Workspace struct {
	venues []entities.Venue
	dirty  bool

	// weekday key -> the spelling the backend uses for it
	dayForms map[string]string
	// codigo_local -> record index, while loading
	codes map[string]int
}

func NewWorkspace(venues []entities.Venue) *Workspace {
	ws := &Workspace{
		venues:   make([]entities.Venue, len(venues)),
		dayForms: make(map[string]string),
	}
	for i, v := range venues {
		ws.venues[i] = v.Clone()
		ws.learnDays(v.AvailableWeekdays)
	}
	return ws
}

func newLoadWorkspace() *Workspace {
	return &Workspace{dayForms: make(map[string]string), codes: make(map[string]int)}
}

func (ws *Workspace) learnDays(days []string) {
	for _, d := range days {
		if key, ok := utils.NormalizeWeekday(d); ok {
			if _, known := ws.dayForms[key]; !known {
				ws.dayForms[key] = d
			}
		}
	}
}

// Load converts backend records into venues. A record that cannot be converted
// is skipped and reported; the others still load.
func Load(raw []entities.WireRecord) (*Workspace, LoadReport) {
	ws := newLoadWorkspace()
	var report LoadReport
	for i, rec := range raw {
		ws.load(i, rec, &report)
	}
	report.Loaded = len(ws.venues)
	ws.codes = nil
	return ws, report
}

// LoadRaw decodes each record on its own so one bad shape does not sink the page.
func LoadRaw(raw []json.RawMessage) (*Workspace, LoadReport) {
	ws := newLoadWorkspace()
	var report LoadReport
	for i, msg := range raw {
		var rec entities.WireRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			report.Skipped = append(report.Skipped, entities.SkippedRecord{
				Index:  i,
				Code:   peekCode(msg),
				Reason: fmt.Sprintf("record %d: %v", i, err),
			})
			continue
		}
		ws.load(i, rec, &report)
	}
	report.Loaded = len(ws.venues)
	ws.codes = nil
	return ws, report
}

func (ws *Workspace) load(i int, rec entities.WireRecord, report *LoadReport) {
	v, dropped, err := venueFromWire(i, rec)
	if err == nil {
		if first, dup := ws.codes[v.Code]; dup {
			err = &DuplicateCodeError{Index: i, Code: v.Code, First: first}
		}
	}
	if err != nil {
		report.Skipped = append(report.Skipped, entities.SkippedRecord{
			Index:  i,
			Code:   strings.TrimSpace(rec.Code),
			Reason: err.Error(),
		})
		return
	}
	for _, date := range dropped {
		report.Warnings = append(report.Warnings, entities.LoadWarning{
			Index:   i,
			Code:    v.Code,
			Message: fmt.Sprintf("fecha_bloq %s appears more than once; only the last entry was kept", date),
		})
	}
	ws.codes[v.Code] = i
	ws.learnDays(v.AvailableWeekdays)
	ws.venues = append(ws.venues, v)
}

func peekCode(msg json.RawMessage) string {
	var head struct {
		Code any `json:"codigo_local"`
	}
	if json.Unmarshal(msg, &head) != nil || head.Code == nil {
		return ""
	}
	return fmt.Sprint(head.Code)
}

// venueFromWire converts one record. dropped lists the blocked dates that
// appeared more than once; the last entry for each wins.
func venueFromWire(index int, rec entities.WireRecord) (v entities.Venue, dropped []string, err error) {
	code, name := strings.TrimSpace(rec.Code), strings.TrimSpace(rec.Name)
	var missing []string
	if code == "" {
		missing = append(missing, "codigo_local")
	}
	if name == "" {
		missing = append(missing, "nombre")
	}
	if len(missing) > 0 {
		return entities.Venue{}, nil, &MalformedRecordError{Index: index, Missing: missing}
	}

	v = entities.Venue{
		Code:         code,
		Name:         name,
		Address:      rec.Location,
		Image:        string(rec.Image),
		BlockedDates: []entities.BlockException{},
	}
	if v.ReservationStart, err = displayOrEmpty(rec.ReservationStart); err != nil {
		return entities.Venue{}, nil, fmt.Errorf("%s inicio_reserva: %w", code, err)
	}
	if v.ReservationEnd, err = displayOrEmpty(rec.ReservationEnd); err != nil {
		return entities.Venue{}, nil, fmt.Errorf("%s fin_reserva: %w", code, err)
	}
	if v.ServiceUntil, err = displayOrEmpty(rec.ServiceUntil); err != nil {
		return entities.Venue{}, nil, fmt.Errorf("%s atencion_hasta_x_hora: %w", code, err)
	}
	if v.MaxDailyReservations, err = rec.MaxDailyReservations.Int(); err != nil {
		return entities.Venue{}, nil, fmt.Errorf("%s nro_reservas_max: %w", code,
			&schedule.FormatError{Value: string(rec.MaxDailyReservations), Expected: "a whole number"})
	}
	if v.MaxPartySize, err = rec.MaxPartySize.Int(); err != nil {
		return entities.Venue{}, nil, fmt.Errorf("%s cantidad_personas_max: %w", code,
			&schedule.FormatError{Value: string(rec.MaxPartySize), Expected: "a whole number"})
	}
	// kept as stored: ACF only accepts its configured checkbox choices
	v.AvailableWeekdays = append([]string{}, rec.AvailableWeekdays...)

	for _, bd := range rec.BlockedDates {
		exc, err := exceptionFromWire(bd)
		if err != nil {
			return entities.Venue{}, nil, fmt.Errorf("%s fecha_bloq %q: %w", code, bd.Date, err)
		}
		if len(withoutDate(v.BlockedDates, exc.Date)) != len(v.BlockedDates) {
			dropped = append(dropped, exc.Date)
		}
		v.BlockedDates = mergeException(v.BlockedDates, exc)
	}
	return v, dropped, nil
}

func displayOrEmpty(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return schedule.ToDisplay(value)
}

func exceptionFromWire(bd entities.WireBlockedDate) (entities.BlockException, error) {
	key, err := schedule.NormalizeKey(bd.Date)
	if err != nil {
		return entities.BlockException{}, err
	}
	if bd.Hours.FullDay || len(bd.Hours.Ranges) == 0 {
		return entities.BlockException{Date: key, Kind: entities.FullDay}, nil
	}
	exc := entities.BlockException{Date: key, Kind: entities.PartialDay}
	for _, r := range bd.Hours.Ranges {
		start, err := schedule.ToDisplay(r.Start)
		if err != nil {
			return entities.BlockException{}, err
		}
		end, err := schedule.ToDisplay(r.End)
		if err != nil {
			return entities.BlockException{}, err
		}
		exc.Intervals = append(exc.Intervals, entities.TimeInterval{Start: start, End: end})
	}
	return exc, nil
}

func (ws *Workspace) Len() int {
	return len(ws.venues)
}

// Venues returns a deep copy of the venue list.
func (ws *Workspace) Venues() []entities.Venue {
	out := make([]entities.Venue, len(ws.venues))
	for i, v := range ws.venues {
		out[i] = v.Clone()
	}
	return out
}

func (ws *Workspace) Venue(i int) (entities.Venue, error) {
	v, err := ws.venue(i)
	if err != nil {
		return entities.Venue{}, err
	}
	return v.Clone(), nil
}

func (ws *Workspace) venue(i int) (*entities.Venue, error) {
	if i < 0 || i >= len(ws.venues) {
		return nil, fmt.Errorf("venue %d: %w", i, ErrVenueNotFound)
	}
	return &ws.venues[i], nil
}

// Dirty reports whether the workspace changed since it was loaded or last saved.
func (ws *Workspace) Dirty() bool {
	return ws.dirty
}

func (ws *Workspace) MarkClean() {
	ws.dirty = false
}

// SetField replaces one scalar field. Times are stored in display form when
// they parse and verbatim otherwise, so validation can point at them.
func (ws *Workspace) SetField(i int, field Field, value string) error {
	v, err := ws.venue(i)
	if err != nil {
		return err
	}
	switch field {
	case FieldName:
		v.Name = value
	case FieldAddress:
		v.Address = value
	case FieldReservationStart:
		v.ReservationStart = normalizeTime(value)
	case FieldReservationEnd:
		v.ReservationEnd = normalizeTime(value)
	case FieldServiceUntil:
		v.ServiceUntil = normalizeTime(value)
	case FieldMaxPartySize, FieldMaxDailyReservations:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return &InvalidValueError{Field: field, Value: value}
		}
		if field == FieldMaxPartySize {
			v.MaxPartySize = n
		} else {
			v.MaxDailyReservations = n
		}
	default:
		return fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	ws.dirty = true
	return nil
}

// SetWeekdays replaces the available weekdays, Monday first. A day the backend
// already spells some way (on any venue) is written that way; anything else is
// stored as given.
func (ws *Workspace) SetWeekdays(i int, days []string) error {
	v, err := ws.venue(i)
	if err != nil {
		return err
	}
	resolved := make([]string, 0, len(days))
	for _, d := range days {
		d = strings.TrimSpace(d)
		if key, ok := utils.NormalizeWeekday(d); ok {
			if form, known := ws.dayForms[key]; known {
				d = form
			}
		}
		resolved = append(resolved, d)
	}
	v.AvailableWeekdays = utils.OrderWeekdays(resolved)
	ws.dirty = true
	return nil
}

// Scratch copies venue i into a one-venue workspace that shares this
// workspace's weekday spellings, for edits that must apply all or nothing.
func (ws *Workspace) Scratch(i int) (*Workspace, error) {
	v, err := ws.venue(i)
	if err != nil {
		return nil, err
	}
	scratch := NewWorkspace([]entities.Venue{*v})
	for key, form := range ws.dayForms {
		scratch.dayForms[key] = form
	}
	return scratch, nil
}

// ReplaceVenue swaps in an edited copy of venue i. The code is immutable.
func (ws *Workspace) ReplaceVenue(i int, v entities.Venue) error {
	cur, err := ws.venue(i)
	if err != nil {
		return err
	}
	if v.Code != cur.Code {
		return &InvalidValueError{Field: "code", Value: v.Code}
	}
	*cur = v.Clone()
	ws.dirty = true
	return nil
}

func normalizeTime(value string) string {
	if d, err := schedule.ToDisplay(value); err == nil {
		return d
	}
	return value
}

// UpsertException replaces any exception on the same calendar date with exc.
// Partial-day exceptions must pass schedule.ValidateSet.
func (ws *Workspace) UpsertException(i int, dateKey string, exc entities.BlockException) error {
	v, err := ws.venue(i)
	if err != nil {
		return err
	}
	key, err := schedule.NormalizeKey(dateKey)
	if err != nil {
		return err
	}
	exc, err = normalizeException(key, exc)
	if err != nil {
		return err
	}
	v.BlockedDates = mergeException(v.BlockedDates, exc)
	ws.dirty = true
	return nil
}

func normalizeException(key string, exc entities.BlockException) (entities.BlockException, error) {
	if exc.Kind == entities.FullDay {
		return entities.BlockException{Date: key, Kind: entities.FullDay}, nil
	}
	if exc.Kind != entities.PartialDay {
		return entities.BlockException{}, fmt.Errorf("unknown block kind %q", exc.Kind)
	}
	if err := schedule.ValidateSet(exc.Intervals); err != nil {
		return entities.BlockException{}, err
	}
	out := entities.BlockException{Date: key, Kind: entities.PartialDay}
	for _, iv := range exc.Intervals {
		out.Intervals = append(out.Intervals, entities.TimeInterval{
			Start: normalizeTime(iv.Start),
			End:   normalizeTime(iv.End),
		})
	}
	return out, nil
}

// RemoveException deletes the exception on dateKey. Removing an absent date is a no-op.
func (ws *Workspace) RemoveException(i int, dateKey string) error {
	v, err := ws.venue(i)
	if err != nil {
		return err
	}
	key, err := schedule.NormalizeKey(dateKey)
	if err != nil {
		return err
	}
	before := len(v.BlockedDates)
	v.BlockedDates = withoutDate(v.BlockedDates, key)
	if len(v.BlockedDates) != before {
		ws.dirty = true
	}
	return nil
}

// Exception looks up the exception for dateKey in either wire format.
func (ws *Workspace) Exception(i int, dateKey string) (entities.BlockException, bool, error) {
	v, err := ws.venue(i)
	if err != nil {
		return entities.BlockException{}, false, err
	}
	key, err := schedule.NormalizeKey(dateKey)
	if err != nil {
		return entities.BlockException{}, false, err
	}
	for _, b := range v.BlockedDates {
		if sameDate(b.Date, key) {
			return b.Clone(), true, nil
		}
	}
	return entities.BlockException{}, false, nil
}

// Payload renders the workspace in the backend's write shape.
func (ws *Workspace) Payload() ([]entities.WireRecord, error) {
	return ToWirePayload(ws.venues)
}

// BlockedCount is the number of exceptions across all venues.
func (ws *Workspace) BlockedCount() int {
	n := 0
	for _, v := range ws.venues {
		n += len(v.BlockedDates)
	}
	return n
}

func mergeException(list []entities.BlockException, exc entities.BlockException) []entities.BlockException {
	return append(withoutDate(list, exc.Date), exc)
}

func withoutDate(list []entities.BlockException, key string) []entities.BlockException {
	out := make([]entities.BlockException, 0, len(list)+1)
	for _, b := range list {
		if !sameDate(b.Date, key) {
			out = append(out, b)
		}
	}
	return out
}

// sameDate compares a stored date with an already normalized key.
func sameDate(stored, key string) bool {
	n, err := schedule.NormalizeKey(stored)
	if err != nil {
		return stored == key
	}
	return n == key
}

// IsNotFound reports whether err is a lookup miss on a venue or interval.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrVenueNotFound) || errors.Is(err, ErrIntervalMissing)
}
