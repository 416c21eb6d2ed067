package service

import (
	"context"
	"encoding/json"
	"puntoazul/internal/availability"
	"puntoazul/internal/db"
	"puntoazul/internal/entities"
	apperrors "puntoazul/internal/errors"
	"puntoazul/internal/repository"
	"puntoazul/internal/schedule"
	"puntoazul/internal/utils"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HistoryStore records successful saves. It is nil when history is disabled.
type HistoryStore interface {
	Insert(ctx context.Context, rec db.SaveRecord) (int64, error)
	List(ctx context.Context, limit int) ([]entities.SaveSummary, error)
	Prune(ctx context.Context, cutoff time.Time) ([]int64, error)
}

type VenueDetail struct {
	Index      int                             `json:"index"`
	Venue      entities.Venue                  `json:"venue"`
	Issues     []availability.FieldIssue       `json:"issues"`
	TimeStates map[string]schedule.OptionState `json:"time_states"`
}

type BlockedDateView struct {
	Date      string                  `json:"date"`
	ISO       string                  `json:"iso"`
	Display   string                  `json:"display"`
	Weekday   string                  `json:"weekday"`
	Kind      entities.BlockKind      `json:"kind"`
	Intervals []entities.TimeInterval `json:"intervals"`
}

type EditSessionView struct {
	ID         string                    `json:"id"`
	VenueIndex int                       `json:"venue_index"`
	Date       string                    `json:"date"`
	Display    string                    `json:"display"`
	State      availability.SessionState `json:"state"`
	Mode       availability.SessionMode  `json:"mode"`
	FullDay    bool                      `json:"full_day"`
	Intervals  []entities.TimeInterval   `json:"intervals"`
	Existing   bool                      `json:"existing"`
}

// VenuePatch carries scalar field edits; a nil Weekdays leaves the days alone.
type VenuePatch struct {
	Fields   map[availability.Field]string
	Weekdays []string
}

type SaveResult struct {
	Venues    int                `json:"venues"`
	Blocked   int                `json:"blocked"`
	HistoryID int64              `json:"history_id,omitempty"`
	Reloaded  bool               `json:"reloaded"`
	List      entities.VenueList `json:"list"`
}

// userWorkspace is everything one login session holds in memory.
type userWorkspace struct {
	mu       sync.Mutex
	ws       *availability.Workspace
	report   availability.LoadReport
	saving   bool
	edits    map[string]*availability.EditSession
	lastUsed time.Time
}

func (u *userWorkspace) install(ws *availability.Workspace, report availability.LoadReport) {
	u.ws = ws
	u.report = report
	// indices may have moved; drafts against the old list are dropped
	for _, es := range u.edits {
		es.Close()
	}
	u.edits = make(map[string]*availability.EditSession)
}

func (u *userWorkspace) list() entities.VenueList {
	skipped := u.report.Skipped
	if skipped == nil {
		skipped = []entities.SkippedRecord{}
	}
	warnings := u.report.Warnings
	if warnings == nil {
		warnings = []entities.LoadWarning{}
	}
	return entities.VenueList{
		Total:    u.ws.Len(),
		Dirty:    u.ws.Dirty(),
		Skipped:  skipped,
		Warnings: warnings,
		Venues:   u.ws.Venues(),
	}
}

type VenueService struct {
	acf     repository.ACFRepository
	history HistoryStore
	now     func() time.Time

	mu    sync.Mutex
	users map[string]*userWorkspace
}

func NewVenueService(acf repository.ACFRepository, history HistoryStore) *VenueService {
	return &VenueService{
		acf:     acf,
		history: history,
		now:     time.Now,
		users:   make(map[string]*userWorkspace),
	}
}

func (s *VenueService) user(sessionID string) *userWorkspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[sessionID]
	if !ok {
		u = &userWorkspace{edits: make(map[string]*availability.EditSession)}
		s.users[sessionID] = u
	}
	u.lastUsed = s.now()
	return u
}

func (s *VenueService) fetch(ctx context.Context, sess *Session) (*availability.Workspace, availability.LoadReport, error) {
	raw, err := s.acf.FetchVenues(ctx, sess.BasicToken)
	if err != nil {
		return nil, availability.LoadReport{}, err
	}
	ws, report := availability.LoadRaw(raw)
	for _, sk := range report.Skipped {
		zap.L().Warn("Skipped venue record",
			zap.Int("index", sk.Index), zap.String("code", sk.Code), zap.String("reason", sk.Reason))
	}
	for _, w := range report.Warnings {
		zap.L().Warn("Venue record loaded with changes",
			zap.Int("index", w.Index), zap.String("code", w.Code), zap.String("message", w.Message))
	}
	zap.L().Info("Venues loaded", zap.String("session", sess.ID),
		zap.Int("loaded", report.Loaded), zap.Int("skipped", len(report.Skipped)),
		zap.Int("warnings", len(report.Warnings)))
	return ws, report, nil
}

// withWorkspace loads the session's venues on first use and runs fn under the workspace lock.
func (s *VenueService) withWorkspace(ctx context.Context, sess *Session, fn func(u *userWorkspace) error) error {
	u := s.user(sess.ID)
	u.mu.Lock()
	loaded := u.ws != nil
	u.mu.Unlock()

	if !loaded {
		ws, report, err := s.fetch(ctx, sess)
		if err != nil {
			return err
		}
		u.mu.Lock()
		if u.ws == nil {
			u.install(ws, report)
		}
		u.mu.Unlock()
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	return fn(u)
}

// mutate is withWorkspace for writes; edits are refused while a save is in flight.
func (s *VenueService) mutate(ctx context.Context, sess *Session, fn func(u *userWorkspace) error) error {
	return s.withWorkspace(ctx, sess, func(u *userWorkspace) error {
		if u.saving {
			return apperrors.ErrSaveInProgress
		}
		return fn(u)
	})
}

func (s *VenueService) List(ctx context.Context, sess *Session) (entities.VenueList, error) {
	var out entities.VenueList
	err := s.withWorkspace(ctx, sess, func(u *userWorkspace) error {
		out = u.list()
		return nil
	})
	return out, err
}

// Reload throws away local edits and reads the venues again.
func (s *VenueService) Reload(ctx context.Context, sess *Session) (entities.VenueList, error) {
	u := s.user(sess.ID)
	u.mu.Lock()
	saving := u.saving
	u.mu.Unlock()
	if saving {
		return entities.VenueList{}, apperrors.ErrSaveInProgress
	}

	ws, report, err := s.fetch(ctx, sess)
	if err != nil {
		return entities.VenueList{}, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.install(ws, report)
	return u.list(), nil
}

// Save sends every venue back to WordPress and reloads on success. Only one
// save per session may be in flight.
func (s *VenueService) Save(ctx context.Context, sess *Session) (*SaveResult, error) {
	var (
		payload []entities.WireRecord
		result  SaveResult
	)
	err := s.mutate(ctx, sess, func(u *userWorkspace) error {
		invalid := map[string][]availability.FieldIssue{}
		for _, v := range u.ws.Venues() {
			if issues := availability.ValidateVenue(v); availability.HasErrors(issues) {
				invalid[v.Code] = issues
			}
		}
		if len(invalid) > 0 {
			return apperrors.Validation("some venues have invalid values", nil).WithDetails(invalid)
		}
		var err error
		if payload, err = u.ws.Payload(); err != nil {
			return err
		}
		result.Venues = u.ws.Len()
		result.Blocked = u.ws.BlockedCount()
		u.saving = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	u := s.user(sess.ID)
	defer func() {
		u.mu.Lock()
		u.saving = false
		u.mu.Unlock()
	}()

	if err := s.acf.SaveVenues(ctx, sess.BasicToken, payload); err != nil {
		zap.L().Error("Save failed", zap.String("session", sess.ID), zap.Error(err))
		return nil, err
	}
	zap.L().Info("Venues saved", zap.String("user", sess.Username),
		zap.Int("venues", result.Venues), zap.Int("blocked", result.Blocked))

	if s.history != nil {
		body, _ := json.Marshal(payload)
		id, err := s.history.Insert(ctx, db.SaveRecord{
			Username:     sess.Username,
			VenueCount:   result.Venues,
			BlockedCount: result.Blocked,
			Payload:      body,
		})
		if err != nil {
			zap.L().Warn("Could not record save history", zap.Error(err))
		} else {
			result.HistoryID = id
		}
	}

	ws, report, reloadErr := s.fetch(ctx, sess)
	u.mu.Lock()
	defer u.mu.Unlock()
	if reloadErr != nil {
		// El guardado fue aceptado; solo falló la recarga.
		zap.L().Warn("Reload after save failed", zap.Error(reloadErr))
		u.ws.MarkClean()
	} else {
		u.install(ws, report)
		result.Reloaded = true
	}
	result.List = u.list()
	return &result, nil
}

func detail(i int, v entities.Venue) VenueDetail {
	issues := availability.ValidateVenue(v)
	if issues == nil {
		issues = []availability.FieldIssue{}
	}
	return VenueDetail{
		Index:  i,
		Venue:  v,
		Issues: issues,
		TimeStates: map[string]schedule.OptionState{
			string(availability.FieldReservationStart): schedule.OptionStatus(v.ReservationStart),
			string(availability.FieldReservationEnd):   schedule.OptionStatus(v.ReservationEnd),
			string(availability.FieldServiceUntil):     schedule.OptionStatus(v.ServiceUntil),
		},
	}
}

func (s *VenueService) Venue(ctx context.Context, sess *Session, index int) (VenueDetail, error) {
	var out VenueDetail
	err := s.withWorkspace(ctx, sess, func(u *userWorkspace) error {
		v, err := u.ws.Venue(index)
		if err != nil {
			return err
		}
		out = detail(index, v)
		return nil
	})
	return out, err
}

// UpdateVenue applies a patch atomically: if any field is rejected nothing changes.
func (s *VenueService) UpdateVenue(ctx context.Context, sess *Session, index int, patch VenuePatch) (VenueDetail, error) {
	var out VenueDetail
	err := s.mutate(ctx, sess, func(u *userWorkspace) error {
		v, err := u.ws.Venue(index)
		if err != nil {
			return err
		}
		if len(patch.Fields) == 0 && patch.Weekdays == nil {
			out = detail(index, v)
			return nil
		}

		scratch, err := u.ws.Scratch(index)
		if err != nil {
			return err
		}
		fields := make([]availability.Field, 0, len(patch.Fields))
		for f := range patch.Fields {
			fields = append(fields, f)
		}
		sort.Slice(fields, func(a, b int) bool { return fields[a] < fields[b] })
		for _, f := range fields {
			if err := scratch.SetField(0, f, patch.Fields[f]); err != nil {
				return err
			}
		}
		if patch.Weekdays != nil {
			if err := scratch.SetWeekdays(0, patch.Weekdays); err != nil {
				return err
			}
		}

		updated, _ := scratch.Venue(0)
		if err := u.ws.ReplaceVenue(index, updated); err != nil {
			return err
		}
		out = detail(index, updated)
		return nil
	})
	return out, err
}

func blockedView(b entities.BlockException) BlockedDateView {
	view := BlockedDateView{
		Date:      b.Date,
		Kind:      b.Kind,
		Intervals: b.Intervals,
	}
	if view.Intervals == nil {
		view.Intervals = []entities.TimeInterval{}
	}
	if d, err := schedule.ParseDate(b.Date); err == nil {
		view.ISO = d.ISO()
		view.Weekday = utils.WeekdayKey(d.Weekday())
	}
	view.Display, _ = schedule.DisplayDate(b.Date)
	return view
}

func (s *VenueService) BlockedDates(ctx context.Context, sess *Session, index int) ([]BlockedDateView, error) {
	var out []BlockedDateView
	err := s.withWorkspace(ctx, sess, func(u *userWorkspace) error {
		v, err := u.ws.Venue(index)
		if err != nil {
			return err
		}
		out = make([]BlockedDateView, 0, len(v.BlockedDates))
		for _, b := range v.BlockedDates {
			out = append(out, blockedView(b))
		}
		return nil
	})
	return out, err
}

func (s *VenueService) PutBlockedDate(ctx context.Context, sess *Session, index int, date string, req entities.BlockRequest) (BlockedDateView, error) {
	var out BlockedDateView
	err := s.mutate(ctx, sess, func(u *userWorkspace) error {
		if err := u.ws.UpsertException(index, date, req.ToException(date)); err != nil {
			return err
		}
		exc, _, err := u.ws.Exception(index, date)
		if err != nil {
			return err
		}
		out = blockedView(exc)
		return nil
	})
	return out, err
}

func (s *VenueService) DeleteBlockedDate(ctx context.Context, sess *Session, index int, date string) error {
	return s.mutate(ctx, sess, func(u *userWorkspace) error {
		return u.ws.RemoveException(index, date)
	})
}

func editView(es *availability.EditSession) EditSessionView {
	display, _ := schedule.DisplayDate(es.Date)
	intervals := es.Intervals()
	if intervals == nil {
		intervals = []entities.TimeInterval{}
	}
	return EditSessionView{
		ID:         es.ID,
		VenueIndex: es.VenueIndex,
		Date:       es.Date,
		Display:    display,
		State:      es.State(),
		Mode:       es.Mode(),
		FullDay:    es.FullDay(),
		Intervals:  intervals,
		Existing:   es.Existing(),
	}
}

func (s *VenueService) OpenEditSession(ctx context.Context, sess *Session, index int, date string) (EditSessionView, error) {
	var out EditSessionView
	err := s.mutate(ctx, sess, func(u *userWorkspace) error {
		es, err := availability.OpenSession(u.ws, index, date)
		if err != nil {
			return err
		}
		u.edits[es.ID] = es
		out = editView(es)
		return nil
	})
	return out, err
}

// withEdit runs fn against an open edit session of this login session.
func (s *VenueService) withEdit(ctx context.Context, sess *Session, id string, fn func(u *userWorkspace, es *availability.EditSession) error) error {
	return s.mutate(ctx, sess, func(u *userWorkspace) error {
		es, ok := u.edits[id]
		if !ok {
			return apperrors.ErrNotFound("edit session not found")
		}
		return fn(u, es)
	})
}

func (s *VenueService) EditSession(ctx context.Context, sess *Session, id string) (EditSessionView, error) {
	var out EditSessionView
	err := s.withWorkspace(ctx, sess, func(u *userWorkspace) error {
		es, ok := u.edits[id]
		if !ok {
			return apperrors.ErrNotFound("edit session not found")
		}
		out = editView(es)
		return nil
	})
	return out, err
}

// EditStep is one change to a draft, applied by UpdateEditSession.
type EditStep func(es *availability.EditSession) error

func (s *VenueService) UpdateEditSession(ctx context.Context, sess *Session, id string, step EditStep) (EditSessionView, error) {
	var out EditSessionView
	err := s.withEdit(ctx, sess, id, func(u *userWorkspace, es *availability.EditSession) error {
		if err := step(es); err != nil {
			return err
		}
		out = editView(es)
		return nil
	})
	return out, err
}

// CommitEditSession stores the draft. On a validation error the session stays open.
func (s *VenueService) CommitEditSession(ctx context.Context, sess *Session, id string) (EditSessionView, error) {
	return s.finishEdit(ctx, sess, id, func(u *userWorkspace, es *availability.EditSession) error {
		return es.Commit(u.ws)
	})
}

// DeleteEditSession removes the draft's date from the venue.
func (s *VenueService) DeleteEditSession(ctx context.Context, sess *Session, id string) (EditSessionView, error) {
	return s.finishEdit(ctx, sess, id, func(u *userWorkspace, es *availability.EditSession) error {
		return es.Delete(u.ws)
	})
}

func (s *VenueService) DiscardEditSession(ctx context.Context, sess *Session, id string) (EditSessionView, error) {
	return s.finishEdit(ctx, sess, id, func(_ *userWorkspace, es *availability.EditSession) error {
		return es.Discard()
	})
}

func (s *VenueService) finishEdit(ctx context.Context, sess *Session, id string, fn func(u *userWorkspace, es *availability.EditSession) error) (EditSessionView, error) {
	var out EditSessionView
	err := s.withEdit(ctx, sess, id, func(u *userWorkspace, es *availability.EditSession) error {
		if err := fn(u, es); err != nil {
			return err
		}
		out = editView(es)
		es.Close()
		delete(u.edits, id)
		return nil
	})
	return out, err
}

// Drop forgets everything held for a login session.
func (s *VenueService) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, sessionID)
}

// PurgeIdle drops workspaces not touched since cutoff and returns how many went away.
func (s *VenueService) PurgeIdle(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, u := range s.users {
		if u.lastUsed.Before(cutoff) {
			delete(s.users, id)
			n++
		}
	}
	return n
}

func (s *VenueService) HistoryEnabled() bool {
	return s.history != nil
}

func (s *VenueService) History(ctx context.Context, limit int) ([]entities.SaveSummary, error) {
	if s.history == nil {
		return nil, apperrors.ErrNotFound("save history is disabled")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.history.List(ctx, limit)
}
