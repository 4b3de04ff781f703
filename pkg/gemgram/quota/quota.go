// Package quota tracks the shared daily budget for search-grounded
// completions. One counter and one reset date are shared by every
// conversation; "today" is always computed in a fixed reference time zone
// so the roll-over does not depend on where callers are.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/zawhtut/gemgram/pkg/gemgram/kv"
)

// DefaultDailyLimit is the number of grounded completions allowed per
// reference-zone calendar day.
const DefaultDailyLimit = 500

// DefaultZone is the reference time zone for quota roll-over.
const DefaultZone = "Asia/Yangon"

var (
	countKey     = kv.Key("quota", "count")
	resetDateKey = kv.Key("quota", "reset_date")
)

// Status is a point-in-time view of the shared quota.
type Status struct {
	Count     int
	Allowed   bool
	ResetDate string // YYYY-MM-DD in the reference zone, "" when unknown
}

// Store enforces the shared daily grounding quota on top of a kv.Store.
type Store struct {
	kv     kv.Store
	limit  int
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// New creates a quota store. limit <= 0 falls back to DefaultDailyLimit;
// a nil location falls back to DefaultZone (UTC if even that fails to load).
func New(store kv.Store, limit int, loc *time.Location, logger *slog.Logger) *Store {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	if loc == nil {
		var err error
		loc, err = time.LoadLocation(DefaultZone)
		if err != nil {
			loc = time.UTC
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     store,
		limit:  limit,
		loc:    loc,
		now:    time.Now,
		logger: logger.With("component", "quota"),
	}
}

// SetClock overrides the time source. Test seam.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Limit returns the configured daily limit.
func (s *Store) Limit() int {
	return s.limit
}

// today returns the current calendar date in the reference zone.
func (s *Store) today() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

// Status reads the quota record. A record whose reset date is not today is
// stale: it is reset and re-read before answering. Any storage failure
// degrades to Allowed == false so grounding fails closed rather than
// blocking the conversation.
func (s *Store) Status(ctx context.Context) Status {
	today := s.today()

	count, date, _, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("quota status unavailable, failing closed", "error", err)
		return Status{Allowed: false}
	}

	if date != today {
		if err := s.Reset(ctx); err != nil {
			s.logger.Warn("stale quota reset failed, failing closed", "error", err)
			return Status{Allowed: false}
		}
		count, _, _, err = s.read(ctx)
		if err != nil {
			s.logger.Warn("quota re-read failed, failing closed", "error", err)
			return Status{Allowed: false}
		}
		return Status{Count: count, Allowed: count < s.limit, ResetDate: today}
	}

	return Status{Count: count, Allowed: count < s.limit, ResetDate: date}
}

// TryIncrement bumps the counter by one when it is still under the limit.
// The write is a compare-and-set against the count read here, so a
// concurrent increment makes this call a silent no-op: losing an increment
// is acceptable, counting past the limit is not.
func (s *Store) TryIncrement(ctx context.Context) {
	count, _, countRaw, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("quota increment skipped", "error", err)
		return
	}
	if count >= s.limit {
		return
	}

	next := []byte(strconv.Itoa(count + 1))
	swapped, err := s.kv.CompareAndSet(ctx, countKey, countRaw, next)
	if err != nil {
		s.logger.Warn("quota increment failed", "error", err)
		return
	}
	if !swapped {
		s.logger.Debug("quota increment lost to concurrent writer", "count", count)
	}
}

// Reset unconditionally starts a fresh day: count 0, reset date today.
// Count is written first so a torn reset still looks stale and re-runs.
func (s *Store) Reset(ctx context.Context) error {
	today := s.today()
	if err := s.kv.Set(ctx, countKey, []byte("0")); err != nil {
		return fmt.Errorf("resetting quota count: %w", err)
	}
	if err := s.kv.Set(ctx, resetDateKey, []byte(today)); err != nil {
		return fmt.Errorf("resetting quota date: %w", err)
	}
	s.logger.Info("daily grounding quota reset", "reset_date", today, "limit", s.limit)
	return nil
}

// read fetches both quota keys. An absent or unparseable count reads as 0,
// mirroring a fresh record; countRaw is nil only when the key is absent,
// which CompareAndSet treats as "expect absent".
func (s *Store) read(ctx context.Context) (count int, date string, countRaw []byte, err error) {
	raw, ok, err := s.kv.Get(ctx, countKey)
	if err != nil {
		return 0, "", nil, fmt.Errorf("reading quota count: %w", err)
	}
	if ok {
		countRaw = raw
		if n, perr := strconv.Atoi(string(raw)); perr == nil {
			count = n
		}
	}

	dateBytes, ok, err := s.kv.Get(ctx, resetDateKey)
	if err != nil {
		return 0, "", nil, fmt.Errorf("reading quota reset date: %w", err)
	}
	if ok {
		date = string(dateBytes)
	}
	return count, date, countRaw, nil
}
