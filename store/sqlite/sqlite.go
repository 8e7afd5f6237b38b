/*
Package sqlite provides the SQLite-backed record store around the rules core.

PURPOSE:
  The engine package is pure: it consumes in-memory snapshots and returns
  derived results. This package is the external collaborator that owns the
  raw records - bookings, roster users, attendance visits, and daily care
  records - and the optimistic-concurrency tokens guarding them.

OPTIMISTIC CONCURRENCY:
  Every mutable row carries an integer version. Updates run
      UPDATE ... WHERE id = ? AND version = ?
  and a zero row count on an existing row surfaces engine.ErrVersionConflict.
  The client reloads and retries; the engine itself never sees the race.

KEY TABLES:
  bookings:      Resource reservations (conflict/workload inputs)
  users:         Facility roster (read-mostly)
  visits:        One attendance row per (user_code, date), never deleted
  daily_records: One reporting row per calendar day of a service month

IDS:
  Row IDs are minted here (uuid) when the caller does not supply one.
  Derived warning events are NOT stored - they are regenerated from the
  bookings on every read.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/careops.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - engine/errors.go: Sentinel errors surfaced by this package
  - api/handlers.go:  The only consumer
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/yasutakesougo/careops-engine/engine"
)

// Store implements record persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Resource bookings (conflict and workload inputs)
	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		start_at TEXT,
		end_at TEXT,
		is_background BOOLEAN NOT NULL DEFAULT FALSE,
		has_actuals BOOLEAN NOT NULL DEFAULT FALSE,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_resource
		ON bookings(resource_id);
	CREATE INDEX IF NOT EXISTS idx_bookings_window
		ON bookings(start_at, end_at);

	-- Facility roster
	CREATE TABLE IF NOT EXISTS users (
		user_code TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		is_transport_target BOOLEAN NOT NULL DEFAULT FALSE,
		absence_claimed_this_month INTEGER NOT NULL DEFAULT 0,
		standard_minutes INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Attendance visits: one row per (user_code, date), never deleted.
	-- The unique index makes day-start seeding idempotent.
	CREATE TABLE IF NOT EXISTS visits (
		id TEXT PRIMARY KEY,
		user_code TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		cnt_attend_in INTEGER NOT NULL DEFAULT 0,
		cnt_attend_out INTEGER NOT NULL DEFAULT 0,
		check_in_at TEXT,
		check_out_at TEXT,
		transport_to BOOLEAN NOT NULL DEFAULT FALSE,
		transport_from BOOLEAN NOT NULL DEFAULT FALSE,
		absent_morning_contacted BOOLEAN NOT NULL DEFAULT FALSE,
		absent_morning_method TEXT NOT NULL DEFAULT '',
		evening_checked BOOLEAN NOT NULL DEFAULT FALSE,
		evening_note TEXT NOT NULL DEFAULT '',
		absence_addon_claimable BOOLEAN NOT NULL DEFAULT FALSE,
		provided_minutes INTEGER NOT NULL DEFAULT 0,
		user_confirmed_at TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_visits_user_date
		ON visits(user_code, date);
	CREATE INDEX IF NOT EXISTS idx_visits_date
		ON visits(date);

	-- Daily care records (monthly reporting view)
	CREATE TABLE IF NOT EXISTS daily_records (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		start_time TEXT NOT NULL DEFAULT '',
		end_time TEXT NOT NULL DEFAULT '',
		transport_outbound BOOLEAN NOT NULL DEFAULT FALSE,
		transport_inbound BOOLEAN NOT NULL DEFAULT FALSE,
		meal_addon BOOLEAN NOT NULL DEFAULT FALSE,
		bathing_addon BOOLEAN NOT NULL DEFAULT FALSE,
		other_addons_json TEXT NOT NULL DEFAULT '{}',
		absence_support_applied BOOLEAN NOT NULL DEFAULT FALSE,
		absence_support_disabled BOOLEAN NOT NULL DEFAULT FALSE,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_daily_records_date
		ON daily_records(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BOOKINGS
// =============================================================================

// SaveBooking inserts a new booking, minting an ID when absent.
func (s *Store) SaveBooking(ctx context.Context, b engine.ResourceBooking) (engine.ResourceBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings
		(id, resource_id, title, start_at, end_at, is_background, has_actuals, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		b.ID, string(b.ResourceID), b.Title,
		nullTime(b.Start), nullTime(b.End),
		b.IsBackground, b.HasActuals, now, now,
	)
	if err != nil {
		return engine.ResourceBooking{}, fmt.Errorf("failed to save booking: %w", err)
	}
	return b, nil
}

// UpdateBooking rewrites a booking guarded by its version token.
func (s *Store) UpdateBooking(ctx context.Context, b engine.ResourceBooking, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings
		SET resource_id = ?, title = ?, start_at = ?, end_at = ?,
		    is_background = ?, has_actuals = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(b.ResourceID), b.Title,
		nullTime(b.Start), nullTime(b.End),
		b.IsBackground, b.HasActuals,
		time.Now().UTC().Format(time.RFC3339),
		b.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	return s.checkUpdated(ctx, res, "bookings", b.ID, expectedVersion)
}

// DeleteBooking removes a booking (cancellation).
func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// ListBookings returns all bookings overlapping [from, to). Zero bounds
// disable that side of the filter.
func (s *Store) ListBookings(ctx context.Context, from, to time.Time) ([]engine.ResourceBooking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, resource_id, title, start_at, end_at, is_background, has_actuals
		FROM bookings`
	var (
		clauses []string
		args    []any
	)
	if !to.IsZero() {
		clauses = append(clauses, "start_at < ?")
		args = append(args, to.UTC().Format(time.RFC3339))
	}
	if !from.IsZero() {
		clauses = append(clauses, "end_at > ?")
		args = append(args, from.UTC().Format(time.RFC3339))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY start_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []engine.ResourceBooking
	for rows.Next() {
		var (
			b              engine.ResourceBooking
			resourceID     string
			startAt, endAt sql.NullString
		)
		if err := rows.Scan(&b.ID, &resourceID, &b.Title, &startAt, &endAt, &b.IsBackground, &b.HasActuals); err != nil {
			return nil, err
		}
		b.ResourceID = engine.ResourceID(resourceID)
		b.Start = parseTime(startAt)
		b.End = parseTime(endAt)
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetBooking returns one booking with its current version token.
func (s *Store) GetBooking(ctx context.Context, id string) (engine.ResourceBooking, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		b              engine.ResourceBooking
		resourceID     string
		startAt, endAt sql.NullString
		version        int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, resource_id, title, start_at, end_at, is_background, has_actuals, version
		FROM bookings WHERE id = ?`, id,
	).Scan(&b.ID, &resourceID, &b.Title, &startAt, &endAt, &b.IsBackground, &b.HasActuals, &version)
	if err == sql.ErrNoRows {
		return engine.ResourceBooking{}, 0, engine.ErrNotFound
	}
	if err != nil {
		return engine.ResourceBooking{}, 0, fmt.Errorf("failed to get booking: %w", err)
	}
	b.ResourceID = engine.ResourceID(resourceID)
	b.Start = parseTime(startAt)
	b.End = parseTime(endAt)
	return b, version, nil
}

// =============================================================================
// ROSTER USERS
// =============================================================================

// SaveUser upserts a roster entry keyed by user code.
func (s *Store) SaveUser(ctx context.Context, u engine.AttendanceUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users
		(user_code, name, is_transport_target, absence_claimed_this_month, standard_minutes, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(user_code) DO UPDATE SET
			name = excluded.name,
			is_transport_target = excluded.is_transport_target,
			absence_claimed_this_month = excluded.absence_claimed_this_month,
			standard_minutes = excluded.standard_minutes,
			version = users.version + 1,
			updated_at = excluded.updated_at`,
		string(u.UserCode), u.Name, u.IsTransportTarget,
		u.AbsenceClaimedThisMonth, u.StandardMinutes, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// GetUser returns one roster entry.
func (s *Store) GetUser(ctx context.Context, code engine.UserCode) (engine.AttendanceUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		u        engine.AttendanceUser
		userCode string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_code, name, is_transport_target, absence_claimed_this_month, standard_minutes
		FROM users WHERE user_code = ?`, string(code),
	).Scan(&userCode, &u.Name, &u.IsTransportTarget, &u.AbsenceClaimedThisMonth, &u.StandardMinutes)
	if err == sql.ErrNoRows {
		return engine.AttendanceUser{}, engine.ErrNotFound
	}
	if err != nil {
		return engine.AttendanceUser{}, fmt.Errorf("failed to get user: %w", err)
	}
	u.UserCode = engine.UserCode(userCode)
	return u, nil
}

// ListUsers returns the full roster, ordered by user code.
func (s *Store) ListUsers(ctx context.Context) ([]engine.AttendanceUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_code, name, is_transport_target, absence_claimed_this_month, standard_minutes
		FROM users ORDER BY user_code ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []engine.AttendanceUser
	for rows.Next() {
		var (
			u        engine.AttendanceUser
			userCode string
		)
		if err := rows.Scan(&userCode, &u.Name, &u.IsTransportTarget, &u.AbsenceClaimedThisMonth, &u.StandardMinutes); err != nil {
			return nil, err
		}
		u.UserCode = engine.UserCode(userCode)
		users = append(users, u)
	}
	return users, rows.Err()
}

// =============================================================================
// ATTENDANCE VISITS
// =============================================================================

const visitColumns = `id, user_code, date, status, cnt_attend_in, cnt_attend_out,
	check_in_at, check_out_at, transport_to, transport_from,
	absent_morning_contacted, absent_morning_method, evening_checked, evening_note,
	absence_addon_claimable, provided_minutes, user_confirmed_at, version`

// SeedVisits inserts day-start rows. Seeding is idempotent: a row that
// already exists for (user_code, date) is left untouched, so re-running
// day-start never clobbers recorded attendance.
func (s *Store) SeedVisits(ctx context.Context, visits []engine.AttendanceVisit) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, v := range visits {
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO visits
			(id, user_code, date, status, cnt_attend_in, cnt_attend_out,
			 check_in_at, check_out_at, transport_to, transport_from,
			 absent_morning_contacted, absent_morning_method, evening_checked, evening_note,
			 absence_addon_claimable, provided_minutes, user_confirmed_at, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			v.ID, string(v.UserCode), v.Date, string(v.Status),
			v.CntAttendIn, v.CntAttendOut,
			nullTimePtr(v.CheckInAt), nullTimePtr(v.CheckOutAt),
			v.TransportTo, v.TransportFrom,
			v.AbsentMorningContacted, v.AbsentMorningMethod,
			v.EveningChecked, v.EveningNote,
			v.AbsenceAddonClaimable, v.ProvidedMinutes,
			nullTimePtr(v.UserConfirmedAt), now, now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to seed visit for %s: %w", v.UserCode, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// UpdateVisit rewrites a visit guarded by its version token.
func (s *Store) UpdateVisit(ctx context.Context, v engine.AttendanceVisit, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE visits
		SET status = ?, cnt_attend_in = ?, cnt_attend_out = ?,
		    check_in_at = ?, check_out_at = ?, transport_to = ?, transport_from = ?,
		    absent_morning_contacted = ?, absent_morning_method = ?,
		    evening_checked = ?, evening_note = ?,
		    absence_addon_claimable = ?, provided_minutes = ?, user_confirmed_at = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(v.Status), v.CntAttendIn, v.CntAttendOut,
		nullTimePtr(v.CheckInAt), nullTimePtr(v.CheckOutAt),
		v.TransportTo, v.TransportFrom,
		v.AbsentMorningContacted, v.AbsentMorningMethod,
		v.EveningChecked, v.EveningNote,
		v.AbsenceAddonClaimable, v.ProvidedMinutes,
		nullTimePtr(v.UserConfirmedAt),
		time.Now().UTC().Format(time.RFC3339),
		v.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update visit: %w", err)
	}
	return s.checkUpdated(ctx, res, "visits", v.ID, expectedVersion)
}

// GetVisit returns one visit with its current version token.
func (s *Store) GetVisit(ctx context.Context, id string) (engine.AttendanceVisit, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+visitColumns+` FROM visits WHERE id = ?`, id)
	return scanVisit(row)
}

// ListVisitsByDate returns all visits for one day, ordered by user code.
func (s *Store) ListVisitsByDate(ctx context.Context, date string) ([]engine.AttendanceVisit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+visitColumns+` FROM visits WHERE date = ? ORDER BY user_code ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	var visits []engine.AttendanceVisit
	for rows.Next() {
		v, _, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// =============================================================================
// DAILY CARE RECORDS
// =============================================================================

// SaveDailyRecord upserts one reporting row keyed by date. When a row for
// the date already exists the upsert keeps its id, so the returned record
// resolves the stored id first instead of minting a phantom one.
func (s *Store) SaveDailyRecord(ctx context.Context, r engine.DailyCareRecord) (engine.DailyCareRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM daily_records WHERE date = ?`, r.Date).Scan(&existing)
	switch {
	case err == nil:
		r.ID = existing
	case err != sql.ErrNoRows:
		return engine.DailyCareRecord{}, fmt.Errorf("failed to save daily record: %w", err)
	case r.ID == "":
		r.ID = uuid.NewString()
	}
	addonsJSON, _ := json.Marshal(r.OtherAddons)
	now := time.Now().UTC().Format(time.RFC3339)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO daily_records
		(id, date, status, start_time, end_time, transport_outbound, transport_inbound,
		 meal_addon, bathing_addon, other_addons_json,
		 absence_support_applied, absence_support_disabled, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			status = excluded.status,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			transport_outbound = excluded.transport_outbound,
			transport_inbound = excluded.transport_inbound,
			meal_addon = excluded.meal_addon,
			bathing_addon = excluded.bathing_addon,
			other_addons_json = excluded.other_addons_json,
			absence_support_applied = excluded.absence_support_applied,
			absence_support_disabled = excluded.absence_support_disabled,
			version = daily_records.version + 1,
			updated_at = excluded.updated_at`,
		r.ID, r.Date, string(r.Status), r.StartTime, r.EndTime,
		r.TransportOutbound, r.TransportInbound,
		r.MealAddon, r.BathingAddon, string(addonsJSON),
		r.AbsenceSupportApplied, r.AbsenceSupportDisabled, now, now,
	)
	if err != nil {
		return engine.DailyCareRecord{}, fmt.Errorf("failed to save daily record: %w", err)
	}
	return r, nil
}

// UpdateDailyRecord rewrites one reporting row guarded by its version token.
func (s *Store) UpdateDailyRecord(ctx context.Context, r engine.DailyCareRecord, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addonsJSON, _ := json.Marshal(r.OtherAddons)
	res, err := s.db.ExecContext(ctx, `
		UPDATE daily_records
		SET status = ?, start_time = ?, end_time = ?,
		    transport_outbound = ?, transport_inbound = ?,
		    meal_addon = ?, bathing_addon = ?, other_addons_json = ?,
		    absence_support_applied = ?, absence_support_disabled = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(r.Status), r.StartTime, r.EndTime,
		r.TransportOutbound, r.TransportInbound,
		r.MealAddon, r.BathingAddon, string(addonsJSON),
		r.AbsenceSupportApplied, r.AbsenceSupportDisabled,
		time.Now().UTC().Format(time.RFC3339),
		r.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update daily record: %w", err)
	}
	return s.checkUpdated(ctx, res, "daily_records", r.ID, expectedVersion)
}

// ReplaceDailyRecords rewrites a set of rows in one transaction, bumping
// versions unconditionally. Used by the cap enforcer, which recomputes the
// whole month under the store lock.
func (s *Store) ReplaceDailyRecords(ctx context.Context, records []engine.DailyCareRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		addonsJSON, _ := json.Marshal(r.OtherAddons)
		if _, err := tx.ExecContext(ctx, `
			UPDATE daily_records
			SET status = ?, start_time = ?, end_time = ?,
			    transport_outbound = ?, transport_inbound = ?,
			    meal_addon = ?, bathing_addon = ?, other_addons_json = ?,
			    absence_support_applied = ?, absence_support_disabled = ?,
			    version = version + 1, updated_at = ?
			WHERE id = ?`,
			string(r.Status), r.StartTime, r.EndTime,
			r.TransportOutbound, r.TransportInbound,
			r.MealAddon, r.BathingAddon, string(addonsJSON),
			r.AbsenceSupportApplied, r.AbsenceSupportDisabled,
			now, r.ID,
		); err != nil {
			return fmt.Errorf("failed to replace daily record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// GetDailyRecord returns one reporting row with its current version token.
func (s *Store) GetDailyRecord(ctx context.Context, id string) (engine.DailyCareRecord, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, date, status, start_time, end_time, transport_outbound, transport_inbound,
		       meal_addon, bathing_addon, other_addons_json,
		       absence_support_applied, absence_support_disabled, version
		FROM daily_records WHERE id = ?`, id)
	return scanDailyRecord(row)
}

// ListDailyRecordsByMonth returns one month of rows in chronological order.
// The ordering matters: the cap enforcer's first-N-win rule depends on it.
func (s *Store) ListDailyRecordsByMonth(ctx context.Context, month string) ([]engine.DailyCareRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, status, start_time, end_time, transport_outbound, transport_inbound,
		       meal_addon, bathing_addon, other_addons_json,
		       absence_support_applied, absence_support_disabled, version
		FROM daily_records WHERE date LIKE ? ORDER BY date ASC`, month+"-%")
	if err != nil {
		return nil, fmt.Errorf("failed to list daily records: %w", err)
	}
	defer rows.Close()

	var records []engine.DailyCareRecord
	for rows.Next() {
		r, _, err := scanDailyRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// =============================================================================
// SCAN / NULL HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisit(row rowScanner) (engine.AttendanceVisit, int64, error) {
	var (
		v                 engine.AttendanceVisit
		userCode, status  string
		checkIn, checkOut sql.NullString
		confirmedAt       sql.NullString
		version           int64
	)
	err := row.Scan(&v.ID, &userCode, &v.Date, &status,
		&v.CntAttendIn, &v.CntAttendOut,
		&checkIn, &checkOut, &v.TransportTo, &v.TransportFrom,
		&v.AbsentMorningContacted, &v.AbsentMorningMethod,
		&v.EveningChecked, &v.EveningNote,
		&v.AbsenceAddonClaimable, &v.ProvidedMinutes,
		&confirmedAt, &version,
	)
	if err == sql.ErrNoRows {
		return engine.AttendanceVisit{}, 0, engine.ErrNotFound
	}
	if err != nil {
		return engine.AttendanceVisit{}, 0, fmt.Errorf("failed to scan visit: %w", err)
	}
	v.UserCode = engine.UserCode(userCode)
	v.Status = engine.VisitStatus(status)
	v.CheckInAt = parseTimePtr(checkIn)
	v.CheckOutAt = parseTimePtr(checkOut)
	v.UserConfirmedAt = parseTimePtr(confirmedAt)
	return v, version, nil
}

func scanDailyRecord(row rowScanner) (engine.DailyCareRecord, int64, error) {
	var (
		r          engine.DailyCareRecord
		status     string
		addonsJSON string
		version    int64
	)
	err := row.Scan(&r.ID, &r.Date, &status, &r.StartTime, &r.EndTime,
		&r.TransportOutbound, &r.TransportInbound,
		&r.MealAddon, &r.BathingAddon, &addonsJSON,
		&r.AbsenceSupportApplied, &r.AbsenceSupportDisabled, &version,
	)
	if err == sql.ErrNoRows {
		return engine.DailyCareRecord{}, 0, engine.ErrNotFound
	}
	if err != nil {
		return engine.DailyCareRecord{}, 0, fmt.Errorf("failed to scan daily record: %w", err)
	}
	r.Status = engine.DailyStatus(status)
	if addonsJSON != "" {
		// Garbled add-on JSON degrades to no extra add-ons.
		_ = json.Unmarshal([]byte(addonsJSON), &r.OtherAddons)
	}
	return r, version, nil
}

// checkUpdated turns a zero-row UPDATE into the right sentinel: the row is
// either missing or was modified since the client read it.
func (s *Store) checkUpdated(ctx context.Context, res sql.Result, table, id string, expected int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var actual int64
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT version FROM %s WHERE id = ?", table), id,
	).Scan(&actual)
	if err == sql.ErrNoRows {
		return engine.ErrNotFound
	}
	if err != nil {
		return err
	}
	return &engine.VersionConflictError{Table: table, ID: id, Expected: expected, Actual: actual}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func nullTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return nullTime(*t)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	t := parseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}
