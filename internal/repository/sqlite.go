package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
)

// Supported database/sql driver names.
const (
	DriverCGO    = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens dsn with the named driver and runs migrations.
func NewSQLiteStore(driver, dsn string) (*SQLiteStore, error) {
	if driver == "" {
		driver = DriverCGO
	}
	if driver != DriverCGO && driver != DriverPureGo {
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			mode TEXT NOT NULL,
			message_count INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			metadata TEXT,
			created_at INTEGER NOT NULL,
			closed_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_owner ON sessions(owner, created_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
		// Delegations may reference sessions this service never saw.
		`CREATE TABLE IF NOT EXISTS delegations (
			delegation_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			caller_agent TEXT NOT NULL,
			target_agent TEXT NOT NULL,
			task_description TEXT NOT NULL,
			model_override TEXT NOT NULL,
			model_override_scope TEXT NOT NULL,
			context TEXT,
			status TEXT NOT NULL,
			result TEXT,
			error TEXT,
			created_at INTEGER NOT NULL,
			claimed_at INTEGER,
			completed_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_delegations_session ON delegations(session_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_delegations_target_status ON delegations(target_agent, status)`,
		`CREATE TABLE IF NOT EXISTS permission_logs (
			log_id TEXT PRIMARY KEY,
			caller_agent TEXT NOT NULL,
			action TEXT NOT NULL,
			resource TEXT,
			allowed INTEGER NOT NULL,
			reason TEXT,
			session_id TEXT,
			ts INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_permission_logs_caller ON permission_logs(caller_agent, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_permission_logs_allowed ON permission_logs(allowed, ts)`,
		`CREATE TABLE IF NOT EXISTS escalations (
			escalation_id TEXT PRIMARY KEY,
			ts INTEGER NOT NULL,
			from_agent TEXT NOT NULL,
			to_agent TEXT NOT NULL,
			trigger_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			summary TEXT NOT NULL,
			user_notes TEXT,
			context TEXT NOT NULL,
			attempted_actions TEXT NOT NULL DEFAULT '[]',
			recommended_actions TEXT NOT NULL DEFAULT '[]',
			blocked_actions TEXT NOT NULL DEFAULT '[]',
			risk_notes TEXT NOT NULL DEFAULT '[]',
			next_steps TEXT NOT NULL DEFAULT '[]',
			memory_snapshot TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			notified INTEGER NOT NULL DEFAULT 0,
			resolution TEXT,
			resolved_by TEXT,
			resolved_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_escalations_status ON escalations(status, ts)`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			aggregate_id TEXT NOT NULL,
			session_id TEXT,
			ts INTEGER NOT NULL,
			type TEXT NOT NULL,
			payload TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	// Columns added after the first release.
	if err := s.ensureColumn("delegations", "context", "ALTER TABLE delegations ADD COLUMN context TEXT"); err != nil {
		return err
	}
	if err := s.ensureColumn("escalations", "notified", "ALTER TABLE escalations ADD COLUMN notified INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) ensureColumn(tableName, columnName, ddl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.Exec(ddl)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- sessions ---

const sessionColumns = `session_id, owner, mode, message_count, status, metadata, created_at, closed_at`

// CreateSession creates a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	var metadata sql.NullString
	if len(session.Metadata) > 0 {
		metadata = sql.NullString{String: string(session.Metadata), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, owner, mode, message_count, status, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.SessionID, session.Owner, session.Mode, session.MessageCount, session.Status, metadata, session.CreatedAt)
	return err
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, sessionID)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions lists sessions newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1=1`
	var args []interface{}
	if filter.Owner != "" {
		query += ` AND owner = ?`
		args = append(args, filter.Owner)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// CloseSession marks an active session closed.
func (s *SQLiteStore) CloseSession(ctx context.Context, sessionID string, closedAt int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, closed_at = ? WHERE session_id = ? AND status = ?`,
		domain.SessionStatusClosed, closedAt, sessionID, domain.SessionStatusActive)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

// IncrementMessageCount bumps the session's message count and returns the
// new value. ok is false when the session does not exist.
func (s *SQLiteStore) IncrementMessageCount(ctx context.Context, sessionID string) (int, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET message_count = message_count + 1 WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, false, err
	}
	ok, err := affectedOne(res)
	if err != nil || !ok {
		return 0, false, err
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT message_count FROM sessions WHERE session_id = ?`, sessionID).Scan(&count); err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// --- messages ---

// CreateMessage creates a new message.
func (s *SQLiteStore) CreateMessage(ctx context.Context, message *domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		message.MessageID, message.SessionID, message.Role, message.Content, message.CreatedAt)
	return err
}

// ListMessages lists a session's messages oldest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	query := `SELECT message_id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY created_at ASC, rowid ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.queryMessages(ctx, query, sessionID)
}

// RecentMessages returns the last n messages of a session, oldest first.
func (s *SQLiteStore) RecentMessages(ctx context.Context, sessionID string, n int) ([]domain.Message, error) {
	if n <= 0 {
		return []domain.Message{}, nil
	}
	query := fmt.Sprintf(`SELECT message_id, session_id, role, content, created_at FROM (
		SELECT message_id, session_id, role, content, created_at, rowid AS rid FROM messages
		WHERE session_id = ? ORDER BY created_at DESC, rowid DESC LIMIT %d
	) ORDER BY created_at ASC, rid ASC`, n)
	return s.queryMessages(ctx, query, sessionID)
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...interface{}) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// --- delegations ---

const delegationColumns = `delegation_id, session_id, caller_agent, target_agent, task_description,
	model_override, model_override_scope, context, status, result, error, created_at, claimed_at, completed_at`

// CreateDelegation creates a new delegation record.
func (s *SQLiteStore) CreateDelegation(ctx context.Context, d *domain.Delegation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO delegations (delegation_id, session_id, caller_agent, target_agent, task_description,
			model_override, model_override_scope, context, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.DelegationID, d.SessionID, d.CallerAgent, d.TargetAgent, d.TaskDescription,
		d.ModelOverride, d.ModelOverrideScope, nullString(d.Context), d.Status, d.CreatedAt)
	return err
}

// GetDelegation retrieves a delegation by ID.
func (s *SQLiteStore) GetDelegation(ctx context.Context, delegationID string) (*domain.Delegation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+delegationColumns+` FROM delegations WHERE delegation_id = ?`, delegationID)
	d, err := scanDelegation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListDelegationsBySession lists a session's delegations newest first.
func (s *SQLiteStore) ListDelegationsBySession(ctx context.Context, sessionID string, limit int) ([]domain.Delegation, error) {
	query := `SELECT ` + delegationColumns + ` FROM delegations WHERE session_id = ? ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.queryDelegations(ctx, query, sessionID)
}

// ListPendingForAgent lists pending delegations targeting agent, oldest first.
func (s *SQLiteStore) ListPendingForAgent(ctx context.Context, agent string) ([]domain.Delegation, error) {
	return s.queryDelegations(ctx,
		`SELECT `+delegationColumns+` FROM delegations WHERE target_agent = ? AND status = ? ORDER BY created_at ASC, rowid ASC`,
		agent, domain.DelegationStatusPending)
}

// ListOpenDelegations lists a session's pending and in-progress delegations, oldest first.
func (s *SQLiteStore) ListOpenDelegations(ctx context.Context, sessionID string) ([]domain.Delegation, error) {
	return s.queryDelegations(ctx,
		`SELECT `+delegationColumns+` FROM delegations WHERE session_id = ? AND status IN (?, ?) ORDER BY created_at ASC, rowid ASC`,
		sessionID, domain.DelegationStatusPending, domain.DelegationStatusInProgress)
}

// ClaimDelegation moves a pending delegation to in_progress.
func (s *SQLiteStore) ClaimDelegation(ctx context.Context, delegationID string, claimedAt int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE delegations SET status = ?, claimed_at = ? WHERE delegation_id = ? AND status = ?`,
		domain.DelegationStatusInProgress, claimedAt, delegationID, domain.DelegationStatusPending)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

// CompleteDelegation moves an in_progress delegation to completed.
func (s *SQLiteStore) CompleteDelegation(ctx context.Context, delegationID, result string, completedAt int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE delegations SET status = ?, result = ?, completed_at = ? WHERE delegation_id = ? AND status = ?`,
		domain.DelegationStatusCompleted, nullString(result), completedAt, delegationID, domain.DelegationStatusInProgress)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

// FailDelegation moves a pending or in_progress delegation to failed.
func (s *SQLiteStore) FailDelegation(ctx context.Context, delegationID, errMsg string, completedAt int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE delegations SET status = ?, error = ?, completed_at = ? WHERE delegation_id = ? AND status IN (?, ?)`,
		domain.DelegationStatusFailed, nullString(errMsg), completedAt, delegationID,
		domain.DelegationStatusPending, domain.DelegationStatusInProgress)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func (s *SQLiteStore) queryDelegations(ctx context.Context, query string, args ...interface{}) ([]domain.Delegation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	delegations := []domain.Delegation{}
	for rows.Next() {
		d, err := scanDelegation(rows)
		if err != nil {
			return nil, err
		}
		delegations = append(delegations, *d)
	}
	return delegations, rows.Err()
}

// --- permission audit ---

// CreatePermissionLog appends an audit entry.
func (s *SQLiteStore) CreatePermissionLog(ctx context.Context, entry *domain.PermissionLogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO permission_logs (log_id, caller_agent, action, resource, allowed, reason, session_id, ts) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.LogID, entry.CallerAgent, entry.Action, nullString(entry.Resource), entry.Allowed,
		nullString(entry.Reason), nullString(entry.SessionID), entry.Timestamp)
	return err
}

// ListPermissionLogs lists audit entries newest first.
func (s *SQLiteStore) ListPermissionLogs(ctx context.Context, filter PermissionLogFilter) ([]domain.PermissionLogEntry, error) {
	query := `SELECT log_id, caller_agent, action, resource, allowed, reason, session_id, ts FROM permission_logs WHERE 1=1`
	var args []interface{}
	if filter.CallerAgent != "" {
		query += ` AND caller_agent = ?`
		args = append(args, filter.CallerAgent)
	}
	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	if filter.DeniedOnly {
		query += ` AND allowed = 0`
	}
	query += ` ORDER BY ts DESC, rowid DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.PermissionLogEntry{}
	for rows.Next() {
		var e domain.PermissionLogEntry
		var resource, reason, sessionID sql.NullString
		if err := rows.Scan(&e.LogID, &e.CallerAgent, &e.Action, &resource, &e.Allowed, &reason, &sessionID, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Resource = resource.String
		e.Reason = reason.String
		e.SessionID = sessionID.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- escalations ---

const escalationColumns = `escalation_id, ts, from_agent, to_agent, trigger_type, severity, summary, user_notes,
	context, attempted_actions, recommended_actions, blocked_actions, risk_notes, next_steps, memory_snapshot,
	status, notified, resolution, resolved_by, resolved_at`

// CreateEscalation stores a handoff packet.
func (s *SQLiteStore) CreateEscalation(ctx context.Context, esc *domain.Escalation) error {
	encoded := make([]string, 0, 7)
	for _, v := range []interface{}{
		esc.Context, esc.AttemptedActions, esc.RecommendedActions, esc.BlockedActions,
		esc.RiskNotes, esc.NextSteps, esc.MemorySnapshot,
	} {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode escalation: %w", err)
		}
		encoded = append(encoded, string(b))
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO escalations (`+escalationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		esc.EscalationID, esc.Timestamp, esc.FromAgent, esc.ToAgent, esc.Trigger, esc.Severity, esc.Summary,
		nullString(esc.UserNotes), encoded[0], encoded[1], encoded[2], encoded[3], encoded[4], encoded[5], encoded[6],
		esc.Status, esc.Notified, nullString(esc.Resolution), nullString(esc.ResolvedBy), nullInt64(esc.ResolvedAt))
	return err
}

// GetEscalation retrieves an escalation by ID.
func (s *SQLiteStore) GetEscalation(ctx context.Context, escalationID string) (*domain.Escalation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+escalationColumns+` FROM escalations WHERE escalation_id = ?`, escalationID)
	esc, err := scanEscalation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return esc, nil
}

// ListEscalations lists escalations in the given status, newest first.
// An empty status lists all of them.
func (s *SQLiteStore) ListEscalations(ctx context.Context, status domain.EscalationStatus, limit int) ([]domain.Escalation, error) {
	query := `SELECT ` + escalationColumns + ` FROM escalations`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY ts DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	escalations := []domain.Escalation{}
	for rows.Next() {
		esc, err := scanEscalation(rows)
		if err != nil {
			return nil, err
		}
		escalations = append(escalations, *esc)
	}
	return escalations, rows.Err()
}

// ResolveEscalation closes a pending escalation.
func (s *SQLiteStore) ResolveEscalation(ctx context.Context, escalationID string, status domain.EscalationStatus, resolvedBy, resolution string, resolvedAt int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE escalations SET status = ?, resolved_by = ?, resolution = ?, resolved_at = ? WHERE escalation_id = ? AND status = ?`,
		status, resolvedBy, nullString(resolution), resolvedAt, escalationID, domain.EscalationStatusPending)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

// MarkEscalationNotified records that the escalation reached a live subscriber.
func (s *SQLiteStore) MarkEscalationNotified(ctx context.Context, escalationID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE escalations SET notified = 1 WHERE escalation_id = ?`, escalationID)
	return err
}

// --- events ---

// CreateEvent creates a new event.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *domain.Event) error {
	var payload sql.NullString
	if event.Payload != nil {
		payload = sql.NullString{String: string(event.Payload), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_id, aggregate_id, session_id, ts, type, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		event.EventID, event.AggregateID, nullString(event.SessionID), event.Ts, event.Type, payload)
	return err
}

// ListEvents lists events newest first.
func (s *SQLiteStore) ListEvents(ctx context.Context, filter EventFilter) ([]domain.Event, error) {
	query := `SELECT event_id, aggregate_id, session_id, ts, type, payload FROM events WHERE 1=1`
	var args []interface{}
	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	if filter.AfterTs > 0 {
		query += ` AND ts > ?`
		args = append(args, filter.AfterTs)
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			placeholders[i] = "?"
			args = append(args, t)
		}
		query += ` AND type IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY ts DESC, rowid DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var ev domain.Event
		var sessionID, payload sql.NullString
		if err := rows.Scan(&ev.EventID, &ev.AggregateID, &sessionID, &ev.Ts, &ev.Type, &payload); err != nil {
			return nil, err
		}
		ev.SessionID = sessionID.String
		if payload.Valid && payload.String != "" {
			ev.Payload = json.RawMessage(payload.String)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var metadata sql.NullString
	var closedAt sql.NullInt64
	if err := row.Scan(&session.SessionID, &session.Owner, &session.Mode, &session.MessageCount,
		&session.Status, &metadata, &session.CreatedAt, &closedAt); err != nil {
		return nil, err
	}
	if metadata.Valid && metadata.String != "" {
		session.Metadata = json.RawMessage(metadata.String)
	}
	session.ClosedAt = closedAt.Int64
	return &session, nil
}

func scanDelegation(row rowScanner) (*domain.Delegation, error) {
	var d domain.Delegation
	var dctx, result, errMsg sql.NullString
	var claimedAt, completedAt sql.NullInt64
	if err := row.Scan(&d.DelegationID, &d.SessionID, &d.CallerAgent, &d.TargetAgent, &d.TaskDescription,
		&d.ModelOverride, &d.ModelOverrideScope, &dctx, &d.Status, &result, &errMsg,
		&d.CreatedAt, &claimedAt, &completedAt); err != nil {
		return nil, err
	}
	d.Context = dctx.String
	d.Result = result.String
	d.Error = errMsg.String
	d.ClaimedAt = claimedAt.Int64
	d.CompletedAt = completedAt.Int64
	return &d, nil
}

func scanEscalation(row rowScanner) (*domain.Escalation, error) {
	var esc domain.Escalation
	var userNotes, resolution, resolvedBy sql.NullString
	var resolvedAt sql.NullInt64
	var ctxJSON, attempted, recommended, blocked, risks, next, memory string
	if err := row.Scan(&esc.EscalationID, &esc.Timestamp, &esc.FromAgent, &esc.ToAgent, &esc.Trigger,
		&esc.Severity, &esc.Summary, &userNotes, &ctxJSON, &attempted, &recommended, &blocked, &risks,
		&next, &memory, &esc.Status, &esc.Notified, &resolution, &resolvedBy, &resolvedAt); err != nil {
		return nil, err
	}
	esc.UserNotes = userNotes.String
	esc.Resolution = resolution.String
	esc.ResolvedBy = resolvedBy.String
	esc.ResolvedAt = resolvedAt.Int64

	decode := []struct {
		raw  string
		dest interface{}
	}{
		{ctxJSON, &esc.Context},
		{attempted, &esc.AttemptedActions},
		{recommended, &esc.RecommendedActions},
		{blocked, &esc.BlockedActions},
		{risks, &esc.RiskNotes},
		{next, &esc.NextSteps},
		{memory, &esc.MemorySnapshot},
	}
	for _, d := range decode {
		if err := json.Unmarshal([]byte(d.raw), d.dest); err != nil {
			return nil, fmt.Errorf("decode escalation %s: %w", esc.EscalationID, err)
		}
	}
	return &esc, nil
}

func affectedOne(res sql.Result) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
