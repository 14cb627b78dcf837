package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"framecast/internal/config"
	"framecast/internal/keyframe"
	"framecast/internal/mobject"
)

// ErrNoSessions is returned when the journal holds no sessions.
var ErrNoSessions = errors.New("journal has no sessions")

// Store archives published keyframes per serving session in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Session is one run of the frame server.
type Session struct {
	ID        string
	Scene     string
	StartedAt time.Time
	Units     int
}

// Record is the archived summary of one keyframe.
type Record struct {
	SessionID   string
	Index       int
	Kind        keyframe.Kind
	Name        string
	Duration    float64
	Skipped     bool
	ObjectCount int
	PublishedAt time.Time
}

// Open connects to the journal at path, creating the schema when needed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// OpenFromConfig opens the journal under the configured state directory.
func OpenFromConfig(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return Open(cfg.JournalPath())
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginSession records a new serving session.
func (s *Store) BeginSession(ctx context.Context, id, scene string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, scene, started_at) VALUES (?, ?, ?)`,
		id, scene, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Record archives entry under session id.
func (s *Store) Record(ctx context.Context, sessionID string, entry keyframe.Entry) error {
	frame, err := json.Marshal(entry.Final)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	published := entry.PublishedAt
	if published.IsZero() {
		published = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO keyframes (
            session_id, unit_index, kind, name, duration, skipped,
            object_count, published_at, frame_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		entry.Index,
		string(entry.Kind),
		entry.Name,
		entry.Duration,
		boolToInt(entry.Skipped),
		len(entry.Final),
		published.UTC().Format(time.RFC3339Nano),
		string(frame),
	)
	if err != nil {
		return fmt.Errorf("insert keyframe %d: %w", entry.Index, err)
	}
	return nil
}

// Sink returns a keyframe sink archiving into session id.
func (s *Store) Sink(sessionID string) keyframe.Sink {
	return sessionSink{store: s, sessionID: sessionID}
}

type sessionSink struct {
	store     *Store
	sessionID string
}

func (k sessionSink) Publish(ctx context.Context, entry keyframe.Entry) error {
	return k.store.Record(ctx, k.sessionID, entry)
}

// Sessions lists sessions, newest first.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.scene, s.started_at, COUNT(k.unit_index)
           FROM sessions s
           LEFT JOIN keyframes k ON k.session_id = s.id
          GROUP BY s.id
          ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			sess    Session
			started string
		)
		if err := rows.Scan(&sess.ID, &sess.Scene, &started, &sess.Units); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartedAt = parseTime(started)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// LatestSession returns the most recently started session.
func (s *Store) LatestSession(ctx context.Context) (Session, error) {
	sessions, err := s.Sessions(ctx)
	if err != nil {
		return Session{}, err
	}
	if len(sessions) == 0 {
		return Session{}, ErrNoSessions
	}
	return sessions[0], nil
}

// List returns the keyframes of session id in unit order.
func (s *Store) List(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, unit_index, kind, name, duration, skipped, object_count, published_at
           FROM keyframes
          WHERE session_id = ?
          ORDER BY unit_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query keyframes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec       Record
			kind      string
			skipped   int
			published string
		)
		if err := rows.Scan(&rec.SessionID, &rec.Index, &kind, &rec.Name, &rec.Duration, &skipped, &rec.ObjectCount, &published); err != nil {
			return nil, fmt.Errorf("scan keyframe: %w", err)
		}
		rec.Kind = keyframe.Kind(kind)
		rec.Skipped = skipped != 0
		rec.PublishedAt = parseTime(published)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Frame returns the archived final frame of unit index in session id.
func (s *Store) Frame(ctx context.Context, sessionID string, index int) ([]mobject.Serialized, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT frame_json FROM keyframes WHERE session_id = ? AND unit_index = ?`,
		sessionID, index,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", keyframe.ErrIndexOutOfRange, index)
	}
	if err != nil {
		return nil, fmt.Errorf("query frame: %w", err)
	}
	var frame []mobject.Serialized
	if err := json.Unmarshal([]byte(raw), &frame); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return frame, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
