package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// Store is the Postgres prompt archive. Every completed session's query,
// synthesis prompt and response is persisted here for offline inspection;
// writes are best-effort at the call sites.
type Store struct {
	DB *sql.DB
}

// PromptLog is one archived session exchange.
type PromptLog struct {
	ID        int64
	SessionID string
	UserQuery string
	Prompt    string
	Response  string
	Context   string
	Timestamp time.Time
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// SavePromptLog archives one exchange. Timestamp is set server-side.
func (s *Store) SavePromptLog(ctx context.Context, l PromptLog) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO prompts (session_id, user_query, prompt, response, context) VALUES ($1,$2,$3,$4,$5)`,
		l.SessionID, l.UserQuery, l.Prompt, l.Response, l.Context)
	return err
}

// RecentPromptLogs returns the newest archived exchanges for a session.
func (s *Store) RecentPromptLogs(ctx context.Context, sessionID string, limit int) ([]PromptLog, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, session_id, user_query, prompt, response, context, timestamp
		 FROM prompts WHERE session_id=$1 ORDER BY timestamp DESC LIMIT $2`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PromptLog
	for rows.Next() {
		var l PromptLog
		if err := rows.Scan(&l.ID, &l.SessionID, &l.UserQuery, &l.Prompt, &l.Response, &l.Context, &l.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.DB.Close() }
