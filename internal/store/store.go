package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/zhouzirui/docchat/internal/model/chat"
	"github.com/zhouzirui/docchat/internal/model/workspace"
)

// ErrWorkspaceNotFound is returned for unknown workspace ids.
var ErrWorkspaceNotFound = errors.New("workspace not found")

// Store persists workspaces and their message logs in SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return initialise(db)
}

// OpenMemory creates an in-memory database, mainly for tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)

	return initialise(db)
}

func initialise(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    bot_name TEXT,
    primary_color TEXT,
    chat_position TEXT,
    welcome_message TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS message_logs (
    id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    is_context_used INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_message_logs_workspace ON message_logs(workspace_id, created_at);
`

// EnsureWorkspace registers a workspace if it does not exist yet. Existing
// settings are left untouched.
func (s *Store) EnsureWorkspace(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workspaces (id, name) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`, id, name)
	if err != nil {
		return fmt.Errorf("ensure workspace %s: %w", id, err)
	}
	return nil
}

// GetWorkspace loads a workspace with its raw (possibly unset) settings.
func (s *Store) GetWorkspace(ctx context.Context, id string) (workspace.Workspace, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, bot_name, primary_color, chat_position, welcome_message, created_at
		FROM workspaces WHERE id = ?`, id)

	ws, err := scanWorkspace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return workspace.Workspace{}, ErrWorkspaceNotFound
	}
	if err != nil {
		return workspace.Workspace{}, fmt.Errorf("get workspace %s: %w", id, err)
	}
	return ws, nil
}

// ListWorkspaces returns every workspace ordered by id.
func (s *Store) ListWorkspaces(ctx context.Context) ([]workspace.Workspace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, bot_name, primary_color, chat_position, welcome_message, created_at
		FROM workspaces ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	var items []workspace.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		items = append(items, ws)
	}
	return items, rows.Err()
}

// UpdateSettings applies the non-nil fields of update and returns the result.
func (s *Store) UpdateSettings(ctx context.Context, id string, update workspace.SettingsUpdate) (workspace.Workspace, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE workspaces SET
			bot_name = COALESCE(?, bot_name),
			primary_color = COALESCE(?, primary_color),
			chat_position = COALESCE(?, chat_position),
			welcome_message = COALESCE(?, welcome_message)
		WHERE id = ?`,
		nullable(update.BotName), nullable(update.PrimaryColor),
		nullable(update.ChatPosition), nullable(update.WelcomeMessage), id)
	if err != nil {
		return workspace.Workspace{}, fmt.Errorf("update settings %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return workspace.Workspace{}, ErrWorkspaceNotFound
	}
	return s.GetWorkspace(ctx, id)
}

// LogMessage stores one answered question.
func (s *Store) LogMessage(ctx context.Context, entry chat.MessageLog) (chat.MessageLog, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO message_logs (id, workspace_id, question, answer, is_context_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.WorkspaceID, entry.Question, entry.Answer, entry.IsContextUsed, entry.CreatedAt)
	if err != nil {
		return chat.MessageLog{}, fmt.Errorf("log message: %w", err)
	}
	return entry, nil
}

// Summary counts a workspace's logged messages.
func (s *Store) Summary(ctx context.Context, workspaceID string) (chat.Summary, error) {
	summary := chat.Summary{WorkspaceID: workspaceID}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(is_context_used), 0)
		FROM message_logs WHERE workspace_id = ?`, workspaceID).
		Scan(&summary.Total, &summary.WithContext)
	if err != nil {
		return chat.Summary{}, fmt.Errorf("summarise messages: %w", err)
	}
	summary.WithoutContext = summary.Total - summary.WithContext
	return summary, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(row scanner) (workspace.Workspace, error) {
	var ws workspace.Workspace
	var botName, color, position, welcome sql.NullString
	if err := row.Scan(&ws.ID, &ws.Name, &botName, &color, &position, &welcome, &ws.CreatedAt); err != nil {
		return workspace.Workspace{}, err
	}
	ws.Settings.BotName = botName.String
	ws.Settings.PrimaryColor = color.String
	ws.Settings.ChatPosition = position.String
	ws.Settings.WelcomeMessage = welcome.String
	return ws, nil
}

func nullable(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
