package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/ponyo877/sketchsphere/server/domain"
	"github.com/ponyo877/sketchsphere/server/usecase"
)

// DriverName is the sqlite3 driver with the REGEXP function registered.
const DriverName = "sqlite3_with_go_func"

var (
	ErrNotFound = domain.ErrMessageNotFound

	registerOnce sync.Once
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	room_id      TEXT NOT NULL,
	room_gen     INTEGER NOT NULL,
	user_id      TEXT NOT NULL,
	display_name TEXT NOT NULL,
	content      TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_room_id ON messages (room_id, room_gen, seq);
`

func regex(re, s string) (bool, error) {
	return regexp.MatchString(re, s)
}

// RegisterDriver registers DriverName with database/sql. It is safe to call
// more than once.
func RegisterDriver() {
	registerOnce.Do(func() {
		sql.Register(DriverName,
			&sqlite3.SQLiteDriver{
				ConnectHook: func(conn *sqlite3.SQLiteConn) error {
					return conn.RegisterFunc("regexp", regex, true)
				},
			})
	})
}

// Open opens dsn with the REGEXP-enabled driver and applies the schema.
func Open(dsn string) (*sql.DB, error) {
	RegisterDriver()
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	// sqlite serializes writers anyway, and a single connection keeps a
	// shared in-memory database alive for the lifetime of db.
	db.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Repository keys every message by room id and room generation, so a room
// that reuses an id never reads the transcript of its predecessor.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) usecase.Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateMessage(generation uint64, msg domain.ChatMessage) error {
	query := "INSERT INTO messages (id, room_id, room_gen, user_id, display_name, content, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	if _, err := r.db.Exec(query, msg.ID, msg.RoomID, int64(generation), msg.UserID, msg.DisplayName, msg.Message, msg.Timestamp.UTC()); err != nil {
		return fmt.Errorf("failed to insert message for room %s: %w", msg.RoomID, err)
	}
	return nil
}

func (r *Repository) GetMessage(id string) (domain.ChatMessage, error) {
	query := "SELECT id, room_id, user_id, display_name, content, created_at FROM messages WHERE id = ?"
	msg, err := scanMessage(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ChatMessage{}, ErrNotFound
		}
		return domain.ChatMessage{}, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

// ListMessages returns the last limit messages of the room, oldest first. A
// limit of zero or less returns the whole transcript.
func (r *Repository) ListMessages(roomID string, generation uint64, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT id, room_id, user_id, display_name, content, created_at FROM (
			SELECT * FROM messages WHERE room_id = ? AND room_gen = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq
	`
	rows, err := r.db.Query(query, roomID, int64(generation), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages for room %s: %w", roomID, err)
	}
	defer rows.Close()

	messages := []domain.ChatMessage{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over messages for room %s: %w", roomID, err)
	}
	return messages, nil
}

// SearchMessages returns the messages of the room whose content matches the
// regular expression pattern, oldest first.
func (r *Repository) SearchMessages(roomID string, generation uint64, pattern string) ([]domain.ChatMessage, error) {
	query := "SELECT id, room_id, user_id, display_name, content, created_at FROM messages WHERE room_id = ? AND room_gen = ? AND content REGEXP ? ORDER BY seq"
	rows, err := r.db.Query(query, roomID, int64(generation), pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search in room %s for query '%s': %w", roomID, pattern, err)
	}
	defer rows.Close()

	messages := []domain.ChatMessage{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over search results for room %s: %w", roomID, err)
	}
	return messages, nil
}

// DeleteMessages purges the transcript of the given room generation and of
// any older one. Messages of a newer room with the same id are kept.
func (r *Repository) DeleteMessages(roomID string, generation uint64) error {
	if _, err := r.db.Exec("DELETE FROM messages WHERE room_id = ? AND room_gen <= ?", roomID, int64(generation)); err != nil {
		return fmt.Errorf("failed to delete messages for room %s: %w", roomID, err)
	}
	return nil
}

func (r *Repository) CountMessages() (int64, error) {
	var count int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (domain.ChatMessage, error) {
	var id, roomID, userID, displayName, content string
	var createdAt time.Time
	if err := row.Scan(&id, &roomID, &userID, &displayName, &content, &createdAt); err != nil {
		return domain.ChatMessage{}, err
	}
	return domain.NewChatMessage(id, roomID, userID, displayName, content, createdAt), nil
}
