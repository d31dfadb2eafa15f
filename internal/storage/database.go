package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/conorfennell/retain/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

const cardColumns = `id, question, answer, context, section, difficulty,
	created_at, last_review, next_review, review_count, correct_count,
	interval_index, ease_factor, mastery, priority_score, response_times, source_id`

// InsertCard inserts a new card with its initial scheduling state.
func (db *DB) InsertCard(card *domain.Card) error {
	times, err := json.Marshal(card.ResponseTimes)
	if err != nil {
		return fmt.Errorf("failed to encode response times for %s: %w", card.ID, err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID,
		card.Question,
		card.Answer,
		card.Context,
		card.Section,
		string(card.Difficulty),
		card.CreatedAt,
		nullTime(card.LastReview),
		card.NextReview,
		card.ReviewCount,
		card.CorrectCount,
		card.IntervalIndex,
		card.EaseFactor,
		string(card.Mastery),
		card.PriorityScore,
		string(times),
		nullSourceID(card.SourceID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	return nil
}

// SaveCard updates an existing card's scheduling state and counters.
func (db *DB) SaveCard(card *domain.Card) error {
	times, err := json.Marshal(card.ResponseTimes)
	if err != nil {
		return fmt.Errorf("failed to encode response times for %s: %w", card.ID, err)
	}
	res, err := db.conn.Exec(`
		UPDATE cards
		SET last_review = ?, next_review = ?, review_count = ?,
			correct_count = ?, interval_index = ?, ease_factor = ?,
			mastery = ?, response_times = ?
		WHERE id = ?
	`,
		nullTime(card.LastReview),
		card.NextReview,
		card.ReviewCount,
		card.CorrectCount,
		card.IntervalIndex,
		card.EaseFactor,
		string(card.Mastery),
		string(times),
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save card %s: %w", card.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save card %s: %w", card.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("failed to save card %s: no such row", card.ID)
	}
	return nil
}

// LoadCard retrieves a card by id. A missing card returns (nil, nil).
func (db *DB) LoadCard(id string) (*domain.Card, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load card %s: %w", id, err)
	}
	return card, nil
}

// LoadAllCards retrieves every card in the store.
func (db *DB) LoadAllCards() ([]*domain.Card, error) {
	rows, err := db.conn.Query(`SELECT ` + cardColumns + ` FROM cards`)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	return cards, nil
}

// GetCardsBySourceID retrieves all cards associated with a source.
func (db *DB) GetCardsBySourceID(sourceID int64) ([]*domain.Card, error) {
	rows, err := db.conn.Query(`SELECT `+cardColumns+` FROM cards WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source ID %d: %w", sourceID, err)
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row for source ID %d: %w", sourceID, err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get cards for source ID %d: %w", sourceID, err)
	}
	return cards, nil
}

// DeleteCard removes a card and its review history.
func (db *DB) DeleteCard(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM review_log WHERE card_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete review log for card %s: %w", id, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM cards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}

// AppendReview records one review event in the history log.
func (db *DB) AppendReview(log domain.ReviewLog) error {
	_, err := db.conn.Exec(`
		INSERT INTO review_log (card_id, reviewed_at, correct, response_time)
		VALUES (?, ?, ?, ?)
	`, log.CardID, log.Timestamp, log.Correct, log.ResponseTime)
	if err != nil {
		return fmt.Errorf("failed to append review for card %s: %w", log.CardID, err)
	}
	return nil
}

// LoadReviews retrieves the full review history, oldest first.
func (db *DB) LoadReviews() ([]domain.ReviewLog, error) {
	rows, err := db.conn.Query(`
		SELECT card_id, reviewed_at, correct, response_time
		FROM review_log ORDER BY reviewed_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load review log: %w", err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var l domain.ReviewLog
		if err := rows.Scan(&l.CardID, &l.Timestamp, &l.Correct, &l.ResponseTime); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load review log: %w", err)
	}
	return logs, nil
}

// Source represents a card source, either a local path or a Git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string
	LastScanned sql.NullTime
}

// InsertSource inserts a new source path into the database and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type)
		VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources from the database.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, type, last_scanned
		FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	return sources, nil
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// DeleteSource removes a source. Its cards are kept: review history
// stays useful even when the notes move elsewhere.
func (db *DB) DeleteSource(id int64) error {
	if _, err := db.conn.Exec(`UPDATE cards SET source_id = NULL WHERE source_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach cards from source ID %d: %w", id, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source ID %d: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card       domain.Card
		difficulty string
		mastery    string
		lastReview sql.NullTime
		times      string
		sourceID   sql.NullInt64
	)
	err := row.Scan(
		&card.ID,
		&card.Question,
		&card.Answer,
		&card.Context,
		&card.Section,
		&difficulty,
		&card.CreatedAt,
		&lastReview,
		&card.NextReview,
		&card.ReviewCount,
		&card.CorrectCount,
		&card.IntervalIndex,
		&card.EaseFactor,
		&mastery,
		&card.PriorityScore,
		&times,
		&sourceID,
	)
	if err != nil {
		return nil, err
	}
	card.Difficulty = domain.Difficulty(difficulty)
	card.Mastery = domain.Mastery(mastery)
	if lastReview.Valid {
		t := lastReview.Time
		card.LastReview = &t
	}
	if sourceID.Valid {
		card.SourceID = sourceID.Int64
	}
	if err := json.Unmarshal([]byte(times), &card.ResponseTimes); err != nil {
		return nil, fmt.Errorf("decoding response times: %w", err)
	}
	return &card, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullSourceID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}
