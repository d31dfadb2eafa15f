package storage

const schema = `
-- Per-card scheduling state. next_review is indexed because the due
-- query scans it on every session build.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    answer TEXT NOT NULL DEFAULT '',
    context TEXT NOT NULL DEFAULT '',
    section TEXT NOT NULL DEFAULT 'general',
    difficulty TEXT NOT NULL DEFAULT 'intermediate',
    created_at DATETIME NOT NULL,
    last_review DATETIME,
    next_review DATETIME NOT NULL,
    review_count INTEGER NOT NULL DEFAULT 0,
    correct_count INTEGER NOT NULL DEFAULT 0,
    interval_index INTEGER NOT NULL DEFAULT 0,
    ease_factor REAL NOT NULL DEFAULT 2.5,
    mastery TEXT NOT NULL DEFAULT 'learning',
    priority_score REAL NOT NULL DEFAULT 1.0,
    response_times TEXT NOT NULL DEFAULT '[]',
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

CREATE INDEX IF NOT EXISTS idx_cards_next_review ON cards(next_review);

-- Append-only review history, kept for streaks and analytics. The
-- cards table stays the source of truth for scheduling state.
CREATE TABLE IF NOT EXISTS review_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id TEXT NOT NULL,
    reviewed_at DATETIME NOT NULL,
    correct INTEGER NOT NULL,
    response_time REAL NOT NULL,

    FOREIGN KEY(card_id) REFERENCES cards(id)
);

-- Note sources: local directories or git repositories.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME
);
`
