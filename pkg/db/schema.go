package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Saved items: one row per deduplicated clip id
CREATE TABLE IF NOT EXISTS saved_items (
    item_id TEXT PRIMARY KEY,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Saves: every attempt to send a clip to Notion
CREATE TABLE IF NOT EXISTS saves (
    save_id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id TEXT,
    title TEXT NOT NULL,
    source_url TEXT,
    notion_page_id TEXT,
    status TEXT NOT NULL,         -- saved, failed, dry-run, duplicate
    error_message TEXT,

    -- Pack statistics
    block_count INTEGER DEFAULT 0,
    paragraph_count INTEGER DEFAULT 0,
    image_count INTEGER DEFAULT 0,
    notice_count INTEGER DEFAULT 0,
    char_count INTEGER DEFAULT 0,
    truncated BOOLEAN DEFAULT 0,
    images_stripped BOOLEAN DEFAULT 0,

    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_saves_created ON saves(created_at);
CREATE INDEX IF NOT EXISTS idx_saves_status ON saves(status);
CREATE INDEX IF NOT EXISTS idx_saves_item ON saves(item_id);
`
