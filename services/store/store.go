package store

import (
	"os"
	"path/filepath"
	"time"

	"sjsage522/dealmonitor/internal/crawler"
	apperrors "sjsage522/dealmonitor/pkg/errors"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// The deals table is the durable contract: deal_id and link are each
// globally unique, and inserting a conflicting record is a no-op.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS deals (
		deal_id TEXT PRIMARY KEY,
		search_term TEXT NOT NULL,
		title TEXT NOT NULL,
		price TEXT,
		likes INTEGER DEFAULT 0,
		comments INTEGER DEFAULT 0,
		platform TEXT,
		link TEXT UNIQUE NOT NULL,
		first_seen TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_term ON deals (search_term)`,
	`CREATE INDEX IF NOT EXISTS idx_first_seen ON deals (first_seen)`,
}

// dealRow mirrors the deals table layout
type dealRow struct {
	DealID     string `db:"deal_id"`
	SearchTerm string `db:"search_term"`
	Title      string `db:"title"`
	Price      string `db:"price"`
	Likes      int    `db:"likes"`
	Comments   int    `db:"comments"`
	Platform   string `db:"platform"`
	Link       string `db:"link"`
	FirstSeen  string `db:"first_seen"`
}

// open opens a fresh connection to the SQLite file. Every store operation
// uses its own connection so that each call stays independently
// transactional.
func open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorage("failed to open database", err)
	}
	return db, nil
}

// Init creates the backing file, schema, and intermediate directories if
// absent. Safe to call on every process start.
func Init(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.NewStorage("failed to create storage directory", err)
		}
	}

	db, err := open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return apperrors.NewStorage("failed to create schema", err)
		}
	}
	return nil
}

// LoadSeenIDs scans all stored deal identities, used to seed the worker's
// in-memory seen set at startup
func LoadSeenIDs(path string) (map[string]struct{}, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var ids []string
	if err := db.Select(&ids, "SELECT deal_id FROM deals"); err != nil {
		return nil, apperrors.NewStorage("failed to load seen IDs", err)
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// InsertDeal writes a deal if neither its identity nor its link exists yet
// and reports whether a new row was written. A uniqueness conflict is the
// expected no-op path, not an error. first_seen is assigned here, at
// insertion time.
func InsertDeal(path string, deal crawler.Deal, term string) (bool, error) {
	db, err := open(path)
	if err != nil {
		return false, err
	}
	defer db.Close()

	row := dealRow{
		DealID:     deal.ID,
		SearchTerm: term,
		Title:      deal.Title,
		Price:      deal.Price,
		Likes:      deal.Likes,
		Comments:   deal.Comments,
		Platform:   deal.Platform,
		Link:       deal.Link,
		FirstSeen:  time.Now().Format("2006-01-02 15:04:05"),
	}

	res, err := db.NamedExec(`INSERT OR IGNORE INTO deals (
		deal_id, search_term, title, price, likes, comments, platform, link, first_seen
	) VALUES (
		:deal_id, :search_term, :title, :price, :likes, :comments, :platform, :link, :first_seen
	)`, row)
	if err != nil {
		return false, apperrors.NewStorage("failed to insert deal", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewStorage("failed to read insert result", err)
	}
	return rows > 0, nil
}

// CountDeals returns the number of stored deals, for diagnostics
func CountDeals(path string) (int, error) {
	db, err := open(path)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM deals"); err != nil {
		return 0, apperrors.NewStorage("failed to count deals", err)
	}
	return count, nil
}
