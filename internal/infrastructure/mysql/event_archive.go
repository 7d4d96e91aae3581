package mysql

import (
	"context"
	"database/sql"
	"time"

	"live-auction/internal/config"
	"live-auction/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

const createAuctionEvents = `
    CREATE TABLE IF NOT EXISTS auction_events (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        item_id VARCHAR(64) NOT NULL,
        seq BIGINT UNSIGNED NOT NULL,
        event_type VARCHAR(32) NOT NULL,
        amount DECIMAL(20, 4) NOT NULL,
        bidder_id VARCHAR(128) NULL,
        server_time DATETIME(3) NOT NULL,
        created_at DATETIME(3) NOT NULL,
        UNIQUE KEY uniq_item_seq (item_id, seq)
    )
`

// EventArchive writes every auction event to an append-only audit table.
// Nothing is ever read back to serve bids.
type EventArchive struct {
	db  *sql.DB
	now func() time.Time
}

func NewEventArchive(db *sql.DB) *EventArchive {
	return &EventArchive{db: db, now: time.Now}
}

// Open connects, applies pool settings and pings.
func Open(ctx context.Context, cfg config.MySQLConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (a *EventArchive) EnsureSchema(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, createAuctionEvents)
	return err
}

func (a *EventArchive) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	query := `
        INSERT IGNORE INTO auction_events (item_id, seq, event_type, amount, bidder_id, server_time, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := a.db.ExecContext(ctx, query, archiveArgs(event, a.now())...)
	return err
}

func archiveArgs(event *domain.AuctionEvent, now time.Time) []interface{} {
	var bidder sql.NullString
	if event.BidderID != nil {
		bidder = sql.NullString{String: *event.BidderID, Valid: true}
	}
	return []interface{}{
		event.ItemID,
		event.Seq,
		string(event.Type),
		event.Amount.String(),
		bidder,
		event.ServerTime.UTC(),
		now.UTC(),
	}
}
