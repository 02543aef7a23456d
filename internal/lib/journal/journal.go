// Package journal keeps an append-only SQLite record of farm operations and periodic pool snapshots.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Schema versions:
// 0 - initial schema
// 1 - pool_snapshots.last_accrual
const currentSchemaVersion = 1

type Journal struct {
	db *sql.DB
}

// Entry is one recorded operation. Err is empty for operations that committed.
type Entry struct {
	ID       string
	Recorded time.Time
	Clock    uint64
	Op       string
	Caller   string
	Args     map[string]any
	Err      string
}

func (e Entry) Failed() bool {
	return e.Err != ""
}

// PoolSnapshot is the state of one pool at the time a snapshot was taken. All pools captured together share
// a SnapshotID.
type PoolSnapshot struct {
	SnapshotID        string
	Taken             time.Time
	Clock             uint64
	Pool              uint64
	Asset             string
	AllocWeight       uint64
	DepositFeeBps     uint64
	LastAccrualClock  uint64
	AccRewardPerShare string
	TotalStaked       uint64
}

// Open creates or opens the journal database at path and applies pragmas and migrations.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func applyPragmas(db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 adds last_accrual to snapshot tables created before it existed.
func migrateToV1(db *sql.DB) error {
	rows, err := db.Query("PRAGMA table_info(pool_snapshots)")
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	found := false
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return fmt.Errorf("migrate to v1: %w", err)
		}
		found = found || name == "last_accrual"
	}
	rows.Close()
	if found {
		return nil
	}
	if _, err = db.Exec("ALTER TABLE pool_snapshots ADD COLUMN last_accrual INTEGER NOT NULL DEFAULT 0"); err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// Record appends e, assigning an id and timestamp when they are unset. It returns the entry id.
func (j *Journal) Record(ctx context.Context, e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Recorded.IsZero() {
		e.Recorded = time.Now()
	}
	args := []byte("{}")
	if len(e.Args) > 0 {
		var err error
		if args, err = json.Marshal(e.Args); err != nil {
			return "", fmt.Errorf("encode args of %s: %w", e.Op, err)
		}
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO operations (id, recorded, clock, op, caller, args, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Recorded.UnixMilli(), int64(e.Clock), e.Op, e.Caller, string(args), e.Err)
	if err != nil {
		return "", fmt.Errorf("insert operation %s: %w", e.Op, err)
	}
	return e.ID, nil
}

// RecordPools writes one snapshot row per pool under a fresh snapshot id, in a single transaction.
func (j *Journal) RecordPools(ctx context.Context, pools []PoolSnapshot) (string, error) {
	id := uuid.NewString()
	taken := time.Now()
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()
	for _, p := range pools {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pool_snapshots (snapshot_id, taken, clock, pool, asset, alloc_weight, deposit_fee_bps,
			                            last_accrual, acc_per_share, total_staked)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, taken.UnixMilli(), int64(p.Clock), int64(p.Pool), p.Asset, int64(p.AllocWeight),
			int64(p.DepositFeeBps), int64(p.LastAccrualClock), p.AccRewardPerShare, int64(p.TotalStaked))
		if err != nil {
			return "", fmt.Errorf("insert snapshot of pool %d: %w", p.Pool, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit snapshot: %w", err)
	}
	return id, nil
}
