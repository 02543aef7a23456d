package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Filter narrows History. Zero values match everything.
type Filter struct {
	Op         string
	Caller     string
	FailedOnly bool
	// Limit keeps only the most recent entries.
	Limit int
}

// History returns recorded operations matching f, oldest first.
func (j *Journal) History(ctx context.Context, f Filter) ([]Entry, error) {
	query := `SELECT id, recorded, clock, op, caller, args, error FROM operations WHERE 1 = 1`
	var args []any
	if f.Op != "" {
		query += ` AND op = ?`
		args = append(args, f.Op)
	}
	if f.Caller != "" {
		query += ` AND caller = ?`
		args = append(args, f.Caller)
	}
	if f.FailedOnly {
		query += ` AND error != ''`
	}
	query += ` ORDER BY seq DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			recorded int64
			clock    int64
			rawArgs  string
		)
		if err := rows.Scan(&e.ID, &recorded, &clock, &e.Op, &e.Caller, &rawArgs, &e.Err); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		e.Recorded = time.UnixMilli(recorded)
		e.Clock = uint64(clock)
		if err := json.Unmarshal([]byte(rawArgs), &e.Args); err != nil {
			return nil, fmt.Errorf("decode args of %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	// newest first from the query, reverse to chronological
	for i, k := 0, len(entries)-1; i < k; i, k = i+1, k-1 {
		entries[i], entries[k] = entries[k], entries[i]
	}
	return entries, nil
}

// PoolHistory returns the snapshots of pool, oldest first, keeping at most limit of the most recent when
// limit is positive.
func (j *Journal) PoolHistory(ctx context.Context, pool uint64, limit int) ([]PoolSnapshot, error) {
	query := `
		SELECT snapshot_id, taken, clock, pool, asset, alloc_weight, deposit_fee_bps, last_accrual,
		       acc_per_share, total_staked
		FROM pool_snapshots
		WHERE pool = ?
		ORDER BY seq DESC`
	args := []any{int64(pool)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pool snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []PoolSnapshot{}
	for rows.Next() {
		var (
			s                                        PoolSnapshot
			taken, clock, id, weight, fee, last, stk int64
		)
		if err := rows.Scan(&s.SnapshotID, &taken, &clock, &id, &s.Asset, &weight, &fee, &last,
			&s.AccRewardPerShare, &stk); err != nil {
			return nil, fmt.Errorf("scan pool snapshot: %w", err)
		}
		s.Taken = time.UnixMilli(taken)
		s.Clock, s.Pool, s.AllocWeight = uint64(clock), uint64(id), uint64(weight)
		s.DepositFeeBps, s.LastAccrualClock, s.TotalStaked = uint64(fee), uint64(last), uint64(stk)
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool snapshots: %w", err)
	}
	for i, k := 0, len(snaps)-1; i < k; i, k = i+1, k-1 {
		snaps[i], snaps[k] = snaps[k], snaps[i]
	}
	return snaps, nil
}
