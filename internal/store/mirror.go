package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/amcdrill/internal/persist"
)

// MirrorRepo stores the per-user statistics mirror as a JSON document.
type MirrorRepo struct {
	drv *entsql.Driver
}

var _ persist.StatsMirror = (*MirrorRepo)(nil)

// Get returns the stats for user, or zero stats if none are stored.
func (r *MirrorRepo) Get(ctx context.Context, user string) (persist.MirrorStats, error) {
	query, args := builder.Select("data").
		From(entsql.Table("user_stats")).
		Where(entsql.EQ("username", user)).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return persist.MirrorStats{}, fmt.Errorf("query user stats: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return persist.MirrorStats{}, rows.Err()
	}
	var data string
	if err := rows.Scan(&data); err != nil {
		return persist.MirrorStats{}, fmt.Errorf("scan user stats: %w", err)
	}
	var stats persist.MirrorStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return persist.MirrorStats{}, fmt.Errorf("decode user stats: %w", err)
	}
	return stats, nil
}

// Set replaces the stats for user.
func (r *MirrorRepo) Set(ctx context.Context, user string, stats persist.MirrorStats) error {
	if stats.Sessions == nil {
		stats.Sessions = []json.RawMessage{}
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode user stats: %w", err)
	}
	query, args := builder.Insert("user_stats").
		Columns("username", "data", "updated_at").
		Values(user, string(data), time.Now().UnixMilli()).
		OnConflict(entsql.ConflictColumns("username"), entsql.ResolveWithNewValues()).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("upsert user stats: %w", err)
	}
	return nil
}

// Delete removes the stats for user. Deleting a missing user is not an error.
func (r *MirrorRepo) Delete(ctx context.Context, user string) error {
	query, args := builder.Delete("user_stats").Where(entsql.EQ("username", user)).Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete user stats: %w", err)
	}
	return nil
}
