package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/amcdrill/internal/grading"
	"github.com/abhisek/amcdrill/internal/persist"
)

// SessionRecord is one journaled session.
type SessionRecord struct {
	SessionID   string
	Sequence    int64
	User        string
	Contest     string
	Year        int
	Mode        string
	Score       int
	Attempted   int
	TotalTime   time.Duration
	CompletedAt time.Time
}

// Totals aggregates a user's journaled sessions.
type Totals struct {
	Sessions  int
	BestScore int
	Attempted int
	Correct   int
	TotalTime time.Duration
}

// Accuracy returns Correct/Attempted, or 0 with no attempts.
func (t Totals) Accuracy() float64 {
	if t.Attempted == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Attempted)
}

// SessionRepo journals finished sessions and their attempts. It implements
// persist.Saver so it can serve as the offline persistence collaborator;
// saving the same session id twice is a no-op.
type SessionRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

var _ persist.Saver = (*SessionRepo)(nil)

var sessionColumns = []string{
	"session_id", "sequence", "username", "contest", "year", "mode",
	"score", "attempted", "total_time_ms", "completed_at",
}

func (r *SessionRepo) SaveSession(ctx context.Context, user string, p persist.Payload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal session payload: %w", err)
	}
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}

	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := r.insert(ctx, tx, user, seqNum, p, payload); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, fmt.Errorf("rollback session %s: %w", p.SessionID, rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session %s: %w", p.SessionID, err)
	}
	return nil
}

func (r *SessionRepo) insert(ctx context.Context, tx dialect.Tx, user string, seqNum int64, p persist.Payload, payload []byte) error {
	query, args := builder.Insert("sessions").
		Columns(append(sessionColumns, "payload")...).
		Values(p.SessionID, seqNum, user, p.Contest, p.Year, p.Mode,
			p.Score, p.Attempted, p.TotalTimeMs, p.CompletedAt.UnixMilli(), string(payload)).
		OnConflict(entsql.ConflictColumns("session_id"), entsql.DoNothing()).
		Query()

	var res entsql.Result
	if err := tx.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("insert session %s: %w", p.SessionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already journaled.
		return nil
	}
	if len(p.ProblemsAttempted) == 0 {
		return nil
	}

	ins := builder.Insert("attempts").Columns(
		"session_id", "ordinal", "problem_id", "choice", "correct",
		"time_spent_ms", "answered_at", "difficulty", "topics",
	)
	for _, a := range p.ProblemsAttempted {
		topics, err := json.Marshal(nonNil(a.Topics))
		if err != nil {
			return fmt.Errorf("marshal topics: %w", err)
		}
		ins.Values(p.SessionID, a.Ordinal, a.ProblemID, a.Choice, a.Correct,
			a.TimeSpentMs, a.Timestamp.UnixMilli(), a.Difficulty, string(topics))
	}
	query, args = ins.Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("insert attempts for %s: %w", p.SessionID, err)
	}
	return nil
}

// Recent returns up to limit sessions for user, newest first. A
// non-positive limit returns all sessions.
func (r *SessionRepo) Recent(ctx context.Context, user string, limit int) ([]SessionRecord, error) {
	sel := builder.Select(sessionColumns...).
		From(entsql.Table("sessions")).
		Where(entsql.EQ("username", user)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var totalMs, completedMs int64
		if err := rows.Scan(&rec.SessionID, &rec.Sequence, &rec.User, &rec.Contest, &rec.Year,
			&rec.Mode, &rec.Score, &rec.Attempted, &totalMs, &completedMs); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.TotalTime = time.Duration(totalMs) * time.Millisecond
		rec.CompletedAt = time.UnixMilli(completedMs).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Attempts returns the journaled attempts of a session in order.
func (r *SessionRepo) Attempts(ctx context.Context, sessionID string) ([]grading.AttemptRecord, error) {
	query, args := builder.Select(
		"ordinal", "problem_id", "choice", "correct", "time_spent_ms", "answered_at", "difficulty", "topics",
	).
		From(entsql.Table("attempts")).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("ordinal").
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []grading.AttemptRecord
	for rows.Next() {
		var a grading.AttemptRecord
		var answeredMs int64
		var topics string
		if err := rows.Scan(&a.Ordinal, &a.ProblemID, &a.Choice, &a.Correct, &a.TimeSpentMs,
			&answeredMs, &a.Difficulty, &topics); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Timestamp = time.UnixMilli(answeredMs).UTC()
		if err := json.Unmarshal([]byte(topics), &a.Topics); err != nil {
			return nil, fmt.Errorf("decode topics: %w", err)
		}
		if len(a.Topics) == 0 {
			a.Topics = nil
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Totals aggregates all of user's journaled sessions.
func (r *SessionRepo) Totals(ctx context.Context, user string) (Totals, error) {
	query, args := builder.Select(
		entsql.Count("*"),
		fmt.Sprintf("COALESCE(%s, 0)", entsql.Max("score")),
		fmt.Sprintf("COALESCE(%s, 0)", entsql.Sum("attempted")),
		fmt.Sprintf("COALESCE(%s, 0)", entsql.Sum("score")),
		fmt.Sprintf("COALESCE(%s, 0)", entsql.Sum("total_time_ms")),
	).
		From(entsql.Table("sessions")).
		Where(entsql.EQ("username", user)).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return Totals{}, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	var t Totals
	var totalMs int64
	if rows.Next() {
		if err := rows.Scan(&t.Sessions, &t.BestScore, &t.Attempted, &t.Correct, &totalMs); err != nil {
			return Totals{}, fmt.Errorf("scan totals: %w", err)
		}
	}
	t.TotalTime = time.Duration(totalMs) * time.Millisecond
	return t, rows.Err()
}

// DeleteUser removes every journaled session of user along with its
// attempts and returns the number of sessions deleted.
func (r *SessionRepo) DeleteUser(ctx context.Context, user string) (int64, error) {
	owned := builder.Select("session_id").
		From(entsql.Table("sessions")).
		Where(entsql.EQ("username", user))

	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	query, args := builder.Delete("attempts").Where(entsql.In("session_id", owned)).Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("delete attempts: %w", err)
	}
	query, args = builder.Delete("sessions").Where(entsql.EQ("username", user)).Query()
	var res entsql.Result
	if err := tx.Exec(ctx, query, args, &res); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return res.RowsAffected()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
