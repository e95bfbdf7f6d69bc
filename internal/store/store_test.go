package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/amcdrill/internal/grading"
	"github.com/abhisek/amcdrill/internal/persist"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	s, err := Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePayload(id string, score int, completed time.Time) persist.Payload {
	return persist.Payload{
		SessionID:   id,
		Score:       score,
		Attempted:   3,
		TotalTimeMs: 12000,
		Year:        2022,
		Contest:     "AMC 10A",
		Mode:        "practice",
		CompletedAt: completed,
		ProblemsAttempted: []grading.AttemptRecord{
			{Ordinal: 1, ProblemID: "p1", Choice: "A", Correct: true, TimeSpentMs: 4000, Timestamp: completed, Topics: []string{"algebra"}},
			{Ordinal: 2, ProblemID: "p2", Choice: "C", Correct: false, TimeSpentMs: 5000, Timestamp: completed, Difficulty: "hard"},
			{Ordinal: 3, ProblemID: "p3", Choice: "B", Correct: true, TimeSpentMs: 3000, Timestamp: completed},
		},
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here. It is tested with file-based DBs.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestFileDatabaseUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amcdrill.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"sessions", "attempts", "user_stats", "journal_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestSessionRepo_SaveAndRead(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	if err := repo.SaveSession(ctx, "amy", samplePayload("s1", 2, epoch)); err != nil {
		t.Fatalf("save: %v", err)
	}

	recent, err := repo.Recent(ctx, "amy", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("recent = %d sessions, want 1", len(recent))
	}
	got := recent[0]
	if got.SessionID != "s1" || got.Score != 2 || got.Attempted != 3 || got.Contest != "AMC 10A" || got.Year != 2022 {
		t.Errorf("unexpected record %+v", got)
	}
	if got.TotalTime != 12*time.Second {
		t.Errorf("TotalTime = %v, want 12s", got.TotalTime)
	}
	if !got.CompletedAt.Equal(epoch) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, epoch)
	}

	attempts, err := repo.Attempts(ctx, "s1")
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("attempts = %d, want 3", len(attempts))
	}
	if !attempts[0].Correct || attempts[1].Correct || attempts[1].Difficulty != "hard" {
		t.Errorf("unexpected attempts %+v", attempts)
	}
	if len(attempts[0].Topics) != 1 || attempts[0].Topics[0] != "algebra" {
		t.Errorf("topics = %v, want [algebra]", attempts[0].Topics)
	}
	if attempts[2].Topics != nil {
		t.Errorf("topics = %v, want nil", attempts[2].Topics)
	}
}

func TestSessionRepo_IdempotentOnSessionID(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.SaveSession(ctx, "amy", samplePayload("s1", 2+i, epoch)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	recent, err := repo.Recent(ctx, "amy", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("recent = %d sessions, want 1", len(recent))
	}
	if recent[0].Score != 2 {
		t.Errorf("score = %d, want first write (2) to win", recent[0].Score)
	}
	attempts, _ := repo.Attempts(ctx, "s1")
	if len(attempts) != 3 {
		t.Errorf("attempts = %d, want 3", len(attempts))
	}
}

func TestSessionRepo_FailedInsertRollsBack(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	p := samplePayload("s1", 2, epoch)
	p.ProblemsAttempted[1].Ordinal = 1
	if err := repo.SaveSession(ctx, "amy", p); err == nil {
		t.Fatal("expected duplicate ordinal to fail")
	}

	recent, err := repo.Recent(ctx, "amy", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("recent = %d sessions, want the failed save rolled back", len(recent))
	}

	// The id stays free for a clean retry.
	if err := repo.SaveSession(ctx, "amy", samplePayload("s1", 2, epoch)); err != nil {
		t.Fatalf("retry save: %v", err)
	}
}

func TestSessionRepo_RecentOrderAndTotals(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	for i, score := range []int{1, 3, 2} {
		p := samplePayload(string(rune('a'+i)), score, epoch.Add(time.Duration(i)*time.Hour))
		if err := repo.SaveSession(ctx, "amy", p); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := repo.SaveSession(ctx, "bob", samplePayload("z", 3, epoch)); err != nil {
		t.Fatalf("save: %v", err)
	}

	recent, err := repo.Recent(ctx, "amy", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].SessionID != "c" || recent[1].SessionID != "b" {
		t.Errorf("recent = %+v, want c then b", recent)
	}

	totals, err := repo.Totals(ctx, "amy")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	want := Totals{Sessions: 3, BestScore: 3, Attempted: 9, Correct: 6, TotalTime: 36 * time.Second}
	if totals != want {
		t.Errorf("totals = %+v, want %+v", totals, want)
	}
	if acc := totals.Accuracy(); acc < 0.66 || acc > 0.67 {
		t.Errorf("accuracy = %v", acc)
	}

	empty, err := repo.Totals(ctx, "nobody")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if empty != (Totals{}) {
		t.Errorf("empty totals = %+v", empty)
	}
}

func TestSessionRepo_DeleteUser(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	repo.SaveSession(ctx, "amy", samplePayload("s1", 1, epoch))
	repo.SaveSession(ctx, "bob", samplePayload("s2", 1, epoch))

	n, err := repo.DeleteUser(ctx, "amy")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if attempts, _ := repo.Attempts(ctx, "s1"); len(attempts) != 0 {
		t.Errorf("attempts for deleted session = %d", len(attempts))
	}
	if attempts, _ := repo.Attempts(ctx, "s2"); len(attempts) != 3 {
		t.Errorf("attempts for other user = %d, want 3", len(attempts))
	}
}

func TestMirrorRepo_GetSetDelete(t *testing.T) {
	s := openTestStore(t)
	repo := s.MirrorRepo()
	ctx := context.Background()

	stats, err := repo.Get(ctx, "amy")
	if err != nil {
		t.Fatalf("get (empty): %v", err)
	}
	if len(stats.Sessions) != 0 || stats.BestScore != nil || stats.LastSession != nil {
		t.Errorf("expected zero stats, got %+v", stats)
	}

	stats = stats.WithSession(samplePayload("s1", 4, epoch))
	if err := repo.Set(ctx, "amy", stats); err != nil {
		t.Fatalf("set: %v", err)
	}
	stats = stats.WithSession(samplePayload("s2", 2, epoch.Add(time.Hour)))
	if err := repo.Set(ctx, "amy", stats); err != nil {
		t.Fatalf("set (update): %v", err)
	}

	got, err := repo.Get(ctx, "amy")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Sessions) != 2 {
		t.Errorf("sessions = %d, want 2", len(got.Sessions))
	}
	if got.BestScore == nil || *got.BestScore != 4 {
		t.Errorf("best score = %v, want 4", got.BestScore)
	}
	if got.LastSession == nil || !got.LastSession.Equal(epoch.Add(time.Hour)) {
		t.Errorf("last session = %v", got.LastSession)
	}
	var stub map[string]any
	if err := json.Unmarshal(got.Sessions[0], &stub); err != nil || stub["session_id"] != "s1" {
		t.Errorf("stub = %s (%v)", got.Sessions[0], err)
	}

	if err := repo.Delete(ctx, "amy"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = repo.Get(ctx, "amy")
	if len(got.Sessions) != 0 {
		t.Errorf("sessions after delete = %d", len(got.Sessions))
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("AMCDRILL_DB", filepath.Join(dir, "custom", "x.db"))
	p, err := DefaultDBPath()
	if err != nil || p != filepath.Join(dir, "custom", "x.db") {
		t.Errorf("DefaultDBPath = %q, %v", p, err)
	}

	t.Setenv("AMCDRILL_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	if err != nil || p != filepath.Join(dir, "amcdrill", "amcdrill.db") {
		t.Errorf("DefaultDBPath = %q, %v", p, err)
	}
}
