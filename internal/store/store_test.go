package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenAndClose(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "subdir", "nested", "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()
}

func TestCloseNilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil db should not error: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.InsertCommit(&CommitRecord{Text: "你好"}); err != nil {
		t.Fatalf("InsertCommit failed: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 commit after reopen, got %d", n)
	}
}

func TestInsertAndGetCommit(t *testing.T) {
	s := openTestStore(t)

	created := time.Unix(1700000000, 42)
	rec := &CommitRecord{
		Text:      "你好",
		Preedit:   "ni hao",
		SchemaID:  "luna_pinyin",
		Session:   7,
		CreatedAt: created,
	}
	id, err := s.InsertCommit(rec)
	if err != nil {
		t.Fatalf("InsertCommit failed: %v", err)
	}
	if rec.ID != id {
		t.Errorf("ID not set on record: %d vs %d", rec.ID, id)
	}

	got, err := s.GetCommit(id)
	if err != nil {
		t.Fatalf("GetCommit failed: %v", err)
	}
	if got.Text != "你好" || got.Preedit != "ni hao" || got.SchemaID != "luna_pinyin" || got.Session != 7 {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
}

func TestGetCommitNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetCommit(99); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertSetsCreatedAt(t *testing.T) {
	s := openTestStore(t)
	rec := &CommitRecord{Text: "中"}
	if _, err := s.InsertCommit(rec); err != nil {
		t.Fatalf("InsertCommit failed: %v", err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt was not set")
	}
}

func insertAt(t *testing.T, s *Store, text, schema string, at time.Time) {
	t.Helper()
	if _, err := s.InsertCommit(&CommitRecord{Text: text, SchemaID: schema, CreatedAt: at}); err != nil {
		t.Fatalf("InsertCommit failed: %v", err)
	}
}

func TestRecentCommits(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)
	insertAt(t, s, "一", "luna_pinyin", base)
	insertAt(t, s, "二", "cangjie5", base.Add(time.Second))
	insertAt(t, s, "三", "luna_pinyin", base.Add(2*time.Second))

	all, err := s.RecentCommits("", 10)
	if err != nil {
		t.Fatalf("RecentCommits failed: %v", err)
	}
	if len(all) != 3 || all[0].Text != "三" || all[2].Text != "一" {
		t.Errorf("unexpected order: %+v", all)
	}

	luna, err := s.RecentCommits("luna_pinyin", 1)
	if err != nil {
		t.Fatalf("RecentCommits failed: %v", err)
	}
	if len(luna) != 1 || luna[0].Text != "三" {
		t.Errorf("unexpected filtered result: %+v", luna)
	}
}

func TestTopCommits(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)
	for i, text := range []string{"你", "好", "你", "你", "好", "中"} {
		insertAt(t, s, text, "", base.Add(time.Duration(i)*time.Second))
	}

	top, err := s.TopCommits(2)
	if err != nil {
		t.Fatalf("TopCommits failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(top))
	}
	if top[0].Text != "你" || top[0].Count != 3 {
		t.Errorf("unexpected first row: %+v", top[0])
	}
	if top[1].Text != "好" || top[1].Count != 2 {
		t.Errorf("unexpected second row: %+v", top[1])
	}
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)
	for i := 0; i < 5; i++ {
		insertAt(t, s, "字", "", base.Add(time.Duration(i)*time.Second))
	}

	deleted, err := s.Prune(2)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}
	n, _ := s.Count()
	if n != 2 {
		t.Errorf("expected 2 remaining, got %d", n)
	}
}

func TestDeleteBefore(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)
	insertAt(t, s, "旧", "", base)
	insertAt(t, s, "新", "", base.Add(time.Hour))

	deleted, err := s.DeleteBefore(base.Add(time.Minute))
	if err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
}

func TestMigrationStatusAndRollback(t *testing.T) {
	s := openTestStore(t)

	status, err := s.MigrationStatus()
	if err != nil {
		t.Fatalf("MigrationStatus failed: %v", err)
	}
	if status.CurrentVersion != len(migrations) || len(status.Pending) != 0 {
		t.Errorf("unexpected status: %+v", status)
	}

	if err := RollbackMigration(s.db); err != nil {
		t.Fatalf("RollbackMigration failed: %v", err)
	}
	status, _ = GetMigrationStatus(s.db)
	if status.CurrentVersion != len(migrations)-1 || len(status.Pending) != 1 {
		t.Errorf("unexpected status after rollback: %+v", status)
	}

	if err := MigrateDB(s.db); err != nil {
		t.Fatalf("re-migrate failed: %v", err)
	}
	if _, err := s.InsertCommit(&CommitRecord{Text: "好", Preedit: "hao"}); err != nil {
		t.Fatalf("insert after re-migrate failed: %v", err)
	}
}
