package store

import (
	"path/filepath"
	"testing"
	"time"

	"taskdeck/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSettingsRoundTrip(t *testing.T) {
	st := openTestStore(t)

	if v, err := st.GetSetting("missing"); err != nil || v != "" {
		t.Fatalf("missing key: %q, %v", v, err)
	}

	if err := st.SetSetting("token", "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.SetSetting("token", "def"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _ := st.GetSetting("token"); v != "def" {
		t.Fatalf("got %q, want def", v)
	}

	if err := st.DeleteSetting("token"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if v, _ := st.GetSetting("token"); v != "" {
		t.Fatalf("delete left %q behind", v)
	}
}

func TestUserCacheReplacesWholesale(t *testing.T) {
	st := openTestStore(t)

	first := []models.User{
		{ID: 1, Username: "amy", Email: "amy@example.com", FullName: "Amy Santiago"},
		{ID: 2, Username: "jake", Email: "jake@example.com"},
	}
	if err := st.SaveUsers(first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := []models.User{
		{ID: 3, Username: "rosa", Email: "rosa@example.com"},
	}
	if err := st.SaveUsers(second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	cached, err := st.CachedUsers()
	if err != nil {
		t.Fatalf("cached users: %v", err)
	}
	if len(cached) != 1 || cached[0].Username != "rosa" {
		t.Fatalf("cache not replaced: %+v", cached)
	}
}

func TestSnapshotPreservesOrderAndSkipsOptimistic(t *testing.T) {
	st := openTestStore(t)

	review := models.ReviewApproved
	now := time.Now().UTC().Truncate(time.Second)
	assignee := int64(2)
	tasks := []models.Task{
		{ID: 5, Title: "Second lane", Status: models.StatusInReview, Priority: models.PriorityHigh,
			ReviewStatus: &review, AssigneeID: &assignee, CreatedAt: now},
		{ID: -1, Title: "Uncommitted", Status: models.StatusTodo, Priority: models.PriorityLow, CreatedAt: now},
		{ID: 3, Title: "First lane", Status: models.StatusTodo, Priority: models.PriorityMedium, CreatedAt: now},
	}
	if err := st.SaveSnapshot(tasks); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	got, err := st.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("optimistic entry persisted: %+v", got)
	}
	if got[0].ID != 5 || got[1].ID != 3 {
		t.Fatalf("board order lost: %d, %d", got[0].ID, got[1].ID)
	}
	if got[0].ReviewStatus == nil || *got[0].ReviewStatus != models.ReviewApproved {
		t.Fatalf("review status lost: %+v", got[0].ReviewStatus)
	}
	if got[0].AssigneeID == nil || *got[0].AssigneeID != 2 {
		t.Fatalf("assignee lost: %+v", got[0].AssigneeID)
	}
}

func TestSnapshotOverwrites(t *testing.T) {
	st := openTestStore(t)
	now := time.Now().UTC()

	st.SaveSnapshot([]models.Task{
		{ID: 1, Title: "old", Status: models.StatusTodo, Priority: models.PriorityLow, CreatedAt: now},
	})
	st.SaveSnapshot([]models.Task{
		{ID: 2, Title: "new", Status: models.StatusTodo, Priority: models.PriorityLow, CreatedAt: now},
	})

	got, err := st.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("snapshot not replaced: %+v", got)
	}
}
