package board

import (
	"context"
	"errors"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"taskdeck/internal/api"
	"taskdeck/internal/models"
	"taskdeck/internal/session"
	"taskdeck/internal/store"
)

func newTestModel(t *testing.T, handler http.Handler) *Model {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	sess, err := session.Resume(st)
	if err != nil {
		t.Fatalf("resume session: %v", err)
	}
	if err := sess.Begin("test-token", models.User{ID: 1, Username: "amy"}); err != nil {
		t.Fatalf("begin session: %v", err)
	}

	return NewModel(api.New(srv.URL, sess))
}

func seedTasks() []models.Task {
	return []models.Task{
		{ID: 1, Title: "Write release notes", Status: models.StatusTodo, Priority: models.PriorityMedium},
		{ID: 2, Title: "Fix flaky test", Status: models.StatusTodo, Priority: models.PriorityHigh},
		{ID: 3, Title: "Review PR", Status: models.StatusInProgress, Priority: models.PriorityLow},
	}
}

func laneIDs(m *Model, status models.Status) []int64 {
	var ids []int64
	for _, t := range m.Lane(status) {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestMoveSameLaneIsNoOp(t *testing.T) {
	var calls atomic.Int64
	m := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	m.Replace(seedTasks())

	p, err := m.Move(1, models.StatusTodo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Fatal("same-lane move should not stage a pending commit")
	}
	if got := calls.Load(); got != 0 {
		t.Fatalf("expected no requests, got %d", got)
	}
	if ids := laneIDs(m, models.StatusTodo); len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("lane order changed: %v", ids)
	}
}

func TestMoveAppliesOptimisticallyAndRollsBack(t *testing.T) {
	m := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "database unavailable"})
	}))
	m.Replace(seedTasks())

	p, err := m.Move(1, models.StatusInProgress)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if got, _ := m.Get(1); got.Status != models.StatusInProgress {
		t.Fatalf("expected optimistic status in_progress, got %s", got.Status)
	}

	res := m.Commit(context.Background(), p)
	if res.Err == nil {
		t.Fatal("expected commit failure")
	}

	next, err := m.Resolve(res)
	if next != nil {
		t.Fatal("nothing was queued, expected no follow-up pending")
	}
	var me *MutationError
	if !errors.As(err, &me) {
		t.Fatalf("expected MutationError, got %v", err)
	}
	if me.TaskTitle != "Write release notes" {
		t.Fatalf("wrong task title in error: %q", me.TaskTitle)
	}
	if ids := laneIDs(m, models.StatusTodo); len(ids) != 2 || ids[0] != 1 {
		t.Fatalf("rollback did not restore lane position: %v", ids)
	}
}

func TestCreateAdoptsServerRecord(t *testing.T) {
	m := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec struct {
			Title string `json:"title"`
		}
		json.NewDecoder(r.Body).Decode(&rec)
		json.NewEncoder(w).Encode(models.Task{
			ID:       42,
			Title:    rec.Title,
			Status:   models.StatusTodo,
			Priority: models.PriorityHigh,
		})
	}))

	p, err := m.Create(models.Task{
		Title:    "Fix login bug",
		Status:   models.StatusTodo,
		Priority: models.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	lane := m.Lane(models.StatusTodo)
	if len(lane) != 1 || lane[0].Title != "Fix login bug" {
		t.Fatalf("optimistic task missing: %+v", lane)
	}
	if lane[0].ID >= 0 {
		t.Fatalf("optimistic task should have a temporary negative id, got %d", lane[0].ID)
	}

	res := m.Commit(context.Background(), p)
	if _, err := m.Resolve(res); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, ok := m.Get(42); !ok {
		t.Fatal("server id not adopted")
	}
	for _, task := range m.Tasks() {
		if task.ID < 0 {
			t.Fatalf("temporary id survived adoption: %d", task.ID)
		}
	}
}

func TestCreateFailureRemovesOptimisticTask(t *testing.T) {
	m := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "title already exists"})
	}))

	p, err := m.Create(models.Task{
		Title:    "Fix login bug",
		Status:   models.StatusTodo,
		Priority: models.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res := m.Commit(context.Background(), p)
	_, err = m.Resolve(res)

	var me *MutationError
	if !errors.As(err, &me) || me.TaskTitle != "Fix login bug" {
		t.Fatalf("expected MutationError for the failed create, got %v", err)
	}
	if len(m.Tasks()) != 0 {
		t.Fatalf("optimistic task survived a failed create: %+v", m.Tasks())
	}
}

func TestRapidMovesCommitInSubmissionOrder(t *testing.T) {
	var patched []models.Status
	m := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status models.Status `json:"status"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		patched = append(patched, body.Status)
		json.NewEncoder(w).Encode(models.Task{
			ID:       1,
			Title:    "Write release notes",
			Status:   body.Status,
			Priority: models.PriorityMedium,
		})
	}))
	m.Replace(seedTasks())

	p1, err := m.Move(1, models.StatusInProgress)
	if err != nil || p1 == nil {
		t.Fatalf("first move: %v %v", p1, err)
	}

	// Second move while the first is in flight: queued, not staged.
	p2, err := m.Move(1, models.StatusInReview)
	if err != nil {
		t.Fatalf("second move: %v", err)
	}
	if p2 != nil {
		t.Fatal("second move should queue behind the in-flight commit")
	}

	next, err := m.Resolve(m.Commit(context.Background(), p1))
	if err != nil {
		t.Fatalf("resolve first: %v", err)
	}
	if next == nil {
		t.Fatal("queued move was not staged after the first resolved")
	}

	if next, err = m.Resolve(m.Commit(context.Background(), next)); err != nil || next != nil {
		t.Fatalf("resolve second: next=%v err=%v", next, err)
	}

	want := []models.Status{models.StatusInProgress, models.StatusInReview}
	if len(patched) != 2 || patched[0] != want[0] || patched[1] != want[1] {
		t.Fatalf("commits out of submission order: %v", patched)
	}
	if got, _ := m.Get(1); got.Status != models.StatusInReview {
		t.Fatalf("final status %s, want in_review", got.Status)
	}
}

func TestMoveQueuedBehindCreateCommitsAfterAdoption(t *testing.T) {
	var patches []string
	m := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var rec struct {
				Title string `json:"title"`
			}
			json.NewDecoder(r.Body).Decode(&rec)
			json.NewEncoder(w).Encode(models.Task{
				ID:       42,
				Title:    rec.Title,
				Status:   models.StatusTodo,
				Priority: models.PriorityHigh,
			})
		case http.MethodPatch:
			patches = append(patches, r.URL.Path)
			var body struct {
				Status models.Status `json:"status"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			json.NewEncoder(w).Encode(models.Task{
				ID:       42,
				Title:    "Fix login bug",
				Status:   body.Status,
				Priority: models.PriorityHigh,
			})
		}
	}))

	p1, err := m.Create(models.Task{
		Title:    "Fix login bug",
		Status:   models.StatusTodo,
		Priority: models.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tempID := m.Tasks()[0].ID

	// Move the optimistic card while its create is still in flight.
	p2, err := m.Move(tempID, models.StatusInProgress)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if p2 != nil {
		t.Fatal("move should queue behind the in-flight create")
	}

	next, err := m.Resolve(m.Commit(context.Background(), p1))
	if err != nil {
		t.Fatalf("resolve create: %v", err)
	}
	if next == nil {
		t.Fatalf("queued move was stranded after adoption; queued=%v inflight=%v", m.queued, m.inflight)
	}
	if next.change.Task.ID != 42 {
		t.Fatalf("queued move not re-keyed to the server id: %d", next.change.Task.ID)
	}

	if next, err = m.Resolve(m.Commit(context.Background(), next)); err != nil || next != nil {
		t.Fatalf("resolve move: next=%v err=%v", next, err)
	}

	if len(patches) != 1 || patches[0] != "/api/v1/tasks/42/status" {
		t.Fatalf("status patch never reached the backend: %v", patches)
	}
	if got, _ := m.Get(42); got.Status != models.StatusInProgress {
		t.Fatalf("final status %s, want in_progress", got.Status)
	}
	if len(m.queued) != 0 || len(m.inflight) != 0 {
		t.Fatalf("bookkeeping left behind: queued=%v inflight=%v", m.queued, m.inflight)
	}
}

func TestReplaceOrphansInflightCommits(t *testing.T) {
	m := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	m.Replace(seedTasks())

	p, err := m.Move(1, models.StatusInProgress)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	res := m.Commit(context.Background(), p)

	// A reload lands before the commit result does.
	fresh := []models.Task{
		{ID: 9, Title: "New world", Status: models.StatusTodo, Priority: models.PriorityLow},
	}
	m.Replace(fresh)

	next, _ := m.Resolve(res)
	if next != nil {
		t.Fatal("orphaned result must not dequeue anything")
	}
	if len(m.Tasks()) != 1 || m.Tasks()[0].ID != 9 {
		t.Fatalf("orphaned rollback corrupted the reloaded state: %+v", m.Tasks())
	}
}

func TestDeleteRollbackRestoresPosition(t *testing.T) {
	m := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"detail": "not the owner"})
	}))
	m.Replace(seedTasks())

	p, err := m.Delete(2)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ids := laneIDs(m, models.StatusTodo); len(ids) != 1 {
		t.Fatalf("optimistic delete did not remove the task: %v", ids)
	}

	if _, err = m.Resolve(m.Commit(context.Background(), p)); err == nil {
		t.Fatal("expected a mutation error")
	}

	ids := laneIDs(m, models.StatusTodo)
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("delete rollback lost the task's position: %v", ids)
	}
}

func TestValidationCountsRunesNotBytes(t *testing.T) {
	m := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec struct {
			Title string `json:"title"`
		}
		json.NewDecoder(r.Body).Decode(&rec)
		json.NewEncoder(w).Encode(models.Task{
			ID:       7,
			Title:    rec.Title,
			Status:   models.StatusTodo,
			Priority: models.PriorityLow,
		})
	}))

	// 200 two-byte runes: over the limit in bytes, exactly at it in characters.
	title := strings.Repeat("ü", models.MaxTitleLen)
	if _, err := m.Create(models.Task{Title: title, Status: models.StatusTodo, Priority: models.PriorityLow}); err != nil {
		t.Fatalf("multibyte title at the limit rejected: %v", err)
	}

	over := strings.Repeat("ü", models.MaxTitleLen+1)
	_, err := m.Create(models.Task{Title: over, Status: models.StatusTodo, Priority: models.PriorityLow})
	var ve *api.ValidationError
	if !errors.As(err, &ve) || ve.Field != "title" {
		t.Fatalf("expected title validation error, got %v", err)
	}
}

func TestValidationRejectsBeforeNetwork(t *testing.T) {
	var calls atomic.Int64
	m := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	cases := []models.Task{
		{Title: "   ", Status: models.StatusTodo, Priority: models.PriorityLow},
		{Title: "ok", Status: "parked", Priority: models.PriorityLow},
		{Title: "ok", Status: models.StatusTodo, Priority: "whenever"},
	}
	for _, c := range cases {
		if _, err := m.Create(c); err == nil {
			t.Fatalf("expected validation error for %+v", c)
		} else {
			var ve *api.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
		}
	}
	if got := calls.Load(); got != 0 {
		t.Fatalf("validation must reject before any request, got %d", got)
	}
	if len(m.Tasks()) != 0 {
		t.Fatal("rejected create left a task behind")
	}
}
