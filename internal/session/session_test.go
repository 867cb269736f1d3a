package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"taskdeck/internal/models"
	"taskdeck/internal/store"
)

func openStore(t *testing.T, path string) *store.Store {
	t.Helper()
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// makeJWT builds an unsigned token with the given expiry, enough for the
// client-side exp check which never verifies signatures.
func makeJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	enc := func(v any) string {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		return base64.RawURLEncoding.EncodeToString(raw)
	}
	header := enc(map[string]string{"alg": "none", "typ": "JWT"})
	claims := enc(map[string]int64{"exp": exp.Unix()})
	return header + "." + claims + "."
}

func TestBeginPersistsAcrossResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	st := openStore(t, path)

	sess, err := Resume(st)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if sess.Active() {
		t.Fatal("fresh store must start unauthenticated")
	}

	user := models.User{ID: 3, Username: "amy", FullName: "Amy Santiago"}
	if err := sess.Begin("persisted-token", user); err != nil {
		t.Fatalf("begin: %v", err)
	}

	restored, err := Resume(st)
	if err != nil {
		t.Fatalf("second resume: %v", err)
	}
	if !restored.Active() {
		t.Fatal("persisted session not restored")
	}
	if restored.User().Username != "amy" {
		t.Fatalf("restored user = %+v", restored.User())
	}
	token, err := restored.Token()
	if err != nil || token != "persisted-token" {
		t.Fatalf("restored token = %q, %v", token, err)
	}
}

func TestEndClearsPersistedState(t *testing.T) {
	st := openStore(t, filepath.Join(t.TempDir(), "state.db"))

	sess, _ := Resume(st)
	if err := sess.Begin("tok", models.User{ID: 1, Username: "amy"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := sess.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if sess.Active() {
		t.Fatal("session still active after end")
	}
	if _, err := sess.Token(); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}

	restored, _ := Resume(st)
	if restored.Active() {
		t.Fatal("ended session came back on resume")
	}
}

func TestExpiredCredentialRejectedLocally(t *testing.T) {
	st := openStore(t, filepath.Join(t.TempDir(), "state.db"))

	sess, _ := Resume(st)
	stale := makeJWT(t, time.Now().Add(-time.Hour))
	if err := sess.Begin(stale, models.User{ID: 1, Username: "amy"}); err != nil {
		t.Fatalf("begin: %v", err)
	}

	if _, err := sess.Token(); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	// Expiry does not deactivate the session; the UI decides what to do.
	if !sess.Active() {
		t.Fatal("expiry must not flip Active")
	}
}

func TestFutureExpiryAccepted(t *testing.T) {
	st := openStore(t, filepath.Join(t.TempDir(), "state.db"))

	sess, _ := Resume(st)
	fresh := makeJWT(t, time.Now().Add(time.Hour))
	sess.Begin(fresh, models.User{ID: 1, Username: "amy"})

	if _, err := sess.Token(); err != nil {
		t.Fatalf("unexpired credential rejected: %v", err)
	}
}

func TestOpaqueTokenLeftToBackend(t *testing.T) {
	st := openStore(t, filepath.Join(t.TempDir(), "state.db"))

	sess, _ := Resume(st)
	sess.Begin("not-a-jwt", models.User{ID: 1, Username: "amy"})

	if _, err := sess.Token(); err != nil {
		t.Fatalf("opaque token rejected client-side: %v", err)
	}
}

func TestCorruptPersistedUserStartsUnauthenticated(t *testing.T) {
	st := openStore(t, filepath.Join(t.TempDir(), "state.db"))

	if err := st.SetSetting("token", "tok"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetSetting("user", "{not json"); err != nil {
		t.Fatal(err)
	}

	sess, err := Resume(st)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if sess.Active() {
		t.Fatal("corrupt state must not produce an active session")
	}
	if raw, _ := st.GetSetting("token"); raw != "" {
		t.Fatal("corrupt credential was not cleared")
	}
}
