package account

import (
	"testing"

	"github.com/sadopc/taskr/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, d *Directory, name, email, password string) *store.User {
	t.Helper()
	u, err := d.AddUser(store.User{Name: name, Email: email, Password: password, PhoneNo: "555-0100"})
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	return u
}

// ============================================================
// Directory
// ============================================================

func TestListUsersEmpty(t *testing.T) {
	d := NewDirectory(newTestStore(t))
	users, err := d.ListUsers()
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users, got %d", len(users))
	}
}

func TestAddUserAssignsIDs(t *testing.T) {
	d := NewDirectory(newTestStore(t))

	a, err := d.AddUser(store.User{ID: 99, Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != 1 {
		t.Fatalf("first user should get id 1 regardless of candidate, got %d", a.ID)
	}
	b := seedUser(t, d, "Bob", "bob@example.com", "pw")
	if b.ID != 2 {
		t.Fatalf("expected id 2, got %d", b.ID)
	}

	users, _ := d.ListUsers()
	if len(users) != 2 || users[0].Name != "Ada" || users[1].Name != "Bob" {
		t.Fatalf("expected insertion order, got %+v", users)
	}
}

func TestAddUserAllowsDuplicateEmail(t *testing.T) {
	d := NewDirectory(newTestStore(t))
	seedUser(t, d, "One", "same@example.com", "a")
	seedUser(t, d, "Two", "same@example.com", "b")

	users, _ := d.ListUsers()
	if len(users) != 2 {
		t.Fatalf("duplicate email should be accepted, got %d users", len(users))
	}
}

func TestListUsersCorrupt(t *testing.T) {
	s := newTestStore(t)
	s.Write(store.KeyUsers, []byte(`{"oops":true}`))
	d := NewDirectory(s)

	if _, err := d.ListUsers(); !store.IsStorage(err) {
		t.Fatalf("expected storage failure, got %v", err)
	}
	if _, err := d.AddUser(store.User{Name: "x"}); !store.IsStorage(err) {
		t.Fatalf("expected storage failure on add, got %v", err)
	}
	raw, _, _ := s.Read(store.KeyUsers)
	if string(raw) != `{"oops":true}` {
		t.Fatal("failed add must leave stored value untouched")
	}
}

// ============================================================
// Session
// ============================================================

func TestSessionStartsAnonymous(t *testing.T) {
	s := newTestStore(t)
	sess := NewSession(s, NewDirectory(s))

	if sess.IsAuthenticated() {
		t.Fatal("new session should be anonymous")
	}
	if _, ok := sess.CurrentUserID(); ok {
		t.Fatal("anonymous session should have no user id")
	}
	if sess.CurrentUser() != nil {
		t.Fatal("anonymous session should have no user")
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	s := newTestStore(t)
	d := NewDirectory(s)
	seedUser(t, d, "Ada", "ada@example.com", "secret")
	bob := seedUser(t, d, "Bob", "bob@example.com", "hunter2")
	sess := NewSession(s, d)

	u, err := sess.Authenticate("bob@example.com", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if u == nil || u.ID != bob.ID {
		t.Fatalf("expected bob, got %+v", u)
	}
	if !sess.IsAuthenticated() {
		t.Fatal("session should be authenticated")
	}
	if id, ok := sess.CurrentUserID(); !ok || id != bob.ID {
		t.Fatalf("expected current id %d, got %d (%v)", bob.ID, id, ok)
	}

	persisted, ok, _ := store.Get[store.User](s, store.KeyLoggedInUser)
	if !ok || persisted.ID != bob.ID {
		t.Fatalf("session not persisted: %+v", persisted)
	}
}

func TestAuthenticateWrongCredentials(t *testing.T) {
	s := newTestStore(t)
	d := NewDirectory(s)
	seedUser(t, d, "Ada", "ada@example.com", "secret")
	sess := NewSession(s, d)

	tests := []struct{ email, password string }{
		{"ada@example.com", "wrong"},
		{"ADA@example.com", "secret"},
		{"nobody@example.com", "secret"},
		{"", ""},
	}
	for _, tt := range tests {
		u, err := sess.Authenticate(tt.email, tt.password)
		if err != nil {
			t.Fatalf("wrong credentials must not be an error: %v", err)
		}
		if u != nil {
			t.Fatalf("expected no match for %q/%q", tt.email, tt.password)
		}
	}
	if sess.IsAuthenticated() {
		t.Fatal("failed logins must leave session anonymous")
	}
	if _, ok, _ := s.Read(store.KeyLoggedInUser); ok {
		t.Fatal("failed login must not persist a session")
	}
}

func TestFailedAuthenticateKeepsExistingSession(t *testing.T) {
	s := newTestStore(t)
	d := NewDirectory(s)
	ada := seedUser(t, d, "Ada", "ada@example.com", "secret")
	sess := NewSession(s, d)
	sess.Authenticate("ada@example.com", "secret")

	sess.Authenticate("ada@example.com", "nope")
	if id, ok := sess.CurrentUserID(); !ok || id != ada.ID {
		t.Fatal("failed login should not change the signed-in user")
	}
}

func TestAuthenticateDuplicateEmailPicksFirst(t *testing.T) {
	s := newTestStore(t)
	d := NewDirectory(s)
	first := seedUser(t, d, "One", "same@example.com", "pw")
	seedUser(t, d, "Two", "same@example.com", "pw")
	sess := NewSession(s, d)

	u, _ := sess.Authenticate("same@example.com", "pw")
	if u == nil || u.ID != first.ID {
		t.Fatalf("expected first registered user, got %+v", u)
	}
}

func TestLogout(t *testing.T) {
	s := newTestStore(t)
	d := NewDirectory(s)
	seedUser(t, d, "Ada", "ada@example.com", "secret")
	sess := NewSession(s, d)
	sess.Authenticate("ada@example.com", "secret")

	if err := sess.Logout(); err != nil {
		t.Fatal(err)
	}
	if sess.IsAuthenticated() {
		t.Fatal("should be anonymous after logout")
	}
	if _, ok, _ := s.Read(store.KeyLoggedInUser); ok {
		t.Fatal("logout should erase the persisted session")
	}
	// Idempotent.
	if err := sess.Logout(); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestSessionRestoredOnStart(t *testing.T) {
	s := newTestStore(t)
	d := NewDirectory(s)
	ada := seedUser(t, d, "Ada", "ada@example.com", "secret")
	NewSession(s, d).Authenticate("ada@example.com", "secret")

	// A fresh session over the same store models a process restart.
	restored := NewSession(s, d)
	if !restored.IsAuthenticated() {
		t.Fatal("session should be restored from the store")
	}
	if u := restored.CurrentUser(); u == nil || u.Email != "ada@example.com" || u.ID != ada.ID {
		t.Fatalf("unexpected restored user %+v", u)
	}
}

func TestSessionCorruptRecordIsAnonymous(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not an object", `[1,2,3]`},
		{"wrong types", `{"id":"seven"}`},
		{"no id", `{"name":"ghost"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			s.Write(store.KeyLoggedInUser, []byte(tt.raw))
			sess := NewSession(s, NewDirectory(s))
			if sess.IsAuthenticated() {
				t.Fatal("corrupt record should leave session anonymous")
			}
		})
	}
}

func TestCurrentUserIsCopy(t *testing.T) {
	s := newTestStore(t)
	d := NewDirectory(s)
	seedUser(t, d, "Ada", "ada@example.com", "secret")
	sess := NewSession(s, d)
	sess.Authenticate("ada@example.com", "secret")

	u := sess.CurrentUser()
	u.ID = 999
	if id, _ := sess.CurrentUserID(); id == 999 {
		t.Fatal("mutating the returned user must not affect the session")
	}
}
