package slotdb

import (
	"testing"
)

func setupUsers(t testing.TB) *Store[*User] {
	s, _ := setup[*User](t, Options[*User]{})
	s.Set("u1", &User{Name: "alice", Role: "admin", Age: 30})
	s.Set("u2", &User{Name: "bob", Role: "admin", Age: 25})
	s.Set("u3", &User{Name: "carol", Role: "user", Age: 30})
	s.Set("u4", &User{Name: "dave", Age: 41})
	return s
}

func TestFind(t *testing.T) {
	s := setupUsers(t)
	isempty(t, s.Indexes())

	deepEqual(t, s.Find("role", "admin").Keys(), []string{"u1", "u2"})
	deepEqual(t, s.Indexes(), []string{"role"})
	deepEqual(t, s.Find("role", "user").Keys(), []string{"u3"})
	isempty(t, s.Find("role", "nobody").Keys())
	isempty(t, s.Find("role", nil).Keys())
	isempty(t, s.Find("missing", "x").Keys())

	deepEqual(t, s.Find("age", 30).Keys(), []string{"u1", "u3"})
	deepEqual(t, s.Find("age", int64(30)).Keys(), []string{"u1", "u3"})
	deepEqual(t, s.Find("age", 30.0).Keys(), []string{"u1", "u3"})
	deepEqual(t, s.Find("age", uint8(41)).Keys(), []string{"u4"})
}

func TestFindFollowsWrites(t *testing.T) {
	s := setupUsers(t)
	s.BuildIndex("role")

	s.Set("u1", &User{Name: "alice", Role: "user"})
	deepEqual(t, s.Find("role", "admin").Keys(), []string{"u2"})
	deepEqual(t, s.Find("role", "user").Keys(), []string{"u3", "u1"})

	s.Set("u4", &User{Name: "dave", Role: "admin"})
	deepEqual(t, s.Find("role", "admin").Keys(), []string{"u2", "u4"})

	s.Del("u2")
	deepEqual(t, s.Find("role", "admin").Keys(), []string{"u4"})

	s.Set("u4", &User{Name: "dave"})
	isempty(t, s.Find("role", "admin").Keys())
	deepEqual(t, s.index.bucketCount("role"), 1)
}

func TestFindIgnoresNonScalars(t *testing.T) {
	s, _ := setup[Doc](t, Options[Doc]{})
	s.Set("a", Doc{"tag": "x"})
	s.Set("b", Doc{"tag": []any{"x"}})
	s.BuildIndex("tag")
	deepEqual(t, s.Find("tag", "x").Keys(), []string{"a"})

	// a non-scalar update leaves the previous entry alone
	s.Set("a", Doc{"tag": map[string]any{"x": 1}})
	deepEqual(t, s.Find("tag", "x").Keys(), []string{"a"})

	s.Set("a", Doc{"tag": nil})
	isempty(t, s.Find("tag", "x").Keys())
}

func TestRebuildIndex(t *testing.T) {
	s := setupUsers(t)
	s.BuildIndex("role")

	u1, _ := s.Get("u1")
	u1.Role = "user" // mutated without Save, so the index is stale
	deepEqual(t, s.Find("role", "admin").Keys(), []string{"u1", "u2"})

	s.RebuildIndex("role")
	deepEqual(t, s.Find("role", "admin").Keys(), []string{"u2"})
	deepEqual(t, s.Find("role", "user").Keys(), []string{"u1", "u3"})

	s.DropIndex("role")
	isempty(t, s.Indexes())
	deepEqual(t, s.Find("role", "user").Keys(), []string{"u1", "u3"})
}

func TestScan(t *testing.T) {
	s := setupUsers(t)
	s.Del("u2")

	r := s.Scan(func(u *User) bool { return u.Age >= 30 })
	deepEqual(t, r.Keys(), []string{"u1", "u3", "u4"})
	deepEqual(t, r.Size(), 3)

	r = r.AndFind("role", "admin")
	deepEqual(t, r.Keys(), []string{"u1"})

	isempty(t, s.Scan(func(u *User) bool { return false }).Keys())
}

func TestResultChaining(t *testing.T) {
	s := setupUsers(t)

	r := s.Find("age", 30).AndFind("role", "admin")
	deepEqual(t, r.Keys(), []string{"u1"})

	r = s.Find("role", "admin").AndScan(func(u *User) bool { return u.Age < 30 })
	deepEqual(t, r.Keys(), []string{"u2"})

	r = s.Find("role", "admin").AndFind("role", "user")
	isempty(t, r.Keys())
	deepEqual(t, r.Size(), 0)
}

func TestAndFindKeepsShorterOrder(t *testing.T) {
	s, _ := setup[Doc](t, Options[Doc]{})
	s.Set("a", Doc{"x": 1, "y": 1})
	s.Set("b", Doc{"x": 1})
	s.Set("c", Doc{"x": 1, "y": 1})
	s.Set("d", Doc{"y": 1})

	r := s.Scan(func(d Doc) bool { return true })
	deepEqual(t, r.Keys(), []string{"a", "b", "c", "d"})
	deepEqual(t, r.AndFind("x", 1).Keys(), []string{"a", "b", "c"})
	deepEqual(t, r.AndFind("y", 1).AndFind("x", 1).Keys(), []string{"a", "c"})
}

func TestResultValuesAreLive(t *testing.T) {
	s := setupUsers(t)
	r := s.Find("role", "admin")

	u1 := &User{Name: "alice2", Role: "admin"}
	s.Set("u1", u1)
	s.Del("u2")

	deepEqual(t, r.Keys(), []string{"u1", "u2"})
	vals := r.Values()
	if vals[0] != u1 || vals[1] != nil {
		t.Errorf("** Values() = %v, wanted [u1 nil]", vals)
	}
	deepEqual(t, r.Entries(), []Entry[*User]{{"u1", u1, true}, {"u2", nil, false}})

	raw := r.RawKeys()
	keys := r.Keys()
	keys[0] = "zzz"
	deepEqual(t, raw[0], "u1")
}
