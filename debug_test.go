package slotdb

import (
	"log/slog"
	"strings"
	"testing"
)

func TestStats(t *testing.T) {
	s := setupUsers(t)
	s.Del("u4")
	s.BuildIndex("role")
	flush(t, s)

	st := s.Stats()
	deepEqual(t, st.Records, 3)
	deepEqual(t, st.Tombstones, 1)
	deepEqual(t, st.Indexes, 1)
	deepEqual(t, st.FileSize, int64(4*(DefaultPageSize+1)))
	deepEqual(t, st.TombstoneBytes, int64(DefaultPageSize+1))
	deepEqual(t, st.Writes, uint64(5))
	deepEqual(t, st.PendingWrites, 0)
}

func TestDump(t *testing.T) {
	s := setupUsers(t)
	s.Del("u4")
	s.BuildIndex("role")

	var buf strings.Builder
	s.Dump(&buf, DumpAll)
	out := buf.String()
	for _, exp := range []string{
		"(3 records, 1 tombstones, codec json, page 1024)",
		`store.1 "u1" @0+1025 = {"name":"alice","role":"admin","age":30}`,
		`store.4 "u4" @3075+1025 = <tombstone>`,
		"store.i.role (2 values)",
		"store.i.role.1: admin => u1, u2",
		"store.i.role.2: user => u3",
	} {
		if !strings.Contains(out, exp) {
			t.Errorf("** dump lacks %q:\n%s", exp, out)
		}
	}

	buf.Reset()
	s.Dump(&buf, DumpRecords)
	out = buf.String()
	if strings.Contains(out, "u4") || strings.Contains(out, "store.i.") {
		t.Errorf("** unexpected dump:\n%s", out)
	}
}

func TestVerboseLogging(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, _ := setup[*User](t, Options[*User]{Logger: logger, Verbose: true})

	s.Set("u1", &User{Name: "foo"})
	s.Save("u1")
	s.Del("u1")
	s.Find("name", "foo")
	flush(t, s)

	out := buf.String()
	for _, exp := range []string{
		`msg="slotdb: file not found, creating new store"`,
		`msg="slotdb: PUT" key=u1 pos=0 len=1025`,
		`msg="slotdb: PUT.NOOP" key=u1`,
		`msg="slotdb: DEL" key=u1`,
		`msg="slotdb: INDEX" field=name records=0`,
	} {
		if !strings.Contains(out, exp) {
			t.Errorf("** log lacks %q:\n%s", exp, out)
		}
	}
}
