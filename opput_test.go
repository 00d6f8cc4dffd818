package slotdb

import (
	"strings"
	"testing"
)

func slot(rec string, size int) string {
	return rec + strings.Repeat(" ", size-len(rec)-1) + "\n"
}

func TestSlotLayout(t *testing.T) {
	s, path := setup[*User](t, Options[*User]{PageSize: 16})
	rec := `{"k":"a","v":{"name":"x"}}`

	s.Set("a", &User{Name: "x"})
	flush(t, s)
	deepEqual(t, readFile(t, path), slot(rec, 33))

	s.Set("b", &User{Name: "y"})
	flush(t, s)
	deepEqual(t, readFile(t, path), slot(rec, 33)+slot(`{"k":"b","v":{"name":"y"}}`, 33))
}

func TestSlotExactPage(t *testing.T) {
	s, path := setup[Doc](t, Options[Doc]{PageSize: 16})
	// {"k":"k","v":{}} is exactly 16 bytes
	s.Set("k", Doc{})
	flush(t, s)
	deepEqual(t, readFile(t, path), `{"k":"k","v":{}}`+"\n")
}

func TestSlotReuse(t *testing.T) {
	s, path := setup[*User](t, Options[*User]{PageSize: 16})
	long := &User{Name: strings.Repeat("x", 20)}

	s.Set("a", long)
	flush(t, s)
	size := fileSize(t, path)
	deepEqual(t, size, int64(49))

	s.Set("a", &User{Name: "x"})
	flush(t, s)
	deepEqual(t, readFile(t, path), slot(`{"k":"a","v":{"name":"x"}}`, 49))
	deepEqual(t, s.Stats().DeadBytes, int64(0))

	s.Del("a")
	flush(t, s)
	deepEqual(t, readFile(t, path), slot(`{"k":"a"}`, 49))
	st := s.Stats()
	deepEqual(t, st.Tombstones, 1)
	deepEqual(t, st.TombstoneBytes, int64(49))
	deepEqual(t, st.Reclaimable(), int64(49))
}

func TestSlotRelocation(t *testing.T) {
	s, path := setup[*User](t, Options[*User]{PageSize: 16})
	s.Set("a", &User{Name: "x"})
	s.Set("b", &User{Name: "y"})
	s.Set("a", &User{Name: strings.Repeat("x", 20)})
	flush(t, s)

	deepEqual(t, fileSize(t, path), int64(33+33+49))
	st := s.Stats()
	deepEqual(t, st.DeadBytes, int64(33))
	deepEqual(t, st.FileSize, int64(33+33+49))
	deepEqual(t, st.Records, 2)

	// the stale slot stays on disk until compaction
	data := readFile(t, path)
	if !strings.HasPrefix(data, `{"k":"a","v":{"name":"x"}}`) {
		t.Errorf("** file starts with %q", data[:33])
	}
	deepEqual(t, s.Keys(), []string{"a", "b"})
}

func TestSlotWritesThrottled(t *testing.T) {
	s, path := setup[Doc](t, Options[Doc]{PageSize: 16, WriteBytesPerSec: 1 << 20, MaxConcurrentWrites: 1})
	for i := range 20 {
		s.Set(key(0, i), Doc{"i": i})
	}
	flush(t, s)
	deepEqual(t, s.Stats().Writes, uint64(20))
	deepEqual(t, fileSize(t, path), int64(20*33))
}

func TestSlotBytes(t *testing.T) {
	s := &Store[Doc]{pageSize: 4, sep: []byte("\n")}
	tests := []struct {
		raw    string
		minLen int64
		exp    string
	}{
		{"ab", 0, "ab  \n"},
		{"abcd", 0, "abcd\n"},
		{"abcde", 0, "abcde   \n"},
		{"ab", 9, "ab      \n"},
	}
	for _, tt := range tests {
		deepEqual(t, string(s.slotBytes([]byte(tt.raw), tt.minLen)), tt.exp)
	}
}
