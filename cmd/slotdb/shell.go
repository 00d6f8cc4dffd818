package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kballard/go-shellquote"

	"github.com/andreyvit/slotdb"
	"github.com/andreyvit/slotdb/boltexport"
)

var errUsage = errors.New("wrong number of arguments")

const helpText = `Commands:
  get KEY                   print a record
  set KEY JSON              store a JSON object
  del KEY                   delete a record
  save KEY                  rewrite a record as is
  keys                      list keys
  size                      count records
  find FIELD VALUE ...      find records by field values (all must match)
  index FIELD               build an index
  reindex FIELD             rebuild an index
  vacuum                    compact the file
  flush                     wait for pending writes
  stats                     print statistics
  dump                      print records and indexes
  export BOLTFILE BUCKET    copy records into a Bolt bucket
  import BOLTFILE BUCKET    copy records from a Bolt bucket
  exit                      quit`

type shell struct {
	s   *slotdb.Store[slotdb.Doc]
	out io.Writer
}

func (sh *shell) run(in io.Reader, prompt bool) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), slotdb.DefaultMaxRecordSize)
	for {
		if prompt {
			fmt.Fprint(sh.out, "> ")
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				fmt.Fprintln(sh.out, "input error:", err)
			}
			return
		}
		args, err := shellquote.Split(sc.Text())
		if err != nil {
			fmt.Fprintln(sh.out, "parse error:", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			return
		}
		err = sh.exec(args[0], args[1:])
		if err != nil {
			fmt.Fprintf(sh.out, "%s: %v\n", args[0], err)
		}
	}
}

func (sh *shell) exec(cmd string, args []string) error {
	s := sh.s
	switch cmd {
	case "help":
		fmt.Fprintln(sh.out, helpText)
	case "get":
		if len(args) != 1 {
			return errUsage
		}
		v, ok := s.Get(args[0])
		if !ok {
			fmt.Fprintln(sh.out, "(not found)")
			return nil
		}
		return sh.printJSON(v)
	case "set":
		if len(args) != 2 {
			return errUsage
		}
		var doc slotdb.Doc
		err := json.Unmarshal([]byte(args[1]), &doc)
		if err != nil {
			return err
		}
		s.Set(args[0], doc)
	case "del":
		if len(args) != 1 {
			return errUsage
		}
		s.Del(args[0])
	case "save":
		if len(args) != 1 {
			return errUsage
		}
		s.Save(args[0])
	case "keys":
		for _, k := range s.RawKeys() {
			fmt.Fprintln(sh.out, k)
		}
	case "size":
		fmt.Fprintln(sh.out, s.Size())
	case "find":
		if len(args) == 0 || len(args)%2 != 0 {
			return errUsage
		}
		r := s.Find(args[0], parseValue(args[1]))
		for i := 2; i < len(args); i += 2 {
			r = r.AndFind(args[i], parseValue(args[i+1]))
		}
		for _, ent := range r.Entries() {
			raw, err := json.Marshal(ent.Value)
			if err != nil {
				return err
			}
			fmt.Fprintf(sh.out, "%s\t%s\n", ent.Key, raw)
		}
	case "index":
		if len(args) != 1 {
			return errUsage
		}
		s.BuildIndex(args[0])
	case "reindex":
		if len(args) != 1 {
			return errUsage
		}
		s.RebuildIndex(args[0])
	case "vacuum":
		err := s.VacuumWait(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "ok, %d bytes\n", s.Stats().FileSize)
	case "flush":
		return s.Flush(context.Background())
	case "stats":
		return sh.printJSON(s.Stats())
	case "dump":
		s.Dump(sh.out, slotdb.DumpAll)
	case "export", "import":
		if len(args) != 2 {
			return errUsage
		}
		db, err := boltexport.Open(args[0])
		if err != nil {
			return err
		}
		defer db.Close()
		var n int
		if cmd == "export" {
			n, err = boltexport.Export(s, db, args[1])
		} else {
			n, err = boltexport.Import(db, args[1], s)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "%d records\n", n)
	default:
		return fmt.Errorf("unknown command, try 'help'")
	}
	return nil
}

func (sh *shell) printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, string(raw))
	return nil
}

// parseValue reads a find argument as JSON when it is a number, bool or
// quoted string, and as a bare string otherwise.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		switch v.(type) {
		case float64, bool, string:
			return v
		}
	}
	return s
}
