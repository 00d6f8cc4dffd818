// Command slotdb is an interactive shell over a slotdb store of JSON
// documents.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/andreyvit/slotdb"
	"github.com/andreyvit/slotdb/diskio"
)

func main() {
	path := flag.String("db", "slotdb.db", "store file")
	page := flag.Int("page", slotdb.DefaultPageSize, "slot page size")
	codecName := flag.String("codec", "json", "record codec: json, go-json or msgpack")
	backup := flag.String("backup", "none", "backup compression: none, zstd or lz4")
	verbose := flag.Bool("v", false, "log every operation")
	flag.Parse()

	codec, ok := slotdb.CodecByName(*codecName)
	if !ok {
		log.Fatalf("unknown codec %q", *codecName)
	}
	comp, err := diskio.ParseCompression(*backup)
	if err != nil {
		log.Fatal(err)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	s, err := slotdb.Open(*path, slotdb.Options[slotdb.Doc]{
		PageSize:          *page,
		Codec:             codec,
		Logger:            logger,
		Verbose:           *verbose,
		BackupCompression: comp,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Opened %v (%d records)\n", *path, s.Size())
	fmt.Println("Type commands. 'help' for information or 'exit' to quit.")

	sh := &shell{s: s, out: os.Stdout}
	sh.run(os.Stdin, true)

	err = s.Close()
	if err != nil {
		log.Fatal(err)
	}
}
