/*
Package slotdb implements an embedded key/value record store kept in a single
append-mostly file, with every record cached in memory.

We implement:

1. A record table mapping string keys to typed values, served from memory.

2. Lazily built secondary indexes over scalar fields of the values, with
equality lookups (Find) and predicate scans (Scan) returning chainable Results.

3. Asynchronous persistence: a write updates memory immediately and reaches the
file in the background. Flush waits for outstanding writes.

4. Compaction (Vacuum), rewriting the file without dead space and tombstones.

# File Format

The file is a sequence of slots. Each slot holds one encoded record
{"k": key, "v": value}, padded with spaces to a whole number of pages and
terminated by the codec's separator (a newline for JSON codecs). A record
without "v" is a tombstone.

**Slot reuse.**
A rewrite of a key goes into its existing slot if the padded record fits,
keeping the slot length unchanged. Otherwise a new slot is appended at the end
of the file and the old one becomes dead space until the next compaction.

**Loading.**
On open the file is copied to a backup and scanned from offset 0 for
separators. When a key appears in several slots, the last one wins. Slots that
fail to decode are logged and skipped.

**Compaction.**
The file is truncated and every present record is rewritten in insertion
order. Open compacts the file right after loading unless
Options.KeepLayoutOnOpen is set.
*/
package slotdb
