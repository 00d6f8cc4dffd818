package slotdb

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns records into slot bytes and back.
//
// Separator must never occur inside the output of Marshal: the loader finds
// slot boundaries by scanning for it. Trailing spaces after the encoded bytes
// are padding and are stripped before Unmarshal is called.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Separator() []byte
	Name() string
}

var newline = []byte{'\n'}

// JSON is the encoding/json codec with a line-feed separator.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSON) Separator() []byte                  { return newline }
func (JSON) Name() string                       { return "json" }

// GoJSON produces the same bytes as JSON using github.com/goccy/go-json.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error)      { return gojson.Marshal(v) }
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }
func (GoJSON) Separator() []byte                  { return newline }
func (GoJSON) Name() string                       { return "go-json" }

// MsgPack stores base64-armored MessagePack, so the line-feed separator can't
// appear inside a record.
type MsgPack struct{}

func (MsgPack) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	err := enc.Encode(v)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(buf.Len()))
	base64.StdEncoding.Encode(out, buf.Bytes())
	return out, nil
}

func (MsgPack) Unmarshal(data []byte, v any) error {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(raw, bytes.TrimSpace(data))
	if err != nil {
		return err
	}
	var r bytes.Reader
	r.Reset(raw[:n])
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	err = dec.Decode(v)
	msgpack.PutDecoder(dec)
	return err
}

func (MsgPack) Separator() []byte { return newline }
func (MsgPack) Name() string      { return "msgpack" }

// Default is the codec used when Options.Codec is nil.
var Default Codec = JSON{}

// CodecByName returns a built-in codec by its Name.
func CodecByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "msgpack":
		return MsgPack{}, true
	default:
		return nil, false
	}
}

// record is the on-disk shape of a slot. A nil V is a tombstone.
type record[T any] struct {
	K string `json:"k" msgpack:"k"`
	V *T     `json:"v,omitempty" msgpack:"v,omitempty"`
}

func encodeRecord[T any](c Codec, key string, value *T) []byte {
	raw, err := c.Marshal(&record[T]{K: key, V: value})
	if err != nil {
		panic(fmt.Errorf("slotdb: failed to encode %q using %s: %w", key, c.Name(), err))
	}
	if bytes.Contains(raw, c.Separator()) {
		panic(fmt.Errorf("slotdb: %s encoding of %q contains the record separator", c.Name(), key))
	}
	return raw
}

func decodeRecord[T any](c Codec, data []byte, off int64) (record[T], error) {
	var rec record[T]
	err := c.Unmarshal(data, &rec)
	if err != nil {
		return rec, dataErrf(data, off, err, "failed to decode %s record", c.Name())
	}
	return rec, nil
}
