// Package cache keeps extracted tokens on disk so unchanged sources skip parsing.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"earlyret/internal/extract"
	"earlyret/internal/source"
	"earlyret/internal/syntax"
)

// schemaVersion must be bumped whenever payload or token semantics change.
const schemaVersion uint16 = 2

// SchemaVersion reports the payload schema written by this build; entries
// from other schemas are misses.
func SchemaVersion() uint16 { return schemaVersion }

// Digest identifies one (schema, dialect, source) triple.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Key hashes the inputs that determine extraction output.
func Key(d syntax.Dialect, src []byte) Digest {
	h := sha256.New()
	var hdr [3]byte
	binary.LittleEndian.PutUint16(hdr[:2], schemaVersion)
	hdr[2] = byte(d)
	h.Write(hdr[:])
	h.Write(src)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// DiskCache stores token lists as msgpack files, one per Digest.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

type payload struct {
	Schema  uint16        `msgpack:"schema"`
	Dialect uint8         `msgpack:"dialect"`
	Tokens  []tokenRecord `msgpack:"tokens"`
}

// tokenRecord is a Token without the file id, which is per-run.
type tokenRecord struct {
	Kind        uint8     `msgpack:"k"`
	Object      [2]uint32 `msgpack:"o,omitempty"`
	Operator    [2]uint32 `msgpack:"op,omitempty"`
	Tail        [2]uint32 `msgpack:"t,omitempty"`
	Body        [2]uint32 `msgpack:"b,omitempty"`
	BodyIsBlock bool      `msgpack:"blk,omitempty"`
	Node        string    `msgpack:"n,omitempty"`
	Prologue    uint32    `msgpack:"pro,omitempty"`
}

// Open prepares dir for use.
func Open(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := key.String()
	// двухсимвольный шардинг, как у git objects
	return filepath.Join(c.dir, "tokens", hexKey[:2], hexKey+".mp")
}

// Put writes tokens under key via a temp file and an atomic rename.
func (c *DiskCache) Put(key Digest, d syntax.Dialect, tokens []extract.Token) error {
	if c == nil {
		return nil
	}
	rec := payload{Schema: schemaVersion, Dialect: uint8(d), Tokens: make([]tokenRecord, len(tokens))}
	for i, tok := range tokens {
		rec.Tokens[i] = toRecord(tok)
	}
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Атомарная замена
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Get returns the cached tokens with spans attributed to file. Missing, corrupt
// and stale entries are all misses; only unexpected I/O failures are errors.
func (c *DiskCache) Get(key Digest, d syntax.Dialect, file source.FileID) ([]extract.Token, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	data, err := os.ReadFile(c.pathFor(key))
	c.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var rec payload
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, false, nil
	}
	if rec.Schema != schemaVersion || rec.Dialect != uint8(d) {
		return nil, false, nil
	}
	tokens := make([]extract.Token, 0, len(rec.Tokens))
	for _, r := range rec.Tokens {
		tok, ok := fromRecord(r, file)
		if !ok {
			return nil, false, nil
		}
		tokens = append(tokens, tok)
	}
	return tokens, true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем и удалим, чтобы параллельный Get не увидел полкаталога
	dir := filepath.Join(c.dir, "tokens")
	old := dir + ".old-" + time.Now().Format("20060102150405.000000000")
	if err := os.Rename(dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

func pair(s source.Span) [2]uint32 {
	return [2]uint32{s.Start, s.End}
}

func span(file source.FileID, p [2]uint32) source.Span {
	return source.Span{File: file, Start: p[0], End: p[1]}
}

func toRecord(tok extract.Token) tokenRecord {
	r := tokenRecord{Kind: uint8(tok.Kind)}
	switch tok.Kind {
	case extract.KindSite:
		r.Object = pair(tok.Site.Object)
		r.Operator = pair(tok.Site.Operator)
		r.Tail = pair(tok.Site.Tail)
	case extract.KindScope:
		r.Body = pair(tok.Scope.Body)
		r.BodyIsBlock = tok.Scope.BodyIsBlock
		r.Node = tok.Scope.Node
	case extract.KindPrologue:
		r.Prologue = tok.Prologue.End
	}
	return r
}

func fromRecord(r tokenRecord, file source.FileID) (extract.Token, bool) {
	switch extract.Kind(r.Kind) {
	case extract.KindSite:
		return extract.SiteToken(extract.Site{
			Object:   span(file, r.Object),
			Operator: span(file, r.Operator),
			Tail:     span(file, r.Tail),
		}), true
	case extract.KindScope:
		return extract.ScopeToken(extract.Scope{
			Body:        span(file, r.Body),
			BodyIsBlock: r.BodyIsBlock,
			Node:        r.Node,
		}), true
	case extract.KindPrologue:
		return extract.PrologueToken(source.Span{File: file, End: r.Prologue}), true
	default:
		return extract.Token{}, false
	}
}
