package driver

import (
	"sync"

	"earlyret/internal/extract"
	"earlyret/internal/syntax"
)

// toolset is a parser plus an extractor for one dialect; it is used by one goroutine at a time.
type toolset struct {
	parser    *syntax.Parser
	extractor *extract.Extractor
}

// toolbox hands out toolsets to workers and closes all of them at the end of a run.
type toolbox struct {
	mu   sync.Mutex
	free map[syntax.Dialect][]*toolset
	all  []*toolset
}

func newToolbox() *toolbox {
	return &toolbox{free: make(map[syntax.Dialect][]*toolset)}
}

func (b *toolbox) get(d syntax.Dialect) (*toolset, error) {
	b.mu.Lock()
	if list := b.free[d]; len(list) > 0 {
		ts := list[len(list)-1]
		b.free[d] = list[:len(list)-1]
		b.mu.Unlock()
		return ts, nil
	}
	b.mu.Unlock()

	p, err := syntax.NewParser(d)
	if err != nil {
		return nil, err
	}
	x, err := extract.NewExtractor(d.Language())
	if err != nil {
		p.Close()
		return nil, err
	}
	ts := &toolset{parser: p, extractor: x}

	b.mu.Lock()
	b.all = append(b.all, ts)
	b.mu.Unlock()
	return ts, nil
}

func (b *toolbox) put(ts *toolset) {
	if ts == nil {
		return
	}
	d := ts.parser.Dialect()
	b.mu.Lock()
	b.free[d] = append(b.free[d], ts)
	b.mu.Unlock()
}

func (b *toolbox) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ts := range b.all {
		ts.extractor.Close()
		ts.parser.Close()
	}
	b.all = nil
	b.free = make(map[syntax.Dialect][]*toolset)
}
