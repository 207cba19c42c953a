package diag

import (
	"cmp"
	"slices"
)

// Bag collects the diagnostics of one run for rendering. Past its limit it
// only counts what it drops, so a report can say how much was cut.
type Bag struct {
	items   []Diagnostic
	limit   int
	dropped int
}

// NewBag keeps at most limit diagnostics; limit <= 0 means unlimited.
func NewBag(limit int) *Bag {
	return &Bag{limit: limit}
}

// Add returns false when the limit is reached and d was only counted.
func (b *Bag) Add(d Diagnostic) bool {
	if b.limit > 0 && len(b.items) >= b.limit {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

// AddError converts err into a diagnostic and adds it.
func (b *Bag) AddError(err error) bool {
	if err == nil {
		return false
	}
	return b.Add(AsDiagnostic(err))
}

func (b *Bag) HasErrors() bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool {
		return d.Severity >= SevError
	})
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Dropped counts diagnostics refused by Add.
func (b *Bag) Dropped() int {
	return b.dropped
}

// Items returns the internal slice; callers must not modify it.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Sort orders by file, then position, most severe first at equal positions,
// then by code, so reports of parallel runs are stable.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Start, y.Primary.Start),
			cmp.Compare(x.Primary.End, y.Primary.End),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}
