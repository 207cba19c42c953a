package trace

import (
	"fmt"
	"slices"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // keep events in memory, dump the failed files' ones
	LevelPhase        // driver + pass boundaries
	LevelDetail       // plus per-file spans and failures
	LevelDebug        // plus every extracted token
)

var levelNames = [...]string{
	LevelOff:    "off",
	LevelError:  "error",
	LevelPhase:  "phase",
	LevelDetail: "detail",
	LevelDebug:  "debug",
}

// deepest is the finest scope each level records.
// error пишет в кольцо до файлов включительно, печатается только при сбое
var deepest = [...]Scope{
	LevelOff:    0,
	LevelError:  ScopeFile,
	LevelPhase:  ScopePass,
	LevelDetail: ScopeFile,
	LevelDebug:  ScopeToken,
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a flag value to a Level, ignoring case.
func ParseLevel(s string) (Level, error) {
	i := slices.Index(levelNames[:], strings.ToLower(s))
	if i < 0 {
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
	}
	return Level(i), nil
}

// ShouldEmit reports whether events of scope are recorded at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	return int(l) < len(deepest) && scope > 0 && scope <= deepest[l]
}
