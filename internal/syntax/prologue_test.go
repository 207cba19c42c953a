package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrologueEnd(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want uint
	}{
		{name: "empty", src: "", want: 0},
		{name: "no prologue", src: "foo.$;", want: 0},
		{name: "double quoted directive", src: "\"use strict\";\nfoo.$;", want: 13},
		{name: "directive without semicolon", src: "'use strict'\nfoo.$;", want: 12},
		{name: "directive after comment", src: "// hdr\n\"use strict\";\nfoo.$;", want: 20},
		{name: "string used as value", src: "\"use strict\".length; foo.$;", want: 0},
		{name: "parenthesized string", src: "(\"use strict\");\nfoo.$;", want: 0},
		{name: "several directives", src: "\"use strict\";\n\"use asm\";\nx;", want: 24},
		{name: "hashbang", src: "#!/usr/bin/env node\nfoo.$;", want: 20},
		{name: "hashbang only", src: "#!node", want: 6},
		{name: "hashbang then directive", src: "#!node\n\"use strict\";\nx;", want: 20},
	}
	for _, d := range []Dialect{DialectJavaScript, DialectTypeScript} {
		for _, tt := range tests {
			t.Run(d.String()+"/"+tt.name, func(t *testing.T) {
				p, err := NewParser(d)
				require.NoError(t, err)
				defer p.Close()

				tree, err := p.Parse(0, []byte(tt.src))
				require.NoError(t, err)
				defer tree.Close()

				assert.Equal(t, tt.want, tree.PrologueEnd())
			})
		}
	}
}
