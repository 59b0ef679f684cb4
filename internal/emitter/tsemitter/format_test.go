package tsemitter

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name, in, want string
	}{
		{"trailing whitespace and newline", "a;  \r\nb;\t", "a;\nb;\n"},
		{"blank runs collapse", "a;\n\n\n\nb;\n\n\n", "a;\n\nb;\n"},
		{"leading blanks dropped", "\n\na;", "a;\n"},
		{"blank lines inside brackets", "x = {\n\n  a: 1,\n\n};", "x = {\n  a: 1,\n};"+"\n"},
		{"empty block folds", "params: {\n    },\nnext", "params: {},\nnext\n"},
		{"array brackets", "[\n\n1,\n\n]", "[\n1,\n]\n"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Format(tc.in), tc.name)
	}
}

func TestFormat_Idempotent(t *testing.T) {
	t.Parallel()
	once := Format(wantResources)
	assert.Equal(t, wantResources, once)
	assert.Equal(t, once, Format(once))
}

func TestExternal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on tr")
	}
	t.Parallel()
	out, err := External(context.Background(), "tr a-z A-Z", "export const a = 1;\n")
	require.NoError(t, err)
	assert.Equal(t, "EXPORT CONST A = 1;\n", out)

	_, err = External(context.Background(), "sh -c 'echo boom >&2; exit 3'", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	same, err := External(context.Background(), "   ", "keep")
	require.NoError(t, err)
	assert.Equal(t, "keep", same)
}
