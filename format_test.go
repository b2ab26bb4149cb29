package console

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		format string
		args   []any
		want   string
	}{
		{"decimal", "%d", []any{1234}, "1234"},
		{"zero", "%d", []any{0}, "0"},
		{"negative", "%d", []any{-42}, "-42"},
		{"decimal truncates to 32 bits", "%d", []any{int64(1) << 32}, "0"},
		{"unsigned", "%d", []any{uint32(math.MaxUint32)}, "4294967295"},
		{"long", "%ld", []any{int64(math.MaxInt64)}, "9223372036854775807"},
		{"long long", "%lld", []any{int64(math.MinInt64)}, "-9223372036854775808"},
		{"long unsigned", "%lld", []any{uint64(math.MaxUint64)}, "18446744073709551615"},
		{"hex", "%x", []any{255}, "0xff"},
		{"hex zero", "%x", []any{0}, "0x0"},
		{"hex negative", "%x", []any{-1}, "0xffffffff"},
		{"char", "%c", []any{byte('A')}, "A"},
		{"rune", "%c", []any{'z'}, "z"},
		{"char from uint16", "%c", []any{uint16('k')}, "k"},
		{"char from int64", "%c", []any{int64('Q')}, "Q"},
		{"char keeps low byte", "%c", []any{uint32(0x4100 | 'm')}, "m"},
		{"char from string", "%c", []any{"A"}, "?"},
		{"string", "%s", []any{"hi"}, "hi"},
		{"bytes", "%s", []any{[]byte("raw")}, "raw"},
		{"string stops at NUL", "%s", []any{"ab\x00cd"}, "ab"},
		{"error", "%s", []any{errors.New("boom")}, "boom"},
		{"percent", "%%", nil, "%"},
		{"newline", "a\nb", nil, "a\n\rb"},
		{"newline already followed by cr", "a\n\rb", nil, "a\n\rb"},
		{"trailing newline", "done\n", nil, "done\n\r"},
		{"newline in argument untouched", "%s", []any{"a\nb"}, "a\nb"},
		{"unknown verb", "%q", []any{1}, "?"},
		{"unknown verb keeps argument", "%q %d", []any{5}, "? 5"},
		{"dangling percent", "50%", nil, "50?"},
		{"bare l", "%lx", []any{1}, "?x"},
		{"missing argument", "%d %s", []any{1}, "1 ?"},
		{"wrong type", "%d", []any{"x"}, "?"},
		{"extra arguments ignored", "ok", []any{1, 2}, "ok"},
		{"mixed", "task %s: %d/%d (%x)\n", []any{"idle", 3, 4, 16}, "task idle: 3/4 (0x10)\n\r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, string(Format(nil, tt.format, tt.args...)))
		})
	}
}

func TestFormat_Appends(t *testing.T) {
	got := Format([]byte("> "), "%d", 7)
	require.Equal(t, "> 7", string(got))
}
