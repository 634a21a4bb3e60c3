package resp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendValue(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"simple string", OKValue(), "+OK\r\n"},
		{"error", ErrorValue("ERR bad"), "-ERR bad\r\n"},
		{"integer", IntegerValue(-12), ":-12\r\n"},
		{"bulk string", BulkStringValue("hello"), "$5\r\nhello\r\n"},
		{"empty bulk string", BulkStringValue(""), "$0\r\n\r\n"},
		{"null bulk string", NullBulkStringValue(), "$-1\r\n"},
		{"empty array", ArrayValue(), "*0\r\n"},
		{"null array", Value{Type: Array, Null: true}, "*-1\r\n"},
		{
			"mixed array",
			ArrayValue(BulkStringValue("a"), IntegerValue(1), NullBulkStringValue()),
			"*3\r\n$1\r\na\r\n:1\r\n$-1\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AppendValue(nil, tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.expected, string(got))
		})
	}
}

func TestAppendValueInvalidType(t *testing.T) {
	_, err := AppendValue(nil, Value{Type: '?'})
	require.ErrorIs(t, err, ErrInvalidType)

	_, err = AppendValue(nil, ArrayValue(Value{Type: '?'}))
	require.ErrorIs(t, err, ErrInvalidType)
}

func TestSerializerParsesBack(t *testing.T) {
	var buf bytes.Buffer
	s := NewSerializer(&buf)

	cmd := CommandValue("SET", "key", "va\r\nlue")
	require.NoError(t, s.Serialize(cmd))

	got, n, err := Parse(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, buf.Len(), n)
	require.Equal(t, cmd, got)
}
