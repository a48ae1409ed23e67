package respwire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendIntAndUint(t *testing.T) {
	assert.Equal(t, []byte(":7\r\n"), AppendInt(nil, 7))
	assert.Equal(t, []byte(":-12\r\n"), AppendInt(nil, -12))
	assert.Equal(t, []byte(":18446744073709551615\r\n"), AppendUint(nil, 1<<64-1))
}

func TestAppendArrayAndBulk(t *testing.T) {
	var out []byte
	out = AppendArray(out, 2)
	out = AppendBulkString(out, "foo")
	out = AppendBulk(out, []byte("bar"))
	assert.Equal(t, []byte("*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"), out)
}

func TestAppendStringStripsNewlines(t *testing.T) {
	assert.Equal(t, []byte("+OK\r\n"), AppendString(nil, "OK"))
	assert.Equal(t, []byte("+a b\r\n"), AppendString(nil, "a\nb"))
}

func TestAppendErrorAndOK(t *testing.T) {
	assert.Equal(t, []byte("-ERR broken\r\n"), AppendError(nil, "ERR broken"))
	assert.Equal(t, []byte("+OK\r\n"), AppendOK(nil))
}

func TestAppendNull(t *testing.T) {
	assert.Equal(t, []byte("$-1\r\n"), AppendNull(nil))
}

func TestAppendBulkNumberVariants(t *testing.T) {
	assert.Equal(t, []byte("$3\r\n1.5\r\n"), AppendBulkFloat(nil, 1.5))
	assert.Equal(t, []byte("$3\r\n-42\r\n"), AppendBulkInt(nil, -42))
	assert.Equal(t, []byte("$2\r\n42\r\n"), AppendBulkUint(nil, 42))
}

func TestAppendAnyScalars(t *testing.T) {
	assert.Equal(t, []byte("$-1\r\n"), AppendAny(nil, nil))
	assert.Equal(t, []byte("$5\r\nhello\r\n"), AppendAny(nil, "hello"))
	assert.Equal(t, []byte("$3\r\n123\r\n"), AppendAny(nil, 123))
	assert.Equal(t, []byte("$1\r\n1\r\n"), AppendAny(nil, true))
	assert.Equal(t, []byte("+OK\r\n"), AppendAny(nil, SimpleString("OK")))
	assert.Equal(t, []byte(":42\r\n"), AppendAny(nil, SimpleInt(42)))
}

func TestAppendAnyError(t *testing.T) {
	assert.Equal(t, []byte("-ERR boom\r\n"), AppendAny(nil, errors.New("boom")))
	assert.Equal(t, []byte("-WRONGTYPE bad\r\n"), AppendAny(nil, errors.New("WRONGTYPE bad")))
}

func TestAppendAnySlice(t *testing.T) {
	assert.Equal(t, []byte("*3\r\n$1\r\n1\r\n$1\r\n2\r\n$1\r\n3\r\n"), AppendAny(nil, []int{1, 2, 3}))
}

func TestAppendAnyStringKeyedMapSorted(t *testing.T) {
	out := AppendAny(nil, map[string]int{"b": 2, "a": 1})
	assert.Equal(t, []byte("*4\r\n$1\r\na\r\n$1\r\n1\r\n$1\r\nb\r\n$1\r\n2\r\n"), out)
}

type marshalStub struct{}

func (marshalStub) MarshalRESP() []byte { return []byte("+stub\r\n") }

func TestAppendAnyMarshaler(t *testing.T) {
	assert.Equal(t, []byte("+stub\r\n"), AppendAny(nil, marshalStub{}))
}
