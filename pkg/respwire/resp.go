// Package respwire appends Go values as RESP2 wire bytes (and, via the
// helpers in resp3.go, as RESP3 wire bytes). It backs
// example/cmd/mockserver's scripted replies: encode-only plumbing, kept
// separate from the streaming decoder in package resp, which owns the
// actual client-facing reply contract and never imports this package.
//
// Use the Append* functions to serialize Go types to RESP format:
//
//	var out []byte
//	out = respwire.AppendString(out, "OK")          // +OK\r\n
//	out = respwire.AppendBulkString(out, "hello")   // $5\r\nhello\r\n
//	out = respwire.AppendInt(out, 42)               // :42\r\n
//	out = respwire.AppendArray(out, 2)
//	out = respwire.AppendBulkString(out, "item1")
//	out = respwire.AppendBulkString(out, "item2")
//	out = respwire.AppendNull(out)                  // $-1\r\n
//
// AppendAny converts an arbitrary Go value to RESP format automatically:
//
//	out = respwire.AppendAny(out, "string")               // bulk string
//	out = respwire.AppendAny(out, 123)                    // bulk string
//	out = respwire.AppendAny(out, nil)                    // null
//	out = respwire.AppendAny(out, errors.New("ERR"))      // error
//	out = respwire.AppendAny(out, []int{1, 2, 3})         // array
//	out = respwire.AppendAny(out, map[string]int{"a": 1}) // array of pairs
package respwire

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// appendPrefix appends a "$3\r\n" style RESP prefix for a message. Used
// internally by AppendInt, AppendArray, and AppendBulk.
func appendPrefix(b []byte, c byte, n int64) []byte {
	if n >= 0 && n <= 9 {
		return append(b, c, byte('0'+n), '\r', '\n')
	}
	b = append(b, c)
	b = strconv.AppendInt(b, n, 10)
	return append(b, '\r', '\n')
}

// AppendUint appends ":<number>\r\n" for an unsigned 64-bit integer.
func AppendUint(b []byte, n uint64) []byte {
	b = append(b, ':')
	b = strconv.AppendUint(b, n, 10)
	return append(b, '\r', '\n')
}

// AppendInt appends ":<number>\r\n" for a signed 64-bit integer.
func AppendInt(b []byte, n int64) []byte {
	return appendPrefix(b, ':', n)
}

// AppendArray appends "*<count>\r\n". Each element must be appended
// with its own Append* call afterward.
func AppendArray(b []byte, n int) []byte {
	return appendPrefix(b, '*', int64(n))
}

// AppendBulk appends "$<len>\r\n<data>\r\n" for a byte slice.
func AppendBulk(b []byte, bulk []byte) []byte {
	b = appendPrefix(b, '$', int64(len(bulk)))
	b = append(b, bulk...)
	return append(b, '\r', '\n')
}

// AppendBulkString appends "$<len>\r\n<string>\r\n". A convenience
// wrapper around AppendBulk for string values.
func AppendBulkString(b []byte, bulk string) []byte {
	b = appendPrefix(b, '$', int64(len(bulk)))
	b = append(b, bulk...)
	return append(b, '\r', '\n')
}

// AppendString appends "+<string>\r\n". Simple strings cannot contain
// newlines, so any \r or \n in s is replaced with a space.
func AppendString(b []byte, s string) []byte {
	b = append(b, '+')
	b = append(b, stripNewlines(s)...)
	return append(b, '\r', '\n')
}

// AppendError appends "-<message>\r\n". Callers are responsible for
// any error-code prefix (e.g. "ERR", "WRONGTYPE").
func AppendError(b []byte, s string) []byte {
	b = append(b, '-')
	b = append(b, stripNewlines(s)...)
	return append(b, '\r', '\n')
}

// AppendOK appends "+OK\r\n".
func AppendOK(b []byte) []byte {
	return append(b, '+', 'O', 'K', '\r', '\n')
}

func stripNewlines(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' || s[i] == '\n' {
			s = strings.Replace(s, "\r", " ", -1)
			s = strings.Replace(s, "\n", " ", -1)
			break
		}
	}
	return s
}

// AppendNull appends "$-1\r\n", the RESP2 null bulk string.
func AppendNull(b []byte) []byte {
	return append(b, '$', '-', '1', '\r', '\n')
}

// AppendBulkFloat appends a float64 as a bulk string.
func AppendBulkFloat(dst []byte, f float64) []byte {
	return AppendBulk(dst, strconv.AppendFloat(nil, f, 'f', -1, 64))
}

// AppendBulkInt appends an int64 as a bulk string.
func AppendBulkInt(dst []byte, x int64) []byte {
	return AppendBulk(dst, strconv.AppendInt(nil, x, 10))
}

// AppendBulkUint appends a uint64 as a bulk string.
func AppendBulkUint(dst []byte, x uint64) []byte {
	return AppendBulk(dst, strconv.AppendUint(nil, x, 10))
}

func prefixERRIfNeeded(msg string) string {
	msg = strings.TrimSpace(msg)
	firstWord := strings.Split(msg, " ")[0]
	addERR := len(firstWord) == 0
	for i := 0; i < len(firstWord); i++ {
		if firstWord[i] < 'A' || firstWord[i] > 'Z' {
			addERR = true
			break
		}
	}
	if addERR {
		msg = strings.TrimSpace("ERR " + msg)
	}
	return msg
}

// SimpleString makes AppendAny serialize a string as a RESP simple
// string (AppendString) instead of a bulk string.
type SimpleString string

// SimpleInt makes AppendAny serialize an int as a RESP integer
// (AppendInt) instead of a bulk string.
type SimpleInt int

// Marshaler is implemented by types that encode themselves directly to
// RESP bytes for AppendAny. The returned bytes are appended as-is, so
// they must already be valid RESP.
type Marshaler interface {
	MarshalRESP() []byte
}

// AppendAny converts v to RESP format:
//
//	nil -> null
//	error -> error (adds "ERR " prefix if the first word isn't uppercase)
//	string -> bulk string
//	[]byte -> bulk bytes
//	bool -> bulk string ("0" or "1")
//	int*/uint*/float* -> bulk string
//	[]T -> array
//	map[K]V -> array of key/value pairs (sorted by key when K is string)
//	SimpleString -> simple string
//	SimpleInt -> integer
//	Marshaler -> raw bytes from MarshalRESP()
//	anything else -> bulk string via fmt.Sprint()
func AppendAny(b []byte, v interface{}) []byte {
	switch v := v.(type) {
	case SimpleString:
		b = AppendString(b, string(v))
	case SimpleInt:
		b = AppendInt(b, int64(v))
	case nil:
		b = AppendNull(b)
	case error:
		b = AppendError(b, prefixERRIfNeeded(v.Error()))
	case string:
		b = AppendBulkString(b, v)
	case []byte:
		b = AppendBulk(b, v)
	case bool:
		if v {
			b = AppendBulkString(b, "1")
		} else {
			b = AppendBulkString(b, "0")
		}
	case int:
		b = AppendBulkInt(b, int64(v))
	case int8:
		b = AppendBulkInt(b, int64(v))
	case int16:
		b = AppendBulkInt(b, int64(v))
	case int32:
		b = AppendBulkInt(b, int64(v))
	case int64:
		b = AppendBulkInt(b, int64(v))
	case uint:
		b = AppendBulkUint(b, uint64(v))
	case uint8:
		b = AppendBulkUint(b, uint64(v))
	case uint16:
		b = AppendBulkUint(b, uint64(v))
	case uint32:
		b = AppendBulkUint(b, uint64(v))
	case uint64:
		b = AppendBulkUint(b, uint64(v))
	case float32:
		b = AppendBulkFloat(b, float64(v))
	case float64:
		b = AppendBulkFloat(b, float64(v))
	case Marshaler:
		b = append(b, v.MarshalRESP()...)
	default:
		vv := reflect.ValueOf(v)
		switch vv.Kind() {
		case reflect.Slice:
			n := vv.Len()
			b = AppendArray(b, n)
			for i := 0; i < n; i++ {
				b = AppendAny(b, vv.Index(i).Interface())
			}
		case reflect.Map:
			n := vv.Len()
			b = AppendArray(b, n*2)
			var i int
			var strKey bool
			var strsKeyItems []strKeyItem

			iter := vv.MapRange()
			for iter.Next() {
				key := iter.Key().Interface()
				if i == 0 {
					if _, ok := key.(string); ok {
						strKey = true
						strsKeyItems = make([]strKeyItem, n)
					}
				}
				if strKey {
					strsKeyItems[i] = strKeyItem{
						key.(string), iter.Value().Interface(),
					}
				} else {
					b = AppendAny(b, key)
					b = AppendAny(b, iter.Value().Interface())
				}
				i++
			}
			if strKey {
				sort.Slice(strsKeyItems, func(i, j int) bool {
					return strsKeyItems[i].key < strsKeyItems[j].key
				})
				for _, item := range strsKeyItems {
					b = AppendBulkString(b, item.key)
					b = AppendAny(b, item.value)
				}
			}
		default:
			b = AppendBulkString(b, fmt.Sprint(v))
		}
	}
	return b
}

type strKeyItem struct {
	key   string
	value interface{}
}
