package respwire

import (
	"math"
	"math/big"
	"strconv"
)

// The functions in this file extend the teacher's RESP2 Append*
// family (see resp.go) with the RESP3 types the streaming decoder in
// package resp understands: doubles, booleans, big numbers, maps,
// sets, push frames, verbatim strings and blob errors. They exist to
// drive the example mock server, which replies with a mix of RESP2
// and RESP3 frames to exercise every decoder path.

// AppendDouble appends a RESP3 double: ",1.5\r\n", ",inf\r\n".
func AppendDouble(b []byte, f float64) []byte {
	if math.IsInf(f, 0) {
		return AppendInf(b, f < 0)
	}
	b = append(b, ',')
	b = strconv.AppendFloat(b, f, 'g', -1, 64)
	return append(b, '\r', '\n')
}

// AppendInf appends a RESP3 double infinity, positive or negative.
func AppendInf(b []byte, neg bool) []byte {
	b = append(b, ',')
	if neg {
		b = append(b, '-')
	}
	return append(b, 'i', 'n', 'f', '\r', '\n')
}

// AppendBoolean appends a RESP3 boolean: "#t\r\n" or "#f\r\n".
func AppendBoolean(b []byte, v bool) []byte {
	b = append(b, '#')
	if v {
		b = append(b, 't')
	} else {
		b = append(b, 'f')
	}
	return append(b, '\r', '\n')
}

// AppendRESP3Null appends the RESP3 null sentinel: "_\r\n".
func AppendRESP3Null(b []byte) []byte {
	return append(b, '_', '\r', '\n')
}

// AppendBigNumber appends a RESP3 big number: "(12345...\r\n".
func AppendBigNumber(b []byte, n *big.Int) []byte {
	b = append(b, '(')
	b = append(b, n.String()...)
	return append(b, '\r', '\n')
}

// AppendVerbatim appends a RESP3 verbatim string with its 3-byte
// format tag, e.g. AppendVerbatim(b, "txt", "ok") -> "=6\r\ntxt:ok\r\n".
func AppendVerbatim(b []byte, format, text string) []byte {
	b = appendPrefix(b, '=', int64(len(format)+1+len(text)))
	b = append(b, format...)
	b = append(b, ':')
	b = append(b, text...)
	return append(b, '\r', '\n')
}

// AppendBlobError appends a RESP3 blob error: "!9\r\nERR usage\r\n".
func AppendBlobError(b []byte, code, msg string) []byte {
	body := code
	if msg != "" {
		if body != "" {
			body += " "
		}
		body += msg
	}
	b = appendPrefix(b, '!', int64(len(body)))
	b = append(b, body...)
	return append(b, '\r', '\n')
}

// AppendMap appends a RESP3 map header for n key/value pairs; callers
// append 2*n values (key, value, key, value, ...) after it.
func AppendMap(b []byte, n int) []byte {
	return appendPrefix(b, '%', int64(n))
}

// AppendSet appends a RESP3 set header for n elements.
func AppendSet(b []byte, n int) []byte {
	return appendPrefix(b, '~', int64(n))
}

// AppendPush appends a RESP3 push header for n elements.
func AppendPush(b []byte, n int) []byte {
	return appendPrefix(b, '>', int64(n))
}

// AppendAttribute appends a RESP3 attribute header for n key/value
// pairs, to be emitted immediately before the reply it annotates.
func AppendAttribute(b []byte, n int) []byte {
	return appendPrefix(b, '|', int64(n))
}
