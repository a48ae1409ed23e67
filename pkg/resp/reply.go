package resp

import (
	"math/big"
	"strconv"
)

// Kind identifies which field(s) of Reply are meaningful.
type Kind int

// Reply kinds. Set, Map and Push share the Array representation
// (Elems/Pairs) and are distinguished only by Kind — the output shaper
// (see shape.go) is what turns a plain array into one of these.
const (
	KindSimpleString Kind = iota
	KindBulkString
	KindInteger
	KindDouble
	KindBoolean
	KindBigNumber
	KindNull
	KindArray
	KindSet
	KindMap
	KindPush
	KindError
)

var kindNames = [...]string{
	KindSimpleString: "simple_string",
	KindBulkString:   "bulk_string",
	KindInteger:      "integer",
	KindDouble:       "double",
	KindBoolean:      "boolean",
	KindBigNumber:    "big_number",
	KindNull:         "null",
	KindArray:        "array",
	KindSet:          "set",
	KindMap:          "map",
	KindPush:         "push",
	KindError:        "error",
}

// String renders a Kind for logging; unknown values fall back to "kind(N)".
func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Pair is one key/value entry of a Map reply. Order is preserved as
// received on the wire.
type Pair struct {
	Key   Reply
	Value Reply
}

// Reply is a decoded RESP value. It is a flat struct rather than an
// interface hierarchy: which fields are populated depends on Kind,
// exactly as the teacher's RESP struct keys its Data/Count fields off
// Type.
type Reply struct {
	Kind Kind

	// Str holds simple-string and bulk-string text (when ReturnBuffers
	// is false), the verbatim decimal text of Integer/Double when
	// StringNumbers is active, and the decimal text of every BigNumber.
	Str string

	// Bytes holds simple-string and bulk-string payload when
	// ReturnBuffers is true. The slice may alias the parser's working
	// buffer or the shared buffer-pool arena and is only valid until the
	// callback that receives it returns.
	Bytes []byte

	// Verbatim is the RESP3 verbatim-string format tag ("txt", "mkd"),
	// set only when the wire type was '='.
	Verbatim string

	// Int is the default-mode Integer value.
	Int int64
	// Overflowed marks a default-mode Integer whose decimal text didn't
	// fit in int64; Float holds the nearest float64 approximation
	// instead, and Int is unset. A lossy fallback, not a fatal error —
	// string_numbers/big_int never overflow since they keep the text or
	// an arbitrary-precision value.
	Overflowed bool

	// Big holds BigNumber, and Integer when BigInt mode is active.
	Big *big.Int

	// Float is the default-mode Double value.
	Float float64
	// Inf and InfNeg flag a Double of +Infinity / -Infinity; Float is
	// unset in that case.
	Inf    bool
	InfNeg bool

	// Bool holds the RESP3 Boolean value.
	Bool bool

	// Elems holds Array/Set/Push members.
	Elems []Reply

	// Pairs holds Map entries, in wire order.
	Pairs []Pair

	// ErrCode is the blob-error code (text before the first space).
	// Empty for simple errors.
	ErrCode string
	// ErrMsg is the error message text.
	ErrMsg string
}
