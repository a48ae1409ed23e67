package resp

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestParser(t *testing.T, configure func(*Options)) (*Parser, *[]Reply, *[]error) {
	t.Helper()
	var replies []Reply
	var errs []error
	opts := Options{
		OnReply: func(r Reply) { replies = append(replies, r) },
		OnError: func(e error) { errs = append(errs, e) },
	}
	if configure != nil {
		configure(&opts)
	}
	p, err := NewParser(opts)
	assert.NoError(t, err)
	return p, &replies, &errs
}

func TestNewParserRequiresCallbacks(t *testing.T) {
	_, err := NewParser(Options{})
	assert.Error(t, err)
	assert.IsType(t, &ConfigError{}, err)

	_, err = NewParser(Options{OnReply: func(Reply) {}})
	assert.Error(t, err)
}

func TestNewParserRejectsStringNumbersAndBigIntTogether(t *testing.T) {
	_, err := NewParser(Options{
		OnReply:       func(Reply) {},
		OnError:       func(error) {},
		StringNumbers: true,
		BigInt:        true,
	})
	assert.Error(t, err)
	assert.IsType(t, &ConfigError{}, err)
}

func TestSimpleStringCrossChunk(t *testing.T) {
	p, replies, _ := newTestParser(t, nil)
	p.Feed([]byte("+OK"))
	assert.Len(t, *replies, 0)
	p.Feed([]byte("\r\n"))
	assert.Equal(t, []Reply{{Kind: KindSimpleString, Str: "OK"}}, *replies)
}

func TestBulkStringFourChunks(t *testing.T) {
	p, replies, _ := newTestParser(t, nil)
	p.Feed([]byte("$"))
	p.Feed([]byte("11\r\nhel"))
	p.Feed([]byte("lo "))
	p.Feed([]byte("worl"))
	assert.Len(t, *replies, 0)
	p.Feed([]byte("d\r\n"))
	assert.Equal(t, []Reply{{Kind: KindBulkString, Str: "hello world"}}, *replies)
}

func TestNestedArrayDelayedCompletion(t *testing.T) {
	p, replies, _ := newTestParser(t, nil)
	p.Feed([]byte("*2\r\n*2\r\n:1\r\n:2\r\n"))
	assert.Len(t, *replies, 0, "outer array still waiting on its second element")
	p.Feed([]byte(":3\r\n"))
	assert.Equal(t, []Reply{{
		Kind: KindArray,
		Elems: []Reply{
			{Kind: KindArray, Elems: []Reply{
				{Kind: KindInteger, Int: 1},
				{Kind: KindInteger, Int: 2},
			}},
			{Kind: KindInteger, Int: 3},
		},
	}}, *replies)
}

func TestProtocolErrorMidChunkThenRecovery(t *testing.T) {
	p, replies, errs := newTestParser(t, nil)
	p.Feed([]byte("*1\r\n+CCC\r\nb$1\r\nz\r\n+abc\r\n"))
	assert.Equal(t, []Reply{{Kind: KindArray, Elems: []Reply{{Kind: KindSimpleString, Str: "CCC"}}}}, *replies)
	assert.Len(t, *errs, 1)
	assert.IsType(t, &ProtocolError{}, (*errs)[0])

	*replies = nil
	*errs = nil
	p.Feed([]byte("*1\r\n+CCC\r\n"))
	assert.Equal(t, []Reply{{Kind: KindArray, Elems: []Reply{{Kind: KindSimpleString, Str: "CCC"}}}}, *replies)
	assert.Len(t, *errs, 0)
}

func TestStringNumbersPreservesBigDigits(t *testing.T) {
	p, replies, _ := newTestParser(t, func(o *Options) { o.StringNumbers = true })
	p.Feed([]byte(":123456789012345678901234567890\r\n"))
	assert.Equal(t, []Reply{{Kind: KindInteger, Str: "123456789012345678901234567890"}}, *replies)
}

func TestBigIntMode(t *testing.T) {
	p, replies, _ := newTestParser(t, func(o *Options) { o.BigInt = true })
	p.Feed([]byte(":123456789012345678901234567890\r\n"))
	want, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	assert.Equal(t, []Reply{{Kind: KindInteger, Big: want}}, *replies)
}

func TestDefaultModeIntegerOverflowFallsBackToFloat(t *testing.T) {
	p, replies, errs := newTestParser(t, nil)
	p.Feed([]byte(":590295810358705700002\r\n"))
	assert.Len(t, *errs, 0, "an oversized but wire-valid integer must not be fatal")
	assert.Equal(t, []Reply{{Kind: KindInteger, Float: 590295810358705700002.0, Overflowed: true}}, *replies)
}

func TestRESP3MapWithAttribute(t *testing.T) {
	var attrs []Reply
	p, replies, _ := newTestParser(t, func(o *Options) {
		o.OnAttribute = func(r Reply) { attrs = append(attrs, r) }
	})
	p.Feed([]byte("|1\r\n$8\r\nttl-left\r\n:30\r\n%1\r\n$4\r\nname\r\n$3\r\nbob\r\n"))
	assert.Equal(t, []Reply{{
		Kind: KindMap,
		Pairs: []Pair{
			{Key: Reply{Kind: KindBulkString, Str: "name"}, Value: Reply{Kind: KindBulkString, Str: "bob"}},
		},
	}}, *replies)
	assert.Equal(t, []Reply{{
		Kind: KindMap,
		Pairs: []Pair{
			{Key: Reply{Kind: KindBulkString, Str: "ttl-left"}, Value: Reply{Kind: KindInteger, Int: 30}},
		},
	}}, attrs)
}

func TestIntegerZeroAndNegativeZeroEdgeCases(t *testing.T) {
	p, replies, _ := newTestParser(t, nil)
	p.Feed([]byte(":\r\n:-\r\n"))
	assert.Equal(t, []Reply{
		{Kind: KindInteger, Int: 0},
		{Kind: KindInteger, Int: 0},
	}, *replies)
}

func TestNullBulkAndArray(t *testing.T) {
	p, replies, _ := newTestParser(t, nil)
	p.Feed([]byte("$-1\r\n*-1\r\n"))
	assert.Equal(t, []Reply{{Kind: KindNull}, {Kind: KindNull}}, *replies)
}

func TestEmptyArrayAndEmptyBulk(t *testing.T) {
	p, replies, _ := newTestParser(t, nil)
	p.Feed([]byte("*0\r\n$0\r\n\r\n"))
	assert.Equal(t, []Reply{
		{Kind: KindArray, Elems: []Reply{}},
		{Kind: KindBulkString, Str: ""},
	}, *replies)
}

func TestSingleByteChunkFeeding(t *testing.T) {
	p, replies, _ := newTestParser(t, nil)
	msg := "*1\r\n+hi\r\n"
	for i := 0; i < len(msg); i++ {
		p.Feed([]byte{msg[i]})
	}
	assert.Equal(t, []Reply{{Kind: KindArray, Elems: []Reply{{Kind: KindSimpleString, Str: "hi"}}}}, *replies)
}

func TestBulkContainingEmbeddedCRLF(t *testing.T) {
	p, replies, _ := newTestParser(t, nil)
	p.Feed([]byte("$6\r\na\r\nb\r\n\r\n"))
	assert.Equal(t, []Reply{{Kind: KindBulkString, Str: "a\r\nb\r\n"}}, *replies)
}

func TestVerbatimString(t *testing.T) {
	p, replies, _ := newTestParser(t, nil)
	p.Feed([]byte("=9\r\ntxt:hello\r\n"))
	assert.Equal(t, []Reply{{Kind: KindBulkString, Str: "hello", Verbatim: "txt"}}, *replies)
}

func TestBlobErrorSplitsCodeAndMessage(t *testing.T) {
	p, _, errs := newTestParser(t, nil)
	p.Feed([]byte("!9\r\nERR usage\r\n"))
	assert.Len(t, *errs, 1)
	re, ok := (*errs)[0].(*ReplyError)
	assert.True(t, ok)
	assert.Equal(t, "ERR", re.Code)
	assert.Equal(t, "usage", re.Message)
}

func TestBooleanAndDoubleInfinity(t *testing.T) {
	p, replies, _ := newTestParser(t, nil)
	p.Feed([]byte("#t\r\n#f\r\n,inf\r\n,-inf\r\n,3.14\r\n"))
	assert.Equal(t, []Reply{
		{Kind: KindBoolean, Bool: true},
		{Kind: KindBoolean, Bool: false},
		{Kind: KindDouble, Inf: true},
		{Kind: KindDouble, Inf: true, InfNeg: true},
		{Kind: KindDouble, Float: 3.14},
	}, *replies)
}

func TestSetAndPushKinds(t *testing.T) {
	var pushes []Reply
	p, replies, _ := newTestParser(t, func(o *Options) {
		o.OnPush = func(r Reply) { pushes = append(pushes, r) }
	})
	p.Feed([]byte("~2\r\n:1\r\n:2\r\n>1\r\n+hi\r\n"))
	assert.Equal(t, []Reply{{Kind: KindSet, Elems: []Reply{
		{Kind: KindInteger, Int: 1}, {Kind: KindInteger, Int: 2},
	}}}, *replies)
	assert.Equal(t, []Reply{{Kind: KindPush, Elems: []Reply{{Kind: KindSimpleString, Str: "hi"}}}}, pushes)
}

func TestResetClearsInFlightState(t *testing.T) {
	p, replies, _ := newTestParser(t, nil)
	p.Feed([]byte("*2\r\n:1\r\n"))
	p.Reset()
	p.Feed([]byte(":2\r\n"))
	assert.Equal(t, []Reply{{Kind: KindInteger, Int: 2}}, *replies)
}

func TestSetStringNumbersRejectsWhenBigIntActive(t *testing.T) {
	p, _, _ := newTestParser(t, func(o *Options) { o.BigInt = true })
	err := p.SetStringNumbers(true)
	assert.Error(t, err)
	assert.IsType(t, &ConfigError{}, err)
}

func TestSetBigIntRejectsWhenStringNumbersActive(t *testing.T) {
	p, _, _ := newTestParser(t, func(o *Options) { o.StringNumbers = true })
	err := p.SetBigInt(true)
	assert.Error(t, err)
	assert.IsType(t, &ConfigError{}, err)
}

func TestReturnBuffersYieldsBytes(t *testing.T) {
	p, replies, _ := newTestParser(t, func(o *Options) { o.ReturnBuffers = true })
	p.Feed([]byte("$5\r\nhello\r\n"))
	assert.Len(t, *replies, 1)
	assert.Equal(t, []byte("hello"), (*replies)[0].Bytes)
}
