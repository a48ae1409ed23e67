// Package resp implements an incremental RESP2/RESP3 reply decoder.
//
// A Parser owns no socket and performs no I/O: it is fed arbitrarily
// fragmented byte chunks via Feed and delivers fully-decoded replies
// to callbacks configured at construction time. It is the client-side
// counterpart of the request-parsing the teacher package focuses on —
// where a server reads commands off the wire, a Parser reads replies.
package resp

import (
	"go.uber.org/zap"

	"github.com/IceFireDB/respstream/pkg/bufpool"
)

// Options configures a Parser. OnReply and OnError are required; the
// rest are optional and have the fallbacks documented on each field.
type Options struct {
	// OnReply delivers an ordinary top-level reply. Required.
	OnReply func(Reply)
	// OnError delivers a server-sent error (simple or blob). Required.
	// It also receives fatal protocol errors when OnFatal is nil.
	OnError func(error)
	// OnFatal delivers a protocol violation. If nil, fatal errors fall
	// back to OnError.
	OnFatal func(error)
	// OnPush delivers a RESP3 push-data frame. If nil, push frames are
	// decoded (for correct stream bookkeeping) and silently dropped.
	OnPush func(Reply)
	// OnAttribute delivers RESP3 attribute metadata preceding the next
	// reply. If nil, attributes are parsed and discarded.
	OnAttribute func(Reply)

	// ReturnBuffers makes bulk strings and simple strings surface as raw
	// []byte instead of text. Bulk-string slices may alias the parser's
	// working buffer or the shared buffer pool and are only valid until
	// the callback returns.
	ReturnBuffers bool
	// StringNumbers makes Integer/Double values surface as verbatim
	// decimal text instead of native numeric types. BigNumber values
	// are not affected: they always carry both *big.Int and their text.
	// Mutually exclusive with BigInt.
	StringNumbers bool
	// BigInt makes Integer values decode to arbitrary-precision
	// *big.Int instead of int64. Mutually exclusive with StringNumbers.
	BigInt bool

	// Pool is the buffer-pool arena used to splice multi-chunk bulk
	// payloads. If nil, a fresh pool is created for this parser.
	Pool *bufpool.Pool
	// Logger receives diagnostic events (fatal errors, pool growth).
	// May be nil.
	Logger *zap.Logger
}

type shapeKind int

const (
	shapeArray shapeKind = iota
	shapeSet
	shapeMap
	shapePush
	shapeAttribute
)

// frame is a partially-filled aggregate awaiting more elements. It is
// only persisted across Feed calls when decoding runs out of buffered
// bytes mid-fill; within a single Feed call it is driven by ordinary
// Go recursion (see decode_aggregate.go).
type frame struct {
	shape  shapeKind
	target int
	elems  []Reply
	pos    int
}

// Parser is an incremental RESP2/RESP3 decoder. It is not safe for
// concurrent use: one instance serves one connection, and all Feed
// calls must be serialized by the caller (see package resp's doc
// comment and the respstream package for a gnet-backed driver).
type Parser struct {
	onReply     func(Reply)
	onError     func(error)
	onFatal     func(error)
	onPush      func(Reply)
	onAttribute func(Reply)

	returnBuffers bool
	stringNumbers bool
	bigInt        bool

	buf    []byte
	offset int

	chunkCache      [][]byte
	chunkCacheTotal int
	pendingBulkLen  int
	pendingDataStart int
	pendingLength    int
	pendingWireType  byte

	stack []*frame

	arrayDepth     int
	attributeDepth int
	forceTextDepth int

	pool   *bufpool.Pool
	logger *zap.Logger
}

// NewParser validates opts and returns a ready-to-feed Parser.
func NewParser(opts Options) (*Parser, error) {
	if opts.OnReply == nil {
		return nil, &ConfigError{Field: "OnReply", Reason: "required callback is nil"}
	}
	if opts.OnError == nil {
		return nil, &ConfigError{Field: "OnError", Reason: "required callback is nil"}
	}
	if opts.StringNumbers && opts.BigInt {
		return nil, &ConfigError{Field: "StringNumbers/BigInt", Reason: "mutually exclusive"}
	}
	pool := opts.Pool
	if pool == nil {
		pool = bufpool.New(opts.Logger)
	}
	return &Parser{
		onReply:        opts.OnReply,
		onError:        opts.OnError,
		onFatal:        opts.OnFatal,
		onPush:         opts.OnPush,
		onAttribute:    opts.OnAttribute,
		returnBuffers:  opts.ReturnBuffers,
		stringNumbers:  opts.StringNumbers,
		bigInt:         opts.BigInt,
		pool:           pool,
		logger:         opts.Logger,
		attributeDepth: -1,
	}, nil
}

// SetReturnBuffers toggles bulk-string representation. The flag is read
// when each string is decoded, so a toggle between replies affects only
// later replies, while a toggle while a reply is still in flight also
// affects that reply's strings not yet decoded.
func (p *Parser) SetReturnBuffers(v bool) { p.returnBuffers = v }

// SetStringNumbers toggles decimal-text number representation. Returns
// a *ConfigError if BigInt is currently set.
func (p *Parser) SetStringNumbers(v bool) error {
	if v && p.bigInt {
		return &ConfigError{Field: "StringNumbers", Reason: "mutually exclusive with BigInt"}
	}
	p.stringNumbers = v
	return nil
}

// SetBigInt toggles arbitrary-precision integer representation.
// Returns a *ConfigError if StringNumbers is currently set.
func (p *Parser) SetBigInt(v bool) error {
	if v && p.stringNumbers {
		return &ConfigError{Field: "BigInt", Reason: "mutually exclusive with StringNumbers"}
	}
	p.bigInt = v
	return nil
}

// Reset drops all pending state: buffer, continuation stack, pending
// bulk, shaping flags. It is idempotent. A fresh Feed starts a new
// stream from byte 0.
func (p *Parser) Reset() {
	p.clearState()
}

func (p *Parser) clearState() {
	p.buf = nil
	p.offset = 0
	p.chunkCache = nil
	p.chunkCacheTotal = 0
	p.pendingBulkLen = 0
	p.pendingDataStart = 0
	p.pendingLength = 0
	p.pendingWireType = 0
	p.stack = nil
	p.arrayDepth = 0
	p.attributeDepth = -1
	p.forceTextDepth = 0
}

// Feed pushes a chunk of bytes into the parser. Complete replies fire
// their callbacks synchronously before Feed returns. Feed never
// blocks and never retains chunk past the call if no splice is in
// flight; see Options.ReturnBuffers for the one case where returned
// slices alias pool memory beyond the call.
func (p *Parser) Feed(chunk []byte) {
	if p.pendingBulkLen > 0 {
		if !p.feedPendingBulk(chunk) {
			return
		}
	} else {
		p.mergeChunk(chunk)
	}
	p.run()
}

// mergeChunk implements the general (non-bulk-pending) resumption
// path of §4.9: splice the unread tail of the old buffer with the new
// chunk into a freshly allocated contiguous buffer.
func (p *Parser) mergeChunk(chunk []byte) {
	tail := p.buf[p.offset:]
	newBuf := make([]byte, len(tail)+len(chunk))
	n := copy(newBuf, tail)
	copy(newBuf[n:], chunk)
	p.buf = newBuf
	p.offset = 0
}

// run drains as many top-level replies as the current buffer allows,
// resuming any in-flight aggregate first.
func (p *Parser) run() {
	for {
		if len(p.stack) > 0 {
			if !p.resume() {
				return
			}
			continue
		}
		if p.pendingBulkLen > 0 {
			return
		}
		if p.offset >= len(p.buf) {
			return
		}
		val, ok := p.decodeValue()
		if !ok {
			return
		}
		p.dispatchTopLevel(val)
	}
}

// resume drives the continuation stack from its innermost (top) frame
// outward, delivering each completed frame's value into its parent
// until either the stack drains (returns true, caller may try to
// decode further top-level replies from the remaining buffer) or a
// frame is still waiting on more bytes (returns false).
func (p *Parser) resume() bool {
	for len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		val, ok := p.fillFrame(top)
		if !ok {
			return false
		}
		if len(p.stack) == 0 {
			p.dispatchTopLevel(val)
			return true
		}
		parent := p.stack[len(p.stack)-1]
		parent.elems[parent.pos] = val
		parent.pos++
	}
	return true
}

func (p *Parser) dispatchTopLevel(val Reply) {
	switch val.Kind {
	case KindError:
		p.onError(&ReplyError{Code: val.ErrCode, Message: val.ErrMsg})
	case KindPush:
		if p.onPush != nil {
			p.onPush(val)
		}
	default:
		p.onReply(val)
	}
}

func (p *Parser) emitAttribute(val Reply) {
	if p.onAttribute != nil {
		p.onAttribute(val)
	}
}

func (p *Parser) effectiveReturnBuffers() bool {
	if p.forceTextDepth > 0 {
		return false
	}
	return p.returnBuffers
}
