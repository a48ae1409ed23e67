package resp

import (
	"bytes"
	"math/big"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type lineStatus int

const (
	lineOK lineStatus = iota
	lineIncomplete
	lineFatal
)

// readLine scans p.buf starting at start for a CRLF terminator. It
// returns the line content (excluding CRLF), the offset just past the
// terminator, and a status: lineOK on success, lineIncomplete if no
// LF has arrived yet (state is left untouched, caller just waits for
// more bytes), lineFatal if an LF arrives without an immediately
// preceding CR (a framing violation — the fatal callback has already
// fired and state has already been cleared by the time this returns).
func (p *Parser) readLine(start int) ([]byte, int, lineStatus) {
	for i := start; i < len(p.buf); i++ {
		if p.buf[i] != '\n' {
			continue
		}
		if i == start || p.buf[i-1] != '\r' {
			p.fatalLine(start, i)
			return nil, 0, lineFatal
		}
		return p.buf[start : i-1], i + 1, lineOK
	}
	return nil, 0, lineIncomplete
}

// decodeValue decodes exactly one RESP value starting at p.offset. On
// success it returns (value, true). On insufficient data it leaves
// p.offset unchanged and returns (Reply{}, false); an aggregate that
// ran out of bytes mid-fill instead pushes a frame onto p.stack before
// returning false, and a bulk payload that has not fully arrived is
// recorded as pending-bulk state (offset moved past its length
// prefix), so the continuation survives until the next Feed.
func (p *Parser) decodeValue() (Reply, bool) {
	if p.offset >= len(p.buf) {
		return Reply{}, false
	}
	tag := p.buf[p.offset]
	switch tag {
	case '+':
		return p.decodeSimpleString()
	case '-':
		return p.decodeSimpleError()
	case ':':
		return p.decodeInteger()
	case '$':
		return p.decodeBulk('$')
	case '=':
		return p.decodeBulk('=')
	case '!':
		return p.decodeBulk('!')
	case '_':
		return p.decodeNull()
	case '#':
		return p.decodeBoolean()
	case ',':
		return p.decodeDouble()
	case '(':
		return p.decodeBigNumber()
	case '*':
		return p.decodeAggregate(shapeArray)
	case '~':
		return p.decodeAggregate(shapeSet)
	case '%':
		return p.decodeAggregate(shapeMap)
	case '>':
		return p.decodeAggregate(shapePush)
	case '|':
		return p.decodeAttribute()
	default:
		p.fatalByte(tag)
		return Reply{}, false
	}
}

func (p *Parser) decodeSimpleString() (Reply, bool) {
	line, next, status := p.readLine(p.offset + 1)
	if status != lineOK {
		return Reply{}, false
	}
	p.offset = next
	if p.effectiveReturnBuffers() {
		return Reply{Kind: KindSimpleString, Bytes: cloneBytes(line)}, true
	}
	return Reply{Kind: KindSimpleString, Str: string(line)}, true
}

func (p *Parser) decodeSimpleError() (Reply, bool) {
	line, next, status := p.readLine(p.offset + 1)
	if status != lineOK {
		return Reply{}, false
	}
	p.offset = next
	return Reply{Kind: KindError, ErrMsg: string(line)}, true
}

// decodeInteger implements §4.3, including the `:\r\n` -> 0 and
// `:-\r\n` -> 0 contracts: a bare sign with no digits is treated the
// same as no sign at all.
func (p *Parser) decodeInteger() (Reply, bool) {
	line, next, status := p.readLine(p.offset + 1)
	if status != lineOK {
		return Reply{}, false
	}
	raw := string(line)
	digits := raw
	if strings.HasPrefix(digits, "-") {
		digits = digits[1:]
	}
	if digits != "" && !allDigits(digits) {
		p.fatalValue(p.offset+1, raw)
		return Reply{}, false
	}
	p.offset = next
	if digits == "" {
		return p.integerReply("0", 0, big.NewInt(0)), true
	}
	if p.bigInt {
		n := new(big.Int)
		n.SetString(raw, 10)
		return Reply{Kind: KindInteger, Big: n}, true
	}
	if p.stringNumbers {
		return Reply{Kind: KindInteger, Str: raw}, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// digits are already validated above, so the only way ParseInt
		// can fail here is range overflow: a wire-valid integer too
		// wide for int64. Fall back to a lossy float64 rather than
		// treating a valid reply as a framing violation.
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			p.fatalValue(p.offset, raw)
			return Reply{}, false
		}
		return Reply{Kind: KindInteger, Float: f, Overflowed: true}, true
	}
	return Reply{Kind: KindInteger, Int: v}, true
}

func (p *Parser) integerReply(text string, i int64, big *big.Int) Reply {
	switch {
	case p.bigInt:
		return Reply{Kind: KindInteger, Big: big}
	case p.stringNumbers:
		return Reply{Kind: KindInteger, Str: text}
	default:
		return Reply{Kind: KindInteger, Int: i}
	}
}

func (p *Parser) decodeNull() (Reply, bool) {
	if p.offset+3 > len(p.buf) {
		return Reply{}, false
	}
	if p.buf[p.offset+1] != '\r' || p.buf[p.offset+2] != '\n' {
		p.fatalLine(p.offset+1, p.offset+2)
		return Reply{}, false
	}
	p.offset += 3
	return Reply{Kind: KindNull}, true
}

func (p *Parser) decodeBoolean() (Reply, bool) {
	if p.offset+4 > len(p.buf) {
		return Reply{}, false
	}
	c := p.buf[p.offset+1]
	if c != 't' && c != 'f' {
		p.fatalValue(p.offset+1, string(c))
		return Reply{}, false
	}
	if p.buf[p.offset+2] != '\r' || p.buf[p.offset+3] != '\n' {
		p.fatalLine(p.offset+1, p.offset+3)
		return Reply{}, false
	}
	p.offset += 4
	return Reply{Kind: KindBoolean, Bool: c == 't'}, true
}

// decodeDouble implements §4.5's inf/-inf text rewriting under
// StringNumbers ("Infinity" / "-Infinity").
func (p *Parser) decodeDouble() (Reply, bool) {
	line, next, status := p.readLine(p.offset + 1)
	if status != lineOK {
		return Reply{}, false
	}
	raw := string(line)
	p.offset = next
	neg := strings.HasPrefix(raw, "-")
	body := raw
	if neg {
		body = raw[1:]
	}
	if body == "inf" {
		if p.stringNumbers {
			text := "Infinity"
			if neg {
				text = "-Infinity"
			}
			return Reply{Kind: KindDouble, Str: text}, true
		}
		return Reply{Kind: KindDouble, Inf: true, InfNeg: neg}, true
	}
	if p.stringNumbers {
		return Reply{Kind: KindDouble, Str: raw}, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fatalValue(p.offset, raw)
		return Reply{}, false
	}
	return Reply{Kind: KindDouble, Float: f}, true
}

// decodeBigNumber always produces an arbitrary-precision value: unlike
// the source runtime, Go never lacks math/big, so there is no text
// fallback to implement here.
func (p *Parser) decodeBigNumber() (Reply, bool) {
	line, next, status := p.readLine(p.offset + 1)
	if status != lineOK {
		return Reply{}, false
	}
	raw := string(line)
	digits := raw
	if strings.HasPrefix(digits, "-") {
		digits = digits[1:]
	}
	if digits == "" || !allDigits(digits) {
		p.fatalValue(p.offset+1, raw)
		return Reply{}, false
	}
	p.offset = next
	n := new(big.Int)
	n.SetString(raw, 10)
	return Reply{Kind: KindBigNumber, Big: n, Str: raw}, true
}

// decodeBulk handles bulk string ($), verbatim string (=) and blob
// error (!): all three share the length-prefix-then-payload framing
// of §4.4 and §4.6, differing only in how finishBulk interprets the
// spliced payload.
func (p *Parser) decodeBulk(wireType byte) (Reply, bool) {
	lr, ok := p.readLengthPrefix()
	if !ok {
		return Reply{}, false
	}
	if lr.isNull {
		return Reply{Kind: KindNull}, true
	}
	length := lr.value
	dataStart := p.offset
	need := dataStart + length + 2
	if need <= len(p.buf) {
		payload := p.buf[dataStart : dataStart+length]
		p.offset = need
		return p.finishBulk(wireType, payload), true
	}
	p.pendingBulkLen = need
	p.pendingDataStart = dataStart
	p.pendingLength = length
	p.pendingWireType = wireType
	p.chunkCache = [][]byte{p.buf}
	p.chunkCacheTotal = len(p.buf)
	return Reply{}, false
}

func (p *Parser) finishBulk(wireType byte, payload []byte) Reply {
	switch wireType {
	case '=':
		format, body := "", payload
		if len(payload) >= 4 && payload[3] == ':' {
			format = string(payload[:3])
			body = payload[4:]
		}
		r := p.bulkReply(body)
		r.Verbatim = format
		return r
	case '!':
		code, msg := "", string(payload)
		if idx := bytes.IndexByte(payload, ' '); idx >= 0 {
			code = string(payload[:idx])
			msg = string(payload[idx+1:])
		}
		return Reply{Kind: KindError, ErrCode: code, ErrMsg: msg}
	default:
		return p.bulkReply(payload)
	}
}

func (p *Parser) bulkReply(payload []byte) Reply {
	if p.effectiveReturnBuffers() {
		return Reply{Kind: KindBulkString, Bytes: payload}
	}
	return Reply{Kind: KindBulkString, Str: string(payload)}
}

// feedPendingBulk appends chunk to the in-flight splice and, once
// enough bytes have accumulated, materializes the payload via the
// buffer pool and delivers it (§4.4, §4.9 multi-chunk completion).
// Returns false while still waiting for more bytes.
func (p *Parser) feedPendingBulk(chunk []byte) bool {
	p.chunkCache = append(p.chunkCache, chunk)
	p.chunkCacheTotal += len(chunk)
	if p.chunkCacheTotal < p.pendingBulkLen {
		return false
	}
	val := p.spliceBulk()
	p.deliverValue(val)
	return true
}

func (p *Parser) spliceBulk() Reply {
	dst := p.pool.Acquire(p.pendingLength)
	copyVirtualRange(p.chunkCache, p.pendingDataStart, dst)

	lastPiece := p.chunkCache[len(p.chunkCache)-1]
	totalBeforeLast := p.chunkCacheTotal - len(lastPiece)
	consumedInLast := p.pendingBulkLen - totalBeforeLast

	wireType := p.pendingWireType
	p.pendingBulkLen = 0
	p.pendingDataStart = 0
	p.pendingLength = 0
	p.pendingWireType = 0
	p.chunkCache = nil
	p.chunkCacheTotal = 0

	p.buf = lastPiece
	p.offset = consumedInLast
	return p.finishBulk(wireType, dst)
}

// copyVirtualRange copies len(dst) bytes starting at virtual offset
// start from the logical concatenation of pieces into dst, without
// ever materializing that full concatenation.
func copyVirtualRange(pieces [][]byte, start int, dst []byte) {
	need := len(dst)
	pos := 0
	virtualPos := 0
	for _, piece := range pieces {
		pieceEnd := virtualPos + len(piece)
		if pieceEnd > start && pos < need {
			copyStart := start - virtualPos
			if copyStart < 0 {
				copyStart = 0
			}
			avail := len(piece) - copyStart
			remain := need - pos
			n := avail
			if n > remain {
				n = remain
			}
			copy(dst[pos:pos+n], piece[copyStart:copyStart+n])
			pos += n
		}
		virtualPos = pieceEnd
		if pos >= need {
			break
		}
	}
}

// deliverValue routes a value produced outside the normal decodeValue
// call chain (the multi-chunk bulk-splice path) into whatever was
// waiting for it: the current stack top, or a fresh top-level
// dispatch if nothing is pending.
func (p *Parser) deliverValue(val Reply) {
	if len(p.stack) == 0 {
		p.dispatchTopLevel(val)
		return
	}
	top := p.stack[len(p.stack)-1]
	top.elems[top.pos] = val
	top.pos++
}

type lengthResult struct {
	value  int
	isNull bool
}

// readLengthPrefix reads the digits between a type tag and CRLF,
// recognizing RESP2's legacy `-1` null sentinel for bulk and
// aggregate types.
func (p *Parser) readLengthPrefix() (lengthResult, bool) {
	line, next, status := p.readLine(p.offset + 1)
	if status != lineOK {
		return lengthResult{}, false
	}
	n, ok := parseDecimalInt(line)
	if !ok {
		p.fatalValue(p.offset+1, string(line))
		return lengthResult{}, false
	}
	p.offset = next
	if n == -1 {
		return lengthResult{isNull: true}, true
	}
	return lengthResult{value: n}, true
}

func parseDecimalInt(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	neg := false
	i := 0
	if b[0] == '-' {
		neg = true
		i = 1
	}
	if i >= len(b) {
		return 0, false
	}
	n := 0
	for ; i < len(b); i++ {
		if b[i] < '0' || b[i] > '9' {
			return 0, false
		}
		n = n*10 + int(b[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (p *Parser) fatalByte(b byte) {
	p.reportFatal(p.offset, displayByte(b))
}

func (p *Parser) fatalValue(offset int, value string) {
	p.reportFatal(offset, value)
}

func (p *Parser) fatalLine(lineStart, nlIndex int) {
	p.reportFatal(lineStart, "malformed line (missing CR before LF)")
}

func (p *Parser) reportFatal(offset int, offending string) {
	err := &ProtocolError{Offset: offset, Buffer: append([]byte(nil), p.buf...), Offending: offending}
	p.clearState()
	if p.logger != nil {
		p.logger.Warn("resp: fatal protocol error", zap.Error(err))
	}
	if p.onFatal != nil {
		p.onFatal(err)
	} else {
		p.onError(err)
	}
}

func displayByte(b byte) string {
	if b >= 0x20 && b < 0x7f {
		return string(b)
	}
	return "0x" + strconv.FormatInt(int64(b), 16)
}
