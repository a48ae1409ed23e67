package resp

// decodeAggregate handles array (*), set (~), map (%) and push (>).
// A map's element count is doubled up front since keys and values are
// interleaved on the wire and in frame.elems.
//
// Nested aggregates are driven by ordinary Go recursion within a
// single Feed call: fillFrame calls decodeValue for each element,
// which recurses back into decodeAggregate for a nested array. Only
// when a fill runs out of buffered bytes does the frame stay behind
// on p.stack, to be picked up by resume on the next Feed.
func (p *Parser) decodeAggregate(shape shapeKind) (Reply, bool) {
	lr, ok := p.readLengthPrefix()
	if !ok {
		return Reply{}, false
	}
	if lr.isNull {
		return Reply{Kind: KindNull}, true
	}
	target := lr.value
	if shape == shapeMap {
		target *= 2
	}
	f := &frame{shape: shape, target: target, elems: make([]Reply, target)}
	p.stack = append(p.stack, f)
	p.arrayDepth++
	return p.fillFrame(f)
}

// decodeAttribute handles the RESP3 `|` prefix (§4.8). An attribute is
// not itself a reply: once its map body is complete it is delivered
// to OnAttribute and decoding falls straight through to the value it
// precedes, which is what this call ultimately returns.
func (p *Parser) decodeAttribute() (Reply, bool) {
	lr, ok := p.readLengthPrefix()
	if !ok {
		return Reply{}, false
	}
	if lr.isNull {
		p.emitAttribute(Reply{Kind: KindMap})
		return p.decodeValue()
	}
	target := lr.value * 2
	f := &frame{shape: shapeAttribute, target: target, elems: make([]Reply, target)}
	p.stack = append(p.stack, f)
	p.arrayDepth++
	p.attributeDepth = p.arrayDepth
	p.forceTextDepth++
	return p.fillFrame(f)
}

// fillFrame fills f's remaining element slots from the current
// buffer, recursing into decodeValue for each one. It returns
// (Reply{}, false) the moment it runs out of bytes, leaving f on top
// of p.stack exactly where it was (pos already reflects whatever was
// filled so far). Once f.target is reached it pops itself and shapes
// the result via completeFrame.
func (p *Parser) fillFrame(f *frame) (Reply, bool) {
	for f.pos < f.target {
		if p.offset >= len(p.buf) {
			return Reply{}, false
		}
		val, ok := p.decodeValue()
		if !ok {
			return Reply{}, false
		}
		f.elems[f.pos] = val
		f.pos++
	}
	p.stack = p.stack[:len(p.stack)-1]
	return p.completeFrame(f)
}

// completeFrame shapes a just-popped frame into its final Reply. An
// attribute frame is a side channel rather than a value: it fires
// OnAttribute and then decodes (and returns) the real value it was
// prefixed to, which may itself be incomplete or another attribute.
func (p *Parser) completeFrame(f *frame) (Reply, bool) {
	p.arrayDepth--
	shaped := p.shapeFrame(f)
	if f.shape == shapeAttribute {
		p.forceTextDepth--
		p.emitAttribute(shaped)
		return p.decodeValue()
	}
	return shaped, true
}
