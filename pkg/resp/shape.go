package resp

// shapeFrame converts a fully-populated frame into its final Reply.
// Array/Set/Push all share the flat Elems representation and differ
// only by Kind; Map and Attribute pair consecutive elements into
// Pairs, preserving wire order.
func (p *Parser) shapeFrame(f *frame) Reply {
	switch f.shape {
	case shapeSet:
		return Reply{Kind: KindSet, Elems: f.elems}
	case shapePush:
		return Reply{Kind: KindPush, Elems: f.elems}
	case shapeMap, shapeAttribute:
		pairs := make([]Pair, len(f.elems)/2)
		for i := range pairs {
			pairs[i] = Pair{Key: f.elems[2*i], Value: f.elems[2*i+1]}
		}
		return Reply{Kind: KindMap, Pairs: pairs}
	default:
		return Reply{Kind: KindArray, Elems: f.elems}
	}
}
