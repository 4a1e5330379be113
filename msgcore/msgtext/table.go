// Package msgtext implements the pluggable lookup-table byte-sequence to
// string encoding referenced (but not itself specified) by the core: a
// prefix tree mapping variable-length byte sequences to text tokens, and
// back. It exposes the table through golang.org/x/text/encoding's
// Encoding interface so it composes with the rest of the x/text
// transform pipeline (encoding.Encoding => transform.Transformer).
package msgtext

import "golang.org/x/text/encoding"

type trieNode struct {
	text     string
	terminal bool
	children map[byte]*trieNode
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[byte]*trieNode)}
}

// Table is a byte-sequence <-> string prefix tree. It is built once at
// load time (from a game's plugin-supplied character table) and then
// used read-only by many decoders/encoders concurrently: Table itself
// carries no mutable state after Add calls stop.
type Table struct {
	root      *trieNode
	encodeMap map[string][]byte
	maxTokLen int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		root:      newTrieNode(),
		encodeMap: make(map[string][]byte),
	}
}

// Add registers a byte sequence <-> text token pair. Later Add calls for
// the same byte sequence overwrite the decode mapping; later Add calls
// for the same text token overwrite the encode mapping. Both directions
// are independent so a table may have multiple byte spellings for one
// token (decode picks the longest matching sequence; encode picks
// whichever was added last for that token).
func (t *Table) Add(seq []byte, text string) {
	node := t.root
	for _, b := range seq {
		child, ok := node.children[b]
		if !ok {
			child = newTrieNode()
			node.children[b] = child
		}
		node = child
	}
	node.terminal = true
	node.text = text

	t.encodeMap[text] = append([]byte(nil), seq...)
	if len(text) > t.maxTokLen {
		t.maxTokLen = len(text)
	}
}

// DecodeNext greedily matches the longest byte sequence in data (from
// its start) present in the table and returns its text plus the number
// of bytes consumed. ok is false when no prefix of data matches any
// registered sequence.
func (t *Table) DecodeNext(data []byte) (text string, consumed int, ok bool) {
	text, consumed, ok, _ = t.decodeNext(data)
	return
}

// decodeNext is DecodeNext plus short, which reports whether the walk
// ran out of data while still inside the trie rather than hitting a
// byte with no child. short means a longer (or first) match might still
// be found if the caller had more input to offer; it's what lets a
// streaming caller (the x/text transformer) distinguish "no match
// exists" from "ask me again with more bytes."
func (t *Table) decodeNext(data []byte) (text string, consumed int, ok bool, short bool) {
	node := t.root
	bestText := ""
	bestLen := 0
	i := 0
	for ; i < len(data); i++ {
		child, exists := node.children[data[i]]
		if !exists {
			break
		}
		node = child
		if node.terminal {
			bestText = node.text
			bestLen = i + 1
			ok = true
		}
	}
	short = i == len(data) && len(node.children) > 0
	return bestText, bestLen, ok, short
}

// EncodeNext greedily matches the longest registered text token that is
// a prefix of s and returns its byte sequence plus the number of runes
// (as bytes of s) consumed.
func (t *Table) EncodeNext(s string) (data []byte, consumed int, ok bool) {
	limit := t.maxTokLen
	if limit > len(s) {
		limit = len(s)
	}
	for l := limit; l >= 1; l-- {
		if seq, exists := t.encodeMap[s[:l]]; exists {
			return seq, l, true
		}
	}
	return nil, 0, false
}

// AsEncoding adapts Table to golang.org/x/text/encoding.Encoding so it
// can be used with transform.NewReader/NewWriter like any built-in
// x/text codec.
func (t *Table) AsEncoding() encoding.Encoding {
	return tableEncoding{t}
}
