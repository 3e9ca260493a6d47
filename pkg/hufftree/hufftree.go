// Package hufftree builds Huffman coding trees from byte frequency tables
// and derives the per-byte bit codes a tree implies.
//
// Construction is deterministic: the same frequency table always produces
// the same tree. Candidate subtrees are merged lowest weight first, and when
// two subtrees share a weight the one containing the smaller byte value is
// taken first and becomes the left child. Frequent bytes therefore end up on
// short paths and every distinct table maps to exactly one tree shape.
package hufftree

import (
	"container/heap"

	"github.com/chronos-tachyon/assert"

	"github.com/Willmo3/will-zip/pkg/bitseq"
	"github.com/Willmo3/will-zip/pkg/freqtable"
)

// Node is one node of a Huffman coding tree. Leaves carry a byte value;
// internal nodes always have both children. Weight is the total frequency
// of every byte under the node.
type Node struct {
	Weight uint64
	Value  byte
	Left   *Node
	Right  *Node

	// minValue is the smallest byte value in the subtree. It breaks weight
	// ties during construction so tree shape never depends on heap
	// internals.
	minValue byte
}

// Leaf reports whether n encodes a byte value directly.
func (n *Node) Leaf() bool {
	return n.Left == nil
}

// Step descends one level: bit 0 selects the left child, anything else the
// right. The node must be internal.
func (n *Node) Step(bit byte) *Node {
	assert.Assertf(!n.Leaf(), "step below leaf %d", n.Value)
	if bit == 0 {
		return n.Left
	}
	return n.Right
}

// Build constructs the coding tree for table. An empty table yields a nil
// root; a table with one entry yields a bare leaf.
func Build(table freqtable.Table) *Node {
	if len(table) == 0 {
		return nil
	}

	h := &nodeHeap{list: make([]*Node, 0, len(table))}
	for _, e := range table {
		h.list = append(h.list, &Node{Weight: e.Count, Value: e.Value, minValue: e.Value})
	}
	heap.Init(h)

	// Merge the two lightest subtrees until one remains. The first node
	// popped becomes the left child.
	for h.Len() > 1 {
		left := heap.Pop(h).(*Node)
		right := heap.Pop(h).(*Node)
		heap.Push(h, &Node{
			Weight:   left.Weight + right.Weight,
			Left:     left,
			Right:    right,
			minValue: min(left.minValue, right.minValue),
		})
	}

	return heap.Pop(h).(*Node)
}

// WalkFunc receives a leaf together with the bit path from the root to it.
// The path belongs to the callee.
type WalkFunc func(n *Node, path *bitseq.Sequence)

// Walk traverses the tree depth first, left before right, invoking fn once
// per leaf with the root-to-leaf path. Descending left appends a 0 bit and
// descending right a 1 bit; a tree that is a bare leaf is visited with an
// empty path.
func Walk(root *Node, fn WalkFunc) {
	if root == nil {
		return
	}
	walk(root, bitseq.New(), fn)
}

func walk(n *Node, path *bitseq.Sequence, fn WalkFunc) {
	if n.Leaf() {
		fn(n, path)
		return
	}

	left := path.Clone()
	left.AppendBit(0)
	walk(n.Left, left, fn)

	right := path.Clone()
	right.AppendBit(1)
	walk(n.Right, right, fn)
}

// CodeMap maps byte values to their bit codes under some tree.
type CodeMap map[byte]*bitseq.Sequence

// Codes derives the code for every leaf of the tree. A tree that is a single
// leaf gets the one-bit code 0, so encoded output still grows by one bit per
// source byte and the decoder has a bit to consume.
func Codes(root *Node) CodeMap {
	codes := make(CodeMap)
	if root == nil {
		return codes
	}
	if root.Leaf() {
		codes[root.Value] = bitseq.FromBits(0)
		return codes
	}

	Walk(root, func(n *Node, path *bitseq.Sequence) {
		codes[n.Value] = path
	})
	return codes
}

type nodeHeap struct {
	list []*Node
}

func (h *nodeHeap) Len() int {
	return len(h.list)
}

func (h *nodeHeap) Swap(i, j int) {
	h.list[i], h.list[j] = h.list[j], h.list[i]
}

func (h *nodeHeap) Less(i, j int) bool {
	a, b := h.list[i], h.list[j]
	if a.Weight != b.Weight {
		return a.Weight < b.Weight
	}
	return a.minValue < b.minValue
}

func (h *nodeHeap) Push(x any) {
	h.list = append(h.list, x.(*Node))
}

func (h *nodeHeap) Pop() any {
	last := len(h.list) - 1
	x := h.list[last]
	h.list = h.list[:last]
	return x
}

var _ heap.Interface = (*nodeHeap)(nil)
