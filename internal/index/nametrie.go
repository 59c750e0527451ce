package index

import "sort"

// Arena-based prefix trie over entity names.
//
// Nodes live in one contiguous slice and reference children by index
// instead of pointer, which keeps allocations low and traversal cache
// friendly when a document holds tens of thousands of names. Paths are the
// lowercased runes of a name; the original-case names are kept at the
// terminal node so lookups stay case-insensitive while results preserve
// authored casing.
type nodeIndex int

type nameTrie struct {
	nodes []trieNode
}

type trieNode struct {
	children map[rune]nodeIndex
	names    map[string]struct{} // names terminating at this node
}

func newNameTrie() *nameTrie {
	t := &nameTrie{nodes: make([]trieNode, 0, 1024)}
	t.nodes = append(t.nodes, trieNode{children: make(map[rune]nodeIndex)})
	return t
}

func (t *nameTrie) newNode() nodeIndex {
	idx := nodeIndex(len(t.nodes))
	t.nodes = append(t.nodes, trieNode{children: make(map[rune]nodeIndex)})
	return idx
}

// insert adds a name under its lowercased rune path.
func (t *nameTrie) insert(name string) {
	current := nodeIndex(0)
	for _, r := range lower(name) {
		node := &t.nodes[current]
		childIdx, exists := node.children[r]
		if !exists {
			childIdx = t.newNode()
			t.nodes[current].children[r] = childIdx
		}
		current = childIdx
	}
	node := &t.nodes[current]
	if node.names == nil {
		node.names = make(map[string]struct{})
	}
	node.names[name] = struct{}{}
}

// remove unlinks a name. Emptied nodes stay in the arena; they are
// reclaimed on the next full rebuild.
func (t *nameTrie) remove(name string) {
	current := nodeIndex(0)
	for _, r := range lower(name) {
		childIdx, exists := t.nodes[current].children[r]
		if !exists {
			return
		}
		current = childIdx
	}
	delete(t.nodes[current].names, name)
}

// withPrefix returns all names under the given prefix, sorted.
// An empty prefix returns every name.
func (t *nameTrie) withPrefix(prefix string) []string {
	current := nodeIndex(0)
	for _, r := range lower(prefix) {
		childIdx, exists := t.nodes[current].children[r]
		if !exists {
			return nil
		}
		current = childIdx
	}

	var out []string
	t.collect(current, &out)
	sort.Strings(out)
	return out
}

func (t *nameTrie) collect(idx nodeIndex, out *[]string) {
	node := t.nodes[idx]
	for name := range node.names {
		*out = append(*out, name)
	}
	for _, childIdx := range node.children {
		t.collect(childIdx, out)
	}
}
