package display

import (
	"sort"
	"strings"

	"github.com/disiqueira/gotree/v3"
)

// RenderTree draws slash-separated relative paths below root as a tree.
// Directories are listed before files at each level, both sorted by name.
func RenderTree(root string, files []string) string {
	top := newNode()
	for _, f := range files {
		top.insert(strings.Split(f, "/"))
	}

	tree := gotree.New(root)
	top.attach(tree)
	return tree.Print()
}

type node struct {
	dirs  map[string]*node
	files []string
}

func newNode() *node {
	return &node{dirs: map[string]*node{}}
}

func (n *node) insert(segments []string) {
	if len(segments) == 1 {
		n.files = append(n.files, segments[0])
		return
	}
	child, ok := n.dirs[segments[0]]
	if !ok {
		child = newNode()
		n.dirs[segments[0]] = child
	}
	child.insert(segments[1:])
}

func (n *node) attach(parent gotree.Tree) {
	names := make([]string, 0, len(n.dirs))
	for name := range n.dirs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n.dirs[name].attach(parent.Add(name + "/"))
	}

	sort.Strings(n.files)
	for _, f := range n.files {
		parent.Add(f)
	}
}
