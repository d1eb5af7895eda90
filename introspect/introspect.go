// Package introspect renders a runtime's scope and fiber hierarchy as an
// ASCII tree, for debugging lifetime and supervision wiring. Output is a
// diagnostic snapshot; concurrent state changes may be partially reflected.
package introspect

import (
	"fmt"
	"sort"

	"github.com/m1gwings/treedrawer/tree"

	"github.com/NetPo4ki/go-fiber/fiber"
)

// Scopes draws the scope tree rooted at the global scope, with the fibers
// attached to each scope for interrupt-on-close tracking.
func Scopes(rt *fiber.Runtime) string {
	root := tree.NewTree(tree.NodeString(scopeLabel(rt.GlobalScope())))
	addScope(root, rt.GlobalScope())
	return fmt.Sprint(root)
}

// Supervision draws the automatic-supervision forest: every live fiber
// without a supervising parent is a root, with its supervised descendants
// beneath it.
func Supervision(rt *fiber.Runtime) string {
	live := rt.LiveFibers()
	sort.Slice(live, func(i, j int) bool { return live[i].ID() < live[j].ID() })

	root := tree.NewTree(tree.NodeString("fibers"))
	for _, f := range live {
		if f.Parent() != nil {
			continue
		}
		addFiber(root, rt, f)
	}
	return fmt.Sprint(root)
}

func addScope(node *tree.Tree, s *fiber.Scope) {
	fibers := s.Fibers()
	sort.Slice(fibers, func(i, j int) bool { return fibers[i].ID() < fibers[j].ID() })
	for _, f := range fibers {
		node.AddChild(tree.NodeString(fiberLabel(f)))
	}
	children := s.Children()
	sort.Slice(children, func(i, j int) bool { return children[i].ID() < children[j].ID() })
	for _, c := range children {
		addScope(node.AddChild(tree.NodeString(scopeLabel(c))), c)
	}
}

func addFiber(node *tree.Tree, rt *fiber.Runtime, f *fiber.Fiber) {
	child := node.AddChild(tree.NodeString(fiberLabel(f)))
	kids := rt.SupervisedChildren(f)
	sort.Slice(kids, func(i, j int) bool { return kids[i].ID() < kids[j].ID() })
	for _, k := range kids {
		addFiber(child, rt, k)
	}
}

func scopeLabel(s *fiber.Scope) string {
	state := "open"
	if s.Closed() {
		state = "closed"
	}
	return fmt.Sprintf("scope %d (%s, %s)", s.ID(), s.Role(), state)
}

func fiberLabel(f *fiber.Fiber) string {
	return fmt.Sprintf("fiber %d [%s]", f.ID(), f.State())
}
