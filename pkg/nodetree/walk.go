package nodetree

// Visitor receives pre-order Enter and post-order Leave calls. Returning
// false from Enter skips the subtree and its Leave call.
type Visitor interface {
	Enter(t *Tree, id int) bool
	Leave(t *Tree, id int)
}

// VisitorFuncs adapts plain functions; nil funcs are no-ops and a nil
// EnterFunc descends everywhere.
type VisitorFuncs struct {
	EnterFunc func(t *Tree, id int) bool
	LeaveFunc func(t *Tree, id int)
}

func (v VisitorFuncs) Enter(t *Tree, id int) bool {
	if v.EnterFunc == nil {
		return true
	}
	return v.EnterFunc(t, id)
}

func (v VisitorFuncs) Leave(t *Tree, id int) {
	if v.LeaveFunc != nil {
		v.LeaveFunc(t, id)
	}
}

type frame struct {
	id      int
	entered bool
}

// Walk visits the subtree rooted at start depth-first in document order.
func Walk(t *Tree, start int, v Visitor) {
	if start < 0 || start >= len(t.Nodes) {
		return
	}

	stack := []frame{{id: start}}
	var kids []int
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.entered {
			v.Leave(t, f.id)
			continue
		}
		if !v.Enter(t, f.id) {
			continue
		}
		stack = append(stack, frame{id: f.id, entered: true})

		kids = kids[:0]
		for c := t.Nodes[f.id].FirstChild; c != None; c = t.Nodes[c].NextSibling {
			kids = append(kids, c)
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: kids[i]})
		}
	}
}
