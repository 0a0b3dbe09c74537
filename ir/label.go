package ir

import "fmt"

// Label is a branch target. Two labels are the same label iff their IDs
// match; the Name field exists purely for rendering (and is always of the
// form "Lk" for a numbered label, assigned by the analyzer in order of
// first appearance in the instruction stream).
type Label struct {
	Name string
	ID   int
}

func NewLabel(id int) *Label {
	return &Label{Name: fmt.Sprintf("L%d", id), ID: id}
}

func (l *Label) Equal(o *Label) bool {
	if l == nil || o == nil {
		return l == o
	}
	return l.ID == o.ID
}
