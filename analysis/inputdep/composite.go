package inputdep

// compositeDependency tracks the dependency of an aggregate value with
// per-element precision. Struct fields are keyed by field name, all slice,
// array and map elements share the "[*]" selector. An element read falls
// back to the dependency of the whole aggregate when the element has never
// been written individually.
type compositeDependency struct {
	whole    Dependency
	elements map[string]Dependency
}

// indexSelector is the selector shared by all elements of slices, arrays
// and maps. Index expressions are not tracked individually.
const indexSelector = "[*]"

func newComposite(whole Dependency) *compositeDependency {
	return &compositeDependency{whole: whole}
}

// Whole returns the dependency of the aggregate as a unit.
func (c *compositeDependency) Whole() Dependency {
	return c.whole
}

// Element returns the dependency of a single element. The whole-aggregate
// dependency is always folded in: writing the whole aggregate affects every
// element.
func (c *compositeDependency) Element(selector string) Dependency {
	if e, ok := c.elements[selector]; ok {
		return e.Merge(c.whole)
	}
	return c.whole
}

// MergeElement raises the dependency of one element. Element writes are weak
// updates: aliasing and control flow may leave the old contents observable.
func (c *compositeDependency) MergeElement(selector string, d Dependency) bool {
	if c.elements == nil {
		c.elements = map[string]Dependency{}
	}
	old, ok := c.elements[selector]
	if ok && d.Leq(old) {
		return false
	}
	c.elements[selector] = old.Merge(d)
	return true
}

// MergeWhole raises the dependency of the aggregate as a unit.
func (c *compositeDependency) MergeWhole(d Dependency) bool {
	if d.Leq(c.whole) {
		return false
	}
	c.whole = c.whole.Merge(d)
	return true
}

// Flatten collapses the composite into a single dependency covering the
// whole aggregate and every element.
func (c *compositeDependency) Flatten() Dependency {
	res := c.whole
	for _, e := range c.elements {
		res = res.Merge(e)
	}
	return res
}

func (c *compositeDependency) copy() *compositeDependency {
	res := newComposite(c.whole)
	if len(c.elements) > 0 {
		res.elements = map[string]Dependency{}
		for sel, e := range c.elements {
			res.elements[sel] = e
		}
	}
	return res
}
