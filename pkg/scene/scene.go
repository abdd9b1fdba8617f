// Package scene is a small retained SVG element tree. The editor keeps one
// tree per view, reconciles it against the node and edge model, and
// serializes it to SVG markup.
package scene

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Element is one SVG element. The class attribute is held as an ordered set
// and merged into the attributes on serialization.
type Element struct {
	Tag      string
	Text     string
	Children []*Element

	attrs   map[string]string
	classes []string
}

// New creates an element with the given tag and classes.
func New(tag string, classes ...string) *Element {
	e := &Element{Tag: tag}
	for _, c := range classes {
		e.AddClass(c)
	}
	return e
}

// =============================================================================
// Attributes
// =============================================================================

// Attr returns the attribute value, or "" if unset.
func (e *Element) Attr(name string) string {
	if name == "class" {
		return strings.Join(e.classes, " ")
	}
	return e.attrs[name]
}

// HasAttr reports whether the attribute is set.
func (e *Element) HasAttr(name string) bool {
	if name == "class" {
		return len(e.classes) > 0
	}
	_, ok := e.attrs[name]
	return ok
}

// SetAttr sets an attribute. Setting "class" replaces the class set.
func (e *Element) SetAttr(name, value string) *Element {
	if name == "class" {
		e.classes = nil
		for _, c := range strings.Fields(value) {
			e.AddClass(c)
		}
		return e
	}
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
	return e
}

// RemoveAttr deletes an attribute.
func (e *Element) RemoveAttr(name string) {
	if name == "class" {
		e.classes = nil
		return
	}
	delete(e.attrs, name)
}

// ID returns the id attribute.
func (e *Element) ID() string { return e.attrs["id"] }

// =============================================================================
// Classes
// =============================================================================

// HasClass reports whether the element carries class c.
func (e *Element) HasClass(c string) bool {
	for _, have := range e.classes {
		if have == c {
			return true
		}
	}
	return false
}

// AddClass adds c if not present.
func (e *Element) AddClass(c string) {
	if c != "" && !e.HasClass(c) {
		e.classes = append(e.classes, c)
	}
}

// RemoveClass removes c if present.
func (e *Element) RemoveClass(c string) {
	for i, have := range e.classes {
		if have == c {
			e.classes = append(e.classes[:i], e.classes[i+1:]...)
			return
		}
	}
}

// SetClass adds or removes c.
func (e *Element) SetClass(c string, on bool) {
	if on {
		e.AddClass(c)
	} else {
		e.RemoveClass(c)
	}
}

// Classes returns a copy of the class list.
func (e *Element) Classes() []string { return append([]string(nil), e.classes...) }

// =============================================================================
// Tree
// =============================================================================

// Append adds children at the end.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Remove detaches child and reports whether it was found.
func (e *Element) Remove(child *Element) bool {
	for i, c := range e.Children {
		if c == child {
			e.Children = append(e.Children[:i], e.Children[i+1:]...)
			return true
		}
	}
	return false
}

// ChildByID returns the direct child with the given id.
func (e *Element) ChildByID(id string) *Element {
	for _, c := range e.Children {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

// ChildrenByID indexes direct children by id. Children without id are skipped.
func (e *Element) ChildrenByID() map[string]*Element {
	m := make(map[string]*Element, len(e.Children))
	for _, c := range e.Children {
		if id := c.ID(); id != "" {
			m[id] = c
		}
	}
	return m
}

// Find returns all descendants (not e itself) matching fn in document order.
func (e *Element) Find(fn func(*Element) bool) []*Element {
	var out []*Element
	var walk func(*Element)
	walk = func(n *Element) {
		for _, c := range n.Children {
			if fn(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

// First returns the first descendant matching fn, or nil.
func (e *Element) First(fn func(*Element) bool) *Element {
	for _, c := range e.Children {
		if fn(c) {
			return c
		}
		if found := c.First(fn); found != nil {
			return found
		}
	}
	return nil
}

// FindByClass returns descendants carrying class c.
func (e *Element) FindByClass(c string) []*Element {
	return e.Find(func(n *Element) bool { return n.HasClass(c) })
}

// Clone returns a deep copy.
func (e *Element) Clone() *Element {
	c := &Element{Tag: e.Tag, Text: e.Text, classes: e.Classes()}
	if e.attrs != nil {
		c.attrs = make(map[string]string, len(e.attrs))
		for k, v := range e.attrs {
			c.attrs[k] = v
		}
	}
	for _, ch := range e.Children {
		c.Children = append(c.Children, ch.Clone())
	}
	return c
}

// =============================================================================
// Serialization
// =============================================================================

// WriteTo writes the element as SVG markup. Attributes are sorted by name,
// with id first, so output is stable.
func (e *Element) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	e.write(&buf)
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// String returns the element markup.
func (e *Element) String() string {
	var buf bytes.Buffer
	e.write(&buf)
	return buf.String()
}

func (e *Element) write(buf *bytes.Buffer) {
	buf.WriteByte('<')
	buf.WriteString(e.Tag)
	for _, name := range e.attrNames() {
		fmt.Fprintf(buf, ` %s="`, name)
		_ = xml.EscapeText(buf, []byte(e.Attr(name)))
		buf.WriteByte('"')
	}
	if e.Text == "" && len(e.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	_ = xml.EscapeText(buf, []byte(e.Text))
	for _, c := range e.Children {
		c.write(buf)
	}
	buf.WriteString("</")
	buf.WriteString(e.Tag)
	buf.WriteByte('>')
}

func (e *Element) attrNames() []string {
	names := make([]string, 0, len(e.attrs)+1)
	for k := range e.attrs {
		if k != "id" {
			names = append(names, k)
		}
	}
	if len(e.classes) > 0 {
		names = append(names, "class")
	}
	sort.Strings(names)
	if _, ok := e.attrs["id"]; ok {
		names = append([]string{"id"}, names...)
	}
	return names
}

// ParseFragment parses markup holding zero or more sibling elements.
func ParseFragment(markup string) ([]*Element, error) {
	dec := xml.NewDecoder(strings.NewReader("<fragment>" + markup + "</fragment>"))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	root := &Element{}
	stack := []*Element{root}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse markup: %w", err)
		}
		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Tag: qualified(t.Name)}
			for _, a := range t.Attr {
				el.SetAttr(qualified(a.Name), a.Value)
			}
			top.Append(el)
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if s := strings.TrimSpace(string(t)); s != "" {
				top.Text += s
			}
		}
	}
	if len(root.Children) == 0 {
		return nil, nil
	}
	return root.Children[0].Children, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
