package dom

import "strings"

// Walk visits root and its descendants in document order. A host's shadow
// root is visited before its light children. Returning false from fn skips
// the node's subtree.
func Walk(root Node, fn func(Node) bool) error {
	if root == nil {
		return ErrNilRoot
	}
	walk(root, fn)
	return nil
}

func walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	if sr := n.ShadowRoot(); sr != nil {
		walk(sr, fn)
	}
	for _, c := range n.Children() {
		walk(c, fn)
	}
}

// TextContent returns the whitespace-collapsed text of n's subtree.
func TextContent(n Node) string {
	return TextContentExcluding(n, nil)
}

// TextContentExcluding is TextContent with subtrees matching skip removed.
func TextContentExcluding(n Node, skip func(Node) bool) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var collect func(Node)
	collect = func(cur Node) {
		if cur.Kind() == TextNode {
			sb.WriteString(cur.Text())
			sb.WriteByte(' ')
			return
		}
		if skip != nil && skip(cur) {
			return
		}
		switch cur.Tag() {
		case "script", "style", "noscript":
			return
		}
		for _, c := range cur.Children() {
			collect(c)
		}
	}
	collect(n)
	return CollapseSpace(sb.String())
}

// CollapseSpace trims s and folds internal whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Closest returns the nearest node, starting at n itself, for which pred
// holds. Shadow roots are crossed into their host.
func Closest(n Node, pred func(Node) bool) Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Kind() == ElementNode && pred(cur) {
			return cur
		}
	}
	return nil
}

// AttrOr returns the attribute value or the empty string.
func AttrOr(n Node, name string) string {
	if n == nil {
		return ""
	}
	v, _ := n.Attr(name)
	return v
}

// HasAttr reports whether the attribute is present.
func HasAttr(n Node, name string) bool {
	if n == nil {
		return false
	}
	_, ok := n.Attr(name)
	return ok
}

// IsTag reports whether n is an element with one of the given tags.
func IsTag(n Node, tags ...string) bool {
	if n == nil || n.Kind() != ElementNode {
		return false
	}
	t := n.Tag()
	for _, want := range tags {
		if t == want {
			return true
		}
	}
	return false
}

// ClassContains reports whether n's class attribute contains any of the
// hints as a case-insensitive substring.
func ClassContains(n Node, hints ...string) bool {
	cls := strings.ToLower(AttrOr(n, "class"))
	if cls == "" {
		return false
	}
	for _, h := range hints {
		if strings.Contains(cls, h) {
			return true
		}
	}
	return false
}

// IsFormControl reports whether n is an input-like control.
func IsFormControl(n Node) bool {
	return IsTag(n, "input", "select", "textarea", "button")
}
