package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-rod/rod"

	"github.com/sweta-tw/superfill.ai/internal/detector"
	"github.com/sweta-tw/superfill.ai/internal/dom"
	"github.com/sweta-tw/superfill.ai/internal/logging"
)

// RefAttr carries a captured control's index into the page-side ref table.
const RefAttr = "data-superfill-ref"

const maxSnapshotNodes = 20000

// snapshotScript serializes document.body, open shadow roots included. Rects
// are page coordinates; text rects come from a Range over the text node.
// Form controls get a ref into window.__superfillRefs and the computed style
// subset the honeypot rules read.
var snapshotScript = fmt.Sprintf(`
() => {
	const maxNodes = %d;
	let count = 0;
	const refs = [];
	window.__superfillRefs = refs;
	const sx = window.scrollX, sy = window.scrollY;
	const box = (r) => ({ x: r.x + sx, y: r.y + sy, width: r.width, height: r.height });
	const skip = new Set(['SCRIPT', 'STYLE', 'NOSCRIPT', 'TEMPLATE', 'HEAD', 'META', 'LINK']);
	const controls = new Set(['INPUT', 'SELECT', 'TEXTAREA']);

	const walk = (node) => {
		if (count++ > maxNodes) return null;
		if (node.nodeType === Node.TEXT_NODE) {
			if (!node.textContent || !node.textContent.trim()) return null;
			const range = document.createRange();
			range.selectNodeContents(node);
			return { kind: 'text', text: node.textContent, rect: box(range.getBoundingClientRect()) };
		}
		if (node.nodeType !== Node.ELEMENT_NODE || skip.has(node.tagName)) return null;

		const attrs = {};
		for (const { name, value } of Array.from(node.attributes || [])) attrs[name] = value;
		const rect = node.getBoundingClientRect();
		const style = window.getComputedStyle(node);
		const visible = style.display !== 'none' && style.visibility !== 'hidden' &&
			style.opacity !== '0' && (rect.width > 0 || rect.height > 0 || style.display === 'contents');

		const out = { kind: 'element', tag: node.tagName.toLowerCase(), attrs, rect: box(rect), visible, children: [] };
		if (controls.has(node.tagName)) {
			if (node.tagName !== 'SELECT' && node.type !== 'checkbox' && node.type !== 'radio') attrs.value = node.value;
			attrs['%s'] = String(refs.length);
			refs.push(node);
			out.style = {
				position: style.position, left: style.left, top: style.top,
				clip: style.clip, clipPath: style.clipPath,
				pointerEvents: style.pointerEvents, opacity: style.opacity,
			};
		}
		if (node.shadowRoot) {
			const shadow = { kind: 'element', tag: '#shadow-root', children: [] };
			for (const c of Array.from(node.shadowRoot.childNodes)) {
				const s = walk(c);
				if (s) shadow.children.push(s);
			}
			out.shadow = shadow;
		}
		for (const c of Array.from(node.childNodes)) {
			const s = walk(c);
			if (s) out.children.push(s);
		}
		return out;
	};

	return { url: location.href, title: document.title, root: walk(document.documentElement), truncated: count > maxNodes };
}
`, maxSnapshotNodes, RefAttr)

const fillScript = `(ref, value) => {
	const el = (window.__superfillRefs || [])[ref];
	if (!el || !el.isConnected) return false;
	el.focus();
	el.value = value;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

// rawNode is dom.SnapshotNode plus the computed style of form controls.
type rawNode struct {
	Kind     string            `json:"kind"`
	Tag      string            `json:"tag,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Rect     *dom.Rect         `json:"rect,omitempty"`
	Visible  *bool             `json:"visible,omitempty"`
	Style    map[string]string `json:"style,omitempty"`
	Children []rawNode         `json:"children,omitempty"`
	Shadow   *rawNode          `json:"shadow,omitempty"`
}

type rawPage struct {
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	Root      *rawNode `json:"root"`
	Truncated bool     `json:"truncated"`
}

// Snapshot is a captured page.
type Snapshot struct {
	URL       string
	Title     string
	Root      *dom.Element
	Honeypots []Honeypot
	Truncated bool
}

// Snapshot captures the session's current document. Controls flagged as
// honeypots are marked with detector.IgnoreAttr so detection skips them.
func (m *SessionManager) Snapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	if err := m.ensureStarted(ctx); err != nil {
		return nil, err
	}
	page, ok := m.Page(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           snapshotScript,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil {
		return nil, fmt.Errorf("snapshot failed: %w", err)
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	m.touch(sessionID)
	return decodePage(raw)
}

func decodePage(raw []byte) (*Snapshot, error) {
	var p rawPage
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if p.Root == nil {
		return nil, fmt.Errorf("decode snapshot: %w", dom.ErrNilRoot)
	}

	snap := &Snapshot{URL: p.URL, Title: p.Title, Truncated: p.Truncated}
	snap.Root = dom.FromSnapshot(toSnapshotNode(*p.Root, &snap.Honeypots))
	if p.Truncated {
		logging.BrowserWarn("Snapshot of %s truncated at %d nodes", p.URL, maxSnapshotNodes)
	}
	logging.BrowserDebug("Captured %s: %d honeypot controls", p.URL, len(snap.Honeypots))
	return snap, nil
}

func toSnapshotNode(n rawNode, honeypots *[]Honeypot) dom.SnapshotNode {
	sn := dom.SnapshotNode{
		Kind:    n.Kind,
		Tag:     n.Tag,
		Attrs:   n.Attrs,
		Text:    n.Text,
		Rect:    n.Rect,
		Visible: n.Visible,
	}
	if n.Style != nil && (n.Visible == nil || *n.Visible) {
		c := Control{Tag: n.Tag, Attrs: n.Attrs, Style: n.Style}
		if n.Rect != nil {
			c.Rect = *n.Rect
		}
		if hp := CheckHoneypot(c); hp.IsHoneypot {
			if sn.Attrs == nil {
				sn.Attrs = map[string]string{}
			}
			sn.Attrs[detector.IgnoreAttr] = "honeypot"
			*honeypots = append(*honeypots, hp)
		}
	}
	for _, c := range n.Children {
		sn.Children = append(sn.Children, toSnapshotNode(c, honeypots))
	}
	if n.Shadow != nil {
		shadow := toSnapshotNode(*n.Shadow, honeypots)
		sn.Shadow = &shadow
	}
	return sn
}

func refOf(n dom.Node) (int, bool) {
	if n == nil {
		return 0, false
	}
	v, ok := n.Attr(RefAttr)
	if !ok {
		return 0, false
	}
	ref, err := strconv.Atoi(strings.TrimSpace(v))
	return ref, err == nil
}
