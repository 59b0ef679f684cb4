package spec

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// bundler rewrites external $refs so the root tree only holds in-document
// references. References to named schemas in another document are hoisted
// into the root's schema section under their own name; any other external
// target is inlined.
type bundler struct {
	settings  Settings
	allowFile bool
	dialect   Dialect
	root      *yaml.Node
	rootLoc   string
	docs      map[string]*yaml.Node
	hoisted   map[string]string // location#fragment -> schema name
	inlining  map[string]bool
}

func newBundler(root *yaml.Node, dialect Dialect, settings Settings, rootIsFile bool) *bundler {
	return &bundler{
		settings:  settings,
		allowFile: settings.AllowFileRefs || rootIsFile,
		dialect:   dialect,
		root:      root,
		docs:      map[string]*yaml.Node{},
		hoisted:   map[string]string{},
		inlining:  map[string]bool{},
	}
}

func (b *bundler) run(ctx context.Context, base string) error {
	b.rootLoc = base
	b.docs[base] = b.root
	return b.walk(ctx, b.root, base, true)
}

func (b *bundler) walk(ctx context.Context, n *yaml.Node, base string, inRoot bool) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			if err := b.walk(ctx, c, base, inRoot); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		if ref := scalarString(mapGet(n, "$ref")); ref != "" {
			return b.resolve(ctx, n, ref, base, inRoot)
		}
		for i := 1; i < len(n.Content); i += 2 {
			if err := b.walk(ctx, n.Content[i], base, inRoot); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *bundler) resolve(ctx context.Context, n *yaml.Node, ref, base string, inRoot bool) error {
	locPart, frag, _ := strings.Cut(ref, "#")
	if locPart == "" && inRoot {
		return nil
	}
	target := base
	if locPart != "" {
		var err error
		if target, err = b.locate(base, locPart); err != nil {
			return err
		}
	}
	key := target + "#" + frag
	if target == b.rootLoc {
		*n = *refNode("#" + frag)
		return nil
	}

	if name, ok := schemaFragmentName(frag); ok {
		if _, done := b.hoisted[key]; !done {
			b.hoisted[key] = name
			node, err := b.lookup(ctx, target, frag)
			if err != nil {
				return err
			}
			cp := deepCopy(node)
			if err := b.hoist(name, cp); err != nil {
				return err
			}
			if err := b.walk(ctx, cp, target, false); err != nil {
				return err
			}
		}
		*n = *refNode(b.localSchemaPrefix() + escapePointerToken(b.hoisted[key]))
		return nil
	}

	if b.inlining[key] {
		return &SpecError{Code: ParseError, Message: fmt.Sprintf("circular external reference %q", ref), Location: base}
	}
	b.inlining[key] = true
	defer delete(b.inlining, key)
	node, err := b.lookup(ctx, target, frag)
	if err != nil {
		return err
	}
	cp := deepCopy(node)
	if err := b.walk(ctx, cp, target, false); err != nil {
		return err
	}
	*n = *cp
	return nil
}

// locate resolves ref relative to base and applies the file-ref policy.
func (b *bundler) locate(base, ref string) (string, error) {
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return u.String(), nil
		case "file":
			if !b.allowFile {
				return "", &SpecError{Code: InputError, Message: fmt.Sprintf("blocked file ref: %s", ref), Location: base}
			}
			if u.Path != "" {
				return u.Path, nil
			}
			return u.Opaque, nil
		default:
			return "", &SpecError{Code: InputError, Message: fmt.Sprintf("unsupported ref scheme: %s", u.Scheme), Location: base}
		}
	}
	if isRemote(base) {
		bu, err := url.Parse(base)
		if err != nil {
			return "", &SpecError{Code: InputError, Message: err.Error(), Location: base, Cause: err}
		}
		ru, err := url.Parse(ref)
		if err != nil {
			return "", &SpecError{Code: InputError, Message: err.Error(), Location: base, Cause: err}
		}
		return bu.ResolveReference(ru).String(), nil
	}
	if !b.allowFile {
		return "", &SpecError{Code: InputError, Message: fmt.Sprintf("blocked file ref: %s", ref), Location: base}
	}
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref), nil
	}
	return filepath.Join(filepath.Dir(base), ref), nil
}

func (b *bundler) lookup(ctx context.Context, loc, frag string) (*yaml.Node, error) {
	doc, ok := b.docs[loc]
	if !ok {
		raw, err := readLocation(ctx, loc, b.settings)
		if err != nil {
			return nil, err
		}
		var n yaml.Node
		if err := yaml.Unmarshal(raw, &n); err != nil {
			return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse %s: %v", loc, err), Location: loc, Cause: err}
		}
		doc = deref(&n)
		b.docs[loc] = doc
		b.settings.Logger.Debug().Str("file", loc).Msg("loaded external document")
	}
	node, err := pointer(doc, frag)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: loc, JSONPointer: "#" + frag, Cause: err}
	}
	return node, nil
}

func (b *bundler) hoist(name string, schema *yaml.Node) error {
	section := b.root
	for _, k := range b.schemaSection() {
		next := mapGet(section, k)
		if next == nil {
			next = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			section.Content = append(section.Content, strNode(k), next)
		}
		section = next
	}
	if existing := mapGet(section, name); existing != nil {
		return &SpecError{Code: ParseError, Message: fmt.Sprintf("external schema %q collides with a schema of the same name", name)}
	}
	section.Content = append(section.Content, strNode(name), schema)
	return nil
}

func (b *bundler) schemaSection() []string {
	if b.dialect == DialectOpenAPI3 {
		return []string{"components", "schemas"}
	}
	return []string{"definitions"}
}

func (b *bundler) localSchemaPrefix() string {
	return "#/" + strings.Join(b.schemaSection(), "/") + "/"
}

// schemaFragmentName matches "/definitions/X" and "/components/schemas/X".
func schemaFragmentName(frag string) (string, bool) {
	for _, prefix := range []string{"/definitions/", "/components/schemas/"} {
		if rest, ok := strings.CutPrefix(frag, prefix); ok && rest != "" && !strings.Contains(rest, "/") {
			return unescapePointerToken(rest), true
		}
	}
	return "", false
}

// pointer walks a JSON pointer fragment such as "/definitions/Pet".
func pointer(doc *yaml.Node, frag string) (*yaml.Node, error) {
	n := deref(doc)
	if frag == "" || frag == "/" {
		return n, nil
	}
	for _, tok := range strings.Split(strings.TrimPrefix(frag, "/"), "/") {
		tok = unescapePointerToken(tok)
		switch {
		case n != nil && n.Kind == yaml.MappingNode:
			n = mapGet(n, tok)
		case n != nil && n.Kind == yaml.SequenceNode:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(n.Content) {
				return nil, fmt.Errorf("pointer #%s: bad index %q", frag, tok)
			}
			n = deref(n.Content[i])
		default:
			n = nil
		}
		if n == nil {
			return nil, fmt.Errorf("pointer #%s: %q not found", frag, tok)
		}
	}
	return n, nil
}

func deepCopy(n *yaml.Node) *yaml.Node {
	n = deref(n)
	if n == nil {
		return nil
	}
	cp := *n
	cp.Anchor = ""
	if n.Content != nil {
		cp.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			cp.Content[i] = deepCopy(c)
		}
	}
	return &cp
}

func strNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func refNode(ref string) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{strNode("$ref"), strNode(ref)}}
}

func escapePointerToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	return strings.ReplaceAll(tok, "/", "~1")
}
