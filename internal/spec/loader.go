package spec

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads, bundles, validates and decodes an OpenAPI document.
//
// input may be a filesystem path or an http/https URL. file:// URLs are
// blocked. External $refs are bundled into the tree before decoding; local
// file refs are allowed when the root is a local file or WithAllowFileRefs
// is set. Documents that are neither Swagger 2.x nor OpenAPI 3.x fail with a
// SpecError matching ErrUnsupportedDialect.
func Load(ctx context.Context, input string, opts ...Option) (*Document, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	log := settings.Logger

	location, rootIsFile, err := resolveInput(input)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", location).Msg("loading document")

	raw, err := readLocation(ctx, location, settings)
	if err != nil {
		return nil, err
	}
	root, err := parseDocument(raw, location)
	if err != nil {
		return nil, err
	}

	dialect, version := detectDialect(root)
	if dialect == DialectUnknown {
		return nil, &SpecError{
			Code:     UnsupportedDialect,
			Message:  "spec: unknown or unsupported OpenAPI/Swagger version (expected 'openapi: 3.x' or 'swagger: 2.0')",
			Location: location,
			Cause:    ErrUnsupportedDialect,
		}
	}
	log.Debug().Str("dialect", dialect.String()).Str("version", version).Msg("detected dialect")

	if err := newBundler(root, dialect, settings, rootIsFile).run(ctx, location); err != nil {
		return nil, err
	}
	if err := validate(ctx, root, dialect, location, settings); err != nil {
		return nil, err
	}

	doc, err := Decode(root)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}
	return doc, nil
}

// resolveInput classifies input as URL or file path and returns the
// canonical location.
func resolveInput(input string) (location string, rootIsFile bool, err error) {
	u, uerr := url.Parse(input)
	if uerr == nil && u.Scheme != "" && u.Host != "" {
		scheme := strings.ToLower(u.Scheme)
		if scheme == "file" {
			return "", false, &SpecError{Code: InputError, Message: "spec: file:// URLs are blocked by default", Location: input}
		}
		if scheme != "http" && scheme != "https" {
			return "", false, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		return input, false, nil
	}
	if uerr == nil && strings.EqualFold(u.Scheme, "file") {
		return "", false, &SpecError{Code: InputError, Message: "spec: file:// URLs are blocked by default", Location: input}
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", false, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	return abs, true, nil
}

// parseDocument parses YAML or JSON into an ordered node tree and returns
// the root mapping.
func parseDocument(raw []byte, location string) (*yaml.Node, error) {
	var n yaml.Node
	if err := yaml.Unmarshal(raw, &n); err != nil {
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse spec: %v", err), Location: location, Cause: err}
	}
	root := deref(&n)
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, &SpecError{Code: ParseError, Message: "parse spec: document root is not a mapping", Location: location}
	}
	return root, nil
}
