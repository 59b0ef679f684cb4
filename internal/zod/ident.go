package zod

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// reserved names cannot be bound by `export const`. "z" is the zod import,
// "resources" the map export and "RegExp" is called by pattern checks.
var reserved = map[string]bool{
	"z": true, "break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true, "let": true, "static": true, "implements": true,
	"interface": true, "package": true, "private": true, "protected": true,
	"public": true, "await": true, "resources": true, "RegExp": true,
}

// Identifier turns a schema name into a TypeScript identifier. Valid
// identifiers are returned unchanged and reserved ones get a "_" prefix;
// other names are split on non-alphanumerics and title-cased
// ("pet-store.v1" -> "PetStoreV1").
func Identifier(name string) string {
	if identRe.MatchString(name) {
		if reserved[name] {
			return "_" + name
		}
		return name
	}
	caser := cases.Title(language.English, cases.NoLower)
	var b strings.Builder
	for _, part := range strings.FieldsFunc(name, func(r rune) bool {
		return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) && r != '_' && r != '$'
	}) {
		b.WriteString(caser.String(part))
	}
	out := b.String()
	if out == "" || unicode.IsDigit(rune(out[0])) || reserved[out] {
		out = "_" + out
	}
	return out
}
