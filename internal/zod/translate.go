// Package zod translates JSON-Schema nodes into zod validator expressions.
package zod

import (
	"strconv"
	"strings"

	"github.com/mark3labs/swagger2zod/internal/spec"
)

// Expr is a zod expression and the named-schema identifiers it mentions,
// in order of first appearance.
type Expr struct {
	Code string
	Refs []string
}

// Translate strips presentation-only fields from s and returns its zod
// expression. Nested references become z.lazy(() => Name) and are never
// expanded. Output depends only on the validation keywords of s.
func Translate(s *spec.Schema) Expr {
	t := &translator{seen: map[string]bool{}}
	code := t.expr(s.WithoutDocs())
	return Expr{Code: code, Refs: t.refs}
}

// Ref returns the bare expression for a named-schema reference.
func Ref(name string) Expr {
	id := Identifier(name)
	return Expr{Code: id, Refs: []string{id}}
}

// ArrayOf returns the array-wrapped expression for a named-schema reference.
func ArrayOf(name string) Expr {
	id := Identifier(name)
	return Expr{Code: "z.array(" + id + ")", Refs: []string{id}}
}

type translator struct {
	refs []string
	seen map[string]bool
}

func (t *translator) ref(name string) string {
	id := Identifier(name)
	if !t.seen[id] {
		t.seen[id] = true
		t.refs = append(t.refs, id)
	}
	return id
}

func (t *translator) expr(s *spec.Schema) string {
	if s == nil {
		return "z.any()"
	}
	if s.Ref != "" {
		return "z.lazy(() => " + t.ref(spec.RefName(s.Ref)) + ")"
	}
	out := t.base(s)
	if s.Nullable {
		out += ".nullable()"
	}
	if s.HasDefault {
		out += ".default(" + Literal(s.Default) + ")"
	}
	return out
}

func (t *translator) base(s *spec.Schema) string {
	if s.HasConst {
		return literalExpr(s.Const)
	}
	if len(s.Enum) > 0 {
		return enumExpr(s.Enum)
	}

	var parts []string
	if hasOwnShape(s) {
		parts = append(parts, t.typed(s))
	}
	for _, sub := range s.AllOf {
		parts = append(parts, t.expr(sub))
	}
	if alts := append(append([]*spec.Schema(nil), s.AnyOf...), s.OneOf...); len(alts) > 0 {
		parts = append(parts, t.union(alts))
	}
	if len(parts) == 0 {
		return t.typed(s)
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += ".and(" + p + ")"
	}
	return out
}

func hasOwnShape(s *spec.Schema) bool {
	return s.Type != "" || len(s.Types) > 0 || s.Properties != nil || s.Items != nil ||
		s.AdditionalProperties != nil || s.AdditionalPropertiesAllowed != nil
}

func (t *translator) union(alts []*spec.Schema) string {
	if len(alts) == 1 {
		return t.expr(alts[0])
	}
	members := make([]string, len(alts))
	for i, a := range alts {
		members[i] = t.expr(a)
	}
	return "z.union([" + strings.Join(members, ", ") + "])"
}

func (t *translator) typed(s *spec.Schema) string {
	if len(s.Types) == 0 {
		return t.typedAs(s, inferType(s))
	}
	var members []string
	nullable := false
	for _, typ := range s.Types {
		if typ == "null" {
			nullable = true
			continue
		}
		members = append(members, t.typedAs(s, typ))
	}
	var out string
	switch len(members) {
	case 0:
		return "z.null()"
	case 1:
		out = members[0]
	default:
		out = "z.union([" + strings.Join(members, ", ") + "])"
	}
	if nullable {
		out += ".nullable()"
	}
	return out
}

func inferType(s *spec.Schema) string {
	switch {
	case s.Type != "":
		return s.Type
	case s.Properties != nil || s.AdditionalProperties != nil || s.AdditionalPropertiesAllowed != nil:
		return "object"
	case s.Items != nil:
		return "array"
	}
	return ""
}

func (t *translator) typedAs(s *spec.Schema, typ string) string {
	switch typ {
	case "string":
		return stringExpr(s)
	case "integer":
		return "z.number().int()" + numericChecks(s)
	case "number":
		return "z.number()" + numericChecks(s)
	case "boolean":
		return "z.boolean()"
	case "null":
		return "z.null()"
	case "array":
		out := "z.array(" + t.expr(s.Items) + ")"
		if s.MinItems != nil {
			out += ".min(" + strconv.Itoa(*s.MinItems) + ")"
		}
		if s.MaxItems != nil {
			out += ".max(" + strconv.Itoa(*s.MaxItems) + ")"
		}
		return out
	case "object":
		return t.object(s)
	default:
		// file, unknown or absent type.
		return "z.any()"
	}
}

func (t *translator) object(s *spec.Schema) string {
	if len(s.Properties) == 0 {
		switch {
		case s.AdditionalProperties != nil:
			return "z.record(" + t.expr(s.AdditionalProperties) + ")"
		case s.AdditionalPropertiesAllowed != nil && !*s.AdditionalPropertiesAllowed:
			return "z.object({}).strict()"
		default:
			return "z.record(z.any())"
		}
	}
	fields := make([]string, len(s.Properties))
	for i, p := range s.Properties {
		fields[i] = PropertyKey(p.Name) + ": " + t.field(p.Schema, s.IsRequired(p.Name))
	}
	out := "z.object({ " + strings.Join(fields, ", ") + " })"
	switch {
	case s.AdditionalProperties != nil:
		out += ".catchall(" + t.expr(s.AdditionalProperties) + ")"
	case s.AdditionalPropertiesAllowed != nil && !*s.AdditionalPropertiesAllowed:
		out += ".strict()"
	}
	return out
}

// field translates an object member; optional members without a default
// get .optional().
func (t *translator) field(s *spec.Schema, required bool) string {
	out := t.expr(s)
	if !required && (s == nil || !s.HasDefault) {
		out += ".optional()"
	}
	return out
}

// Field translates one member of a synthetic object, as used for
// non-body parameters.
func Field(s *spec.Schema, required bool) Expr {
	t := &translator{seen: map[string]bool{}}
	code := t.field(s.WithoutDocs(), required)
	return Expr{Code: code, Refs: t.refs}
}

var stringFormats = map[string]string{
	"date-time": ".datetime({ offset: true })",
	"date":      ".date()",
	"email":     ".email()",
	"uri":       ".url()",
	"url":       ".url()",
	"uuid":      ".uuid()",
	"ipv4":      `.ip({ version: "v4" })`,
	"ipv6":      `.ip({ version: "v6" })`,
}

func stringExpr(s *spec.Schema) string {
	out := "z.string()" + stringFormats[s.Format]
	if s.MinLength != nil {
		out += ".min(" + strconv.Itoa(*s.MinLength) + ")"
	}
	if s.MaxLength != nil {
		out += ".max(" + strconv.Itoa(*s.MaxLength) + ")"
	}
	if s.Pattern != "" {
		out += ".regex(new RegExp(" + Literal(s.Pattern) + "))"
	}
	return out
}

func numericChecks(s *spec.Schema) string {
	var out string
	if s.Minimum != nil {
		if s.ExclusiveMinimum {
			out += ".gt(" + formatNumber(*s.Minimum) + ")"
		} else {
			out += ".gte(" + formatNumber(*s.Minimum) + ")"
		}
	}
	if s.Maximum != nil {
		if s.ExclusiveMaximum {
			out += ".lt(" + formatNumber(*s.Maximum) + ")"
		} else {
			out += ".lte(" + formatNumber(*s.Maximum) + ")"
		}
	}
	if s.MultipleOf != nil {
		out += ".multipleOf(" + formatNumber(*s.MultipleOf) + ")"
	}
	return out
}

func enumExpr(values []any) string {
	allStrings := true
	for _, v := range values {
		if _, ok := v.(string); !ok {
			allStrings = false
			break
		}
	}
	if len(values) == 1 {
		return literalExpr(values[0])
	}
	members := make([]string, len(values))
	for i, v := range values {
		if allStrings {
			members[i] = Literal(v)
		} else {
			members[i] = literalExpr(v)
		}
	}
	if allStrings {
		return "z.enum([" + strings.Join(members, ", ") + "])"
	}
	return "z.union([" + strings.Join(members, ", ") + "])"
}

func literalExpr(v any) string {
	if v == nil {
		return "z.null()"
	}
	return "z.literal(" + Literal(v) + ")"
}
