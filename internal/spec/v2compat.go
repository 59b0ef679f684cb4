package spec

import "strings"

// rewriteV2Bodies patches non-compliant Swagger 2 operations in a decoded
// document so kin-openapi can convert it to OpenAPI 3 for validation:
//   - several body parameters are merged into one object-typed body;
//   - body parameters mixed with formData become formData parameters and the
//     operation consumes multipart/form-data.
//
// It reports whether anything changed. The decoded tree used for generation
// is never touched; only the validation copy is.
func rewriteV2Bodies(doc map[string]any) bool {
	paths, ok := doc["paths"].(map[string]any)
	if !ok {
		return false
	}
	changed := false
	for _, item := range paths {
		pi, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for method, raw := range pi {
			if !httpMethods[strings.ToLower(method)] {
				continue
			}
			op, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if rewriteOperationBodies(op) {
				changed = true
			}
		}
	}
	return changed
}

func rewriteOperationBodies(op map[string]any) bool {
	params, ok := op["parameters"].([]any)
	if !ok || len(params) == 0 {
		return false
	}
	bodies, hasFormData := 0, false
	for _, p := range params {
		switch paramIn(p) {
		case "body":
			bodies++
		case "formdata":
			hasFormData = true
		}
	}
	switch {
	case bodies == 0:
		return false
	case hasFormData:
		out := make([]any, 0, len(params))
		for _, p := range params {
			if paramIn(p) == "body" {
				p = bodyAsFormData(p.(map[string]any))
			}
			out = append(out, p)
		}
		op["parameters"] = out
		consumes, _ := op["consumes"].([]any)
		if !containsString(consumes, "multipart/form-data") {
			op["consumes"] = append(consumes, "multipart/form-data")
		}
		return true
	case bodies > 1:
		props := map[string]any{}
		var required []any
		rest := make([]any, 0, len(params))
		for _, p := range params {
			if paramIn(p) != "body" {
				rest = append(rest, p)
				continue
			}
			pm := p.(map[string]any)
			name := stringOr(pm["name"], "field")
			schema := schemaFromParam(pm)
			if schema == nil {
				schema = map[string]any{"type": "string"}
			}
			props[name] = schema
			if req, _ := pm["required"].(bool); req {
				required = append(required, name)
			}
		}
		body := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			body["required"] = required
		}
		merged := map[string]any{"in": "body", "name": "body", "schema": body}
		op["parameters"] = append([]any{merged}, rest...)
		return true
	}
	return false
}

func paramIn(p any) string {
	pm, _ := p.(map[string]any)
	if pm == nil {
		return ""
	}
	return strings.ToLower(stringOr(pm["in"], ""))
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func containsString(list []any, want string) bool {
	for _, v := range list {
		if s, ok := v.(string); ok && s == want {
			return true
		}
	}
	return false
}

func schemaFromParam(pm map[string]any) map[string]any {
	if sch, ok := pm["schema"].(map[string]any); ok {
		return sch
	}
	t, _ := pm["type"].(string)
	if t == "" {
		return nil
	}
	m := map[string]any{"type": t}
	if it, ok := pm["items"].(map[string]any); ok {
		m["items"] = it
	}
	if f, ok := pm["format"].(string); ok && f != "" {
		m["format"] = f
	}
	return m
}

func bodyAsFormData(pm map[string]any) map[string]any {
	out := map[string]any{"in": "formData", "name": stringOr(pm["name"], "field")}
	if desc, ok := pm["description"].(string); ok && desc != "" {
		out["description"] = desc
	}
	if req, ok := pm["required"].(bool); ok {
		out["required"] = req
	}
	typ := "string"
	src := pm
	if sch, ok := pm["schema"].(map[string]any); ok {
		src = sch
	}
	// A referenced object has no formData form; it degrades to string.
	if t, ok := src["type"].(string); ok && t != "" {
		typ = t
	}
	out["type"] = typ
	if it, ok := src["items"].(map[string]any); ok {
		out["items"] = it
	}
	if f, ok := src["format"].(string); ok && f != "" {
		out["format"] = f
	}
	return out
}
