package spec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// validate runs kin-openapi validation over the bundled tree. In warn mode
// findings are logged; in strict mode they fail the load unless they are
// tolerable (see canProceedDespiteValidation).
func validate(ctx context.Context, root *yaml.Node, dialect Dialect, location string, settings Settings) error {
	if settings.Validation == ValidateOff {
		return nil
	}
	raw, err := yaml.Marshal(root)
	if err != nil {
		return &SpecError{Code: ParseError, Message: fmt.Sprintf("re-encode document: %v", err), Location: location, Cause: err}
	}

	var verr error
	switch dialect {
	case DialectOpenAPI3:
		verr = validateV3(ctx, raw)
	case DialectSwagger2:
		verr = validateV2(ctx, raw)
	}
	if verr == nil {
		return nil
	}

	var se *SpecError
	if !errors.As(verr, &se) {
		se = mapValidateOrParseErr(verr, location)
	}
	se.Location = location
	if settings.Validation == ValidateStrict && !canProceedDespiteValidation(verr) {
		return se
	}
	settings.Logger.Warn().
		Str("file", location).
		Str("code", string(se.Code)).
		Str("pointer", se.JSONPointer).
		Msg("document validation: " + se.Message)
	return nil
}

func validateV3(ctx context.Context, raw []byte) error {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return err
	}
	return doc.Validate(ctx)
}

func validateV2(ctx context.Context, raw []byte) error {
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return &SpecError{Code: ParseError, Message: fmt.Sprintf("parse document: %v", err), Cause: err}
	}
	rewriteV2Bodies(tree)
	js, err := json.Marshal(jsonCompatible(tree))
	if err != nil {
		return &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Cause: err}
	}
	var v2 openapi2.T
	if err := json.Unmarshal(js, &v2); err != nil {
		return &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Cause: err}
	}
	v3, err := openapi2conv.ToV3(&v2)
	if err != nil {
		return &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Cause: err}
	}
	return v3.Validate(ctx)
}

func mapValidateOrParseErr(err error, location string) *SpecError {
	pointer := extractJSONPointer(err)
	code := ValidationError
	// Some loader errors are parse errors.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "parse") || strings.Contains(msg, "invalid character") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	var me openapi3.MultiError
	if errors.As(err, &me) && len(me) > 0 {
		return extractJSONPointer(me[0])
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}

// canProceedDespiteValidation returns true for validation errors where
// generation can still go ahead, such as unresolved $ref entries.
func canProceedDespiteValidation(err error) bool {
	if err == nil {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unresolved ref")
}
