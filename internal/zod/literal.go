package zod

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Literal renders v as a JavaScript literal. Values are JSON-encoded without
// HTML escaping; whole floats render without an exponent or fraction.
func Literal(v any) string {
	switch n := v.(type) {
	case float64:
		return formatNumber(n)
	case float32:
		return formatNumber(float64(n))
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return strconv.Quote(fmt.Sprint(v))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func formatNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "null"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// PropertyKey renders an object key, quoting it unless it is a valid
// identifier.
func PropertyKey(name string) string {
	if identRe.MatchString(name) {
		return name
	}
	return Literal(name)
}
