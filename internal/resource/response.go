package resource

import (
	"github.com/mark3labs/swagger2zod/internal/spec"
	"github.com/mark3labs/swagger2zod/internal/zod"
)

// SuccessStatus is the only status code treated as the success response.
// Other 2xx codes are ignored.
const SuccessStatus = "200"

// ResolveResponse returns the validator for the operation's 200 response.
// ok is false when there is no 200 entry or it carries no schema.
func ResolveResponse(op *spec.Operation) (expr zod.Expr, ok bool) {
	r, found := op.Response(SuccessStatus)
	if !found || r.Schema == nil {
		return zod.Expr{}, false
	}
	return Shape(r.Schema), true
}
