package resource

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2zod/internal/spec"
)

func str() *spec.Schema { return &spec.Schema{Type: "string"} }

func TestGroup_LocationsRoundTrip(t *testing.T) {
	t.Parallel()
	params := []spec.Parameter{
		{In: spec.InQuery, Name: "q1", Schema: str()},
		{In: spec.InPath, Name: "p", Required: true, Schema: str()},
		{In: spec.InBody, Name: "b", Schema: &spec.Schema{Type: "object", Properties: []spec.Property{{Name: "n", Schema: &spec.Schema{Type: "integer"}}}}},
		{In: spec.InQuery, Name: "q2", Required: true, Schema: &spec.Schema{Type: "boolean"}},
	}
	got, err := Group(params, Options{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "query", got[0].Location)
	assert.Equal(t, []Field{{Key: "q1", Expr: "z.string().optional()"}, {Key: "q2", Expr: "z.boolean()"}}, got[0].Fields)
	assert.Equal(t, "path", got[1].Location)
	assert.Equal(t, []Field{{Key: "p", Expr: "z.string()"}}, got[1].Fields)
	assert.Equal(t, "body", got[2].Location)
	assert.Equal(t, "z.object({ n: z.number().int().optional() })", got[2].Ref)
	assert.Nil(t, got[2].Fields)
}

func TestGroup_BodyWithoutSchemaContributesNothing(t *testing.T) {
	t.Parallel()
	got, err := Group([]spec.Parameter{{In: spec.InBody, Name: "body"}}, Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGroup_NonBodyReferenceStaysPerField(t *testing.T) {
	t.Parallel()
	got, err := Group([]spec.Parameter{
		{In: spec.InQuery, Name: "filter", Required: true, Schema: &spec.Schema{Ref: "#/definitions/Filter"}},
	}, Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Ref)
	assert.Equal(t, []Field{{Key: "filter", Expr: "z.lazy(() => Filter)"}}, got[0].Fields)
	assert.Equal(t, []string{"Filter"}, got[0].Refs)
}

func TestGroup_ArrayOfReferenceBody(t *testing.T) {
	t.Parallel()
	got, err := Group([]spec.Parameter{
		{In: spec.InBody, Name: "pets", Schema: &spec.Schema{Type: "array", Items: &spec.Schema{Ref: "#/definitions/Pet"}}},
		{In: spec.InBody, Name: "ignored", Schema: &spec.Schema{Ref: "#/definitions/Other"}},
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []Param{{Location: "body", Ref: "z.array(Pet)", Refs: []string{"Pet"}}}, got)
}

func TestGroup_UnknownLocationPolicies(t *testing.T) {
	t.Parallel()
	params := []spec.Parameter{
		{In: "formData", Name: "file", Schema: &spec.Schema{Type: "file"}},
		{In: "", Name: "nowhere", Schema: str()},
		{In: spec.InHeader, Name: "X-Id", Schema: str()},
	}

	var warnBuf bytes.Buffer
	got, err := Group(params, Options{UnknownLocation: LocationWarn, Logger: zerolog.New(&warnBuf)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "header", got[0].Location)
	assert.Contains(t, warnBuf.String(), "dropping parameter with unknown location")
	assert.Contains(t, warnBuf.String(), `"parameter":"nowhere"`)

	var dropBuf bytes.Buffer
	got, err = Group(params, Options{UnknownLocation: LocationDrop, Logger: zerolog.New(&dropBuf)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, dropBuf.String())

	_, err = Group(params, Options{UnknownLocation: LocationError})
	assert.ErrorIs(t, err, ErrUnknownLocation)
}

func TestResolveResponse(t *testing.T) {
	t.Parallel()
	op := &spec.Operation{Responses: []spec.Response{
		{Status: "201", Schema: &spec.Schema{Ref: "#/definitions/Created"}},
		{Status: "404"},
	}}
	_, ok := ResolveResponse(op)
	assert.False(t, ok, "only 200 is a success response")

	op.Responses = append(op.Responses, spec.Response{Status: "200"})
	_, ok = ResolveResponse(op)
	assert.False(t, ok, "200 without schema")

	op.Responses[2].Schema = &spec.Schema{Ref: "#/definitions/Pet", Description: "ignored"}
	e, ok := ResolveResponse(op)
	require.True(t, ok)
	assert.Equal(t, "Pet", e.Code)
}
