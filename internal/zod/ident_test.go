package zod

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifier(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Pet":               "Pet",
		"pet_v2":            "pet_v2",
		"$meta":             "$meta",
		"pet-store.v1":      "PetStoreV1",
		"Order Item":        "OrderItem",
		"api.v1.UserDTO":    "ApiV1UserDTO",
		"1-pet":             "_1Pet",
		"z":                 "_z",
		"class":             "_class",
		"resources":         "_resources",
		"RegExp":            "_RegExp",
		"regexp":            "regexp",
		"new-pet":           "NewPet",
		"---":               "_",
		"Map«string,Pet»":   "MapStringPet",
	}
	for in, want := range cases {
		assert.Equal(t, want, Identifier(in), "Identifier(%q)", in)
	}
}

func TestLiteral(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `"a<b>&c"`, Literal("a<b>&c"))
	assert.Equal(t, "1.5", Literal(1.5))
	assert.Equal(t, "100000000000000000000", Literal(1e20))
	assert.Equal(t, "true", Literal(true))
	assert.Equal(t, "null", Literal(nil))
	assert.Equal(t, `["x",1]`, Literal([]any{"x", 1}))
	assert.Equal(t, `{"k":"v"}`, Literal(map[string]any{"k": "v"}))
}

func TestPropertyKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "name", PropertyKey("name"))
	assert.Equal(t, `"X-Request-Id"`, PropertyKey("X-Request-Id"))
	assert.Equal(t, `"1st"`, PropertyKey("1st"))
}
