package resource

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mark3labs/swagger2zod/internal/spec"
	"github.com/mark3labs/swagger2zod/internal/zod"
)

// ErrUnknownLocation is returned under LocationError for parameters whose
// location is not path, query, header or body.
var ErrUnknownLocation = errors.New("resource: unknown parameter location")

// LocationPolicy decides what happens to parameters with an unrecognized location.
type LocationPolicy string

const (
	LocationDrop  LocationPolicy = "drop"
	LocationWarn  LocationPolicy = "warn"
	LocationError LocationPolicy = "error"
)

// Options configures Group and Walk.
type Options struct {
	UnknownLocation LocationPolicy
	Logger          zerolog.Logger
}

// Group partitions parameters by location, keeping the order in which
// locations and parameters first appear. A body parameter that is a named
// reference (or an array of one) becomes that name; any other body schema
// is translated inline. Other locations become one field per parameter and
// never a bare named reference.
func Group(params []spec.Parameter, opts Options) ([]Param, error) {
	var order []spec.Location
	byLoc := map[spec.Location][]spec.Parameter{}
	for _, p := range params {
		if !p.In.Known() {
			switch opts.UnknownLocation {
			case LocationError:
				return nil, fmt.Errorf("%w: %q (parameter %q)", ErrUnknownLocation, p.In, p.Name)
			case LocationDrop:
			default:
				opts.Logger.Warn().Str("location", string(p.In)).Str("parameter", p.Name).Msg("dropping parameter with unknown location")
			}
			continue
		}
		if _, ok := byLoc[p.In]; !ok {
			order = append(order, p.In)
		}
		byLoc[p.In] = append(byLoc[p.In], p)
	}

	out := make([]Param, 0, len(order))
	for _, loc := range order {
		group := byLoc[loc]
		if loc == spec.InBody {
			if len(group) > 1 {
				opts.Logger.Warn().Int("count", len(group)).Msg("several body parameters; using the first")
			}
			if group[0].Schema == nil {
				continue
			}
			e := Shape(group[0].Schema)
			out = append(out, Param{Location: string(loc), Ref: e.Code, Refs: e.Refs})
			continue
		}
		var refs refSet
		param := Param{Location: string(loc), Fields: make([]Field, 0, len(group))}
		for _, p := range group {
			e := zod.Field(p.Schema, p.Required)
			param.Fields = append(param.Fields, Field{Key: p.Name, Expr: e.Code})
			refs.add(e.Refs...)
		}
		param.Refs = refs.list
		out = append(out, param)
	}
	return out, nil
}

// Shape renders a body or response schema: named references stay names,
// everything else is translated in place.
func Shape(s *spec.Schema) zod.Expr {
	switch sh := spec.Classify(s).(type) {
	case spec.Reference:
		return zod.Ref(sh.Name)
	case spec.ArrayOfReference:
		return zod.ArrayOf(sh.Name)
	case spec.Inline:
		return zod.Translate(sh.Schema)
	}
	return zod.Translate(s)
}
