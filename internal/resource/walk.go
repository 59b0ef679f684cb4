package resource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/swagger2zod/internal/spec"
)

// Walk builds one descriptor per operation in document order. Entries that
// are not operations, or could not be decoded, are logged and skipped.
// Operations sharing a key (including the "noName" fallback) overwrite the
// earlier descriptor; the key keeps its first position. Used lists the
// named schemas referenced by the surviving descriptors.
func Walk(doc *spec.Document, opts Options) (*Resources, error) {
	log := opts.Logger
	res := &Resources{}
	index := map[string]int{}

	for _, item := range doc.Paths {
		for _, entry := range item.Entries {
			elog := log.With().Str("path", item.Path).Str("method", entry.Method).Logger()
			if entry.Err != nil {
				if errors.Is(entry.Err, spec.ErrNotOperation) {
					elog.Debug().Msg("skipping non-operation entry")
				} else {
					elog.Warn().Err(entry.Err).Msg("skipping malformed operation")
				}
				continue
			}
			if entry.Operation == nil {
				continue
			}
			op := entry.Operation
			key := op.Key()

			gopts := opts
			gopts.Logger = elog.With().Str("operation", key).Logger()
			params, err := Group(op.Parameters, gopts)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(entry.Method), item.Path, err)
			}

			d := Descriptor{
				Key:    key,
				Path:   item.Path,
				Method: strings.ToLower(entry.Method),
				Params: params,
			}
			var refs refSet
			for _, p := range params {
				refs.add(p.Refs...)
			}
			if e, ok := ResolveResponse(op); ok {
				d.Response = e.Code
				refs.add(e.Refs...)
			}
			d.Refs = refs.list

			if i, dup := index[key]; dup {
				elog.Warn().Str("operation", key).Str("previous", res.Descriptors[i].Method+" "+res.Descriptors[i].Path).
					Msg("duplicate operation key; later operation wins")
				res.Descriptors[i] = d
				continue
			}
			index[key] = len(res.Descriptors)
			res.Descriptors = append(res.Descriptors, d)
		}
	}

	var used refSet
	for _, d := range res.Descriptors {
		used.add(d.Refs...)
	}
	res.Used = used.list
	return res, nil
}
