package main

import (
	"github.com/patrickwarner/bidderadmin/internal/params"
)

func presentCells(m matrixResponse) []cell {
	var out []cell
	for _, row := range m.Matrix.Rows {
		for _, c := range row.Cells {
			if c.Present {
				out = append(out, c)
			}
		}
	}
	return out
}

// bumpText sets key to n in the cell text, keeping every other line. The
// result is never blank, so an edit never deletes the mapping.
func bumpText(text, key string, n int) string {
	p := params.Decode(text)
	var m params.Mapping
	if p.State() == params.StatePresent {
		m = p.Mapping()
	}
	m.Set(key, params.Int(int64(n)))
	return params.Encode(params.FromMapping(m))
}
