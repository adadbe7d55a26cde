// Package profile defines the persisted profile contract.
//
// A profile document has the shape
//
//	{ toolbar: {...}, grid: {columnState, filterModel, rowGroupColumns,
//	  columnGroupState, pivotMode}, custom: {gridOptions: {...}, columnDefs: [...]} }
//
// Unknown keys at the document and custom levels are kept in Extra and
// written back on encode, so older binaries never strip newer fields.
package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/gridprefs/internal/grid"
)

// Settings is the persisted tuple {toolbar, grid, custom}.
type Settings struct {
	Toolbar grid.OptionBag
	Grid    grid.StateSnapshot
	Custom  Custom

	// Extra holds unknown top-level keys.
	Extra map[string]json.RawMessage
}

// Custom holds grid options and optional column overrides.
type Custom struct {
	GridOptions grid.OptionBag
	ColumnDefs  []grid.ColumnDef

	// Extra holds unknown keys of the custom block.
	Extra map[string]json.RawMessage
}

const (
	keyToolbar     = "toolbar"
	keyGrid        = "grid"
	keyCustom      = "custom"
	keyGridOptions = "gridOptions"
	keyColumnDefs  = "columnDefs"
)

// Clone returns a deep copy of s. Option values are copied one level deep.
func (s Settings) Clone() Settings {
	out := Settings{
		Toolbar: cloneBag(s.Toolbar),
		Grid:    s.Grid.Clone(),
		Custom: Custom{
			GridOptions: cloneBag(s.Custom.GridOptions),
			ColumnDefs:  grid.CloneColumnDefs(s.Custom.ColumnDefs),
			Extra:       maps.Clone(s.Custom.Extra),
		},
		Extra: maps.Clone(s.Extra),
	}
	return out
}

// HasColumnDefs reports whether the profile carries column overrides.
func (s Settings) HasColumnDefs() bool {
	return s.Custom.ColumnDefs != nil
}

// MarshalJSON implements json.Marshaler.
func (s Settings) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(s.Extra)+3)
	for k, v := range s.Extra {
		doc[k] = v
	}
	doc[keyToolbar] = nonNilBag(s.Toolbar)
	doc[keyGrid] = s.Grid
	doc[keyCustom] = s.Custom
	return marshalSorted(doc)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Settings
	if v, ok := raw[keyToolbar]; ok {
		if err := decodeBag(v, &out.Toolbar); err != nil {
			return fmt.Errorf("toolbar: %w", err)
		}
		delete(raw, keyToolbar)
	}
	if v, ok := raw[keyGrid]; ok {
		if !isNull(v) {
			if err := json.Unmarshal(v, &out.Grid); err != nil {
				return fmt.Errorf("grid: %w", err)
			}
		}
		delete(raw, keyGrid)
	}
	if v, ok := raw[keyCustom]; ok {
		if !isNull(v) {
			if err := json.Unmarshal(v, &out.Custom); err != nil {
				return fmt.Errorf("custom: %w", err)
			}
		}
		delete(raw, keyCustom)
	}
	if len(raw) > 0 {
		out.Extra = raw
	}
	if out.Toolbar == nil {
		out.Toolbar = grid.OptionBag{}
	}
	if out.Custom.GridOptions == nil {
		out.Custom.GridOptions = grid.OptionBag{}
	}

	*s = out
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Custom) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(c.Extra)+2)
	for k, v := range c.Extra {
		doc[k] = v
	}
	doc[keyGridOptions] = nonNilBag(c.GridOptions)
	if c.ColumnDefs != nil {
		doc[keyColumnDefs] = c.ColumnDefs
	}
	return marshalSorted(doc)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Custom) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Custom
	if v, ok := raw[keyGridOptions]; ok {
		if err := decodeBag(v, &out.GridOptions); err != nil {
			return fmt.Errorf("gridOptions: %w", err)
		}
		delete(raw, keyGridOptions)
	}
	if v, ok := raw[keyColumnDefs]; ok {
		if !isNull(v) {
			if err := json.Unmarshal(v, &out.ColumnDefs); err != nil {
				return fmt.Errorf("columnDefs: %w", err)
			}
			if out.ColumnDefs == nil {
				out.ColumnDefs = []grid.ColumnDef{}
			}
			for i := range out.ColumnDefs {
				out.ColumnDefs[i].Hydrate()
			}
		}
		delete(raw, keyColumnDefs)
	}
	if len(raw) > 0 {
		out.Extra = raw
	}

	*c = out
	return nil
}

// decodeBag decodes a JSON object into an option bag, keeping numbers as
// float64 the way any other JSON consumer would see them.
func decodeBag(data json.RawMessage, dst *grid.OptionBag) error {
	if isNull(data) {
		*dst = grid.OptionBag{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*dst = grid.OptionBag(m)
	return nil
}

func isNull(data json.RawMessage) bool {
	return len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null"
}

func nonNilBag(b grid.OptionBag) grid.OptionBag {
	if b == nil {
		return grid.OptionBag{}
	}
	return b
}

func cloneBag(b grid.OptionBag) grid.OptionBag {
	if b == nil {
		return nil
	}
	return b.Clone()
}

// marshalSorted writes an object with keys in sorted order. encoding/json
// already sorts map keys; the explicit pass keeps RawMessage values intact.
func marshalSorted(doc map[string]any) ([]byte, error) {
	keys := slices.Sorted(maps.Keys(doc))
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(doc[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
