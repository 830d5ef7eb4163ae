// Package dataset reads trajectory files: GeoJSON FeatureCollections of
// LineStrings, or plain JSON arrays of trajectory objects.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"

	geojson "github.com/paulmach/go.geojson"

	"migration-renderer/internal/flow"
)

// Format is the detected layout of a dataset file.
type Format int

const (
	FormatArray Format = iota
	FormatGeoJSON
)

func (f Format) String() string {
	if f == FormatGeoJSON {
		return "geojson"
	}
	return "json"
}

// Result holds the decoded trajectories of one dataset. Records that could
// not be decoded are listed in Rejected and left out of Trajectories.
type Result struct {
	Format       Format
	Trajectories []flow.Trajectory
	Rejected     []*flow.DataShapeError
}

func (r *Result) reject(id flow.ID, err error) {
	log.Printf("rejecting record %q: %v", id, err)
	r.Rejected = append(r.Rejected, &flow.DataShapeError{ID: id, Reason: err.Error()})
}

// LoadFile reads path and decodes it with Decode.
func LoadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	res, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return res, nil
}

// Decode detects the layout from the first non-space byte: '[' is a plain
// array, '{' a GeoJSON FeatureCollection. Only a document that is not one
// of those fails as a whole; records are decoded one at a time and a bad
// record is rejected without hiding the rest.
func Decode(data []byte) (*Result, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty dataset")
	}
	switch data[0] {
	case '[':
		return decodeArray(data)
	case '{':
		return decodeFeatureCollection(data)
	}
	return nil, fmt.Errorf("unrecognized dataset: expected a JSON array or a FeatureCollection")
}

func decodeArray(data []byte) (*Result, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	res := &Result{Format: FormatArray, Trajectories: make([]flow.Trajectory, 0, len(raws))}
	for i, raw := range raws {
		var tr flow.Trajectory
		if err := json.Unmarshal(raw, &tr); err != nil {
			res.reject(recordID(i, raw), err)
			continue
		}
		if tr.ID == "" {
			tr.ID = flow.IDFromInt(int64(i))
		}
		res.Trajectories = append(res.Trajectories, tr)
	}
	return res, nil
}

// recordID recovers the id of a record that failed to decode, falling back
// to its index.
func recordID(i int, raw json.RawMessage) flow.ID {
	var rec struct {
		ID flow.ID `json:"id"`
	}
	if err := json.Unmarshal(raw, &rec); err == nil && rec.ID != "" {
		return rec.ID
	}
	return flow.IDFromInt(int64(i))
}

func decodeFeatureCollection(data []byte) (*Result, error) {
	var doc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected a FeatureCollection, got type %q", doc.Type)
	}
	res := &Result{Format: FormatGeoJSON, Trajectories: make([]flow.Trajectory, 0, len(doc.Features))}
	for i, raw := range doc.Features {
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			res.reject(recordID(i, raw), err)
			continue
		}
		tr, err := fromFeature(i, f)
		if err != nil {
			res.reject(featureID(i, f), err)
			continue
		}
		res.Trajectories = append(res.Trajectories, tr)
	}
	return res, nil
}

// fromFeature maps a LineString feature onto a Trajectory. Timestamps,
// amount, radius and color come from the properties; the id is the
// feature id, falling back to properties.id and then to the index.
// Missing timestamps decode as empty and fail validation at expansion.
func fromFeature(i int, f *geojson.Feature) (flow.Trajectory, error) {
	if f.Geometry == nil || !f.Geometry.IsLineString() {
		return flow.Trajectory{}, fmt.Errorf("geometry must be a LineString")
	}
	tr := flow.Trajectory{ID: featureID(i, f)}

	tr.Path = make([]flow.Coord, len(f.Geometry.LineString))
	for k, p := range f.Geometry.LineString {
		if len(p) < 2 {
			return flow.Trajectory{}, fmt.Errorf("position %d has %d components", k, len(p))
		}
		tr.Path[k] = flow.Coord{p[0], p[1]}
	}

	if raw, ok := f.Properties["timestamps"]; ok && raw != nil {
		ts, err := floats(raw)
		if err != nil {
			return flow.Trajectory{}, fmt.Errorf("timestamps: %w", err)
		}
		tr.Timestamps = ts
	}

	amount, err := number(f.Properties, "amount", 1)
	if err != nil {
		return flow.Trajectory{}, err
	}
	if amount != float64(int(amount)) {
		return flow.Trajectory{}, fmt.Errorf("amount must be an integer, got %v", amount)
	}
	tr.Amount = int(amount)

	if tr.Radius, err = number(f.Properties, "radius", 0); err != nil {
		return flow.Trajectory{}, err
	}

	tr.Color = flow.Color{255, 255, 255, 255}
	if raw, ok := f.Properties["color"]; ok && raw != nil {
		vals, err := floats(raw)
		if err != nil {
			return flow.Trajectory{}, fmt.Errorf("color: %w", err)
		}
		if tr.Color, err = flow.ColorFromFloats(vals); err != nil {
			return flow.Trajectory{}, err
		}
	}
	return tr, nil
}

func featureID(i int, f *geojson.Feature) flow.ID {
	id := f.ID
	if id == nil {
		id = f.Properties["id"]
	}
	switch v := id.(type) {
	case string:
		return flow.ID(v)
	case float64:
		if v == float64(int64(v)) {
			return flow.IDFromInt(int64(v))
		}
		return flow.ID(fmt.Sprint(v))
	}
	return flow.IDFromInt(int64(i))
}

// number reads an optional numeric property. Decoded JSON numbers are
// always float64.
func number(props map[string]interface{}, key string, def float64) (float64, error) {
	raw, ok := props[key]
	if !ok || raw == nil {
		return def, nil
	}
	v, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("%s must be a number, got %T", key, raw)
	}
	return v, nil
}

func floats(raw interface{}) ([]float64, error) {
	arr, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected an array, got %T", raw)
	}
	out := make([]float64, len(arr))
	for i, v := range arr {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("element %d is %T, not a number", i, v)
		}
		out[i] = f
	}
	return out, nil
}
