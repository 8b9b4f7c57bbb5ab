package codec

import (
	"encoding/json"

	gojson "github.com/goccy/go-json"
)

// Both codecs produce plain JSON, so an artifact written by one decodes with
// the other. Manifests are always written with JSON so any tool can read the
// bundle layout without knowing which codec the artifacts use.

// JSON encodes with encoding/json.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSON) Name() string                       { return "json" }

// GoJSON encodes with github.com/goccy/go-json, which is faster on the
// large centroid and scaler documents.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error)      { return gojson.Marshal(v) }
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }
func (GoJSON) Name() string                       { return "go-json" }

// Default is the codec used for newly published artifacts.
var Default Codec = GoJSON{}
