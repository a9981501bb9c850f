package registry

import (
	"bytes"
	"encoding/json"
	"io"
)

// toJSONReader marshals v to JSON and returns a reader over it, for use
// with jsonschema.Compiler.AddResource which expects an io.Reader.
func toJSONReader(v any) io.Reader {
	buf, err := json.Marshal(v)
	if err != nil {
		// Schema literals are constructed internally from ParameterSpec;
		// a marshal failure here indicates a programmer error, not a
		// runtime condition callers can recover from.
		panic("registry: marshal schema literal: " + err.Error())
	}
	return bytes.NewReader(buf)
}
