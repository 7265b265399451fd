package model

import (
    "bytes"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "gopkg.in/yaml.v3"
)

// ReadSolveRequest loads a line file. Files ending in .json are decoded as
// JSON, everything else as YAML.
func ReadSolveRequest(path string) (SolveRequest, error) {
    data, err := os.ReadFile(path)
    if err != nil { return SolveRequest{}, err }
    req, err := DecodeSolveRequest(data, strings.ToLower(filepath.Ext(path)) == ".json")
    if err != nil { return SolveRequest{}, fmt.Errorf("%s: %w", path, err) }
    return req, nil
}

// DecodeSolveRequest decodes data as JSON or YAML and rejects unknown fields.
func DecodeSolveRequest(data []byte, isJSON bool) (SolveRequest, error) {
    var req SolveRequest
    if isJSON {
        dec := json.NewDecoder(bytes.NewReader(data))
        dec.DisallowUnknownFields()
        if err := dec.Decode(&req); err != nil { return req, err }
        return req, nil
    }
    dec := yaml.NewDecoder(bytes.NewReader(data))
    dec.KnownFields(true)
    if err := dec.Decode(&req); err != nil { return req, err }
    return req, nil
}
