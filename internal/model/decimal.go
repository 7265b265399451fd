package model

import (
    "bytes"
    "encoding/json"
    "fmt"

    "gopkg.in/yaml.v3"
)

// Decimal is a time literal kept exactly as written. It accepts JSON and YAML
// numbers as well as strings ("9/2" is allowed), so 4.8 never passes through
// a float.
type Decimal string

func (d *Decimal) UnmarshalJSON(b []byte) error {
    b = bytes.TrimSpace(b)
    if bytes.Equal(b, []byte("null")) {
        *d = ""
        return nil
    }
    if len(b) > 0 && b[0] == '"' {
        var s string
        if err := json.Unmarshal(b, &s); err != nil { return err }
        *d = Decimal(s)
        return nil
    }
    var n json.Number
    if err := json.Unmarshal(b, &n); err != nil {
        return fmt.Errorf("decimal: %s is not a number", b)
    }
    *d = Decimal(n.String())
    return nil
}

// MarshalJSON writes plain decimals as JSON numbers and anything else as a string.
func (d Decimal) MarshalJSON() ([]byte, error) {
    if d == "" { return []byte(`""`), nil }
    var n json.Number
    if err := json.Unmarshal([]byte(d), &n); err == nil {
        return []byte(d), nil
    }
    return json.Marshal(string(d))
}

func (d *Decimal) UnmarshalYAML(node *yaml.Node) error {
    if node.Kind != yaml.ScalarNode {
        return fmt.Errorf("decimal: line %d: expected a scalar", node.Line)
    }
    *d = Decimal(node.Value)
    return nil
}

func (d Decimal) MarshalYAML() (any, error) {
    return &yaml.Node{Kind: yaml.ScalarNode, Value: string(d)}, nil
}

func (d Decimal) String() string { return string(d) }
