package server

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"
)

// jsonNumberPattern matches the JSON number grammar, which YAML number
// literals only partly share (".5", "+1", "0x1F" and ".inf" are YAML only).
var jsonNumberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

var errNotMapping = errors.New("expected a mapping at the top level")

// decodeJSONObject decodes a request body with numbers kept as json.Number so
// amounts reach the plan loader with the digits the client sent.
func decodeJSONObject(r io.Reader) (map[string]interface{}, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var payload map[string]interface{}
	if err := decoder.Decode(&payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return payload, nil
}

// yamlNumbers replaces json.Number values with plain YAML scalars so they are
// written as bare numbers with their original digits instead of quoted text.
func yamlNumbers(value interface{}) interface{} {
	switch v := value.(type) {
	case stdjson.Number:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: v.String()}
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = yamlNumbers(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = yamlNumbers(item)
		}
		return out
	default:
		return value
	}
}

// decodeYAMLToMap decodes a plan document for the response echo. Numbers
// that are valid JSON keep their written digits as json.Number.
func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return make(map[string]interface{}), nil
	}

	value, err := nodeValue(doc.Content[0])
	if err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case nil:
		return make(map[string]interface{}), nil
	case map[string]interface{}:
		return v, nil
	default:
		return nil, errNotMapping
	}
}

func nodeValue(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return nodeValue(node.Alias)
	case yaml.MappingNode:
		result := make(map[string]interface{}, len(node.Content)/2)
		var merged []map[string]interface{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, valueNode := node.Content[i], node.Content[i+1]
			value, err := nodeValue(valueNode)
			if err != nil {
				return nil, err
			}
			if key.ShortTag() == "!!merge" {
				merged = append(merged, mergeSources(value)...)
				continue
			}
			result[key.Value] = value
		}
		// Explicit keys win over merged ones.
		for _, source := range merged {
			for key, value := range source {
				if _, ok := result[key]; !ok {
					result[key] = value
				}
			}
		}
		return result, nil
	case yaml.SequenceNode:
		result := make([]interface{}, 0, len(node.Content))
		for _, child := range node.Content {
			value, err := nodeValue(child)
			if err != nil {
				return nil, err
			}
			result = append(result, value)
		}
		return result, nil
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!int", "!!float":
			if jsonNumberPattern.MatchString(node.Value) {
				return stdjson.Number(node.Value), nil
			}
		}
	}

	var value interface{}
	if err := node.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func mergeSources(value interface{}) []map[string]interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{v}
	case []interface{}:
		var sources []map[string]interface{}
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				sources = append(sources, m)
			}
		}
		return sources
	default:
		return nil
	}
}
