package config

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// quoteNumbers rewrites bare YAML numbers that would lose digits as float64
// into quoted strings, so DecimalHookFunc parses the text as written. Integers
// that fit in int64 are left alone for int fields.
func quoteNumbers(data []byte) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return data, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if !quoteNumberNodes(&doc) {
		return data, nil
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("re-encoding numbers: %w", err)
	}
	return out, nil
}

// quoteNumberNodes reports whether any scalar was rewritten.
func quoteNumberNodes(node *yaml.Node) bool {
	changed := false
	switch node.Kind {
	case yaml.ScalarNode:
		if lossyNumber(node) {
			node.Tag = "!!str"
			node.Style = yaml.DoubleQuotedStyle
			changed = true
		}
	case yaml.MappingNode:
		// Keys stay as written; only values carry amounts.
		for i := 1; i < len(node.Content); i += 2 {
			if quoteNumberNodes(node.Content[i]) {
				changed = true
			}
		}
	default:
		for _, child := range node.Content {
			if quoteNumberNodes(child) {
				changed = true
			}
		}
	}
	return changed
}

func lossyNumber(node *yaml.Node) bool {
	switch node.ShortTag() {
	case "!!float":
		return true
	case "!!int":
		_, err := strconv.ParseInt(node.Value, 0, 64)
		return err != nil
	default:
		return false
	}
}
