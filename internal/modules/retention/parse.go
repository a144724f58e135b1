package retention

import (
	"encoding/json"
	"strings"
)

// parseStringList accepts a JSON array of non-empty strings, optionally inside a markdown code fence.
func parseStringList(raw string) ([]string, error) {
	text := stripFence(raw)
	if text == "" {
		return nil, malformed("empty response")
	}
	var vals []string
	if err := json.Unmarshal([]byte(text), &vals); err != nil {
		return nil, malformed("expected JSON array of strings: %v", err)
	}
	return cleanList(vals)
}

// parseMnemonics additionally accepts a single JSON string or bare text, which becomes a one-element list.
func parseMnemonics(raw string) ([]string, error) {
	text := stripFence(raw)
	if text == "" {
		return nil, malformed("empty response")
	}
	switch text[0] {
	case '[':
		return parseStringList(text)
	case '"':
		var s string
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			return nil, malformed("expected JSON string: %v", err)
		}
		return cleanList([]string{s})
	case '{':
		return nil, malformed("unexpected JSON object")
	}
	return []string{text}, nil
}

func parseSummary(raw string) (string, error) {
	text := stripFence(raw)
	if text == "" {
		return "", malformed("empty summary")
	}
	return text, nil
}

func cleanList(vals []string) ([]string, error) {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, malformed("blank entry in list")
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, malformed("empty list")
	}
	return out, nil
}

func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// drop the info string ("json", "text", ...)
		text = text[nl+1:]
	} else {
		text = ""
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
