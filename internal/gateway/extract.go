// ABOUTME: Response-shape normalization for heterogeneous backend payloads
// ABOUTME: Tries each known vendor shape in fixed precedence order, first match wins

package gateway

import (
	"encoding/json"
	"strings"
)

// The known backend reply shapes, in precedence order. Payloads may satisfy
// several shapes at once; the order below is a compatibility contract and
// must not change:
//
//  1. choices[0].message.content  (OpenAI-style)
//  2. generated_text              (Hugging Face-style)
//  3. response                    (common custom format)
//  4. output                      (another common format)
//  5. raw body fallback
var flatShapeKeys = []string{"generated_text", "response", "output"}

// ExtractGeneratedText pulls the generated text out of a backend response
// body. Each key is probed independently, so a malformed value under one
// key never masks a lower-priority rule. A payload matching no known shape
// is returned whole as a string.
func ExtractGeneratedText(body []byte) string {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return strings.TrimSpace(string(body))
	}

	if raw, ok := probe["choices"]; ok {
		var choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}
		if err := json.Unmarshal(raw, &choices); err == nil && len(choices) > 0 {
			return choices[0].Message.Content
		}
	}

	for _, key := range flatShapeKeys {
		raw, ok := probe[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			return text
		}
	}

	return strings.TrimSpace(string(body))
}
