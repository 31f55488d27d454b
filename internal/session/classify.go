package session

import (
	"encoding/json"
	"strings"
)

// Classification is what the status engine needs to know about a message's
// content without understanding the content itself.
type Classification struct {
	IsToolUse  bool // assistant is mid-action, possibly blocked on the environment or user
	IsQuestion bool // message appears to end in a question to the user
}

// Classifier inspects raw message content. The inference engine depends only
// on this interface so the detection heuristics can be swapped or tested
// independently of the state machine.
type Classifier interface {
	Classify(content json.RawMessage) Classification
}

// MarkerClassifier is the default Classifier: versioned substring heuristics
// over the serialized content. v1 recognizes tool_use blocks and trailing
// question marks.
type MarkerClassifier struct{}

// toolUseMarker matches both the block type ("type":"tool_use") and the
// plain-text form some records carry.
const toolUseMarker = "tool_use"

func (MarkerClassifier) Classify(content json.RawMessage) Classification {
	var c Classification
	if len(content) == 0 {
		return c
	}
	c.IsToolUse = strings.Contains(string(content), toolUseMarker)
	c.IsQuestion = endsInQuestion(content)
	return c
}

// endsInQuestion reports whether the last visible text of the content ends
// with a question mark. Content is either a JSON string or an array of
// content blocks; anything unparseable is not a question.
func endsInQuestion(content json.RawMessage) bool {
	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		return trailingQuestion(text)
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return false
	}
	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].Type == "text" && strings.TrimSpace(blocks[i].Text) != "" {
			return trailingQuestion(blocks[i].Text)
		}
	}
	return false
}

func trailingQuestion(text string) bool {
	return strings.HasSuffix(strings.TrimRight(strings.TrimSpace(text), "*_`\")"), "?")
}

// ContentText extracts the readable text of a message's content: the string
// itself for string-form content, or the concatenated text blocks for
// array-form content. Tool-use blocks contribute a short marker so a
// tool-only message still previews as something.
func ContentText(content json.RawMessage) string {
	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		return text
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if strings.TrimSpace(b.Text) != "" {
				parts = append(parts, b.Text)
			}
		case "tool_use":
			if b.Name != "" {
				parts = append(parts, "*Using tool: "+b.Name+"*")
			}
		}
	}
	return strings.Join(parts, "\n\n")
}
