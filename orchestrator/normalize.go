package orchestrator

import (
	"regexp"
	"strings"

	ai "github.com/spetersoncode/abapforge"
)

var fencePattern = regexp.MustCompile("(?s)```[\\w+-]*[ \\t]*\\r?\\n(.*?)```")

// StripCodeFence returns the body of the first markdown code fence in s.
// Text without a fence is returned trimmed. An unterminated fence keeps
// only what follows its opening line.
func StripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[1])
	}
	if start := strings.Index(t, "```"); start >= 0 {
		rest := t[start:]
		i := strings.IndexByte(rest, '\n')
		if i < 0 {
			return ""
		}
		return strings.TrimSpace(rest[i+1:])
	}
	return t
}

// applyOutput places content in the Result field that matches kind. Code
// kinds lose their markdown fence. It returns false when nothing usable
// remains.
func applyOutput(res *ai.Result, kind ai.Kind, content string) bool {
	switch kind {
	case ai.KindModule, ai.KindProgram:
		res.Code = StripCodeFence(content)
	case ai.KindSpecification:
		res.Specification = strings.TrimSpace(content)
	default:
		res.Reply = strings.TrimSpace(content)
	}
	return res.Output() != ""
}
