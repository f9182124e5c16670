package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain code", "REPORT zfoo.", "REPORT zfoo."},
		{"abap fence", "```abap\nREPORT zfoo.\nWRITE 'x'.\n```", "REPORT zfoo.\nWRITE 'x'."},
		{"bare fence", "```\nREPORT zfoo.\n```", "REPORT zfoo."},
		{"crlf", "```abap\r\nREPORT zfoo.\r\n```", "REPORT zfoo."},
		{"prose around fence", "Segue o código:\n```abap\nREPORT zfoo.\n```\nEspero ter ajudado.", "REPORT zfoo."},
		{"only first fence", "```abap\nA.\n```\n```abap\nB.\n```", "A."},
		{"unterminated", "```abap\nREPORT zfoo.", "REPORT zfoo."},
		{"unterminated after prose", "Segue o código:\n```abap\nREPORT zfoo.\nWRITE 'x'.", "REPORT zfoo.\nWRITE 'x'."},
		{"empty fence", "```abap\n```", ""},
		{"lonely ticks", "```", ""},
		{"whitespace", "  \n REPORT zfoo. \n", "REPORT zfoo."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}
