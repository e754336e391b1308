package shell

import (
	"fmt"
	"strings"

	"github.com/psaab/cmdgraph/pkg/cmdtree"
)

// complete returns the candidates extending the last word of text and that
// partial word.
func (s *Shell) complete(text string) ([]cmdtree.Candidate, string) {
	words := strings.Fields(text)
	trailingSpace := len(text) > 0 && text[len(text)-1] == ' '
	var partial string
	if !trailingSpace && len(words) > 0 {
		partial = words[len(words)-1]
		words = words[:len(words)-1]
	}
	if freeForm(words) {
		return nil, partial
	}
	return cmdtree.CompleteFromTreeWithDesc(cmdtree.SandboxTree, words, partial, s.registry.Definitions()), partial
}

// freeForm reports whether words lead into a format string, where
// completion does not apply.
func freeForm(words []string) bool {
	switch {
	case len(words) > 0 && words[0] == "define":
		return true
	case len(words) > 1 && words[0] == "show" && words[1] == "tokens":
		return true
	}
	return false
}

type completer struct {
	shell *Shell
}

func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	candidates, partial := c.shell.complete(string(line[:pos]))
	if len(candidates) == 0 {
		return nil, 0
	}

	names := cmdtree.CandidateNames(candidates)
	if len(names) == 1 {
		suffix := names[0][len(partial):]
		return [][]rune{[]rune(suffix + " ")}, len(partial)
	}

	// Multiple matches: show descriptions above prompt.
	cmdtree.WriteHelp(c.shell.out, candidates)

	cp := cmdtree.CommonPrefix(names)
	suffix := cp[len(partial):]
	if suffix == "" {
		return nil, 0
	}
	return [][]rune{[]rune(suffix)}, len(partial)
}

// helpListener prints completions when '?' is typed, and removes the '?'
// readline already inserted.
func (s *Shell) helpListener(line []rune, pos int, key rune) ([]rune, int, bool) {
	if key != '?' || pos < 1 {
		return line, pos, false
	}
	cleanLine := make([]rune, 0, len(line)-1)
	cleanLine = append(cleanLine, line[:pos-1]...)
	cleanLine = append(cleanLine, line[pos:]...)
	text := string(cleanLine[:pos-1])

	// A format string may legitimately contain '?'.
	if freeForm(strings.Fields(text)) {
		return line, pos, false
	}

	candidates, _ := s.complete(text)
	if len(candidates) == 0 {
		fmt.Fprintln(s.out, "  (no help available)")
		return cleanLine, pos - 1, true
	}
	cmdtree.WriteHelp(s.out, candidates)
	return cleanLine, pos - 1, true
}
