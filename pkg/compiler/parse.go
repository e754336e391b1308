package compiler

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/psaab/cmdgraph/pkg/graph"
	"github.com/psaab/cmdgraph/pkg/lexer"
)

// element is one parsed command token: either a flat value or a group.
type element struct {
	tok   lexer.Token
	value graph.Value
	group *group
}

// group is a parsed <...> or [...] construct.
type group struct {
	kind graph.Kind // KindSelector or KindOption
	alts [][]element
	key  string
	text string
}

// command is a fully parsed definition, validated before any node is linked.
type command struct {
	root  element
	elems []element
}

// scope controls which groups may open at the current nesting level.
type scope struct {
	selector bool
	option   bool
}

var (
	topScope      = scope{selector: true, option: true}
	selectorScope = scope{option: true}
	optionScope   = scope{}
)

type parser struct {
	src lexer.TokenSource
	tok lexer.Token
}

func parse(src lexer.TokenSource) (*command, error) {
	p := &parser{src: src}
	p.next()

	if p.tok.Type != lexer.TokenWord {
		return nil, p.errorf("command must start with a word")
	}
	cmd := &command{root: element{tok: p.tok, value: graph.Word{Text: p.tok.Value}}}
	p.next()

	for p.tok.Type != lexer.TokenEOF {
		el, err := p.parseToken(topScope)
		if err != nil {
			return nil, err
		}
		cmd.elems = append(cmd.elems, el)
	}
	return cmd, nil
}

func (p *parser) next() {
	p.tok = p.src.Next()
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Token: p.tok, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseToken(sc scope) (element, error) {
	tok := p.tok
	switch tok.Type {
	case lexer.TokenLAngle:
		if !sc.selector {
			return element{}, p.errorf("selector group not allowed here")
		}
		return p.parseGroup(graph.KindSelector, lexer.TokenRAngle, selectorScope)
	case lexer.TokenLBracket:
		if !sc.option {
			return element{}, p.errorf("option group not allowed here")
		}
		return p.parseGroup(graph.KindOption, lexer.TokenRBracket, optionScope)
	case lexer.TokenError:
		return element{}, p.errorf("%s", tok.Value)
	}

	v, err := flatValue(tok)
	if err != nil {
		var re *RangeError
		if errors.As(err, &re) {
			re.Column = tok.Column
			return element{}, re
		}
		return element{}, &SyntaxError{Token: tok, Msg: err.Error()}
	}
	p.next()
	return element{tok: tok, value: v}, nil
}

func (p *parser) parseGroup(kind graph.Kind, closer lexer.TokenType, inner scope) (element, error) {
	open := p.tok
	p.next()

	g := &group{kind: kind}
	for {
		var alt []element
		for p.tok.Type != lexer.TokenPipe && p.tok.Type != closer && p.tok.Type != lexer.TokenEOF {
			el, err := p.parseToken(inner)
			if err != nil {
				return element{}, err
			}
			alt = append(alt, el)
		}
		if p.tok.Type == lexer.TokenEOF {
			return element{}, p.errorf("unterminated group opened at column %d", open.Column)
		}
		if len(alt) == 0 {
			return element{}, p.errorf("empty alternative")
		}
		g.alts = append(g.alts, alt)

		if p.tok.Type == closer {
			p.next()
			break
		}
		p.next() // '|'
	}
	g.key, g.text = groupKey(g)
	return element{tok: open, group: g}, nil
}

// flatValue converts a literal or placeholder token into a node value.
func flatValue(tok lexer.Token) (graph.Value, error) {
	switch tok.Type {
	case lexer.TokenWord:
		return graph.Word{Text: tok.Value}, nil
	case lexer.TokenNumber:
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("number %s out of range", tok.Value)
		}
		return graph.Number{Value: n}, nil
	case lexer.TokenIPv4:
		return graph.IPv4{Text: tok.Value}, nil
	case lexer.TokenIPv4Prefix:
		return graph.IPv4Prefix{Text: tok.Value}, nil
	case lexer.TokenIPv6:
		return graph.IPv6{Text: tok.Value}, nil
	case lexer.TokenIPv6Prefix:
		return graph.IPv6Prefix{Text: tok.Value}, nil
	case lexer.TokenVariable:
		return graph.Variable{Text: tok.Value}, nil
	case lexer.TokenRange:
		min, max, err := ParseRange(tok.Value)
		if err != nil {
			return nil, err
		}
		return graph.Range{Text: tok.Value, Min: min, Max: max}, nil
	default:
		return nil, fmt.Errorf("unexpected %s", tok.Type)
	}
}

// canonical renders an element the way it reads in a definition.
func (el element) canonical() string {
	if el.group != nil {
		return el.group.text
	}
	if r, ok := el.value.(graph.Range); ok {
		return fmt.Sprintf("(%d-%d)", r.Min, r.Max)
	}
	return el.value.String()
}

// signature is canonical qualified by node kind, so a word "WORD" and a
// WORD variable never render alike. Equal signatures build equal subgraphs.
func (el element) signature() string {
	if el.group != nil {
		return el.group.key
	}
	return el.value.Kind().String() + ":" + el.canonical()
}

// groupKey returns the sorted, de-duplicated set of alternatives as a
// signature key and as display text. Alternative order has no effect on
// matching, so <a|b> and <b|a> are the same group.
func groupKey(g *group) (key, text string) {
	type alt struct{ sig, text string }
	seen := make(map[string]bool, len(g.alts))
	var alts []alt
	for _, elems := range g.alts {
		sigs := make([]string, len(elems))
		texts := make([]string, len(elems))
		for i, el := range elems {
			sigs[i] = el.signature()
			texts[i] = el.canonical()
		}
		a := alt{sig: strings.Join(sigs, " "), text: strings.Join(texts, " ")}
		if !seen[a.sig] {
			seen[a.sig] = true
			alts = append(alts, a)
		}
	}
	sort.Slice(alts, func(i, j int) bool {
		if alts[i].text != alts[j].text {
			return alts[i].text < alts[j].text
		}
		return alts[i].sig < alts[j].sig
	})
	sigs := make([]string, len(alts))
	texts := make([]string, len(alts))
	for i, a := range alts {
		sigs[i] = a.sig
		texts[i] = a.text
	}
	left, right := "<", ">"
	if g.kind == graph.KindOption {
		left, right = "[", "]"
	}
	return left + strings.Join(sigs, "|") + right, left + strings.Join(texts, "|") + right
}

func (c *command) String() string {
	parts := []string{c.root.canonical()}
	for _, el := range c.elems {
		parts = append(parts, el.canonical())
	}
	return strings.Join(parts, " ")
}
