// Package nlu turns a raw transcript into a routing decision: run a direct
// command when the transcript starts with the trigger phrase, otherwise ask
// the language model.
package nlu

import (
	"strings"
	"unicode"

	"parlo/pkg/util"
)

type Kind int

const (
	RouteEmpty Kind = iota
	RouteLaunch
	RouteReply
)

func (k Kind) String() string {
	switch k {
	case RouteLaunch:
		return "launch"
	case RouteReply:
		return "reply"
	default:
		return "empty"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DefaultTrigger is the phrase that opens the browser.
var DefaultTrigger = Trigger{Words: []string{"ouvre", "chrome"}}

type Trigger struct {
	Words []string
}

// ParseTrigger splits a phrase such as "ouvre chrome" into a Trigger.
func ParseTrigger(phrase string) Trigger {
	return Trigger{Words: Tokens(Normalize(phrase))}
}

// Match reports whether tokens start with the trigger words, ignoring case.
func (t Trigger) Match(tokens []string) bool {
	if len(t.Words) == 0 {
		return false
	}
	return util.HasPrefixFunc(tokens, t.Words, strings.EqualFold)
}

func (t Trigger) String() string {
	return strings.Join(t.Words, " ")
}

type Decision struct {
	Normalized string
	Tokens     []string
	Kind       Kind
}

// Route normalizes text and decides where it goes.
func Route(text string, trigger Trigger) Decision {
	n := Normalize(text)
	d := Decision{Normalized: n, Tokens: Tokens(n)}

	switch {
	case len(d.Tokens) == 0:
		d.Kind = RouteEmpty
	case trigger.Match(d.Tokens):
		d.Kind = RouteLaunch
	default:
		d.Kind = RouteReply
	}
	return d
}

// Normalize drops every rune that is not a letter, a digit or whitespace and
// trims the result.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func Tokens(s string) []string {
	return strings.Fields(s)
}
