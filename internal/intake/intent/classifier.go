package intent

import (
	"fmt"
	"regexp"

	"github.com/Rrens/order-intake/internal/intake/extract"
)

type rule struct {
	intent   Intent
	patterns []*regexp.Regexp
	match    func(raw string) bool
}

func (r rule) matches(raw, folded string) bool {
	if r.match != nil && r.match(raw) {
		return true
	}
	for _, p := range r.patterns {
		if p.MatchString(folded) {
			return true
		}
	}
	return false
}

// Classifier applies the phrase rules in priority order
type Classifier struct {
	rules []rule
}

// New builds a classifier from the built-in phrases plus extra patterns
// keyed by intent name
func New(extra map[string][]string) (*Classifier, error) {
	merged := make(map[Intent][]string, len(phrases))
	for in, ps := range phrases {
		merged[in] = append([]string(nil), ps...)
	}
	for name, ps := range extra {
		in, ok := Parse(name)
		if !ok {
			return nil, fmt.Errorf("unknown intent %q in phrase config", name)
		}
		merged[in] = append(merged[in], ps...)
	}

	c := &Classifier{}
	for _, in := range Priority {
		r := rule{intent: in}
		for _, p := range merged[in] {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("failed to compile %s phrase %q: %w", in, p, err)
			}
			r.patterns = append(r.patterns, re)
		}
		if in == OneShotOrder {
			r.match = func(raw string) bool { return len(extract.OrderLines(raw)) > 0 }
		}
		c.rules = append(c.rules, r)
	}
	return c, nil
}

// Default returns a classifier with the built-in phrases only
func Default() *Classifier {
	c, err := New(nil)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the first matching intent, or Unknown
func (c *Classifier) Classify(text string) Intent {
	folded := extract.Fold(text)
	for _, r := range c.rules {
		if r.matches(text, folded) {
			return r.intent
		}
	}
	return Unknown
}
