package purge

import (
	"fmt"
	"os"
	"strings"
)

// maxPinTokens is the lot home plus one token per policy.
const maxPinTokens = 5

// PinConfig is the parsed purge parameter string.
type PinConfig struct {
	LotHome  string   `json:"lot_home" yaml:"lot_home"`
	Policies []Policy `json:"policies" yaml:"policies"`
}

// ParsePinConfig parses "<lot_home> [del|exp|opp|ded]...".
//
// The lot home must be an existing directory. Policy tokens are optional;
// when none are given the default order applies. Unknown and repeated tokens
// are rejected.
func ParsePinConfig(params string) (*PinConfig, error) {
	tokens := strings.Fields(params)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: expected '<lot_home> [policy...]'", ErrInvalidParams)
	}
	if len(tokens) > maxPinTokens {
		return nil, fmt.Errorf("%w: expected at most %d tokens, got %d", ErrInvalidParams, maxPinTokens, len(tokens))
	}

	home := tokens[0]
	info, err := os.Stat(home)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidLotHome, home, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a directory", ErrInvalidLotHome, home)
	}

	cfg := &PinConfig{LotHome: home}
	seen := make(map[Policy]bool, len(tokens)-1)
	for _, tok := range tokens[1:] {
		p := ParsePolicy(tok)
		if p == PolicyUnknown {
			return nil, fmt.Errorf("%w: %q (valid: del, exp, opp, ded)", ErrUnknownPolicy, tok)
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePolicy, tok)
		}
		seen[p] = true
		cfg.Policies = append(cfg.Policies, p)
	}

	if len(cfg.Policies) == 0 {
		cfg.Policies = DefaultPolicies()
	}
	return cfg, nil
}

// String renders the configuration back into parameter form.
func (c *PinConfig) String() string {
	parts := []string{c.LotHome}
	for _, p := range c.Policies {
		parts = append(parts, p.ShortName())
	}
	return strings.Join(parts, " ")
}

func (c *PinConfig) clone() *PinConfig {
	if c == nil {
		return nil
	}
	return &PinConfig{
		LotHome:  c.LotHome,
		Policies: append([]Policy(nil), c.Policies...),
	}
}
