package pipeline

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/city-brain/enterprise-cli/internal/model"
	"github.com/city-brain/enterprise-cli/internal/registry"
)

// matchSuffixes are the entity suffixes stripped when deriving a base name
// for fuzzy lookups. Ordered longest first; exactly one is stripped.
var matchSuffixes = []string{
	"集团股份有限公司",
	"集团有限公司",
	"控股有限公司",
	"股份有限公司",
	"有限责任公司",
	"股份公司",
	"有限公司",
	"集团",
	"公司",
}

// Matcher runs the tiered lookup against the local registry.
type Matcher struct {
	reg          registry.LocalRegistry
	minBaseRunes int
}

func NewMatcher(reg registry.LocalRegistry, minBaseRunes int) *Matcher {
	if minBaseRunes <= 0 {
		minBaseRunes = 2
	}
	return &Matcher{reg: reg, minBaseRunes: minBaseRunes}
}

// BaseName strips at most one legal suffix from a company name. The result
// is empty when no suffix matched or the remainder is too short to be a
// usable fuzzy key.
func (m *Matcher) BaseName(name string) string {
	for _, suffix := range matchSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok {
			if utf8.RuneCountInString(base) < m.minBaseRunes {
				return ""
			}
			return base
		}
	}
	return ""
}

// Match cascades exact customer, exact chain leader, fuzzy customer, fuzzy
// chain leader. A nil record with nil error means no tier matched.
func (m *Matcher) Match(ctx context.Context, name string) (*model.EnterpriseRecord, error) {
	rec, err := m.reg.FindCustomerByExactName(ctx, name)
	if err != nil {
		return nil, eris.Wrap(err, "matcher: exact customer lookup")
	}
	if rec != nil {
		zap.L().Debug("matched customer by exact name", zap.String("name", name))
		return rec, nil
	}

	rec, err = m.reg.FindChainLeaderByExactName(ctx, name)
	if err != nil {
		return nil, eris.Wrap(err, "matcher: exact chain leader lookup")
	}
	if rec != nil {
		zap.L().Debug("matched chain leader by exact name", zap.String("name", name))
		return rec, nil
	}

	base := m.BaseName(name)
	if base == "" {
		return nil, nil
	}

	rec, err = m.reg.FindCustomerByFuzzyName(ctx, name, base)
	if err != nil {
		return nil, eris.Wrap(err, "matcher: fuzzy customer lookup")
	}
	if rec = m.acceptFuzzy(rec, base); rec != nil {
		zap.L().Debug("matched customer by fuzzy name",
			zap.String("name", name), zap.String("base", base), zap.String("matched", rec.Name))
		return rec, nil
	}

	rec, err = m.reg.FindChainLeaderByFuzzyName(ctx, name, base)
	if err != nil {
		return nil, eris.Wrap(err, "matcher: fuzzy chain leader lookup")
	}
	if rec = m.acceptFuzzy(rec, base); rec != nil {
		zap.L().Debug("matched chain leader by fuzzy name",
			zap.String("name", name), zap.String("base", base), zap.String("matched", rec.Name))
		return rec, nil
	}
	return nil, nil
}

// acceptFuzzy rejects a contains-match for very short bases, where anything
// but a prefix match is mostly noise.
func (m *Matcher) acceptFuzzy(rec *model.EnterpriseRecord, base string) *model.EnterpriseRecord {
	if rec == nil {
		return nil
	}
	if utf8.RuneCountInString(base) <= 2 && !strings.HasPrefix(rec.Name, base) {
		return nil
	}
	return rec
}
