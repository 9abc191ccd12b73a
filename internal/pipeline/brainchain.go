package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/city-brain/enterprise-cli/internal/braintable"
	"github.com/city-brain/enterprise-cli/internal/model"
	"github.com/city-brain/enterprise-cli/internal/registry"
)

// BrainChainResolver answers which industry brain platform covers a company
// and whether the company anchors its industry chain. Results are always a
// displayable string; a miss is a descriptive sentinel, never empty.
type BrainChainResolver interface {
	ResolveBrain(ctx context.Context, region, industry string) string
	ResolveChainStatus(ctx context.Context, name, region, industry string) string
}

// StaticResolver serves brain and chain-leader lookups from the immutable
// in-memory tables.
type StaticResolver struct {
	maps *braintable.Maps
}

func NewStaticResolver(maps *braintable.Maps) *StaticResolver {
	return &StaticResolver{maps: maps}
}

func (r *StaticResolver) ResolveBrain(ctx context.Context, region, industry string) string {
	if brain, ok := r.maps.Brains.Lookup(region, industry); ok {
		return brain
	}
	return region + model.PlaceholderNoBrainSuffix
}

func (r *StaticResolver) ResolveChainStatus(ctx context.Context, name, region, industry string) string {
	leader, ok := r.maps.ChainLeaders.Lookup(region, industry)
	if !ok {
		return region + model.PlaceholderNoChainSuffix
	}
	if leader == name {
		return fmt.Sprintf("%s，链主", industry)
	}
	return fmt.Sprintf("%s，成员企业（链主：%s）", industry, leader)
}

// RelationalResolver answers the same questions from the registry's
// relational tables. A registry error is returned so the caller can degrade.
type RelationalResolver struct {
	reg     registry.LocalRegistry
	matcher *Matcher
}

func NewRelationalResolver(reg registry.LocalRegistry, matcher *Matcher) *RelationalResolver {
	return &RelationalResolver{reg: reg, matcher: matcher}
}

func (r *RelationalResolver) resolveBrain(ctx context.Context, region, industry string) (string, error) {
	// A brain belongs to a covered area. Without an area row for the region
	// the industry join would hand out another city's brain.
	if region == "" {
		return region + model.PlaceholderNoBrainSuffix, nil
	}
	_, ok, err := r.reg.AreaIDByRegion(ctx, region)
	if err != nil {
		return "", err
	}
	if !ok {
		return region + model.PlaceholderNoBrainSuffix, nil
	}

	industryID, ok, err := r.reg.IndustryIDByName(ctx, industry)
	if err != nil {
		return "", err
	}
	if !ok {
		return region + model.PlaceholderNoBrainSuffix, nil
	}
	brain, ok, err := r.reg.BrainNameByIndustryID(ctx, industryID)
	if err != nil {
		return "", err
	}
	if !ok {
		return region + model.PlaceholderNoBrainSuffix, nil
	}
	return brain, nil
}

func (r *RelationalResolver) resolveChainStatus(ctx context.Context, name, region, industry string) (string, error) {
	rec, err := r.reg.FindChainLeaderByExactName(ctx, name)
	if err != nil {
		return "", err
	}
	if rec == nil {
		if base := r.matcher.BaseName(name); base != "" {
			rec, err = r.reg.FindChainLeaderByFuzzyName(ctx, name, base)
			if err != nil {
				return "", err
			}
		}
	}
	if rec != nil {
		if rec.Industry != "" {
			return fmt.Sprintf("%s，链主", rec.Industry), nil
		}
		return fmt.Sprintf("%s，链主", industry), nil
	}

	industryID, ok, err := r.reg.IndustryIDByName(ctx, industry)
	if err != nil {
		return "", err
	}
	if ok {
		n, err := r.reg.ChainLeaderCountByIndustry(ctx, industryID)
		if err != nil {
			return "", err
		}
		if n > 0 {
			return fmt.Sprintf("%s，成员企业", industry), nil
		}
	}
	return model.PlaceholderUnclassified, nil
}

// FallbackResolver tries the relational tables first and degrades to the
// static tables on any registry error.
type FallbackResolver struct {
	relational *RelationalResolver
	static     *StaticResolver
}

func NewFallbackResolver(relational *RelationalResolver, static *StaticResolver) *FallbackResolver {
	return &FallbackResolver{relational: relational, static: static}
}

func (r *FallbackResolver) ResolveBrain(ctx context.Context, region, industry string) string {
	if r.relational != nil {
		brain, err := r.relational.resolveBrain(ctx, region, industry)
		if err == nil && !model.IsPlaceholder(brain) {
			return brain
		}
		if err != nil {
			zap.L().Warn("relational brain lookup failed, using static tables",
				zap.String("region", region), zap.String("industry", industry), zap.Error(err))
		}
	}
	return r.static.ResolveBrain(ctx, region, industry)
}

func (r *FallbackResolver) ResolveChainStatus(ctx context.Context, name, region, industry string) string {
	if r.relational != nil {
		status, err := r.relational.resolveChainStatus(ctx, name, region, industry)
		if err == nil && !model.IsPlaceholder(status) {
			return status
		}
		if err != nil {
			zap.L().Warn("relational chain lookup failed, using static tables",
				zap.String("company", name), zap.Error(err))
		}
	}
	return r.static.ResolveChainStatus(ctx, name, region, industry)
}
