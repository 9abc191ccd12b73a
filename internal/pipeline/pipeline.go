package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/city-brain/enterprise-cli/internal/model"
	"github.com/city-brain/enterprise-cli/internal/trace"
	"github.com/city-brain/enterprise-cli/pkg/llm"
)

// ErrEmptyInput is returned when the input text is blank.
var ErrEmptyInput = eris.New("pipeline: empty input")

// variantSuffixes are appended to an incomplete candidate name when the
// direct lookup misses, retrying the exact tiers with common full forms.
var variantSuffixes = []string{"股份有限公司", "有限公司", "集团", "公司"}

// Pipeline orchestrates one resolution from raw text to a CompanyProfile.
// Stages run in a fixed order: extraction, local match, enrichment, news,
// assembly. No stage failure past extraction aborts the resolution.
type Pipeline struct {
	extractor  *IdentityExtractor
	matcher    *Matcher
	industry   *IndustryResolver
	brainChain BrainChainResolver
	ranking    *RankingResolver
	news       *NewsResolver
	revenue    *RevenueResolver
	llm        llm.Client

	localBaseConfidence  float64
	searchBaseConfidence float64
}

// Deps carries the collaborators a Pipeline needs.
type Deps struct {
	Extractor  *IdentityExtractor
	Matcher    *Matcher
	Industry   *IndustryResolver
	BrainChain BrainChainResolver
	Ranking    *RankingResolver
	News       *NewsResolver
	Revenue    *RevenueResolver
	LLM        llm.Client

	LocalBaseConfidence  float64
	SearchBaseConfidence float64
}

func New(deps Deps) *Pipeline {
	p := &Pipeline{
		extractor:            deps.Extractor,
		matcher:              deps.Matcher,
		industry:             deps.Industry,
		brainChain:           deps.BrainChain,
		ranking:              deps.Ranking,
		news:                 deps.News,
		revenue:              deps.Revenue,
		llm:                  deps.LLM,
		localBaseConfidence:  deps.LocalBaseConfidence,
		searchBaseConfidence: deps.SearchBaseConfidence,
	}
	if p.extractor == nil {
		p.extractor = NewIdentityExtractor()
	}
	if p.localBaseConfidence <= 0 {
		p.localBaseConfidence = 0.95
	}
	if p.searchBaseConfidence <= 0 {
		p.searchBaseConfidence = 0.5
	}
	return p
}

// Process resolves a free-text company mention into a profile. Only blank
// input yields an error; every later failure degrades into the profile.
func (p *Pipeline) Process(ctx context.Context, rawInput string, opts model.ResolveOptions) (*model.CompanyProfile, error) {
	if strings.TrimSpace(rawInput) == "" {
		return nil, ErrEmptyInput
	}

	rec := trace.FromContext(ctx)
	if rec == nil {
		rec = trace.NewRecorder()
		ctx = trace.WithRecorder(ctx, rec)
	}
	logger := zap.L().With(zap.String("resolution_id", rec.ID()))

	var identity model.CompanyIdentity
	p.trackStage(logger, "extract_identity", func() {
		identity = p.extractor.Extract(rawInput)
	})
	if identity.CandidateName == "" {
		logger.Info("no company identity found", zap.String("input", truncateInput(rawInput)))
		return &model.CompanyProfile{
			Error: "无法从输入中识别企业名称",
		}, nil
	}
	logger.Info("identity extracted",
		zap.String("company", identity.CandidateName),
		zap.Bool("complete", identity.IsComplete))

	var record *model.EnterpriseRecord
	p.trackStage(logger, "local_match", func() {
		record = p.matchWithVariants(ctx, identity, rec)
	})

	profile := &model.CompanyProfile{CompanyName: identity.CandidateName}
	if record != nil {
		profile.CompanyName = record.Name
		profile.DataSource = model.SourceLocalDB
		p.enrichFromRecord(ctx, profile, record, opts, logger)
	} else {
		profile.DataSource = model.SourceSearchEngine
		p.enrichFromSearch(ctx, profile, identity.CandidateName, opts, logger)
	}

	p.trackStage(logger, "news", func() {
		if !opts.EnableNetwork {
			profile.News = model.NewsDigest{Content: model.PlaceholderNetworkDisabled}
			return
		}
		profile.News = p.news.Fetch(ctx, profile.CompanyName)
	})
	profile.Details.News = profile.News

	base := p.searchBaseConfidence
	if record != nil {
		base = p.localBaseConfidence
	}
	profile.ConfidenceScore = clamp01(base * profile.Details.FilledRatio())

	p.trackStage(logger, "summary", func() {
		profile.Summary = p.buildSummary(ctx, profile, opts)
	})

	logger.Info("resolution complete",
		zap.String("company", profile.CompanyName),
		zap.String("source", string(profile.DataSource)),
		zap.Float64("confidence", profile.ConfidenceScore),
		zap.Int("external_calls", len(rec.Calls())))
	return profile, nil
}

// matchWithVariants runs the tiered lookup, then retries with common suffix
// variants when an incomplete mention missed entirely.
func (p *Pipeline) matchWithVariants(ctx context.Context, identity model.CompanyIdentity, rec *trace.Recorder) *model.EnterpriseRecord {
	record := p.observedMatch(ctx, rec, "match", identity.CandidateName)
	if record != nil || identity.IsComplete {
		return record
	}
	for _, suffix := range variantSuffixes {
		if record = p.observedMatch(ctx, rec, "match_variant", identity.CandidateName+suffix); record != nil {
			return record
		}
	}
	return nil
}

func (p *Pipeline) observedMatch(ctx context.Context, rec *trace.Recorder, operation, name string) *model.EnterpriseRecord {
	var record *model.EnterpriseRecord
	err := rec.Observe("registry", operation, name, func() (string, error) {
		var err error
		record, err = p.matcher.Match(ctx, name)
		if record != nil {
			return record.Name, err
		}
		return "", err
	})
	if err != nil {
		zap.L().Warn("local match failed", zap.String("company", name), zap.Error(err))
		return nil
	}
	return record
}

// enrichFromRecord fills the profile from a registry row and backfills the
// gaps through the resolvers. Backfill never changes the LOCAL_DB tag.
func (p *Pipeline) enrichFromRecord(ctx context.Context, profile *model.CompanyProfile, record *model.EnterpriseRecord, opts model.ResolveOptions, logger *zap.Logger) {
	d := &profile.Details
	d.Industry = record.Industry
	d.Region = record.Region
	d.BrainName = record.BrainName
	if record.SourceTable == model.TableChainLeader {
		d.ChainStatus = fmt.Sprintf("%s，链主", record.Industry)
	} else if record.ChainLeaderName != "" {
		d.ChainStatus = fmt.Sprintf("%s，成员企业（链主：%s）", record.Industry, record.ChainLeaderName)
	}

	p.trackStage(logger, "backfill", func() {
		if d.Industry == "" && opts.EnableNetwork {
			d.Industry = p.industry.Resolve(ctx, profile.CompanyName)
		}
		if d.BrainName == "" {
			d.BrainName = p.brainChain.ResolveBrain(ctx, d.Region, d.Industry)
		}
		if d.ChainStatus == "" {
			d.ChainStatus = p.brainChain.ResolveChainStatus(ctx, profile.CompanyName, d.Region, d.Industry)
		}
	})

	p.externalStages(ctx, profile, opts, logger)
}

// enrichFromSearch assembles the profile from search evidence when the
// registry had nothing.
func (p *Pipeline) enrichFromSearch(ctx context.Context, profile *model.CompanyProfile, name string, opts model.ResolveOptions, logger *zap.Logger) {
	d := &profile.Details
	if !opts.EnableNetwork {
		d.Industry = model.PlaceholderNetworkDisabled
		d.RankingStatus = model.PlaceholderNetworkDisabled
		d.RevenueInfo = model.PlaceholderNetworkDisabled
		return
	}

	p.trackStage(logger, "industry", func() {
		d.Industry = p.industry.Resolve(ctx, name)
	})
	p.trackStage(logger, "brain_chain", func() {
		if d.Industry == "" {
			return
		}
		d.BrainName = p.brainChain.ResolveBrain(ctx, d.Region, d.Industry)
		d.ChainStatus = p.brainChain.ResolveChainStatus(ctx, name, d.Region, d.Industry)
		if !model.IsPlaceholder(d.BrainName) || !model.IsPlaceholder(d.ChainStatus) {
			profile.DataSource = model.SourceMixed
		}
	})

	p.externalStages(ctx, profile, opts, logger)
}

// externalStages runs the search-backed enrichment shared by both branches.
func (p *Pipeline) externalStages(ctx context.Context, profile *model.CompanyProfile, opts model.ResolveOptions, logger *zap.Logger) {
	d := &profile.Details
	if !opts.EnableNetwork {
		if d.RankingStatus == "" {
			d.RankingStatus = model.PlaceholderNetworkDisabled
		}
		if d.RevenueInfo == "" {
			d.RevenueInfo = model.PlaceholderNetworkDisabled
		}
		return
	}

	p.trackStage(logger, "ranking", func() {
		d.RankingStatus = p.ranking.Resolve(ctx, profile.CompanyName, d.Industry)
	})
	p.trackStage(logger, "revenue", func() {
		d.RevenueInfo = p.revenue.Resolve(ctx, profile.CompanyName)
	})
}

// buildSummary produces the one-paragraph profile summary. With the network
// up it asks the LLM; otherwise, or on LLM failure, it falls back to a
// deterministic template.
func (p *Pipeline) buildSummary(ctx context.Context, profile *model.CompanyProfile, opts model.ResolveOptions) string {
	if opts.EnableNetwork && p.llm != nil {
		prompt := fmt.Sprintf(
			"用一段话概括以下企业信息，客观准确，不要展开：\n企业名称：%s\n所属行业：%s\n所在地区：%s\n产业大脑：%s\n产业链地位：%s\n营收情况：%s\n排名情况：%s",
			profile.CompanyName, profile.Details.Industry, profile.Details.Region,
			profile.Details.BrainName, profile.Details.ChainStatus,
			profile.Details.RevenueInfo, profile.Details.RankingStatus)
		summary, err := p.llm.Complete(ctx, prompt)
		if err == nil && strings.TrimSpace(summary) != "" {
			return strings.TrimSpace(summary)
		}
		if err != nil {
			zap.L().Warn("summary llm failed", zap.String("company", profile.CompanyName), zap.Error(err))
		}
	}
	return templateSummary(profile)
}

func templateSummary(profile *model.CompanyProfile) string {
	d := profile.Details
	var parts []string
	if d.Region != "" && !model.IsPlaceholder(d.Region) {
		parts = append(parts, "位于"+d.Region)
	}
	if d.Industry != "" && !model.IsPlaceholder(d.Industry) {
		parts = append(parts, "属于"+d.Industry)
	}
	if d.BrainName != "" && !model.IsPlaceholder(d.BrainName) {
		parts = append(parts, "对接"+d.BrainName)
	}
	if len(parts) == 0 {
		return profile.CompanyName
	}
	return fmt.Sprintf("%s，%s。", profile.CompanyName, strings.Join(parts, "，"))
}

// trackStage times a pipeline stage and logs its duration.
func (p *Pipeline) trackStage(logger *zap.Logger, name string, fn func()) {
	start := time.Now()
	fn()
	logger.Debug("stage complete",
		zap.String("stage", name),
		zap.Duration("elapsed", time.Since(start)))
}

func truncateInput(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
