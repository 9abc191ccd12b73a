package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/city-brain/enterprise-cli/internal/model"
	"github.com/city-brain/enterprise-cli/pkg/bocha"
)

// --- Search Mock ---

type mockSearchClient struct {
	mock.Mock
}

func (m *mockSearchClient) Search(ctx context.Context, query string, count int) (*bocha.SearchResponse, error) {
	args := m.Called(ctx, query, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bocha.SearchResponse), args.Error(1)
}

// --- LLM Mock ---

type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// --- Registry Mock ---

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) FindCustomerByExactName(ctx context.Context, name string) (*model.EnterpriseRecord, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EnterpriseRecord), args.Error(1)
}

func (m *mockRegistry) FindChainLeaderByExactName(ctx context.Context, name string) (*model.EnterpriseRecord, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EnterpriseRecord), args.Error(1)
}

func (m *mockRegistry) FindCustomerByFuzzyName(ctx context.Context, fullName, baseName string) (*model.EnterpriseRecord, error) {
	args := m.Called(ctx, fullName, baseName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EnterpriseRecord), args.Error(1)
}

func (m *mockRegistry) FindChainLeaderByFuzzyName(ctx context.Context, fullName, baseName string) (*model.EnterpriseRecord, error) {
	args := m.Called(ctx, fullName, baseName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EnterpriseRecord), args.Error(1)
}

func (m *mockRegistry) IndustryIDByName(ctx context.Context, name string) (int64, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *mockRegistry) BrainNameByIndustryID(ctx context.Context, industryID int64) (string, bool, error) {
	args := m.Called(ctx, industryID)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockRegistry) AreaIDByRegion(ctx context.Context, region string) (int64, bool, error) {
	args := m.Called(ctx, region)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *mockRegistry) ChainLeaderCountByIndustry(ctx context.Context, industryID int64) (int, error) {
	args := m.Called(ctx, industryID)
	return args.Int(0), args.Error(1)
}

func (m *mockRegistry) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockRegistry) Close() error {
	return m.Called().Error(0)
}

// searchResponse builds a SearchResponse from title/snippet pairs.
func searchResponse(results ...bocha.Result) *bocha.SearchResponse {
	return &bocha.SearchResponse{Results: results}
}
