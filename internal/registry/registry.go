// Package registry provides access to the local enterprise registry: the
// customer table, the chain-leader table, and the industry/brain/area
// reference tables they join against.
package registry

import (
	"context"

	"github.com/city-brain/enterprise-cli/internal/model"
)

// LocalRegistry is the relational lookup capability consumed by the
// resolution pipeline. A nil record with a nil error is a normal miss.
type LocalRegistry interface {
	// Customer and chain-leader lookups. Fuzzy lookups receive both the
	// full queried name (for tie-breaking) and the suffix-stripped base.
	FindCustomerByExactName(ctx context.Context, name string) (*model.EnterpriseRecord, error)
	FindChainLeaderByExactName(ctx context.Context, name string) (*model.EnterpriseRecord, error)
	FindCustomerByFuzzyName(ctx context.Context, fullName, baseName string) (*model.EnterpriseRecord, error)
	FindChainLeaderByFuzzyName(ctx context.Context, fullName, baseName string) (*model.EnterpriseRecord, error)

	// Reference lookups used by the relational brain/chain strategy.
	IndustryIDByName(ctx context.Context, name string) (int64, bool, error)
	BrainNameByIndustryID(ctx context.Context, industryID int64) (string, bool, error)
	AreaIDByRegion(ctx context.Context, region string) (int64, bool, error)
	ChainLeaderCountByIndustry(ctx context.Context, industryID int64) (int, error)

	// Ping reports whether the backing database is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// SeedRegistry extends LocalRegistry with the write operations used by the
// import command. The pipeline itself never writes.
type SeedRegistry interface {
	LocalRegistry

	Migrate(ctx context.Context) error
	UpsertIndustry(ctx context.Context, name string) (int64, error)
	UpsertArea(ctx context.Context, cityName, districtName string) (int64, error)
	InsertCustomer(ctx context.Context, row CustomerRow) error
	InsertChainLeader(ctx context.Context, row ChainLeaderRow) error
}

// CustomerRow is one customer registry entry to seed.
type CustomerRow struct {
	Name     string
	Address  string
	Region   string
	Industry string
	Brain    string
}

// ChainLeaderRow is one chain-leader registry entry to seed.
type ChainLeaderRow struct {
	Name     string
	Region   string
	Industry string
}
