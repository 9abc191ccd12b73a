package registry

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/city-brain/enterprise-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the registry uses. pgxmock satisfies
// it in tests.
type Pool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresRegistry implements SeedRegistry using pgx.
type PostgresRegistry struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresRegistry with a connection pool. Each call
// acquires and releases a connection through the pool; no connection is held
// across external-API calls.
func NewPostgres(ctx context.Context, connString string) (*PostgresRegistry, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "registry: parse postgres config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "registry: create postgres pool")
	}
	return &PostgresRegistry{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests with pgxmock.
func NewPostgresWithPool(pool Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

const pgMigration = `
CREATE TABLE IF NOT EXISTS industries (
	industry_id   BIGSERIAL PRIMARY KEY,
	industry_name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS areas (
	area_id       BIGSERIAL PRIMARY KEY,
	city_name     TEXT NOT NULL,
	district_name TEXT NOT NULL DEFAULT '',
	UNIQUE (city_name, district_name)
);

CREATE TABLE IF NOT EXISTS brains (
	brain_id   BIGSERIAL PRIMARY KEY,
	brain_name TEXT NOT NULL UNIQUE,
	area_id    BIGINT REFERENCES areas(area_id)
);

CREATE TABLE IF NOT EXISTS brain_industries (
	brain_id    BIGINT NOT NULL REFERENCES brains(brain_id),
	industry_id BIGINT NOT NULL REFERENCES industries(industry_id),
	PRIMARY KEY (brain_id, industry_id)
);

CREATE TABLE IF NOT EXISTS chain_leaders (
	enterprise_id   BIGSERIAL PRIMARY KEY,
	enterprise_name TEXT NOT NULL,
	industry_id     BIGINT REFERENCES industries(industry_id),
	area_id         BIGINT REFERENCES areas(area_id)
);
CREATE INDEX IF NOT EXISTS idx_chain_leaders_name ON chain_leaders(enterprise_name);

CREATE TABLE IF NOT EXISTS customers (
	customer_id     BIGSERIAL PRIMARY KEY,
	customer_name   TEXT NOT NULL,
	address         TEXT NOT NULL DEFAULT '',
	industry_id     BIGINT REFERENCES industries(industry_id),
	brain_id        BIGINT REFERENCES brains(brain_id),
	chain_leader_id BIGINT REFERENCES chain_leaders(enterprise_id),
	area_id         BIGINT REFERENCES areas(area_id)
);
CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(customer_name);
`

// Migrate creates the registry schema if it does not exist.
func (r *PostgresRegistry) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, pgMigration); err != nil {
		return eris.Wrap(err, "registry: postgres migrate")
	}
	return nil
}

const pgCustomerSelect = `
SELECT c.customer_id, c.customer_name,
       COALESCE(i.industry_name, ''),
       COALESCE(a.city_name, ''),
       COALESCE(c.address, ''),
       COALESCE(b.brain_name, ''),
       COALESCE(e.enterprise_name, '')
FROM customers c
LEFT JOIN industries i ON c.industry_id = i.industry_id
LEFT JOIN brains b ON c.brain_id = b.brain_id
LEFT JOIN chain_leaders e ON c.chain_leader_id = e.enterprise_id
LEFT JOIN areas a ON c.area_id = a.area_id
`

const pgChainLeaderSelect = `
SELECT e.enterprise_id, e.enterprise_name,
       COALESCE(i.industry_name, ''),
       COALESCE(a.city_name, ''),
       '', '',
       e.enterprise_name
FROM chain_leaders e
LEFT JOIN industries i ON e.industry_id = i.industry_id
LEFT JOIN areas a ON e.area_id = a.area_id
`

func (r *PostgresRegistry) FindCustomerByExactName(ctx context.Context, name string) (*model.EnterpriseRecord, error) {
	row := r.pool.QueryRow(ctx, pgCustomerSelect+`WHERE c.customer_name = $1 LIMIT 1`, name)
	return scanPgRecord(row, model.TableCustomer)
}

func (r *PostgresRegistry) FindChainLeaderByExactName(ctx context.Context, name string) (*model.EnterpriseRecord, error) {
	row := r.pool.QueryRow(ctx, pgChainLeaderSelect+`WHERE e.enterprise_name = $1 LIMIT 1`, name)
	return scanPgRecord(row, model.TableChainLeader)
}

func (r *PostgresRegistry) FindCustomerByFuzzyName(ctx context.Context, fullName, baseName string) (*model.EnterpriseRecord, error) {
	row := r.pool.QueryRow(ctx, pgCustomerSelect+`
WHERE c.customer_name LIKE $1
ORDER BY CASE
	WHEN c.customer_name = $2 THEN 1
	WHEN c.customer_name LIKE $3 THEN 2
	ELSE 3
END
LIMIT 1`, "%"+baseName+"%", fullName, baseName+"%")
	return scanPgRecord(row, model.TableCustomer)
}

func (r *PostgresRegistry) FindChainLeaderByFuzzyName(ctx context.Context, fullName, baseName string) (*model.EnterpriseRecord, error) {
	row := r.pool.QueryRow(ctx, pgChainLeaderSelect+`
WHERE e.enterprise_name LIKE $1
ORDER BY CASE
	WHEN e.enterprise_name = $2 THEN 1
	WHEN e.enterprise_name LIKE $3 THEN 2
	ELSE 3
END
LIMIT 1`, "%"+baseName+"%", fullName, baseName+"%")
	return scanPgRecord(row, model.TableChainLeader)
}

func (r *PostgresRegistry) IndustryIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT industry_id FROM industries WHERE industry_name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, eris.Wrap(err, "registry: industry by name")
	}
	return id, true, nil
}

func (r *PostgresRegistry) BrainNameByIndustryID(ctx context.Context, industryID int64) (string, bool, error) {
	var name string
	err := r.pool.QueryRow(ctx, `
SELECT b.brain_name
FROM brains b
JOIN brain_industries bi ON b.brain_id = bi.brain_id
WHERE bi.industry_id = $1
LIMIT 1`, industryID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrap(err, "registry: brain by industry")
	}
	return name, true, nil
}

func (r *PostgresRegistry) AreaIDByRegion(ctx context.Context, region string) (int64, bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT area_id FROM areas WHERE city_name = $1 LIMIT 1`, region).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, eris.Wrap(err, "registry: area by region")
	}
	return id, true, nil
}

func (r *PostgresRegistry) ChainLeaderCountByIndustry(ctx context.Context, industryID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chain_leaders WHERE industry_id = $1`, industryID).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "registry: chain leader count")
	}
	return n, nil
}

func (r *PostgresRegistry) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRegistry) Close() error {
	if r.closeFn != nil {
		r.closeFn()
	}
	return nil
}

func (r *PostgresRegistry) UpsertIndustry(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO industries (industry_name) VALUES ($1)
ON CONFLICT (industry_name) DO UPDATE SET industry_name = EXCLUDED.industry_name
RETURNING industry_id`, name).Scan(&id)
	if err != nil {
		return 0, eris.Wrap(err, "registry: upsert industry")
	}
	return id, nil
}

func (r *PostgresRegistry) UpsertArea(ctx context.Context, cityName, districtName string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO areas (city_name, district_name) VALUES ($1, $2)
ON CONFLICT (city_name, district_name) DO UPDATE SET city_name = EXCLUDED.city_name
RETURNING area_id`, cityName, districtName).Scan(&id)
	if err != nil {
		return 0, eris.Wrap(err, "registry: upsert area")
	}
	return id, nil
}

func (r *PostgresRegistry) InsertCustomer(ctx context.Context, row CustomerRow) error {
	industryID, areaID, brainID, err := r.resolveRefs(ctx, row.Industry, row.Region, row.Brain)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO customers (customer_name, address, industry_id, brain_id, area_id)
VALUES ($1, $2, $3, $4, $5)`, row.Name, row.Address, industryID, brainID, areaID)
	if err != nil {
		return eris.Wrap(err, "registry: insert customer")
	}
	return nil
}

func (r *PostgresRegistry) InsertChainLeader(ctx context.Context, row ChainLeaderRow) error {
	industryID, areaID, _, err := r.resolveRefs(ctx, row.Industry, row.Region, "")
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO chain_leaders (enterprise_name, industry_id, area_id)
VALUES ($1, $2, $3)`, row.Name, industryID, areaID)
	if err != nil {
		return eris.Wrap(err, "registry: insert chain leader")
	}
	return nil
}

func (r *PostgresRegistry) resolveRefs(ctx context.Context, industry, region, brain string) (industryID, areaID, brainID any, err error) {
	industryID, areaID, brainID = nil, nil, nil

	var iid int64
	if industry != "" {
		iid, err = r.UpsertIndustry(ctx, industry)
		if err != nil {
			return nil, nil, nil, err
		}
		industryID = iid
	}
	if region != "" {
		aid, err := r.UpsertArea(ctx, region, "")
		if err != nil {
			return nil, nil, nil, err
		}
		areaID = aid
	}
	if brain != "" {
		var bid int64
		err := r.pool.QueryRow(ctx, `
INSERT INTO brains (brain_name, area_id) VALUES ($1, $2)
ON CONFLICT (brain_name) DO UPDATE SET brain_name = EXCLUDED.brain_name
RETURNING brain_id`, brain, areaID).Scan(&bid)
		if err != nil {
			return nil, nil, nil, eris.Wrap(err, "registry: upsert brain")
		}
		brainID = bid
		if industry != "" {
			if _, err := r.pool.Exec(ctx, `
INSERT INTO brain_industries (brain_id, industry_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING`, bid, iid); err != nil {
				return nil, nil, nil, eris.Wrap(err, "registry: link brain industry")
			}
		}
	}
	return industryID, areaID, brainID, nil
}

func scanPgRecord(row pgx.Row, table model.SourceTable) (*model.EnterpriseRecord, error) {
	var rec model.EnterpriseRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.Industry, &rec.Region, &rec.Address, &rec.BrainName, &rec.ChainLeaderName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "registry: scan record")
	}
	rec.SourceTable = table
	return &rec, nil
}
