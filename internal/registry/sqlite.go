package registry

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/city-brain/enterprise-cli/internal/model"
)

// SQLiteRegistry implements SeedRegistry using modernc.org/sqlite. It backs
// offline deployments and tests; production uses the postgres registry.
type SQLiteRegistry struct {
	db *sql.DB
}

// NewSQLite opens a SQLite registry at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteRegistry, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "registry: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "registry: sqlite exec %s", pragma)
		}
	}
	return &SQLiteRegistry{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS industries (
	industry_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	industry_name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS areas (
	area_id       INTEGER PRIMARY KEY AUTOINCREMENT,
	city_name     TEXT NOT NULL,
	district_name TEXT NOT NULL DEFAULT '',
	UNIQUE (city_name, district_name)
);

CREATE TABLE IF NOT EXISTS brains (
	brain_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	brain_name TEXT NOT NULL UNIQUE,
	area_id    INTEGER REFERENCES areas(area_id)
);

CREATE TABLE IF NOT EXISTS brain_industries (
	brain_id    INTEGER NOT NULL REFERENCES brains(brain_id),
	industry_id INTEGER NOT NULL REFERENCES industries(industry_id),
	PRIMARY KEY (brain_id, industry_id)
);

CREATE TABLE IF NOT EXISTS customers (
	customer_id     INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_name   TEXT NOT NULL,
	address         TEXT NOT NULL DEFAULT '',
	industry_id     INTEGER REFERENCES industries(industry_id),
	brain_id        INTEGER REFERENCES brains(brain_id),
	chain_leader_id INTEGER REFERENCES chain_leaders(enterprise_id),
	area_id         INTEGER REFERENCES areas(area_id)
);
CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(customer_name);

CREATE TABLE IF NOT EXISTS chain_leaders (
	enterprise_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	enterprise_name TEXT NOT NULL,
	industry_id     INTEGER REFERENCES industries(industry_id),
	area_id         INTEGER REFERENCES areas(area_id)
);
CREATE INDEX IF NOT EXISTS idx_chain_leaders_name ON chain_leaders(enterprise_name);
`

// Migrate creates the registry schema if it does not exist.
func (r *SQLiteRegistry) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "registry: sqlite migrate")
	}
	return nil
}

const sqliteCustomerSelect = `
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

const sqliteChainLeaderSelect = `
SELECT e.enterprise_id, e.enterprise_name,
       COALESCE(i.industry_name, ''),
       COALESCE(a.city_name, ''),
       '', '',
       e.enterprise_name
FROM chain_leaders e
LEFT JOIN industries i ON e.industry_id = i.industry_id
LEFT JOIN areas a ON e.area_id = a.area_id
`

func (r *SQLiteRegistry) FindCustomerByExactName(ctx context.Context, name string) (*model.EnterpriseRecord, error) {
	row := r.db.QueryRowContext(ctx, sqliteCustomerSelect+`WHERE c.customer_name = ? LIMIT 1`, name)
	return scanRecord(row, model.TableCustomer)
}

func (r *SQLiteRegistry) FindChainLeaderByExactName(ctx context.Context, name string) (*model.EnterpriseRecord, error) {
	row := r.db.QueryRowContext(ctx, sqliteChainLeaderSelect+`WHERE e.enterprise_name = ? LIMIT 1`, name)
	return scanRecord(row, model.TableChainLeader)
}

func (r *SQLiteRegistry) FindCustomerByFuzzyName(ctx context.Context, fullName, baseName string) (*model.EnterpriseRecord, error) {
	row := r.db.QueryRowContext(ctx, sqliteCustomerSelect+`
WHERE c.customer_name LIKE ?
ORDER BY CASE
	WHEN c.customer_name = ? THEN 1
	WHEN c.customer_name LIKE ? THEN 2
	ELSE 3
END
LIMIT 1`, "%"+baseName+"%", fullName, baseName+"%")
	return scanRecord(row, model.TableCustomer)
}

func (r *SQLiteRegistry) FindChainLeaderByFuzzyName(ctx context.Context, fullName, baseName string) (*model.EnterpriseRecord, error) {
	row := r.db.QueryRowContext(ctx, sqliteChainLeaderSelect+`
WHERE e.enterprise_name LIKE ?
ORDER BY CASE
	WHEN e.enterprise_name = ? THEN 1
	WHEN e.enterprise_name LIKE ? THEN 2
	ELSE 3
END
LIMIT 1`, "%"+baseName+"%", fullName, baseName+"%")
	return scanRecord(row, model.TableChainLeader)
}

func (r *SQLiteRegistry) IndustryIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT industry_id FROM industries WHERE industry_name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, eris.Wrap(err, "registry: industry by name")
	}
	return id, true, nil
}

func (r *SQLiteRegistry) BrainNameByIndustryID(ctx context.Context, industryID int64) (string, bool, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `
SELECT b.brain_name
FROM brains b
JOIN brain_industries bi ON b.brain_id = bi.brain_id
WHERE bi.industry_id = ?
LIMIT 1`, industryID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrap(err, "registry: brain by industry")
	}
	return name, true, nil
}

func (r *SQLiteRegistry) AreaIDByRegion(ctx context.Context, region string) (int64, bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT area_id FROM areas WHERE city_name = ? LIMIT 1`, region).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, eris.Wrap(err, "registry: area by region")
	}
	return id, true, nil
}

func (r *SQLiteRegistry) ChainLeaderCountByIndustry(ctx context.Context, industryID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chain_leaders WHERE industry_id = ?`, industryID).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "registry: chain leader count")
	}
	return n, nil
}

func (r *SQLiteRegistry) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}

func (r *SQLiteRegistry) UpsertIndustry(ctx context.Context, name string) (int64, error) {
	if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO industries (industry_name) VALUES (?)`, name); err != nil {
		return 0, eris.Wrap(err, "registry: upsert industry")
	}
	id, ok, err := r.IndustryIDByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, eris.Errorf("registry: industry %q not found after upsert", name)
	}
	return id, nil
}

func (r *SQLiteRegistry) UpsertArea(ctx context.Context, cityName, districtName string) (int64, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO areas (city_name, district_name) VALUES (?, ?)`, cityName, districtName); err != nil {
		return 0, eris.Wrap(err, "registry: upsert area")
	}
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT area_id FROM areas WHERE city_name = ? AND district_name = ?`, cityName, districtName).Scan(&id)
	if err != nil {
		return 0, eris.Wrap(err, "registry: upsert area select")
	}
	return id, nil
}

func (r *SQLiteRegistry) InsertCustomer(ctx context.Context, row CustomerRow) error {
	industryID, areaID, brainID, err := r.resolveRefs(ctx, row.Industry, row.Region, row.Brain)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO customers (customer_name, address, industry_id, brain_id, area_id)
VALUES (?, ?, ?, ?, ?)`, row.Name, row.Address, industryID, brainID, areaID)
	if err != nil {
		return eris.Wrap(err, "registry: insert customer")
	}
	return nil
}

func (r *SQLiteRegistry) InsertChainLeader(ctx context.Context, row ChainLeaderRow) error {
	industryID, areaID, _, err := r.resolveRefs(ctx, row.Industry, row.Region, "")
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO chain_leaders (enterprise_name, industry_id, area_id)
VALUES (?, ?, ?)`, row.Name, industryID, areaID)
	if err != nil {
		return eris.Wrap(err, "registry: insert chain leader")
	}
	return nil
}

// resolveRefs upserts the reference rows a seed row points at, returning
// nullable IDs for the insert.
func (r *SQLiteRegistry) resolveRefs(ctx context.Context, industry, region, brain string) (industryID, areaID, brainID any, err error) {
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
		if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO brains (brain_name, area_id) VALUES (?, ?)`, brain, areaID); err != nil {
			return nil, nil, nil, eris.Wrap(err, "registry: upsert brain")
		}
		var bid int64
		if err := r.db.QueryRowContext(ctx, `SELECT brain_id FROM brains WHERE brain_name = ?`, brain).Scan(&bid); err != nil {
			return nil, nil, nil, eris.Wrap(err, "registry: upsert brain select")
		}
		brainID = bid
		if industry != "" {
			if _, err := r.db.ExecContext(ctx,
				`INSERT OR IGNORE INTO brain_industries (brain_id, industry_id) VALUES (?, ?)`, bid, iid); err != nil {
				return nil, nil, nil, eris.Wrap(err, "registry: link brain industry")
			}
		}
	}
	return industryID, areaID, brainID, nil
}

// rowScanner abstracts *sql.Row and pgx.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, table model.SourceTable) (*model.EnterpriseRecord, error) {
	var rec model.EnterpriseRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.Industry, &rec.Region, &rec.Address, &rec.BrainName, &rec.ChainLeaderName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "registry: scan record")
	}
	rec.SourceTable = table
	return &rec, nil
}
