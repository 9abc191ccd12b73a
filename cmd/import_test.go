package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/city-brain/enterprise-cli/internal/registry"
)

func newSeedRegistry(t *testing.T) registry.SeedRegistry {
	t.Helper()
	reg, err := registry.NewSQLite(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	require.NoError(t, reg.Migrate(context.Background()))
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestReadCSVRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.csv")
	content := "企业名称,地址,城市,行业,产业大脑\n" +
		"青岛啤酒股份有限公司,登州路56号,青岛市,食品饮料制造业,青岛食品饮料产业大脑\n" +
		"金锣集团有限公司,经济开发区,临沂市,食品加工业\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows, err := readCSVRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "青岛啤酒股份有限公司", rows[1][0])
	// Short rows are allowed, padding happens at seed time.
	assert.Len(t, rows[2], 4)
}

func TestReadSeedRowsUnsupportedType(t *testing.T) {
	_, err := readSeedRows("companies.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestSeedRegistryCustomers(t *testing.T) {
	reg := newSeedRegistry(t)

	rows := [][]string{
		{"企业名称", "地址", "城市", "行业", "产业大脑"},
		{"青岛啤酒股份有限公司", "登州路56号", "青岛市", "食品饮料制造业", "青岛食品饮料产业大脑"},
		{"", "应被跳过", "青岛市", "", ""},
		{"金锣集团有限公司", "经济开发区", "临沂市", "食品加工业"},
	}

	inserted, err := seedRegistry(context.Background(), reg, "customer", rows)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	rec, err := reg.FindCustomerByExactName(context.Background(), "青岛啤酒股份有限公司")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "食品饮料制造业", rec.Industry)
	assert.Equal(t, "青岛市", rec.Region)
	assert.Equal(t, "青岛食品饮料产业大脑", rec.BrainName)
}

func TestSeedRegistryChainLeaders(t *testing.T) {
	reg := newSeedRegistry(t)

	rows := [][]string{
		{"企业名称", "城市", "行业"},
		{"海尔集团公司", "青岛市", "智能家电制造业"},
	}

	inserted, err := seedRegistry(context.Background(), reg, "chain_leader", rows)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	rec, err := reg.FindChainLeaderByExactName(context.Background(), "海尔集团公司")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "智能家电制造业", rec.Industry)
}

func TestCell(t *testing.T) {
	row := []string{" 青岛啤酒 ", "登州路"}
	assert.Equal(t, "青岛啤酒", cell(row, 0))
	assert.Equal(t, "登州路", cell(row, 1))
	assert.Equal(t, "", cell(row, 5))
}
