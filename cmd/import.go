package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/city-brain/enterprise-cli/internal/registry"
)

var (
	importFile  string
	importTable string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Seed the local registry from a CSV or XLSX file",
	Long: `Seed the local registry from a spreadsheet.

Customer rows: name, address, region, industry, brain.
Chain-leader rows: name, region, industry.
The first row is treated as a header and skipped.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if importTable != string(tableCustomer) && importTable != string(tableChainLeader) {
			return eris.Errorf("unknown table %q (want customer or chain_leader)", importTable)
		}

		reg, err := registry.Open(ctx, cfg.Registry)
		if err != nil {
			return err
		}
		defer reg.Close()

		rows, err := readSeedRows(importFile)
		if err != nil {
			return err
		}

		inserted, err := seedRegistry(ctx, reg, importTable, rows)
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.Int("inserted", inserted),
			zap.String("table", importTable),
			zap.String("file", importFile),
		)
		return nil
	},
}

type seedTable string

const (
	tableCustomer    seedTable = "customer"
	tableChainLeader seedTable = "chain_leader"
)

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to CSV or XLSX file (required)")
	importCmd.Flags().StringVar(&importTable, "table", string(tableCustomer), "target table: customer or chain_leader")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func readSeedRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSXRows(path)
	case ".csv":
		return readCSVRows(path)
	default:
		return nil, eris.Errorf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "import: open csv")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "import: read csv")
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "import: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("import: xlsx file has no sheets")
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// seedRegistry inserts data rows, skipping the header and blank names.
func seedRegistry(ctx context.Context, reg registry.SeedRegistry, table string, rows [][]string) (int, error) {
	inserted := 0
	for i, row := range rows {
		if i == 0 {
			continue
		}
		name := cell(row, 0)
		if name == "" {
			continue
		}

		var err error
		if table == string(tableChainLeader) {
			err = reg.InsertChainLeader(ctx, registry.ChainLeaderRow{
				Name:     name,
				Region:   cell(row, 1),
				Industry: cell(row, 2),
			})
		} else {
			err = reg.InsertCustomer(ctx, registry.CustomerRow{
				Name:     name,
				Address:  cell(row, 1),
				Region:   cell(row, 2),
				Industry: cell(row, 3),
				Brain:    cell(row, 4),
			})
		}
		if err != nil {
			return inserted, eris.Wrapf(err, "import: row %d", i+1)
		}
		inserted++
	}
	return inserted, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
