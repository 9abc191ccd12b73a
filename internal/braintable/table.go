// Package braintable holds the static region→industry mapping tables for
// industry-brain programs and supply-chain-leader enterprises. The tables are
// loaded once at process start and injected into resolvers; they are never
// mutated at runtime.
package braintable

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Table is an immutable region→industry lookup with a similar-industry map
// used for near-miss matching.
type Table struct {
	// Entries maps region → canonical industry → value (brain or leader name).
	Entries map[string]map[string]string `yaml:"entries"`
	// Similar maps a canonical industry to industries considered equivalent.
	Similar map[string][]string `yaml:"similar"`
}

// Lookup resolves a value with three tiers:
//  1. direct region+industry key
//  2. the queried industry appears in a canonical industry's similar list
//  3. reverse: one of the queried industry's own similar entries is a key
//
// Regions absent from the table never produce a value.
func (t *Table) Lookup(region, industry string) (string, bool) {
	if region == "" || industry == "" {
		return "", false
	}
	entries, ok := t.Entries[region]
	if !ok {
		return "", false
	}

	if v, ok := entries[industry]; ok {
		return v, true
	}

	for canonical, similar := range t.Similar {
		if _, present := entries[canonical]; !present {
			continue
		}
		for _, s := range similar {
			if s == industry {
				return entries[canonical], true
			}
		}
	}

	for _, s := range t.Similar[industry] {
		if v, ok := entries[s]; ok {
			return v, true
		}
	}

	return "", false
}

// Maps bundles the brain and chain-leader tables.
type Maps struct {
	Brains       Table `yaml:"brains"`
	ChainLeaders Table `yaml:"chain_leaders"`
}

// Load reads table overrides from a YAML file. An empty path returns the
// built-in defaults.
func Load(path string) (*Maps, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "braintable: read override file")
	}
	var m Maps
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "braintable: parse override file")
	}
	if len(m.Brains.Entries) == 0 || len(m.ChainLeaders.Entries) == 0 {
		return nil, eris.New("braintable: override file missing brains or chain_leaders entries")
	}
	return &m, nil
}

// Default returns the built-in mapping tables for the covered regions.
func Default() *Maps {
	return &Maps{
		Brains: Table{
			Entries: map[string]map[string]string{
				"青岛市": {
					"食品饮料制造业":  "青岛食品饮料产业大脑",
					"汽车制造业":    "青岛汽车产业大脑",
					"海洋装备制造业":  "青岛海洋装备产业大脑",
					"纺织服装业":    "青岛纺织服装产业大脑",
					"化工业":      "青岛化工产业大脑",
					"电子信息制造业":  "青岛电子信息产业大脑",
					"机械制造业":    "青岛机械制造产业大脑",
				},
				"济南市": {
					"软件和信息技术服务业": "济南软件信息产业大脑",
					"汽车制造业":      "济南汽车产业大脑",
					"机械制造业":      "济南机械制造产业大脑",
					"生物医药业":      "济南生物医药产业大脑",
					"新材料产业":      "济南新材料产业大脑",
				},
				"烟台市": {
					"食品饮料制造业": "烟台食品饮料产业大脑",
					"海洋装备制造业": "烟台海洋装备产业大脑",
					"化工业":     "烟台化工产业大脑",
					"黄金产业":    "烟台黄金产业大脑",
				},
				"潍坊市": {
					"化工业":     "潍坊化工产业大脑",
					"农业机械制造业": "潍坊农机产业大脑",
					"纺织服装业":   "潍坊纺织服装产业大脑",
				},
				"临沂市": {
					"物流业":   "临沂物流产业大脑",
					"建材业":   "临沂建材产业大脑",
					"食品加工业": "临沂食品加工产业大脑",
				},
			},
			Similar: similarIndustries(),
		},
		ChainLeaders: Table{
			Entries: map[string]map[string]string{
				"青岛市": {
					"食品饮料制造业": "青岛啤酒股份有限公司",
					"汽车制造业":   "一汽解放青岛汽车有限公司",
					"海洋装备制造业": "中车青岛四方机车车辆股份有限公司",
					"纺织服装业":   "青岛即发集团控股有限公司",
					"化工业":     "青岛海湾化学有限公司",
					"电子信息制造业": "海信集团有限公司",
					"机械制造业":   "青岛重工股份有限公司",
				},
				"济南市": {
					"软件和信息技术服务业": "浪潮集团有限公司",
					"汽车制造业":      "中国重汽集团有限公司",
					"机械制造业":      "济南二机床集团有限公司",
					"生物医药业":      "齐鲁制药集团有限公司",
					"新材料产业":      "山东南山铝业股份有限公司",
				},
				"烟台市": {
					"食品饮料制造业": "烟台张裕集团有限公司",
					"海洋装备制造业": "中集来福士海洋工程有限公司",
					"化工业":     "万华化学集团股份有限公司",
					"黄金产业":    "山东黄金集团有限公司",
				},
				"潍坊市": {
					"化工业":     "潍柴动力股份有限公司",
					"农业机械制造业": "雷沃重工股份有限公司",
					"纺织服装业":   "山东如意科技集团有限公司",
				},
				"临沂市": {
					"物流业":   "临沂商城集团有限公司",
					"建材业":   "山东兰陵集团有限公司",
					"食品加工业": "金锣集团有限公司",
				},
			},
			Similar: chainSimilarIndustries(),
		},
	}
}

func similarIndustries() map[string][]string {
	return map[string][]string{
		"食品饮料制造业": {"食品加工业", "农产品加工业", "饮料制造业"},
		"汽车制造业":   {"汽车零部件制造业", "新能源汽车制造业", "交通运输设备制造业"},
		"机械制造业":   {"农业机械制造业", "工程机械制造业", "通用设备制造业"},
		"化工业":     {"石油化工业", "精细化工业", "化学原料制造业"},
		"纺织服装业":   {"纺织业", "服装制造业", "家纺制造业"},
		"电子信息制造业": {"软件和信息技术服务业", "通信设备制造业", "计算机制造业"},
	}
}

// Chain-leader matching recognizes a slightly wider set of similar
// industries than the brain tables (alcohol and special-purpose equipment).
func chainSimilarIndustries() map[string][]string {
	return map[string][]string{
		"食品饮料制造业": {"食品加工业", "农产品加工业", "饮料制造业", "酒类制造业"},
		"汽车制造业":   {"汽车零部件制造业", "新能源汽车制造业", "交通运输设备制造业"},
		"机械制造业":   {"农业机械制造业", "工程机械制造业", "通用设备制造业", "专用设备制造业"},
		"化工业":     {"石油化工业", "精细化工业", "化学原料制造业"},
		"纺织服装业":   {"纺织业", "服装制造业", "家纺制造业"},
		"电子信息制造业": {"软件和信息技术服务业", "通信设备制造业", "计算机制造业"},
	}
}
