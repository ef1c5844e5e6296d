package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// specialistYears is the closed exam-year set every specialist area spans.
var specialistYears = []int{2008, 2009, 2010, 2011, 2012, 2013, 2014, 2015, 2016, 2017, 2018, 2019}

// defaultAreas is the reference 13-area set: the year-less basic area plus
// twelve specialist civil-engineering departments.
var defaultAreas = []Area{
	{Key: "basic", Tag: "共通", Name: "共通（基礎科目）"},
	{Key: "road", Tag: "道路", Name: "道路", Years: specialistYears},
	{Key: "river", Tag: "河川、砂防及び海岸・海洋", Name: "河川、砂防及び海岸・海洋", Years: specialistYears},
	{Key: "urban", Tag: "都市計画及び地方計画", Name: "都市計画及び地方計画", Years: specialistYears},
	{Key: "tunnel", Tag: "トンネル", Name: "トンネル", Years: specialistYears},
	{Key: "garden", Tag: "造園", Name: "造園", Years: specialistYears},
	{Key: "env", Tag: "建設環境", Name: "建設環境", Years: specialistYears},
	{Key: "steel", Tag: "鋼構造及びコンクリート", Name: "鋼構造及びコンクリート", Years: specialistYears},
	{Key: "soil", Tag: "土質及び基礎", Name: "土質及び基礎", Years: specialistYears},
	{Key: "construction", Tag: "施工計画、施工設備及び積算", Name: "施工計画、施工設備及び積算", Years: specialistYears},
	{Key: "water", Tag: "上水道及び工業用水道", Name: "上水道及び工業用水道", Years: specialistYears},
	{Key: "forest", Tag: "森林土木", Name: "森林土木", Years: specialistYears},
	{Key: "agri", Tag: "農業土木", Name: "農業土木", Years: specialistYears},
}

// Default returns the built-in reference catalog.
func Default() *Catalog {
	c, err := New(defaultAreas)
	if err != nil {
		// The built-in table is validated by tests; a failure here is a
		// programming error.
		panic(fmt.Sprintf("catalog: invalid built-in area table: %v", err))
	}
	return c
}

type catalogFile struct {
	Areas []Area `yaml:"areas"`
}

// LoadFile builds a catalog from a YAML area table.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	c, err := New(f.Areas)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}
