package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	if got := len(c.Areas()); got != 13 {
		t.Fatalf("Default() has %d areas, want 13", got)
	}

	tag, err := c.Resolve("road")
	if err != nil {
		t.Fatalf("Resolve(road): %v", err)
	}
	if tag != "道路" {
		t.Errorf("Resolve(road) = %q, want 道路", tag)
	}

	// Canonical tags resolve to themselves
	tag, err = c.Resolve("道路")
	if err != nil {
		t.Fatalf("Resolve(道路): %v", err)
	}
	if tag != "道路" {
		t.Errorf("Resolve(道路) = %q, want 道路", tag)
	}

	// Basic area has no year axis
	basic, ok := c.Area("共通")
	if !ok {
		t.Fatal("Area(共通) not found")
	}
	if len(basic.Years) != 0 {
		t.Errorf("basic area has %d years, want 0", len(basic.Years))
	}
	if !basic.HasYear(0) {
		t.Error("basic area should cover the year-less sentinel")
	}
	if basic.HasYear(2015) {
		t.Error("basic area should not cover 2015")
	}

	// Every specialist area spans 2008–2019
	road, _ := c.Area("道路")
	if len(road.Years) != 12 {
		t.Errorf("road area has %d years, want 12", len(road.Years))
	}
	if !road.HasYear(2008) || !road.HasYear(2019) {
		t.Error("road area should cover 2008 and 2019")
	}
	if road.HasYear(2020) {
		t.Error("road area should not cover 2020")
	}
}

func TestResolveUnknownSubject(t *testing.T) {
	c := Default()

	cases := []string{"", "roads", "ROAD", "道", "default"}
	for _, name := range cases {
		_, err := c.Resolve(name)
		if err == nil {
			t.Errorf("Resolve(%q) succeeded, want UnknownSubjectError", name)
			continue
		}
		var unknown *UnknownSubjectError
		if !errors.As(err, &unknown) {
			t.Errorf("Resolve(%q) error = %v, want UnknownSubjectError", name, err)
		}
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]Area{
		{Key: "road", Tag: "道路", Name: "道路"},
		{Key: "road2", Tag: "道路", Name: "道路その2"},
	})
	if err == nil {
		t.Error("New accepted duplicate tag")
	}

	_, err = New([]Area{
		{Key: "road", Tag: "道路", Name: "道路"},
		{Key: "road", Tag: "トンネル", Name: "トンネル"},
	})
	if err == nil {
		t.Error("New accepted duplicate key")
	}

	_, err = New([]Area{
		{Key: "road", Tag: "道路", Name: "道路", Aliases: []string{"tunnel"}},
		{Key: "tunnel", Tag: "トンネル", Name: "トンネル"},
	})
	if err == nil {
		t.Error("New accepted alias colliding with another area's key")
	}
}

func TestAliasesResolve(t *testing.T) {
	c, err := New([]Area{
		{Key: "road", Tag: "道路", Name: "道路", Aliases: []string{"roads", "highway"}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range []string{"road", "roads", "highway", "道路"} {
		tag, err := c.Resolve(name)
		if err != nil || tag != "道路" {
			t.Errorf("Resolve(%q) = %q, %v; want 道路", name, tag, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "areas.yaml")
	content := `areas:
  - key: basic
    tag: "共通"
    name: "共通（基礎科目）"
  - key: road
    tag: "道路"
    name: "道路"
    years: [2018, 2019]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := len(c.Areas()); got != 2 {
		t.Fatalf("loaded %d areas, want 2", got)
	}
	road, ok := c.Area("道路")
	if !ok || !road.HasYear(2019) || road.HasYear(2015) {
		t.Errorf("road area years wrong: %+v", road)
	}
}

func TestLoadFileRejectsBadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "areas.yaml")
	content := `areas:
  - key: road
    tag: "道路"
    name: "道路"
  - key: road
    tag: "トンネル"
    name: "トンネル"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile accepted a duplicate key")
	}
}
