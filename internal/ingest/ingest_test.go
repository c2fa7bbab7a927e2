package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Material ID", "material_id"},
		{"# Students", "count__students"},
		{"Title*", "titlex"},
		{"Course Code", "course_code"},
		{"faculty", "faculty"},
	}
	for _, tt := range tests {
		if got := NormalizeColumn(tt.in); got != tt.want {
			t.Errorf("NormalizeColumn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRead_CleansAndFilters(t *testing.T) {
	csvData := strings.Join([]string{
		"Material ID,Title,Department,Period,Classification",
		"M1,Intro Book,B-TCS: Technical Computer Science,2026-1A,open",
		"M2,-,M-PSY: Psychology,2026-1A,NA",
		"M3,Old Book,B-TCS: Technical Computer Science,2020-2B,open",
	}, "\n")

	mapper := NewMapper(map[string]string{
		"B-TCS: Technical Computer Science": "EEMCS",
		"M-PSY: Psychology":                 "BMS",
	})
	batch, err := Read(strings.NewReader(csvData), Options{
		SourceDate: time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC),
		Periods:    PeriodSet([]string{"2026-1A"}),
		Faculty:    mapper,
	})
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}

	if batch.SourceDate != "2026-08-13" {
		t.Errorf("batch source date = %q, want 2026-08-13", batch.SourceDate)
	}
	if len(batch.Rows) != 2 {
		t.Fatalf("got %d rows, want 2 (M3 filtered out by period)", len(batch.Rows))
	}

	m1 := batch.Rows[0]
	if m1.MaterialID != "M1" {
		t.Errorf("material_id = %q, want M1 (header normalization)", m1.MaterialID)
	}
	if m1.Faculty != "EEMCS" {
		t.Errorf("faculty = %q, want derived EEMCS", m1.Faculty)
	}
	if m1.Payload["title"] != "Intro Book" || m1.Payload["period"] != "2026-1A" {
		t.Errorf("payload = %v, want normalized columns", m1.Payload)
	}

	m2 := batch.Rows[1]
	if m2.Payload["title"] != "" || m2.Payload["classification"] != "" {
		t.Errorf("null tokens not cleared: %v", m2.Payload)
	}
}

func TestRead_UnmappedDepartment(t *testing.T) {
	csvData := "Material ID,Department\nM1,Unknown Dept"
	batch, err := Read(strings.NewReader(csvData), Options{
		Faculty: NewMapper(map[string]string{}),
	})
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if batch.Rows[0].Faculty != UnmappedFaculty {
		t.Errorf("faculty = %q, want %q", batch.Rows[0].Faculty, UnmappedFaculty)
	}
}

func TestLoadMapping_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "mapping.json")
	if err := os.WriteFile(jsonPath, []byte(`{"M-CS: Computer Science": "EEMCS"}`), 0644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "mapping.yaml")
	if err := os.WriteFile(yamlPath, []byte("'M-CS: Computer Science': EEMCS\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{jsonPath, yamlPath} {
		mapper, err := LoadMapping(path)
		if err != nil {
			t.Fatalf("LoadMapping(%s) failed: %v", path, err)
		}
		if got := mapper("M-CS: Computer Science"); got != "EEMCS" {
			t.Errorf("%s: mapper = %q, want EEMCS", path, got)
		}
		if got := mapper("nope"); got != UnmappedFaculty {
			t.Errorf("%s: unmapped = %q, want %q", path, got, UnmappedFaculty)
		}
	}
}

func TestLoadMapping_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMapping(path); err == nil {
		t.Error("LoadMapping() accepted an unsupported format")
	}
}

func TestExpandRange_SingleYear(t *testing.T) {
	set, err := ExpandRange("2023-1A", "2023-2B")
	if err != nil {
		t.Fatalf("ExpandRange() failed: %v", err)
	}
	want := []string{
		"2023-1A", "2023-1B", "2023-2A", "2023-2B",
		"2023-SEM1", "2023-SEM2", "2023-JAAR", "2023-3",
	}
	if len(set) != len(want) {
		t.Errorf("set has %d entries, want %d: %v", len(set), len(want), set)
	}
	for _, p := range want {
		if !set[p] {
			t.Errorf("missing %s", p)
		}
	}
}

func TestExpandRange_PartialYear(t *testing.T) {
	set, err := ExpandRange("2023-1A", "2023-1B")
	if err != nil {
		t.Fatalf("ExpandRange() failed: %v", err)
	}
	for _, p := range []string{"2023-1A", "2023-1B", "2023-SEM1"} {
		if !set[p] {
			t.Errorf("missing %s", p)
		}
	}
	for _, p := range []string{"2023-2A", "2023-SEM2", "2023-JAAR", "2023-3"} {
		if set[p] {
			t.Errorf("unexpected %s in a first-semester range", p)
		}
	}
}

func TestExpandRange_MultiYear(t *testing.T) {
	set, err := ExpandRange("2023-2A", "2024-1B")
	if err != nil {
		t.Fatalf("ExpandRange() failed: %v", err)
	}
	for _, p := range []string{
		"2023-2A", "2023-2B", "2023-3", "2023-SEM2",
		"2024-1A", "2024-1B", "2024-SEM1",
	} {
		if !set[p] {
			t.Errorf("missing %s", p)
		}
	}
	if set["2023-SEM1"] || set["2024-SEM2"] || set["2023-JAAR"] {
		t.Errorf("range leaked uncovered aggregates: %v", set)
	}
}

func TestExpandRange_Invalid(t *testing.T) {
	for _, tt := range [][2]string{
		{"2023-1A", "2022-2B"}, // backward
		{"2023-XX", "2023-2B"}, // bad period
		{"20A3-1A", "2023-2B"}, // bad year
		{"20231A", "2023-2B"},  // no separator
	} {
		if _, err := ExpandRange(tt[0], tt[1]); err == nil {
			t.Errorf("ExpandRange(%q, %q) accepted invalid input", tt[0], tt[1])
		}
	}
}
