package dataset

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, header []interface{}, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("set header: %v", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}

	path := filepath.Join(t.TempDir(), "benchmark.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestLoadBenchmark(t *testing.T) {
	path := writeWorkbook(t,
		[]interface{}{"Talk", "Pace (WPM)", "Filler per 100", "Avg Pause", "Duration"},
		[][]interface{}{
			{"keynote", 150, 2.0, 1.0, 600},
			{"demo", 130, 4.0, 2.0, 300},
			{"broken row", "n/a", "", "", ""},
		},
	)

	s, err := LoadBenchmark(path)
	if err != nil {
		t.Fatalf("LoadBenchmark: %v", err)
	}
	if s.TalkCount != 2 {
		t.Fatalf("TalkCount = %d, want 2 (row without pace skipped)", s.TalkCount)
	}
	if math.Abs(s.AvgWordsPerMinute-140) > 1e-9 {
		t.Errorf("AvgWordsPerMinute = %v, want 140", s.AvgWordsPerMinute)
	}
	if math.Abs(s.AvgFillerPer100-3) > 1e-9 {
		t.Errorf("AvgFillerPer100 = %v, want 3", s.AvgFillerPer100)
	}
	if math.Abs(s.AvgPauseSec-1.5) > 1e-9 {
		t.Errorf("AvgPauseSec = %v, want 1.5", s.AvgPauseSec)
	}
	if math.Abs(s.AvgDurationSec-450) > 1e-9 {
		t.Errorf("AvgDurationSec = %v, want 450", s.AvgDurationSec)
	}
}

func TestLoadBenchmarkNoPaceColumn(t *testing.T) {
	path := writeWorkbook(t,
		[]interface{}{"Talk", "City"},
		[][]interface{}{{"keynote", "Austin"}},
	)
	if _, err := LoadBenchmark(path); err == nil {
		t.Fatal("expected error when no pace column is present")
	}
}

func TestLoadBenchmarkMissingFile(t *testing.T) {
	if _, err := LoadBenchmark(filepath.Join(t.TempDir(), "absent.xlsx")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
