package services

import (
	"errors"
	"testing"
)

func TestParseMachineEntriesAliases(t *testing.T) {
	raw := `[{"manufacturer":"Varian","model":"TrueBeam","machineType":"Linac","energy":"6MV"},
	         {"manufacturer":"Elekta","model":"Versa HD","machine_type":"Linac"}]`
	entries, err := ParseMachineEntries(raw)
	if err != nil {
		t.Fatalf("ParseMachineEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].MachineType != "Linac" || entries[1].MachineType != "Linac" {
		t.Fatalf("machine type alias not normalized: %+v", entries)
	}
	if entries[0].Energy != "6MV" {
		t.Fatalf("expected energy 6MV, got %q", entries[0].Energy)
	}
}

func TestParseMachineEntriesEmpty(t *testing.T) {
	for _, raw := range []string{"", "[]", "   "} {
		entries, err := ParseMachineEntries(raw)
		if err != nil {
			t.Fatalf("ParseMachineEntries(%q): %v", raw, err)
		}
		if len(entries) != 0 {
			t.Fatalf("ParseMachineEntries(%q): expected no entries, got %d", raw, len(entries))
		}
	}
}

func TestParseMachineEntriesMalformed(t *testing.T) {
	_, err := ParseMachineEntries(`{"not":"an array"}`)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestParseColumnMappingsAliases(t *testing.T) {
	raw := `[{"name":"depth","dataType":"numeric","description":"measurement depth","unit":"MM"},
	         {"column_name":"dose","data_type":"numeric","column_description":"absorbed dose","unit":"gy"}]`
	entries, err := ParseColumnMappings(raw)
	if err != nil {
		t.Fatalf("ParseColumnMappings: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "depth" || entries[0].Description != "measurement depth" {
		t.Fatalf("camelCase aliases not picked up: %+v", entries[0])
	}
	if entries[0].Unit != "mm" {
		t.Fatalf("unit not lowercased: %q", entries[0].Unit)
	}
	if entries[1].Name != "dose" || entries[1].DataType != "numeric" {
		t.Fatalf("snake_case aliases not picked up: %+v", entries[1])
	}
}

func TestParseColumnMappingsUnknownUnit(t *testing.T) {
	_, err := ParseColumnMappings(`[{"name":"depth","data_type":"numeric","unit":"furlong"}]`)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown unit, got %v", err)
	}
}

func TestParseColumnMappingsKeepsIncomplete(t *testing.T) {
	// Unvollständige Einträge werden hier durchgereicht und erst beim Ingest
	// verworfen. Eine unbekannte Einheit auf einem unvollständigen Eintrag
	// ist deshalb kein Fehler.
	entries, err := ParseColumnMappings(`[{"name":"x","unit":"bogus"},{"name":"depth","data_type":"numeric"}]`)
	if err != nil {
		t.Fatalf("ParseColumnMappings: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestParsePhantomEntries(t *testing.T) {
	entries, err := ParsePhantomEntries(`[{"name":"WaterTank","phantomType":"water","dimensions":"30x30x30","material":"water"}]`)
	if err != nil {
		t.Fatalf("ParsePhantomEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].PhantomType != "water" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	_, err = ParsePhantomEntries(`[{"name":"WaterTank","dimensions":"30x30"}]`)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for bad dimensions, got %v", err)
	}
}

func TestValidateDimensions(t *testing.T) {
	for _, ok := range []string{"", "30x30x30", "1x2x3", "100x50x25"} {
		if err := ValidateDimensions(ok); err != nil {
			t.Fatalf("ValidateDimensions(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"30x30", "30X30X30", "30x30x30x30", "axbxc", " 30x30x30"} {
		if err := ValidateDimensions(bad); !errors.Is(err, ErrValidation) {
			t.Fatalf("ValidateDimensions(%q): expected ErrValidation, got %v", bad, err)
		}
	}
}
