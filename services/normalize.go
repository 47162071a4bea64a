package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Die Eingabefelder kommen aus dem Formular-Wizard teils in camelCase, teils
// in snake_case. Hier werden sie einmalig in eine kanonische Form gebracht,
// damit der Rest des Codes nur noch eine Schreibweise kennt.

// MachineEntry ist ein Eintrag aus dem machines-JSON-Array des Formulars.
type MachineEntry struct {
	Manufacturer string
	Model        string
	MachineType  string

	Energy      string
	Collimation string
	Settings    string
}

// DetectorEntry ist ein Eintrag aus dem detectors-JSON-Array.
type DetectorEntry struct {
	DetectorType string
	Model        string
	Manufacturer string

	Position    string
	Depth       string
	Orientation string
}

// PhantomEntry ist ein Eintrag aus dem phantoms-JSON-Array.
type PhantomEntry struct {
	Name        string
	PhantomType string
	Dimensions  string
	Material    string

	Position    string
	Orientation string
}

// ColumnMappingEntry ist ein Eintrag aus dem columnMapping-JSON-Array.
// Einträge ohne Name oder Datentyp werden beim Ingest stillschweigend
// verworfen, nicht hier.
type ColumnMappingEntry struct {
	Name        string
	Description string
	DataType    string
	Unit        string
}

// allowedUnits ist das Einheiten-Vokabular aus dem Formular-Wizard.
var allowedUnits = map[string]bool{
	"gy":      true,
	"cgy":     true,
	"mgy":     true,
	"mm":      true,
	"cm":      true,
	"mev":     true,
	"mu":      true,
	"percent": true,
}

var dimensionsPattern = regexp.MustCompile(`^\d+x\d+x\d+$`)

// ValidateDimensions prüft das NxNxN-Format von Phantom-Maßen (z.B. 30x30x30).
func ValidateDimensions(dimensions string) error {
	if dimensions == "" {
		return nil
	}
	if !dimensionsPattern.MatchString(dimensions) {
		return fmt.Errorf("%w: invalid dimensions format (expected NxNxN, e.g. 30x30x30)", ErrValidation)
	}
	return nil
}

// pickString liefert den ersten vorhandenen, nicht-leeren String unter den
// angegebenen Schlüsseln. Die primäre Schreibweise steht vorn.
func pickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func parseObjects(field, raw string) ([]map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var objects []map[string]any
	if err := json.Unmarshal([]byte(raw), &objects); err != nil {
		return nil, fmt.Errorf("%w: invalid %s format: %s", ErrValidation, field, err)
	}
	return objects, nil
}

// ParseMachineEntries liest das machines-Formularfeld. Ein leeres Array ist
// eine gültige Submission.
func ParseMachineEntries(raw string) ([]MachineEntry, error) {
	objects, err := parseObjects("machines", raw)
	if err != nil {
		return nil, err
	}
	entries := make([]MachineEntry, 0, len(objects))
	for _, obj := range objects {
		entries = append(entries, MachineEntry{
			Manufacturer: pickString(obj, "manufacturer"),
			Model:        pickString(obj, "model"),
			MachineType:  pickString(obj, "machineType", "machine_type"),
			Energy:       pickString(obj, "energy"),
			Collimation:  pickString(obj, "collimation"),
			Settings:     pickString(obj, "settings"),
		})
	}
	return entries, nil
}

// ParseDetectorEntries liest das detectors-Formularfeld.
func ParseDetectorEntries(raw string) ([]DetectorEntry, error) {
	objects, err := parseObjects("detectors", raw)
	if err != nil {
		return nil, err
	}
	entries := make([]DetectorEntry, 0, len(objects))
	for _, obj := range objects {
		entries = append(entries, DetectorEntry{
			DetectorType: pickString(obj, "detectorType", "detector_type"),
			Model:        pickString(obj, "model"),
			Manufacturer: pickString(obj, "manufacturer"),
			Position:     pickString(obj, "position"),
			Depth:        pickString(obj, "depth"),
			Orientation:  pickString(obj, "orientation"),
		})
	}
	return entries, nil
}

// ParsePhantomEntries liest das phantoms-Formularfeld und prüft das
// Maßformat.
func ParsePhantomEntries(raw string) ([]PhantomEntry, error) {
	objects, err := parseObjects("phantoms", raw)
	if err != nil {
		return nil, err
	}
	entries := make([]PhantomEntry, 0, len(objects))
	for _, obj := range objects {
		entry := PhantomEntry{
			Name:        pickString(obj, "name", "model"),
			PhantomType: pickString(obj, "phantom_type", "phantomType"),
			Dimensions:  pickString(obj, "dimensions"),
			Material:    pickString(obj, "material"),
			Position:    pickString(obj, "position"),
			Orientation: pickString(obj, "orientation"),
		}
		if err := ValidateDimensions(entry.Dimensions); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseColumnMappings liest das columnMapping-Formularfeld. Einheiten werden
// case-insensitiv gegen das Vokabular geprüft und kleingeschrieben abgelegt;
// unvollständige Einträge bleiben erhalten und fallen erst beim Ingest raus.
func ParseColumnMappings(raw string) ([]ColumnMappingEntry, error) {
	objects, err := parseObjects("columnMapping", raw)
	if err != nil {
		return nil, err
	}
	entries := make([]ColumnMappingEntry, 0, len(objects))
	for _, obj := range objects {
		entry := ColumnMappingEntry{
			Name:        pickString(obj, "column_name", "name"),
			Description: pickString(obj, "column_description", "description"),
			DataType:    pickString(obj, "data_type", "dataType"),
			Unit:        strings.ToLower(pickString(obj, "unit")),
		}
		if entry.Name != "" && entry.DataType != "" && entry.Unit != "" && !allowedUnits[entry.Unit] {
			return nil, fmt.Errorf("%w: unknown unit %q for column %q", ErrValidation, entry.Unit, entry.Name)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
