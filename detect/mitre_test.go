package detect

import (
	"reflect"
	"testing"
)

func TestMitreFromTags(t *testing.T) {
	techniques, tactics := mitreFromTags([]string{
		"attack.t1059",
		"attack.execution",
		"attack.t1003.001", // sub-technique resolves through parent name
		"attack.credential_access",
		"car.2013-07-001", // non-attack tags ignored
	})

	wantTechniques := []string{
		"T1003.001 OS Credential Dumping",
		"T1059 Command and Scripting Interpreter",
	}
	if !reflect.DeepEqual(techniques, wantTechniques) {
		t.Errorf("techniques = %v, want %v", techniques, wantTechniques)
	}

	wantTactics := []string{"Credential Access", "Execution"}
	if !reflect.DeepEqual(tactics, wantTactics) {
		t.Errorf("tactics = %v, want %v", tactics, wantTactics)
	}
}

func TestMitreUnknownTechniqueKeepsID(t *testing.T) {
	techniques, _ := mitreFromTags([]string{"attack.t9999"})
	if len(techniques) != 1 || techniques[0] != "T9999" {
		t.Errorf("techniques = %v, want bare id", techniques)
	}
}

func TestMitreDeduplicates(t *testing.T) {
	techniques, tactics := mitreFromTags([]string{
		"attack.t1110", "attack.T1110", "attack.impact", "attack.impact",
	})
	if len(techniques) != 1 {
		t.Errorf("techniques not deduplicated: %v", techniques)
	}
	if len(tactics) != 1 {
		t.Errorf("tactics not deduplicated: %v", tactics)
	}
}

func TestMitreEmptyTags(t *testing.T) {
	techniques, tactics := mitreFromTags(nil)
	if techniques != nil || tactics != nil {
		t.Errorf("expected nil slices, got %v / %v", techniques, tactics)
	}
}
