package testutil

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/resopt/internal/dex"
	"github.com/resopt/pkg/resid"
)

// AssertJSONEqual asserts that two JSON documents are semantically equal.
func AssertJSONEqual(t *testing.T, expected, actual []byte) {
	t.Helper()

	var expectedJSON, actualJSON interface{}

	if err := json.Unmarshal(expected, &expectedJSON); err != nil {
		t.Fatalf("failed to parse expected JSON: %v", err)
	}

	if err := json.Unmarshal(actual, &actualJSON); err != nil {
		t.Fatalf("failed to parse actual JSON: %v", err)
	}

	if !reflect.DeepEqual(expectedJSON, actualJSON) {
		expectedPretty, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualPretty, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("JSON not equal:\nExpected:\n%s\n\nActual:\n%s", expectedPretty, actualPretty)
	}
}

// HolderPayloadIDs decodes the resource identifiers stored by a holder
// class's static initializer.
func HolderPayloadIDs(t *testing.T, prog *dex.Program, className string) []resid.ID {
	t.Helper()

	class := prog.FindClass(className)
	if class == nil {
		t.Fatalf("class %s not found in program", className)
	}
	clinit := class.StaticInit()
	if clinit == nil || clinit.Code == nil {
		t.Fatalf("class %s has no static initializer", className)
	}

	for _, instr := range clinit.Code.Instrs {
		if instr.Op != dex.OpFillArrayData {
			continue
		}
		ids, err := dex.DecodeResourcePayload(instr.Payload)
		if err != nil {
			t.Fatalf("failed to decode payload of %s: %v", className, err)
		}
		return ids
	}

	t.Fatalf("class %s has no fill-array-data payload", className)
	return nil
}

// AssertHolderIDs asserts that a holder class ends up with exactly the
// given resource identifiers.
func AssertHolderIDs(t *testing.T, prog *dex.Program, className string, want []resid.ID) {
	t.Helper()

	got := HolderPayloadIDs(t, prog, className)
	if !reflect.DeepEqual(want, got) {
		t.Errorf("holder %s identifiers not equal:\nExpected: %v\nActual:   %v", className, want, got)
	}
}
