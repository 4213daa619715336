package smells

import "testing"

func sampleSmell() Smell {
	return Smell{
		Type:      "performance",
		Symbol:    "long-message-chain",
		Message:   "Method chain too long (5/3)",
		MessageID: "LMC001",
		Path:      "/ws/app/models.py",
		Module:    "app.models",
		Occurrences: []Occurrence{
			{Line: 12, Column: 4, EndLine: 12, EndColumn: 48},
		},
	}
}

func TestComputeIDDeterministic(t *testing.T) {
	a := sampleSmell()
	b := sampleSmell()

	idA := ComputeID(&a)
	idB := ComputeID(&b)
	if idA != idB {
		t.Errorf("equal smells produced different IDs: %s vs %s", idA, idB)
	}
	if len(idA) != 10 {
		t.Errorf("expected 10-char ID, got %q", idA)
	}
}

func TestComputeIDSensitiveToContent(t *testing.T) {
	a := sampleSmell()
	b := sampleSmell()
	b.Occurrences[0].Line = 13

	if ComputeID(&a) == ComputeID(&b) {
		t.Error("different occurrences must produce different IDs")
	}
}

func TestComputeIDAdditionalInfoOrderIndependent(t *testing.T) {
	a := sampleSmell()
	a.AdditionalInfo = map[string]interface{}{"chainLength": 5, "limit": 3}
	b := sampleSmell()
	b.AdditionalInfo = map[string]interface{}{"limit": 3, "chainLength": 5}

	if ComputeID(&a) != ComputeID(&b) {
		t.Error("map iteration order must not affect the derived ID")
	}
}

func TestDecorate(t *testing.T) {
	findings := []Smell{sampleSmell(), sampleSmell()}
	findings[1].MessageID = "LMC002"

	Decorate(findings)

	if findings[0].ID == "" || findings[1].ID == "" {
		t.Fatal("Decorate left an empty ID")
	}
	if findings[0].ID == findings[1].ID {
		t.Error("distinct smells should get distinct IDs")
	}

	// Existing IDs are preserved
	pinned := []Smell{sampleSmell()}
	pinned[0].ID = "pinned00ff"
	Decorate(pinned)
	if pinned[0].ID != "pinned00ff" {
		t.Errorf("Decorate overwrote an existing ID: %s", pinned[0].ID)
	}
}

func TestStatusForFindings(t *testing.T) {
	if got := StatusForFindings([]Smell{sampleSmell()}); got != StatusPassed {
		t.Errorf("expected passed, got %s", got)
	}
	if got := StatusForFindings(nil); got != StatusNoIssues {
		t.Errorf("expected no_issues, got %s", got)
	}
	if got := StatusForFindings([]Smell{}); got != StatusNoIssues {
		t.Errorf("expected no_issues for empty slice, got %s", got)
	}
}
