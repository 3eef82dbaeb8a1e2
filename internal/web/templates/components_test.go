package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

func TestErrorAlert_Escapes(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert(`<script>alert(1)</script>`, "Try again", "ERR000").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Errorf("message was not escaped: %s", out)
	}
	if !strings.Contains(out, "Code: ERR000") {
		t.Errorf("code missing: %s", out)
	}
}

func TestImportPreview(t *testing.T) {
	p := &core.ImportPreview{
		ID:        uuid.New(),
		FileName:  "parts.csv",
		Phase:     core.PhasePreview,
		TotalRows: 2,
		ValidItems: []core.PurchaseItem{
			{ItemName: "10K Resistor", ItemCode: "RC0805FR-0710KL", Quantity: 100, Units: "pcs", Cost: 0.05, Currency: "USD"},
		},
		Errors:     []core.ValidationError{{Row: 2, Field: "itemName", Message: "itemName is required"}},
		TotalValue: 5,
	}

	var buf bytes.Buffer
	if err := ImportPreview(p).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Valid items: 1",
		"Errors: 1",
		"Total value: 5.00",
		"RC0805FR-0710KL",
		"itemName is required",
		"/api/imports/" + p.ID.String() + "/commit",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestImportPreview_ErrorPhaseHasNoCommitForm(t *testing.T) {
	p := &core.ImportPreview{ID: uuid.New(), Phase: core.PhaseError}

	var buf bytes.Buffer
	if err := ImportPreview(p).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(buf.String(), "<form") {
		t.Error("error phase should not offer a commit form")
	}
}
