package pdf

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/Tejas-dj/OneStopMed-v1/prescription"
)

func testMeta() prescription.RenderMeta {
	return prescription.NewRenderMeta(time.Date(2025, time.March, 5, 9, 7, 3, 0, time.UTC))
}

func uncompressed() *Renderer {
	r := NewRenderer("Test Clinic")
	r.compress = false
	return r
}

func TestRenderProducesPDF(t *testing.T) {
	visit := prescription.Visit{
		PatientName: "Asha",
		Age:         "42",
		Gender:      "F",
		BP:          "120/80",
		Diagnosis:   "Acute pharyngitis",
		Medicines: []prescription.Medicine{
			{Name: "Dolo 650", Generic: "Paracetamol (650mg)", Dosage: "1 Tablet", Frequency: "1-0-1", Duration: "5 Days"},
		},
		FollowUpDate:   "12-Mar-2025",
		FollowUpReason: "Review",
	}

	var buf bytes.Buffer
	if err := uncompressed().Render(&buf, visit, testMeta()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("Output is not a PDF: %q", out[:min(len(out), 16)])
	}

	for _, want := range []string{"(Asha)", "(Test Clinic)", "05-Mar-2025", "090703", "(Dolo 650)", "(Review)"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("Expected output to contain %s", want)
		}
	}
}

func TestRenderAppliesDefaults(t *testing.T) {
	var buf bytes.Buffer
	if err := uncompressed().Render(&buf, prescription.Visit{}, testMeta()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	out := buf.Bytes()
	for _, want := range []string{"(Unknown)", "(NKDA)", "No medicines prescribed"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("Expected output to contain %s", want)
		}
	}
}

func TestRenderLongPrescriptionPaginates(t *testing.T) {
	visit := prescription.Visit{PatientName: "Long List"}
	for i := range 60 {
		visit.Medicines = append(visit.Medicines, prescription.Medicine{
			Name:    fmt.Sprintf("Medicine %d", i),
			Generic: "Some composition with a fairly long description (500mg)",
			Dosage:  "1 Tablet",
		})
	}

	var buf bytes.Buffer
	if err := uncompressed().Render(&buf, visit, testMeta()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("page 2/")) {
		t.Error("Expected a second page for a long prescription")
	}
}

func TestRenderNonASCII(t *testing.T) {
	visit := prescription.Visit{PatientName: "José", Diagnosis: "Crème rash"}

	var buf bytes.Buffer
	if err := NewRenderer("").Render(&buf, visit, testMeta()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("Expected non-empty output")
	}
}

func TestContentType(t *testing.T) {
	if ct := NewRenderer("x").ContentType(); ct != "application/pdf" {
		t.Errorf("Expected application/pdf, got %s", ct)
	}
}
