// Package prescription holds the clinical visit document submitted by the
// frontend and the summary derived from it for the record store.
package prescription

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Placeholder values printed when the form leaves a field blank
const (
	DefaultPatientName = "Unknown"
	DefaultVital       = "--"
	DefaultAllergies   = "NKDA"
)

// Medicine is one prescribed line
type Medicine struct {
	Name      string `json:"name"`
	Generic   string `json:"generic"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
	Timing    string `json:"timing"`
	Remarks   string `json:"remarks"`
}

// Visit is the finished clinical form
type Visit struct {
	PatientName    string     `json:"patientName"`
	Age            string     `json:"age"`
	Gender         string     `json:"gender"`
	Weight         string     `json:"weight"`
	BP             string     `json:"bp"`
	Allergies      string     `json:"allergies"`
	Diagnosis      string     `json:"diagnosis"`
	FollowUpDate   string     `json:"followUpDate"`
	FollowUpReason string     `json:"followUpReason"`
	Medicines      []Medicine `json:"medicines"`
}

// RenderMeta carries the values stamped on the document at render time
type RenderMeta struct {
	Date    time.Time
	VisitID string
}

// NewRenderMeta stamps a document with the given time. The visit id is the
// wall-clock time of day, as printed on paper prescriptions.
func NewRenderMeta(now time.Time) RenderMeta {
	return RenderMeta{
		Date:    now,
		VisitID: now.Format("150405"),
	}
}

// FormattedDate returns the date as printed, e.g. 05-Mar-2025
func (m RenderMeta) FormattedDate() string {
	return m.Date.Format("02-Jan-2006")
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

// WithDefaults returns a copy with blank fields replaced by their printed
// placeholders and every string trimmed. Medicines without a name are dropped.
func (v Visit) WithDefaults() Visit {
	out := Visit{
		PatientName:    orDefault(v.PatientName, DefaultPatientName),
		Age:            orDefault(v.Age, DefaultVital),
		Gender:         orDefault(v.Gender, DefaultVital),
		Weight:         orDefault(v.Weight, DefaultVital),
		BP:             orDefault(v.BP, DefaultVital),
		Allergies:      orDefault(v.Allergies, DefaultAllergies),
		Diagnosis:      strings.TrimSpace(v.Diagnosis),
		FollowUpDate:   strings.TrimSpace(v.FollowUpDate),
		FollowUpReason: strings.TrimSpace(v.FollowUpReason),
		Medicines:      make([]Medicine, 0, len(v.Medicines)),
	}

	for _, m := range v.Medicines {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		out.Medicines = append(out.Medicines, Medicine{
			Name:      name,
			Generic:   strings.TrimSpace(m.Generic),
			Dosage:    strings.TrimSpace(m.Dosage),
			Frequency: strings.TrimSpace(m.Frequency),
			Duration:  strings.TrimSpace(m.Duration),
			Timing:    strings.TrimSpace(m.Timing),
			Remarks:   strings.TrimSpace(m.Remarks),
		})
	}

	return out
}

// ParseBP splits a "systolic/diastolic" reading. ok is false when the value
// is blank, the placeholder, or not two integers.
func ParseBP(bp string) (systolic, diastolic int, ok bool) {
	bp = strings.TrimSpace(bp)
	if bp == "" || bp == DefaultVital {
		return 0, 0, false
	}

	sys, dia, found := strings.Cut(bp, "/")
	if !found {
		return 0, 0, false
	}

	s, err := strconv.Atoi(strings.TrimSpace(sys))
	if err != nil {
		return 0, 0, false
	}
	d, err := strconv.Atoi(strings.TrimSpace(dia))
	if err != nil {
		return 0, 0, false
	}
	return s, d, true
}

// VisitSummary is the record forwarded to the remote record store
type VisitSummary struct {
	VisitID       uuid.UUID `json:"visit_id"`
	DoctorID      string    `json:"doctor_id"`
	PatientName   string    `json:"patient_name"`
	Age           string    `json:"age"`
	Gender        string    `json:"gender"`
	Diagnosis     string    `json:"diagnosis"`
	MedicineNames []string  `json:"medicines"`
	FollowUpDate  string    `json:"follow_up_date,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Summarize derives the persisted summary of a visit submitted by userID
func Summarize(visit Visit, userID string, now time.Time) VisitSummary {
	v := visit.WithDefaults()

	names := make([]string, 0, len(v.Medicines))
	for _, m := range v.Medicines {
		names = append(names, m.Name)
	}

	return VisitSummary{
		VisitID:       uuid.New(),
		DoctorID:      userID,
		PatientName:   v.PatientName,
		Age:           v.Age,
		Gender:        v.Gender,
		Diagnosis:     v.Diagnosis,
		MedicineNames: names,
		FollowUpDate:  v.FollowUpDate,
		CreatedAt:     now.UTC(),
	}
}
