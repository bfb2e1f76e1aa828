// Package questionnaire holds the step catalog of the offshore medical
// questionnaire and the canonical field catalog shared by the wizard, the
// storage schema and the reviewer views.
package questionnaire

import (
	"fmt"
	"strings"
)

// FieldKind is the storage kind of an answer field.
type FieldKind int

const (
	// KindText is a free or enumerated string.
	KindText FieldKind = iota
	// KindInt is stored as a digit-only string in the wizard and as an integer column.
	KindInt
	// KindBool is a checkbox value.
	KindBool
	// KindImage is an inline image encoding (data URL).
	KindImage
)

// MaxDigits bounds a KindInt answer so it always fits a BIGINT column.
const MaxDigits = 18

// String returns the string representation of a FieldKind.
func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Field describes one column of the persisted record.
type Field struct {
	Name    string
	Label   string
	Kind    FieldKind
	Section string
}

// fieldCatalog is the ordered, canonical column set. Wizard field keys,
// storage columns and reviewer display keys all come from here.
var fieldCatalog = []Field{
	// Background information
	{Name: "surname", Label: "Surname", Kind: KindText, Section: "Background"},
	{Name: "first_name", Label: "First name", Kind: KindText, Section: "Background"},
	{Name: "id_type", Label: "ID type", Kind: KindText, Section: "Background"},
	{Name: "id_number", Label: "ID number", Kind: KindText, Section: "Background"},
	{Name: "date_of_birth", Label: "Date of birth", Kind: KindText, Section: "Background"},
	{Name: "address", Label: "Address", Kind: KindText, Section: "Background"},
	{Name: "city", Label: "City", Kind: KindText, Section: "Background"},
	{Name: "telephone", Label: "Telephone", Kind: KindText, Section: "Background"},
	{Name: "exam_date", Label: "Exam date", Kind: KindText, Section: "Background"},

	// Current job
	{Name: "current_employer", Label: "Current employer", Kind: KindText, Section: "Current job"},
	{Name: "position_held", Label: "Position held", Kind: KindText, Section: "Current job"},
	{Name: "time_in_office_months", Label: "Time in position (months)", Kind: KindInt, Section: "Current job"},
	{Name: "contract_type", Label: "Contract type", Kind: KindText, Section: "Current job"},
	{Name: "country_work", Label: "Country of work", Kind: KindText, Section: "Current job"},
	{Name: "date_of_travel", Label: "Date of travel", Kind: KindText, Section: "Current job"},
	{Name: "shift_scheme", Label: "Shift scheme", Kind: KindText, Section: "Current job"},
	{Name: "work_involves_food", Label: "Food handling", Kind: KindBool, Section: "Current job"},
	{Name: "work_involves_cranes", Label: "Crane operation", Kind: KindBool, Section: "Current job"},
	{Name: "work_involves_ert", Label: "Emergency response team", Kind: KindBool, Section: "Current job"},
	{Name: "work_involves_inu", Label: "Helicopter / INU duties", Kind: KindBool, Section: "Current job"},

	{Name: "employment_history", Label: "Employment history", Kind: KindText, Section: "Employment history"},

	// Previous certifications
	{Name: "has_recent_oeuk_exam", Label: "Recent OEUK medical", Kind: KindText, Section: "Certifications"},
	{Name: "recent_oeuk_exam_date", Label: "OEUK medical date", Kind: KindText, Section: "Certifications"},
	{Name: "recent_oeuk_exam_provider", Label: "OEUK medical provider", Kind: KindText, Section: "Certifications"},
	{Name: "has_recent_training", Label: "Recent survival training", Kind: KindText, Section: "Certifications"},
	{Name: "recent_training_date", Label: "Training date", Kind: KindText, Section: "Certifications"},
	{Name: "recent_training_provider", Label: "Training provider", Kind: KindText, Section: "Certifications"},
	{Name: "has_next_foet", Label: "FOET scheduled", Kind: KindText, Section: "Certifications"},
	{Name: "next_foet_bosiet_date", Label: "Next FOET/BOSIET date", Kind: KindText, Section: "Certifications"},

	// Health habits
	{Name: "smoking_status", Label: "Smoking status", Kind: KindText, Section: "Health habits"},
	{Name: "smoking_quantity_day", Label: "Cigarettes per day", Kind: KindInt, Section: "Health habits"},
	{Name: "smoking_time_years", Label: "Years smoking", Kind: KindInt, Section: "Health habits"},
	{Name: "alcohol_consumption", Label: "Alcohol consumption", Kind: KindText, Section: "Health habits"},
	{Name: "physical_activity", Label: "Physical activity", Kind: KindText, Section: "Health habits"},
	{Name: "physical_activity_frequency", Label: "Activity frequency", Kind: KindText, Section: "Health habits"},
	{Name: "physical_activity_duration", Label: "Activity duration", Kind: KindText, Section: "Health habits"},

	// Occupational medical history
	{Name: "occupational_diseases", Label: "Occupational diseases", Kind: KindText, Section: "Occupational history"},
	{Name: "workplace_accidents", Label: "Workplace accidents", Kind: KindText, Section: "Occupational history"},
	{Name: "medical_evacuations", Label: "Medical evacuations", Kind: KindText, Section: "Occupational history"},
	{Name: "missed_trips", Label: "Missed trips", Kind: KindText, Section: "Occupational history"},
	{Name: "previous_oeuk_deferred", Label: "Previously deferred", Kind: KindBool, Section: "Occupational history"},
	{Name: "previous_oeuk_restricted", Label: "Previously restricted", Kind: KindBool, Section: "Occupational history"},

	// Current medical history
	{Name: "current_diagnoses", Label: "Current diagnoses", Kind: KindText, Section: "Current health"},
	{Name: "undiagnosed_symptoms", Label: "Undiagnosed symptoms", Kind: KindText, Section: "Current health"},
	{Name: "recurring_appointments", Label: "Recurring appointments", Kind: KindText, Section: "Current health"},
	{Name: "current_medication", Label: "Current medication", Kind: KindText, Section: "Current health"},

	// Medical history checklist
	{Name: "hospital_admissions", Label: "Hospital admissions", Kind: KindText, Section: "Medical history"},
	{Name: "surgeries", Label: "Surgeries", Kind: KindText, Section: "Medical history"},
	{Name: "chronic_diseases", Label: "Chronic diseases", Kind: KindText, Section: "Medical history"},
	{Name: "high_blood_pressure", Label: "High blood pressure", Kind: KindText, Section: "Medical history"},
	{Name: "cardiovascular_disease", Label: "Cardiovascular disease", Kind: KindText, Section: "Medical history"},
	{Name: "neurological_disease", Label: "Neurological disease", Kind: KindText, Section: "Medical history"},
	{Name: "anxiety_depression", Label: "Anxiety or depression", Kind: KindText, Section: "Medical history"},
	{Name: "alcohol_use_disorder", Label: "Alcohol use disorder", Kind: KindText, Section: "Medical history"},
	{Name: "substance_abuse", Label: "Substance abuse", Kind: KindText, Section: "Medical history"},
	{Name: "asthma", Label: "Asthma", Kind: KindText, Section: "Medical history"},
	{Name: "copd", Label: "COPD", Kind: KindText, Section: "Medical history"},
	{Name: "pneumothorax", Label: "Pneumothorax", Kind: KindText, Section: "Medical history"},
	{Name: "diabetes", Label: "Diabetes", Kind: KindText, Section: "Medical history"},
	{Name: "thyroid_disorder", Label: "Thyroid disorder", Kind: KindText, Section: "Medical history"},
	{Name: "addisons_disease", Label: "Addison's disease", Kind: KindText, Section: "Medical history"},
	{Name: "peptic_ulcer", Label: "Peptic ulcer", Kind: KindText, Section: "Medical history"},
	{Name: "inflammatory_bowel_disease", Label: "Inflammatory bowel disease", Kind: KindText, Section: "Medical history"},
	{Name: "pancreatitis", Label: "Pancreatitis", Kind: KindText, Section: "Medical history"},
	{Name: "liver_disease", Label: "Liver disease", Kind: KindText, Section: "Medical history"},
	{Name: "limb_amputation", Label: "Limb amputation", Kind: KindText, Section: "Medical history"},
	{Name: "arthritis", Label: "Arthritis", Kind: KindText, Section: "Medical history"},
	{Name: "joint_replacement", Label: "Joint replacement", Kind: KindText, Section: "Medical history"},
	{Name: "muscle_pain", Label: "Muscle pain", Kind: KindText, Section: "Medical history"},
	{Name: "back_pain", Label: "Back pain", Kind: KindText, Section: "Medical history"},
	{Name: "dermatitis", Label: "Dermatitis", Kind: KindText, Section: "Medical history"},
	{Name: "kidney_disease", Label: "Kidney disease", Kind: KindText, Section: "Medical history"},
	{Name: "blood_disorders", Label: "Blood disorders", Kind: KindText, Section: "Medical history"},
	{Name: "organ_transplantation", Label: "Organ transplantation", Kind: KindText, Section: "Medical history"},
	{Name: "cancer", Label: "Cancer", Kind: KindText, Section: "Medical history"},
	{Name: "infectious_disease", Label: "Infectious disease", Kind: KindText, Section: "Medical history"},
	{Name: "hearing_loss", Label: "Hearing loss", Kind: KindText, Section: "Medical history"},
	{Name: "dizziness_vertigo", Label: "Dizziness or vertigo", Kind: KindText, Section: "Medical history"},
	{Name: "eardrum_perforation", Label: "Eardrum perforation", Kind: KindText, Section: "Medical history"},
	{Name: "visual_impairment", Label: "Visual impairment", Kind: KindText, Section: "Medical history"},
	{Name: "caries_dental", Label: "Dental caries", Kind: KindText, Section: "Medical history"},
	{Name: "allergic_disorders", Label: "Allergic disorders", Kind: KindText, Section: "Medical history"},
	{Name: "immunodeficiency", Label: "Immunodeficiency", Kind: KindText, Section: "Medical history"},
	{Name: "current_pregnancy", Label: "Current pregnancy", Kind: KindText, Section: "Medical history"},
	{Name: "self_perception_disability", Label: "Self-perceived disability", Kind: KindText, Section: "Medical history"},
	{Name: "classified_disabled", Label: "Classified as disabled", Kind: KindText, Section: "Medical history"},

	// Declaration
	{Name: "signature_base64", Label: "Signature", Kind: KindImage, Section: "Declaration"},
	{Name: "photo_base64", Label: "Photo", Kind: KindImage, Section: "Declaration"},
}

var fieldIndex = func() map[string]Field {
	m := make(map[string]Field, len(fieldCatalog))
	for _, f := range fieldCatalog {
		m[f.Name] = f
	}
	return m
}()

// Fields returns the canonical field catalog in storage order.
func Fields() []Field {
	out := make([]Field, len(fieldCatalog))
	copy(out, fieldCatalog)
	return out
}

// LookupField returns the catalog entry for name.
func LookupField(name string) (Field, bool) {
	f, ok := fieldIndex[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// MustField is LookupField for names known at compile time.
func MustField(name string) Field {
	f, ok := LookupField(name)
	if !ok {
		panic(fmt.Sprintf("questionnaire: unknown field %q", name))
	}
	return f
}

// FieldSections returns the display sections in catalog order.
func FieldSections() []string {
	var sections []string
	seen := make(map[string]bool)
	for _, f := range fieldCatalog {
		if !seen[f.Section] {
			seen[f.Section] = true
			sections = append(sections, f.Section)
		}
	}
	return sections
}

// InitialAnswers returns the empty defaults for every known field.
func InitialAnswers() Answers {
	a := make(Answers, len(fieldCatalog))
	for _, f := range fieldCatalog {
		if f.Kind == KindBool {
			a[f.Name] = false
		} else {
			a[f.Name] = ""
		}
	}
	return a
}
