package entity

import (
	"fmt"
	"strings"
)

// Objective is the person record a run is asked to enter into the form.
type Objective struct {
	FirstName             string `json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName              string `json:"lastName,omitempty" yaml:"lastName,omitempty"`
	DateOfBirth           string `json:"dateOfBirth,omitempty" yaml:"dateOfBirth,omitempty"`
	MedicalID             string `json:"medicalId,omitempty" yaml:"medicalId,omitempty"`
	Gender                string `json:"gender,omitempty" yaml:"gender,omitempty"`
	BloodType             string `json:"bloodType,omitempty" yaml:"bloodType,omitempty"`
	Allergies             string `json:"allergies,omitempty" yaml:"allergies,omitempty"`
	CurrentMedications    string `json:"currentMedications,omitempty" yaml:"currentMedications,omitempty"`
	EmergencyContactName  string `json:"emergencyContactName,omitempty" yaml:"emergencyContactName,omitempty"`
	EmergencyContactPhone string `json:"emergencyContactPhone,omitempty" yaml:"emergencyContactPhone,omitempty"`
}

type ObjectiveField struct {
	Key   string
	Value string
}

// Fields returns the non-empty fields in schema order.
func (o Objective) Fields() []ObjectiveField {
	all := []ObjectiveField{
		{"firstName", o.FirstName},
		{"lastName", o.LastName},
		{"dateOfBirth", o.DateOfBirth},
		{"medicalId", o.MedicalID},
		{"gender", o.Gender},
		{"bloodType", o.BloodType},
		{"allergies", o.Allergies},
		{"currentMedications", o.CurrentMedications},
		{"emergencyContactName", o.EmergencyContactName},
		{"emergencyContactPhone", o.EmergencyContactPhone},
	}

	fields := make([]ObjectiveField, 0, len(all))
	for _, f := range all {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// Validate checks the fields every caller must supply.
func (o Objective) Validate() error {
	var missing []string
	if strings.TrimSpace(o.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(o.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidObjective, strings.Join(missing, ", "))
	}
	return nil
}
