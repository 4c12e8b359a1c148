package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectiveFields_SkipsEmptyInSchemaOrder(t *testing.T) {
	o := Objective{
		LastName:              "Lee",
		FirstName:             "Ann",
		BloodType:             "  ",
		EmergencyContactPhone: "555-0100",
	}

	assert.Equal(t, []ObjectiveField{
		{Key: "firstName", Value: "Ann"},
		{Key: "lastName", Value: "Lee"},
		{Key: "emergencyContactPhone", Value: "555-0100"},
	}, o.Fields())
}

func TestObjectiveValidate(t *testing.T) {
	tests := []struct {
		name    string
		obj     Objective
		wantErr string
	}{
		{"complete", Objective{FirstName: "Ann", LastName: "Lee"}, ""},
		{"missing last", Objective{FirstName: "Ann"}, "missing lastName"},
		{"missing both", Objective{Gender: "Female"}, "missing firstName, lastName"},
		{"blank first", Objective{FirstName: " ", LastName: "Lee"}, "missing firstName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.obj.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidObjective)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestElementNotFoundErrorMessage(t *testing.T) {
	err := &ElementNotFoundError{Kind: ActionFill, Target: "First Name"}
	assert.Equal(t, `fill: no element matches "First Name"`, err.Error())

	err = &ElementNotFoundError{Kind: ActionClick, Target: "Submit", Matches: 2}
	assert.Equal(t, `click: 2 elements match "Submit", expected exactly one`, err.Error())
	assert.True(t, IsElementNotFound(err))
}
