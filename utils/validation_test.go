package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Question string `validate:"required,min=2,max=2000"`
	ClassNo  *int   `validate:"omitempty,gte=6,lte=12"`
	Subject  string `validate:"omitempty,oneof=science social_science"`
}

func intPtr(v int) *int { return &v }

func TestValidateStruct_Valid(t *testing.T) {
	err := ValidateStruct(&sampleRequest{
		Question: "What is gravity?",
		ClassNo:  intPtr(9),
		Subject:  "science",
	})
	assert.NoError(t, err)
}

func TestValidateStruct_OptionalFieldsMayBeEmpty(t *testing.T) {
	err := ValidateStruct(&sampleRequest{Question: "What is gravity?"})
	assert.NoError(t, err)
}

func TestValidateStruct_FieldMessages(t *testing.T) {
	tests := []struct {
		name      string
		req       sampleRequest
		wantField string
		wantMsg   string
	}{
		{
			name:      "required",
			req:       sampleRequest{},
			wantField: "Question",
			wantMsg:   "Question is required",
		},
		{
			name:      "min",
			req:       sampleRequest{Question: "a"},
			wantField: "Question",
			wantMsg:   "Question must be at least 2",
		},
		{
			name:      "gte",
			req:       sampleRequest{Question: "What is gravity?", ClassNo: intPtr(5)},
			wantField: "ClassNo",
			wantMsg:   "ClassNo must be greater than or equal to 6",
		},
		{
			name:      "lte",
			req:       sampleRequest{Question: "What is gravity?", ClassNo: intPtr(13)},
			wantField: "ClassNo",
			wantMsg:   "ClassNo must be less than or equal to 12",
		},
		{
			name:      "oneof",
			req:       sampleRequest{Question: "What is gravity?", Subject: "mathematics"},
			wantField: "Subject",
			wantMsg:   "Subject must be one of: science social_science",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			require.Error(t, err)
			require.True(t, IsValidationError(err))

			fields := GetValidationFields(err)
			assert.Equal(t, tt.wantMsg, fields[tt.wantField])
		})
	}
}

func TestIsValidationError(t *testing.T) {
	assert.False(t, IsValidationError(errors.New("plain")))
	assert.False(t, IsValidationError(nil))

	err := ValidateStruct(&sampleRequest{})
	assert.True(t, IsValidationError(err))
}

func TestGetValidationFields_NonValidationError(t *testing.T) {
	assert.Nil(t, GetValidationFields(errors.New("plain")))
}
