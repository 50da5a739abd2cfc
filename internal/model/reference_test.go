package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestReferenceDate_Precision(t *testing.T) {
	assert.Equal(t, PrecisionYear, ReferenceDate{Year: 2012}.Precision())
	assert.Equal(t, PrecisionMonth, ReferenceDate{Year: 2012, Month: intPtr(3)}.Precision())
	assert.Equal(t, PrecisionDay, ReferenceDate{Year: 2012, Month: intPtr(3), Day: intPtr(21)}.Precision())
}

func TestReferenceDate_WikibaseTime(t *testing.T) {
	tests := []struct {
		name string
		date ReferenceDate
		want string
	}{
		{"full date", ReferenceDate{Year: 2012, Month: intPtr(3), Day: intPtr(21)}, "+2012-03-21T00:00:00Z/11"},
		{"year and month", ReferenceDate{Year: 2012, Month: intPtr(3)}, "+2012-03-00T00:00:00Z/10"},
		{"year only", ReferenceDate{Year: 2012}, "+2012-00-00T00:00:00Z/9"},
		{"early year pads to four digits", ReferenceDate{Year: 980}, "+0980-00-00T00:00:00Z/9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.date.WikibaseTime())
		})
	}
}

func TestReferenceMetadata_RetrievedTime(t *testing.T) {
	m := &ReferenceMetadata{RetrievedOn: time.Date(2025, 12, 5, 14, 30, 0, 0, time.UTC)}
	assert.Equal(t, "+2025-12-05T00:00:00Z/11", m.RetrievedTime())
}

func TestMatch(t *testing.T) {
	assert.False(t, Match{}.Found())
	assert.True(t, Match{QID: "Q1", Count: 1}.Found())
	assert.False(t, Match{QID: "Q1", Count: 1}.Ambiguous())
	assert.True(t, Match{QID: "Q1", Count: 3}.Ambiguous())
}
