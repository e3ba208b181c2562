package nats

import (
	"testing"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected string
	}{
		{
			name:     "single value",
			input:    []string{"detector"},
			expected: "ndstream.detector",
		},
		{
			name:     "multiple values",
			input:    []string{"beamline", "detector"},
			expected: "ndstream.beamline.detector",
		},
		{
			name:     "empty values filtered",
			input:    []string{"beamline", "", "detector"},
			expected: "ndstream.beamline.detector",
		},
		{
			name:     "values that format to nothing filtered",
			input:    []string{"beamline", "@@", "detector"},
			expected: "ndstream.beamline.detector",
		},
		{
			name:     "camel case conversion",
			input:    []string{"areaDetector"},
			expected: "ndstream.area-detector",
		},
		{
			name:     "underscore conversion",
			input:    []string{"area_detector"},
			expected: "ndstream.area-detector",
		},
		{
			name:     "mixed case",
			input:    []string{"AreaDetector"},
			expected: "ndstream.Area-detector",
		},
		{
			name:     "dots preserved",
			input:    []string{"sim.det1"},
			expected: "ndstream.sim.det1",
		},
		{
			name:     "wildcards preserved",
			input:    []string{"sim.*"},
			expected: "ndstream.sim.*",
		},
		{
			name:     "numbers preserved",
			input:    []string{"det123"},
			expected: "ndstream.det123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := subject(tt.input...)
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestFormatForSubject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase",
			input:    "test",
			expected: "test",
		},
		{
			name:     "uppercase",
			input:    "TEST",
			expected: "TEST",
		},
		{
			name:     "camel case",
			input:    "testValue",
			expected: "test-value",
		},
		{
			name:     "pascal case",
			input:    "TestValue",
			expected: "Test-value",
		},
		{
			name:     "multiple capitals",
			input:    "HTTPServer",
			expected: "HTTPServer",
		},
		{
			name:     "underscore to dash",
			input:    "test_value",
			expected: "test-value",
		},
		{
			name:     "dash preserved",
			input:    "test-value",
			expected: "test-value",
		},
		{
			name:     "wildcard preserved",
			input:    "test*",
			expected: "test*",
		},
		{
			name:     "mixed numbers and letters",
			input:    "test123Value",
			expected: "test123Value",
		},
		{
			name:     "special characters removed",
			input:    "test@value",
			expected: "testvalue",
		},
		{
			name:     "spaces removed",
			input:    "test value",
			expected: "testvalue",
		},
		{
			name:     "multiple underscores",
			input:    "test__value",
			expected: "test--value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatForSubject(tt.input)
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestSubjectWithComplexValues(t *testing.T) {
	result := subject("mySimDetector", "imageArrayData", "raw")
	expected := "ndstream.my-sim-detector.image-array-data.raw"

	if result != expected {
		t.Errorf("Expected '%s', got '%s'", expected, result)
	}
}

func BenchmarkSubject(b *testing.B) {
	for i := 0; i < b.N; i++ {
		subject("simDetector", "imageArrayData")
	}
}

func BenchmarkFormatForSubject(b *testing.B) {
	input := "veryLongDetectorNameWithManyCapitalLettersAndNumbers123"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		formatForSubject(input)
	}
}
