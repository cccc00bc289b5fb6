package main

import (
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		options     options
		expectError bool
	}{
		{
			name:    "valid options",
			options: options{notesPath: "notes.txt", timezone: "UTC"},
		},
		{
			name:        "missing notes path",
			options:     options{timezone: "UTC"},
			expectError: true,
		},
		{
			name:        "invalid timezone",
			options:     options{notesPath: "notes.txt", timezone: "Neverland/Nowhere"},
			expectError: true,
		},
		{
			name:        "empty timezone",
			options:     options{notesPath: "notes.txt"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.options.validate()

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
