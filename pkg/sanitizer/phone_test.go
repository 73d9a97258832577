package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		regions []string
		want    string
	}{
		{
			name:  "valid E.164 format",
			input: "+233241234567",
			want:  "+233241234567",
		},
		{
			name:  "with spaces",
			input: "+233 24 123 4567",
			want:  "+233241234567",
		},
		{
			name:  "with dashes",
			input: "+233-24-123-4567",
			want:  "+233241234567",
		},
		{
			name:  "ghana national format",
			input: "024 123 4567",
			want:  "+233241234567",
		},
		{
			name:  "leading and trailing spaces",
			input: "  +233241234567  ",
			want:  "+233241234567",
		},
		{
			name:  "international number ignores regions",
			input: "+2348031234567",
			want:  "+2348031234567",
		},
		{
			name:    "explicit region",
			input:   "0803 123 4567",
			regions: []string{"NG"},
			want:    "+2348031234567",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "letters",
			input: "call me",
			want:  "",
		},
		{
			name:  "too short",
			input: "12",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input, tt.regions...)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	once := NormalizePhone("024 123 4567")
	if twice := NormalizePhone(once); twice != once {
		t.Errorf("second pass changed %q to %q", once, twice)
	}
}
