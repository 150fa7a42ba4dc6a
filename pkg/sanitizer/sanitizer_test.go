package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseSpace(t *testing.T) {
	tests := map[string]string{
		"  hello  ":              "hello",
		"hello    world":         "hello world",
		"hello\t\nworld":         "hello world",
		"":                       "",
		"   ":                    "",
		" Salle de réunion  B ": "Salle de réunion B",
	}
	for input, want := range tests {
		assert.Equal(t, want, CollapseSpace(input), "CollapseSpace(%q)", input)
	}
}

func TestNormalizePurpose(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "collapse whitespace", input: "  Thesis   defense\n rehearsal ", want: "Thesis defense rehearsal"},
		{name: "drop control characters", input: "Lab\x00 session\x07", want: "Lab session"},
		{name: "already clean", input: "Thesis defense rehearsal", want: "Thesis defense rehearsal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePurpose(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizePurpose(got), "must be idempotent")
		})
	}
}

func TestKey(t *testing.T) {
	tests := map[string]string{
		"Lab Equipment / Optics": "lab_equipment_optics",
		"  Projector ":           "projector",
		"__weird--name__":        "weird_name",
		"3D-Printer":             "3d_printer",
		"--":                     "",
		"":                       "",
	}
	for input, want := range tests {
		got := Key(input)
		assert.Equal(t, want, got, "Key(%q)", input)
		assert.Equal(t, got, Key(got), "Key must be idempotent")
	}
}

func TestNormalizeFacilities(t *testing.T) {
	assert.Equal(t, []string{"projector", "white_board"}, NormalizeFacilities([]string{"Projector", "White Board"}))
	assert.Equal(t, []string{"projector"}, NormalizeFacilities([]string{"Projector", "projector", " PROJECTOR "}))
	assert.Equal(t, []string{"projector"}, NormalizeFacilities([]string{"Projector", "", "  ", "--"}))
	assert.Equal(t, []string{}, NormalizeFacilities(nil))
}
