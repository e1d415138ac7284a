package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+506-7015-0369", "+50670150369"},
		{"(506) 8888 8888", "50688888888"},
		{"whatsapp:+50670150369", "+50670150369"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in), "input %q", tt.in)
	}
}

func TestScoreOf(t *testing.T) {
	tests := []struct {
		name string
		lead Lead
		want int
	}{
		{"empty new lead", Lead{Status: StatusNew}, 0},
		{"name only", Lead{Status: StatusNew, Name: "Juan"}, 10},
		{"name and email", Lead{Status: StatusEngaged, Name: "Juan", Email: "j@x.com"}, 20},
		{"interested", Lead{Status: StatusInterested, Name: "Juan"}, 30},
		{"scheduled full profile", Lead{Status: StatusScheduled, Name: "Juan", Email: "j@x.com"}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreOf(&tt.lead))
		})
	}
}
