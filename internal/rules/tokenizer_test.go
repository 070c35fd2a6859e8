package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        []string
	}{
		{
			name:        "payment processor stripped",
			description: "PAYPAL *NAMECHEAP",
			want:        []string{"namecheap"},
		},
		{
			name:        "spanish conjunction and short tokens dropped",
			description: "Sole y Gian f*HANDY*",
			want:        []string{"sole", "gian", "handy"},
		},
		{
			name:        "mixed separators",
			description: "STARB-COFFEE_SHOP#123",
			want:        []string{"starb", "coffee", "123"},
		},
		{
			name:        "only stop words",
			description: "the and payment transaction",
			want:        []string{},
		},
		{
			name:        "empty input",
			description: "",
			want:        []string{},
		},
		{
			name:        "whitespace only",
			description: "   \t  ",
			want:        []string{},
		},
		{
			name:        "single characters dropped",
			description: "A B SOMETHING",
			want:        []string{"something"},
		},
		{
			name:        "numeric tokens kept",
			description: "uber 4412",
			want:        []string{"uber", "4412"},
		},
		{
			name:        "order and duplicates preserved",
			description: "cafe brasilero cafe",
			want:        []string{"cafe", "brasilero", "cafe"},
		},
		{
			name:        "parentheses and punctuation as separators",
			description: "Netflix.com (streaming), monthly",
			want:        []string{"netflix", "com", "streaming", "monthly"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.description)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeIsPure(t *testing.T) {
	desc := "PAYPAL *NAMECHEAP ref 123"
	first := Sanitize(desc)
	second := Sanitize(desc)
	assert.Equal(t, first, second)
}
