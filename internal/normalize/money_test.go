package normalize

import "testing"

func TestParsePrize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Between $5K and $10K", "10000"},
		{"$500", "500"},
		{"Not mentioned", "unspecified"},
		{"1.5M", "1500000"},
		{"$10,000 in prizes", "10000"},
		{"₹ 2,50,000", "250000"},
		{"USD 7,500", "7500"},
		{"$25k", "25000"},
		{"5 members max, $3 million pool", "3000000"},
		{"", "unspecified"},
		{"$10 000 in prizes", "10000"},
		{"€1 500 000", "1500000"},
		{"99999999999999999999", "9223372036854775807"},
		{"$9000000000000k", "9223372036854775807"},
	}

	for _, tt := range tests {
		if got := ParsePrize(tt.input).String(); got != tt.want {
			t.Errorf("ParsePrize(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}
