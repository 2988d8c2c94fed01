package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFoldsCaseAndDiacritics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"ascii lower", "invoice", "invoice"},
		{"ascii upper", "INVOICE", "invoice"},
		{"accented latin", "Café", "cafe"},
		{"mixed case accents", "JOSÉ ÁLVAREZ", "jose alvarez"},
		{"polish diacritics", "Świętość", "swietosc"},
		{"ligature", "ﬁnance", "finance"},
		{"inner spaces kept", "Total  Due", "total  due"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"Café au Lait", "ŚWIĘTOŚĆ", "ﬁrst", "plain ascii", "Tëst Dàtá"}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once), "normalizing twice changed %q", in)
	}
}

func TestNormalizedContainment(t *testing.T) {
	t.Parallel()

	keyword := Normalize("Señor café")
	assert.True(t, strings.Contains(Normalize("Estimado SEÑOR CAFÉ,"), keyword))
	assert.False(t, strings.Contains(Normalize("señora cafetería"), keyword))
}

func BenchmarkNormalize(b *testing.B) {
	sample := strings.Repeat("Świętość ﬁnance Café INVOICE düsseldorf. ", 64)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Normalize(sample)
	}
}
