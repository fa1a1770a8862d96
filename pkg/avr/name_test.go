package avr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"foo":                 "foo",
		"foo.constprop.0":     "foo",
		"foo.isra.12":         "foo",
		"foo.part.3":          "foo",
		"process_data.isra.4": "process_data",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeName(in), "NormalizeName(%q)", in)
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	names := []string{"foo", "foo.constprop.0", "bar.isra.1.part.2"}
	for _, n := range names {
		once := NormalizeName(n)
		twice := NormalizeName(once)
		assert.Equal(t, once, twice, "NormalizeName not idempotent for %q", n)
	}
}
