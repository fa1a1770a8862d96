package mcu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultContainsBuiltins(t *testing.T) {
	tab := Default()
	for _, name := range []string{"atmega328p", "atmega2560", "attiny85"} {
		_, err := tab.Lookup(name)
		assert.NoError(t, err, "Lookup(%q)", name)
	}
}

func TestLookupUnknownFallsBackToAtmega328p(t *testing.T) {
	tab := Default()
	p, err := tab.Lookup("nosuchmcu")
	require.Error(t, err)
	want, _ := tab.Lookup("atmega328p")
	assert.Equal(t, want, p)
}

func TestAddOverridesBuiltin(t *testing.T) {
	tab := Default()
	tab.Add("atmega328p", Properties{RAMSize: 4096, RAMStart: 0x100, StackTop: 0x10FF})
	p, err := tab.Lookup("atmega328p")
	require.NoError(t, err)
	assert.Equal(t, 4096, p.RAMSize)
}

func TestAddRegistersNewTarget(t *testing.T) {
	tab := Default()
	tab.Add("custom-mcu", Properties{RAMSize: 1024, RAMStart: 0x80, StackTop: 0x047F})
	p, err := tab.Lookup("custom-mcu")
	require.NoError(t, err)
	assert.Equal(t, 1024, p.RAMSize)
}
