package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/campo-8bit/internal/types"
)

func TestCountryCode(t *testing.T) {
	// Test case 1: common nationality spellings map to directory codes
	assert.Equal(t, "BR", countryCode("Brasil"))
	assert.Equal(t, "BR", countryCode("  brasil "))
	assert.Equal(t, "AR", countryCode("Argentina"))
	assert.Equal(t, "DE", countryCode("Alemanha"))
	assert.Equal(t, "NL", countryCode("Países Baixos"))

	// Test case 2: two-letter input is already a code
	assert.Equal(t, "BR", countryCode("br"))
	assert.Equal(t, "PT", countryCode("PT"))

	// Test case 3: unknown countries pass through to the synthetic fallback
	assert.Equal(t, "Uruguai", countryCode("Uruguai"))
}

func TestDefaultAttributes(t *testing.T) {
	// Test case 1: attackers get the shooting bump
	attrs := defaultAttributes("Atacante")
	assert.Equal(t, 7, attrs.Shooting)
	assert.Equal(t, 6, attrs.Speed)
	assert.Equal(t, 5, attrs.Defense)

	// Test case 2: keepers lean on defense
	attrs = defaultAttributes("goleiro")
	assert.Equal(t, 8, attrs.Defense)

	// Test case 3: unknown positions get the flat baseline
	attrs = defaultAttributes("líbero")
	assert.Equal(t, types.Attributes{
		Speed: 5, Physical: 5, Shooting: 5, Heading: 5,
		Charisma: 5, Passing: 5, Defense: 5,
	}, attrs)
}
