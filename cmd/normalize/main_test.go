package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ridership/internal/config"
)

func TestMissing(t *testing.T) {
	all := []config.VenueConfig{{Slug: "sox"}, {Slug: "cubs"}, {Slug: "fire"}}
	kept := []config.VenueConfig{{Slug: "cubs"}}

	assert.Equal(t, []string{"sox", "fire"}, missing(all, kept))
	assert.Empty(t, missing(kept, kept))
}
