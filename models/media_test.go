package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentURLSubstitution(t *testing.T) {
	c := DashCaptions("https://cdn.example.com/subs/seg-$Number$.m4s")

	got, err := c.SegmentURL("245")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/subs/seg-245.m4s", got)
}

func TestSegmentURLRejectsNonDash(t *testing.T) {
	_, err := PlainCaptions("https://cdn.example.com/subs.xml").SegmentURL("1")
	assert.Error(t, err)

	_, err = NoCaptions().SegmentURL("1")
	assert.Error(t, err)
}

func TestSegmentURLRejectsRelativeTemplate(t *testing.T) {
	_, err := DashCaptions("subs/seg-$Number$.m4s").SegmentURL("1")
	assert.Error(t, err)
}

func TestCaptionSourceFlags(t *testing.T) {
	assert.False(t, NoCaptions().IsCaptioned())
	assert.True(t, PlainCaptions("x").IsCaptioned())
	assert.False(t, PlainCaptions("x").IsDash())
	assert.True(t, DashCaptions("x").IsCaptioned())
	assert.True(t, DashCaptions("x").IsDash())
}
