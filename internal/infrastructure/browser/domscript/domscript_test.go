package domscript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptsAreEmbedded(t *testing.T) {
	for name, src := range map[string]string{"describe": Describe, "locate": Locate, "select": SelectOption} {
		assert.NotEmpty(t, strings.TrimSpace(src), name)
	}
	assert.True(t, strings.HasPrefix(Describe, "(selector) =>"))
	assert.Contains(t, Locate, FillSelector)
	assert.Contains(t, Locate, ButtonSelector)
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, "First Name", Collapse("  First\n\t Name "))
	assert.Equal(t, "", Collapse(" \n "))
}
