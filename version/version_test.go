package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vexedit/vexedit/version"
)

func TestString(t *testing.T) {
	old := version.Version
	t.Cleanup(func() { version.Version = old })

	version.Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", version.String())

	version.Version = ""
	assert.NotEmpty(t, version.String())
}
