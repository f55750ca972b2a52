package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldProxy_ReservedHelperIsUnproxied(t *testing.T) {
	assert.False(t, shouldProxy("ssh-3afb6505.example.com", "example.com"))
}

func TestShouldProxy_DashDSuffixIsUnproxied(t *testing.T) {
	assert.False(t, shouldProxy("foo-d.example.com", "example.com"))
}

func TestShouldProxy_OrdinaryHostIsProxied(t *testing.T) {
	assert.True(t, shouldProxy("app.example.com", "example.com"))
}

func TestDesiredState_IncludesRootAndHelper(t *testing.T) {
	desired := DesiredState([]string{"app.example.com"}, "example.com", "1.2.3.4")

	root, ok := desired["example.com"]
	assert.True(t, ok)
	assert.True(t, root.Proxied)
	assert.Equal(t, "1.2.3.4", root.Content)

	helper, ok := desired["ssh-3afb6505.example.com"]
	assert.True(t, ok)
	assert.False(t, helper.Proxied)

	app, ok := desired["app.example.com"]
	assert.True(t, ok)
	assert.True(t, app.Proxied)
}

func TestDesiredState_DashDHostUnproxied(t *testing.T) {
	desired := DesiredState([]string{"staging-d.example.com"}, "example.com", "1.2.3.4")
	rec, ok := desired["staging-d.example.com"]
	assert.True(t, ok)
	assert.False(t, rec.Proxied)
}

func TestDesiredState_LowercasesExtractedHostnames(t *testing.T) {
	desired := DesiredState([]string{"App.Example.com"}, "example.com", "1.2.3.4")
	_, ok := desired["app.example.com"]
	assert.True(t, ok)
}
