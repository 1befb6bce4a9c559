package modes

import (
	"testing"

	"github.com/reusee/dscope"
)

// Production is the module used by the binaries.
type Production struct {
	dscope.Module
}

func ForProduction() Production {
	return Production{}
}

func (Production) T() *testing.T {
	return nil
}

func (Production) Mode() Mode {
	return ModeProduction
}

// Test is the module used by package tests. It exposes the running *testing.T
// to providers that want to register cleanups.
type Test struct {
	dscope.Module
	t *testing.T
}

func ForTest(t *testing.T) Test {
	return Test{
		t: t,
	}
}

func (m Test) T() *testing.T {
	return m.t
}

func (Test) Mode() Mode {
	return ModeDevelopment
}
