package backends

import (
	"os"

	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/cmds"
	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/vars"
)

type Module struct {
	dscope.Module
	Logs logs.Module
}

// Root is the directory served by the backend.
type Root string

var rootFlag = cmds.Var[string]("-root")

func (Module) Root() Root {
	return vars.FirstNonZero(
		Root(*rootFlag),
		Root(os.Getenv("HANALYZER_ROOT")),
		Root("."),
	)
}

func (Module) Backend(
	root Root,
	logger logs.Logger,
) (*Backend, error) {
	return New(string(root), logger)
}
