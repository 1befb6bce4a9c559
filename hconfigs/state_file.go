package hconfigs

import (
	"os"
	"path/filepath"

	"github.com/reusee/hanalyzer/cmds"
	"github.com/reusee/hanalyzer/configs"
	"github.com/reusee/hanalyzer/vars"
)

// StateFile is where browsing state is persisted between runs. Empty disables
// persistence.
type StateFile string

var stateFlag = cmds.Var[string]("-state")

func (Module) StateFile(
	loader configs.Loader,
) StateFile {
	var def StateFile
	if dir, err := os.UserConfigDir(); err == nil {
		def = StateFile(filepath.Join(dir, "hanalyzer", "state.yaml"))
	}
	return vars.FirstNonZero(
		StateFile(*stateFlag),
		configs.First[StateFile](loader, "state_file"),
		def,
	)
}
