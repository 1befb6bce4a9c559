package hconfigs

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/reusee/hanalyzer/cmds"
	"github.com/reusee/hanalyzer/configs"
	"github.com/reusee/hanalyzer/logs"
)

//go:embed schema.cue
var schema string

var configFlag = cmds.Var[string]("-config")

var filenames = []string{
	"hanalyzer.cue",
	".hanalyzer.cue",
}

// ConfigsLoader searches, in precedence order, the -config flag, the working
// directory, the user config directory and /etc.
func (Module) ConfigsLoader(
	logger logs.Logger,
) configs.Loader {
	var paths []string
	if *configFlag != "" {
		paths = append(paths, *configFlag)
	}

	var dirs []string
	if dir, err := os.Getwd(); err == nil {
		dirs = append(dirs, dir)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, "hanalyzer"), dir)
	}
	dirs = append(dirs, "/etc")

	for _, dir := range dirs {
		for _, filename := range filenames {
			path := filepath.Join(dir, filename)
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
	}

	if len(paths) > 0 {
		logger.Info("config files", "paths", paths)
	}
	return configs.NewLoader(paths, schema)
}
