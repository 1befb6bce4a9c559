package hconfigs

import (
	"os"

	"github.com/reusee/hanalyzer/cmds"
	"github.com/reusee/hanalyzer/configs"
	"github.com/reusee/hanalyzer/vars"
)

// ServerAddr is the base URL of the backend.
type ServerAddr string

const DefaultServerAddr = ServerAddr("http://127.0.0.1:50051")

var serverFlag = cmds.Var[string]("-server")

func (Module) ServerAddr(
	loader configs.Loader,
) ServerAddr {
	return vars.FirstNonZero(
		ServerAddr(*serverFlag),
		configs.First[ServerAddr](loader, "server_addr"),
		ServerAddr(os.Getenv("HANALYZER_SERVER")),
		DefaultServerAddr,
	)
}
