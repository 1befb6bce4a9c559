package nets

import (
	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/configs"
	"github.com/reusee/hanalyzer/logs"
)

type Module struct {
	dscope.Module
	Configs configs.Module
	Logs    logs.Module
}
