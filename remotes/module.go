package remotes

import (
	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/hconfigs"
	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/nets"
)

type Module struct {
	dscope.Module
	Configs hconfigs.Module
	Nets    nets.Module
	Logs    logs.Module
}
