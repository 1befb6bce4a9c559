package main

import (
	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/debugs"
	"github.com/reusee/hanalyzer/orchestrators"
)

type Module struct {
	dscope.Module
	Orchestrators orchestrators.Module
	Debugs        debugs.Module
}
