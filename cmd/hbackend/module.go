package main

import (
	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/backends"
)

type Module struct {
	dscope.Module
	Backends backends.Module
}
