package hconfigs

import (
	"fmt"
	"time"

	"github.com/reusee/hanalyzer/cmds"
	"github.com/reusee/hanalyzer/configs"
	"github.com/reusee/hanalyzer/vars"
)

// Timeouts bound each kind of remote operation. A hung call fails its task
// instead of holding a slot forever.
type Timeouts struct {
	Unary time.Duration
	Load  time.Duration
	Frame time.Duration
}

var DefaultTimeouts = Timeouts{
	Unary: 30 * time.Second,
	Load:  10 * time.Minute,
	Frame: 30 * time.Second,
}

var (
	loadTimeoutFlag = cmds.Var[time.Duration]("-load-timeout")
)

func (Module) Timeouts(
	loader configs.Loader,
) Timeouts {
	return Timeouts{
		Unary: vars.FirstNonZero(
			configDuration(loader, "timeouts.unary"),
			DefaultTimeouts.Unary,
		),
		Load: vars.FirstNonZero(
			*loadTimeoutFlag,
			configDuration(loader, "timeouts.load"),
			DefaultTimeouts.Load,
		),
		Frame: vars.FirstNonZero(
			configDuration(loader, "timeouts.frame"),
			DefaultTimeouts.Frame,
		),
	}
}

// ListInterval is the minimum spacing between two series list fetches.
type ListInterval time.Duration

const DefaultListInterval = ListInterval(time.Second)

var listIntervalFlag = cmds.Var[time.Duration]("-list-interval")

func (Module) ListInterval(
	loader configs.Loader,
) ListInterval {
	return vars.FirstNonZero(
		ListInterval(*listIntervalFlag),
		ListInterval(configDuration(loader, "list_interval")),
		DefaultListInterval,
	)
}

func configDuration(loader configs.Loader, path string) time.Duration {
	str := configs.First[string](loader, path)
	if str == "" {
		return 0
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		panic(fmt.Errorf("config %s: %w", path, err))
	}
	return d
}
