package hconfigs

import (
	"github.com/reusee/hanalyzer/cmds"
	"github.com/reusee/hanalyzer/configs"
	"github.com/reusee/hanalyzer/vars"
)

// FrameRate is how many times per second the driver calls Update.
type FrameRate int

const DefaultFrameRate = FrameRate(60)

var frameRateFlag = cmds.Var[int]("-frame-rate")

func (Module) FrameRate(
	loader configs.Loader,
) FrameRate {
	return vars.FirstNonZero(
		FrameRate(*frameRateFlag),
		configs.First[FrameRate](loader, "frame_rate"),
		DefaultFrameRate,
	)
}

// MaxInflight caps concurrent background requests of the remote client.
type MaxInflight int

const DefaultMaxInflight = MaxInflight(16)

func (Module) MaxInflight(
	loader configs.Loader,
) MaxInflight {
	return vars.FirstNonZero(
		configs.First[MaxInflight](loader, "max_inflight"),
		DefaultMaxInflight,
	)
}
