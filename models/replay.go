package models

// ReplayFileSuffix marks replay session files in a served root. The session
// name is the file name without it.
const ReplayFileSuffix = ".replay.yaml"

// Frame is one snapshot of the replayed world.
type Frame struct {
	Index     uint64   `msgpack:"index" yaml:"index"`
	Timestamp float64  `msgpack:"timestamp" yaml:"timestamp"`
	Entities  []Entity `msgpack:"entities" yaml:"entities"`
}

type Entity struct {
	ID   string  `msgpack:"id" yaml:"id"`
	Kind string  `msgpack:"kind,omitempty" yaml:"kind,omitempty"`
	X    float64 `msgpack:"x" yaml:"x"`
	Y    float64 `msgpack:"y" yaml:"y"`
	Z    float64 `msgpack:"z,omitempty" yaml:"z,omitempty"`
	Yaw  float64 `msgpack:"yaw,omitempty" yaml:"yaw,omitempty"`
}

type ReplayInfo struct {
	Session     string `msgpack:"session"`
	TotalFrames uint64 `msgpack:"total_frames"`
}

type FrameRequest struct {
	Session string `msgpack:"session"`
	Index   uint64 `msgpack:"index"`
}
