package models

import (
	"fmt"

	"github.com/reusee/hanalyzer/tables"
)

type SeriesID string

// ElementKind is the declared element type of a realtime series. It fixes the
// series buffer schema.
type ElementKind uint8

const (
	Point ElementKind = iota + 1
	Pose
)

func (k ElementKind) String() string {
	switch k {
	case Point:
		return "point"
	case Pose:
		return "pose"
	}
	return fmt.Sprintf("ElementKind(%d)", k)
}

// Schema returns the buffer columns for the kind.
func (k ElementKind) Schema() ([]tables.ColumnSpec, error) {
	switch k {
	case Point:
		return []tables.ColumnSpec{
			{Name: "t", Kind: tables.Numeric},
			{Name: "x", Kind: tables.Numeric},
			{Name: "y", Kind: tables.Numeric},
		}, nil
	case Pose:
		return []tables.ColumnSpec{
			{Name: "t", Kind: tables.Numeric},
			{Name: "x", Kind: tables.Numeric},
			{Name: "y", Kind: tables.Numeric},
			{Name: "yaw", Kind: tables.Numeric},
		}, nil
	}
	return nil, fmt.Errorf("unknown element kind: %v", k)
}

type SeriesMetadata struct {
	ID   SeriesID    `msgpack:"id"`
	Kind ElementKind `msgpack:"kind"`
}

type SeriesCommand uint8

const (
	Append SeriesCommand = iota
	Reset
)

func (c SeriesCommand) String() string {
	switch c {
	case Append:
		return "append"
	case Reset:
		return "reset"
	}
	return fmt.Sprintf("SeriesCommand(%d)", c)
}

// SeriesDelta is the result of one poll. Reset clears the buffer before Rows
// are appended.
type SeriesDelta struct {
	Command SeriesCommand `msgpack:"command"`
	Rows    tables.Table  `msgpack:"rows"`
}

type SeriesRequest struct {
	ID SeriesID `msgpack:"id"`
}
