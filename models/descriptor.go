package models

import (
	"fmt"
	"path"

	"github.com/reusee/hanalyzer/tables"
)

// SourceType names the on-disk layout of a dataset file.
type SourceType uint8

const (
	CommaSep SourceType = iota + 1
	NDEV
	KITTI
)

var sourceTypeNames = map[SourceType]string{
	CommaSep: "COMMA_SEP",
	NDEV:     "NDEV",
	KITTI:    "KITTI",
}

func (s SourceType) String() string {
	if name, ok := sourceTypeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SourceType(%d)", s)
}

func ParseSourceType(str string) (SourceType, error) {
	for t, name := range sourceTypeNames {
		if name == str {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown source type: %q", str)
}

func (s SourceType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SourceType) UnmarshalText(text []byte) error {
	t, err := ParseSourceType(string(text))
	if err != nil {
		return err
	}
	*s = t
	return nil
}

// LoadDescriptor says where a dataset lives and how to parse it.
type LoadDescriptor struct {
	Path      string     `msgpack:"path" yaml:"path"`
	Type      SourceType `msgpack:"type" yaml:"type"`
	Delimiter string     `msgpack:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	HasHeader bool       `msgpack:"has_header" yaml:"has_header"`
	SkipRows  int        `msgpack:"skip_rows,omitempty" yaml:"skip_rows,omitempty"`
}

// NewLoadDescriptor returns a descriptor with the default format of the
// source type.
func NewLoadDescriptor(filePath string, sourceType SourceType) LoadDescriptor {
	d := LoadDescriptor{
		Path: filePath,
		Type: sourceType,
	}
	switch sourceType {
	case CommaSep:
		d.Delimiter = ","
		d.HasHeader = true
	case NDEV:
		d.HasHeader = true
	case KITTI:
	}
	return d
}

func (d LoadDescriptor) Name() string {
	return path.Base(d.Path)
}

// Format converts the descriptor options for the table parser. An empty
// delimiter means white space.
func (d LoadDescriptor) Format() (tables.Format, error) {
	if d.SkipRows < 0 {
		return tables.Format{}, fmt.Errorf("negative skip rows: %d", d.SkipRows)
	}
	format := tables.Format{
		HasHeader: d.HasHeader,
		SkipRows:  d.SkipRows,
	}
	switch runes := []rune(d.Delimiter); len(runes) {
	case 0:
	case 1:
		format.Delimiter = runes[0]
	default:
		if d.Delimiter == `\t` {
			format.Delimiter = '\t'
		} else {
			return format, fmt.Errorf("delimiter must be one character: %q", d.Delimiter)
		}
	}
	return format, nil
}
