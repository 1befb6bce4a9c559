package tables

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format describes a delimited text file. A zero Delimiter splits on runs of
// white space.
type Format struct {
	Delimiter rune
	HasHeader bool
	SkipRows  int
}

// ParseDelimited reads a delimited text table. SkipRows lines are dropped
// before the header. Columns whose every cell parses as a number are numeric.
// Without a header, columns are named column_1, column_2, and so on.
func ParseDelimited(r io.Reader, format Format) (ret Table, err error) {
	var records [][]string
	if format.Delimiter == 0 {
		records, err = readWhitespace(r, format.SkipRows)
	} else {
		records, err = readCSV(r, format.Delimiter, format.SkipRows)
	}
	if err != nil {
		return ret, err
	}

	var names []string
	if format.HasHeader {
		if len(records) == 0 {
			return ret, errors.New("missing header")
		}
		names = records[0]
		records = records[1:]
	} else if len(records) > 0 {
		for i := range records[0] {
			names = append(names, fmt.Sprintf("column_%d", i+1))
		}
	}

	for i, record := range records {
		if len(record) != len(names) {
			return ret, fmt.Errorf("row %d: %d fields, expecting %d", i+1, len(record), len(names))
		}
	}

	for col, name := range names {
		column := Column{
			Name: strings.TrimSpace(name),
			Kind: Numeric,
		}
		floats := make([]float64, 0, len(records))
		for _, record := range records {
			f, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				column.Kind = Text
				break
			}
			floats = append(floats, f)
		}
		if column.Kind == Numeric {
			column.Floats = floats
		} else {
			column.Texts = make([]string, 0, len(records))
			for _, record := range records {
				column.Texts = append(column.Texts, record[col])
			}
		}
		ret.Columns = append(ret.Columns, column)
	}

	return ret, nil
}

func readCSV(r io.Reader, delimiter rune, skip int) ([][]string, error) {
	br := bufio.NewReader(r)
	for range skip {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
	}
	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading delimited text: %w", err)
	}
	return records, nil
}

func readWhitespace(r io.Reader, skip int) (records [][]string, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if line <= skip {
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		records = append(records, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}
	return records, nil
}
