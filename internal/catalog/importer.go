package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	colName        = "name"
	colUnitPrice   = "unit_price"
	colDescription = "description"
	colCategory    = "category"
)

// ParseCSV reads a catalog export. Every bad row is reported; nothing is
// returned unless the whole file is valid.
func ParseCSV(r io.Reader) ([]Item, error) {
	utf8r, err := utf8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	br := bufio.NewReader(utf8r)
	comma, err := sniffDelimiter(br)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(br)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ImportErrors{{Line: 1, Message: "file is empty"}}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidImport, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, required := range []string{colName, colUnitPrice} {
		if _, ok := cols[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, ImportErrors{{Line: 1, Message: "missing column " + strings.Join(missing, ", ")}}
	}

	var (
		items []Item
		errs  ImportErrors
		seen  = make(map[string]int)
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				errs = append(errs, RowError{Line: perr.Line, Message: perr.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if blank(row) {
			continue
		}
		line, _ := reader.FieldPos(0)

		item, msg := parseRow(row, cols)
		if msg != "" {
			errs = append(errs, RowError{Line: line, Message: msg})
			continue
		}
		key := strings.ToLower(item.Name)
		if first, dup := seen[key]; dup {
			errs = append(errs, RowError{Line: line, Message: fmt.Sprintf("duplicate of line %d", first)})
			continue
		}
		seen[key] = line
		items = append(items, item)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	if len(items) == 0 {
		return nil, ImportErrors{{Line: 2, Message: "no catalog rows"}}
	}
	return items, nil
}

func parseRow(row []string, cols map[string]int) (Item, string) {
	item := Item{
		Name:        cell(row, cols, colName),
		Description: cell(row, cols, colDescription),
		Category:    cell(row, cols, colCategory),
		Active:      true,
	}
	if item.Name == "" {
		return item, "name is required"
	}
	raw := cell(row, cols, colUnitPrice)
	if raw == "" {
		return item, "unit_price is required"
	}
	price, err := parsePrice(raw)
	if err != nil {
		return item, fmt.Sprintf("unit_price %q is not a number", raw)
	}
	if price < 0 {
		return item, "unit_price must not be negative"
	}
	item.UnitPrice = price
	return item, ""
}

// parsePrice accepts 1234.5, 1,234.50, 1234,50 and 1.234,50.
func parsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "$€£ ")
	s = strings.ReplaceAll(s, " ", "")
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	return strconv.ParseFloat(s, 64)
}

// sniffDelimiter picks ';' when the header uses it more often than ','.
func sniffDelimiter(br *bufio.Reader) (rune, error) {
	head, err := br.Peek(br.Size())
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, fmt.Errorf("peek: %w", err)
	}
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';', nil
	}
	return ',', nil
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
