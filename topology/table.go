package topology

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteTable writes the connectivity in its editable text form. Each row
// carries every field of one EdgeRecord; free edges store -1 in the
// second face/edge columns.
func (c *Connectivity) WriteTable(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Connection | Face    Edge  | Type | dof  | Continuity | Dir? | Driving Group | Nctl | Face    Edge     |")
	for n, rec := range c.Records {
		fmt.Fprintf(bw, " %5d     | %5d   %5d | %4d | %4d | %10d | %4d | %13d | %4d | %5d   %5d    |\n",
			n, rec.Face1, rec.Edge1, int(rec.Type), rec.DOF, rec.Continuity,
			rec.Direction, rec.DrivingGroup, rec.NCtl, rec.Face2, rec.Edge2)
	}
	return bw.Flush()
}

// ReadTable parses a connectivity previously written by WriteTable,
// tolerating edited whitespace. Row ids must be dense and ascending
// from zero.
func ReadTable(r io.Reader) (*Connectivity, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return nil, fmt.Errorf("connectivity table is empty")
	}
	c := &Connectivity{}
	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(strings.ReplaceAll(text, "|", " "))
		if len(fields) != 11 {
			return nil, fmt.Errorf("line %d: expected 11 fields, got %d", line, len(fields))
		}
		vals := make([]int, 11)
		for k, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: field %d: %v", line, k+1, err)
			}
			vals[k] = v
		}
		if vals[0] != len(c.Records) {
			return nil, fmt.Errorf("line %d: connection id %d out of order", line, vals[0])
		}
		rec := EdgeRecord{
			Face1:        vals[1],
			Edge1:        vals[2],
			Type:         EdgeType(vals[3]),
			DOF:          vals[4],
			Continuity:   vals[5],
			Direction:    vals[6],
			DrivingGroup: vals[7],
			NCtl:         vals[8],
			Face2:        vals[9],
			Edge2:        vals[10],
		}
		if rec.Type != Free && rec.Type != Joined {
			return nil, fmt.Errorf("line %d: unknown edge type %d", line, vals[3])
		}
		c.Records = append(c.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := c.buildLookup(); err != nil {
		return nil, err
	}
	return c, nil
}
