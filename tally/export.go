// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/danielhkuo/verivote/models"
)

// WriteCSV writes one row per candidate per position.
func WriteCSV(w io.Writer, t models.Tally) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Candidate ID", "Candidate Name", "Position", "Votes"}); err != nil {
		return err
	}
	for _, p := range t.Positions {
		for _, c := range p.Counts {
			if err := cw.Write([]string{c.CandidateID, c.Name, p.Position, strconv.Itoa(c.Votes)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
