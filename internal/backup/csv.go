package backup

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"itledger/internal/document"
	"itledger/internal/logger"
)

// WriteCSV writes the header and one fully quoted line per row. Commas inside
// cells become semicolons, since ReadCSV splits lines on every comma.
func WriteCSV(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Header, ",") + "\n"); err != nil {
		return err
	}
	for _, row := range rows {
		cells := row.Cells()
		for i, cell := range cells {
			cells[i] = quote(cell)
		}
		if _, err := bw.WriteString(strings.Join(cells, ",") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func quote(s string) string {
	s = strings.ReplaceAll(s, ",", ";")
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ImportResult describes a CSV import.
type ImportResult struct {
	Tickets []*document.Ticket
	// Skipped counts data lines with fewer than ten fields.
	Skipped int
}

// ReadCSV parses a backup produced by WriteCSV into income tickets.
// The first line is the header. Lines are split on commas and each field is
// trimmed of whitespace and stripped of all quotes; lines with fewer than ten
// fields are skipped and numeric cells that do not parse become zero.
// newID supplies the id of every restored ticket.
func ReadCSV(r io.Reader, newID func() string) (*ImportResult, error) {
	log := logger.WithComponent("backup")

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}

	result := &ImportResult{}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, ",")
		if len(cols) < columnCount {
			log.Warn().
				Int("line", i+2).
				Int("columns", len(cols)).
				Msg("Skipping row with insufficient columns")
			result.Skipped++
			continue
		}
		for j := range cols {
			cols[j] = unquote(cols[j])
		}

		t := &document.Ticket{
			Record: document.Record{
				ID:     newID(),
				Folio:  cols[0],
				Date:   cols[1],
				Title:  cols[2],
				Client: cols[3],
				TaxID:  cols[4],
				Amount: parseAmount(cols[9]),
			},
			Subtype:  document.Income,
			FileName: document.MissingFileName,
			Status:   cols[5],
		}
		t.Subtotal = parseAmount(cols[6])
		t.IVA = parseAmount(cols[7])
		t.ISR = parseAmount(cols[8])
		t.FinalTotal = t.Amount - t.ISR
		result.Tickets = append(result.Tickets, t)
	}

	log.Info().
		Int("imported", len(result.Tickets)).
		Int("skipped", result.Skipped).
		Msg("CSV parsed")
	return result, nil
}

// unquote drops every double quote, escaped ones included.
func unquote(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}
