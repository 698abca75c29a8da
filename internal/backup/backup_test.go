package backup

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"itledger/internal/document"
	"itledger/internal/tax"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("imp-%d", n)
	}
}

func sampleTickets() []document.Document {
	a := &document.Ticket{
		Record:   document.Record{ID: "t1", Folio: "CV-00012", Date: "2024-09-05", Title: "Reparación", Client: "Soluciones SA", TaxID: "ABC123456XYZ", Amount: 1234.56},
		Subtype:  document.Expense,
		FileName: "ticket.pdf",
	}
	a.Seal()
	b := &document.Ticket{
		Record:  document.Record{ID: "t2", Date: "2024-09-06", Title: `Cable "UTP"`, Client: "Publico en general", TaxID: tax.GenericTaxID, Amount: 99.9},
		Subtype: document.Income,
	}
	b.Seal()
	return []document.Document{a, b}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Rows(sampleTickets())); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Folio,Fecha,Concepto,Cliente,RFC,Estado,Subtotal,IVA,ISR,MontoTotal" {
		t.Errorf("header = %q", lines[0])
	}
	want := `"CV-00012","2024-09-05","Reparacion","Soluciones SA","ABC123456XYZ","Aceptada","1064.28","170.28","13.30","1234.56"`
	if lines[1] != want {
		t.Errorf("row 1 =\n%s\nwant\n%s", lines[1], want)
	}
	if !strings.HasPrefix(lines[2], `"t2",`) || !strings.Contains(lines[2], `"Cable ""UTP"""`) {
		t.Errorf("row 2 = %s", lines[2])
	}
}

func TestRoundTrip(t *testing.T) {
	original := sampleTickets()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Rows(original)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	res, err := ReadCSV(&buf, sequentialIDs())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(res.Tickets) != len(original) || res.Skipped != 0 {
		t.Fatalf("imported %d skipped %d", len(res.Tickets), res.Skipped)
	}

	for i, got := range res.Tickets {
		want := RowOf(original[i])
		want.Title = strings.ReplaceAll(want.Title, `"`, "")
		have := RowOf(got)
		have.Type, want.Type = "", ""
		if fmt.Sprint(have.Cells()) != fmt.Sprint(want.Cells()) {
			t.Errorf("row %d:\n got %v\nwant %v", i, have.Cells(), want.Cells())
		}
		if got.FileName != document.MissingFileName || got.Subtype != document.Income {
			t.Errorf("row %d: fileName %q subtype %q", i, got.FileName, got.Subtype)
		}
		if got.ID != fmt.Sprintf("imp-%d", i+1) {
			t.Errorf("row %d: id %q", i, got.ID)
		}
	}
}

func TestCSVCommasInText(t *testing.T) {
	tk := &document.Ticket{
		Record:  document.Record{ID: "t1", Date: "2024-09-05", Title: "Cable, UTP", Client: "Perez, Juan", TaxID: "ABC123456XYZ", Amount: 1160},
		Subtype: document.Income,
	}
	tk.Seal()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, Rows([]document.Document{tk})); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.Contains(buf.String(), `"Cable; UTP","Perez; Juan"`) {
		t.Errorf("commas not replaced:\n%s", buf.String())
	}

	res, err := ReadCSV(&buf, sequentialIDs())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(res.Tickets) != 1 {
		t.Fatalf("imported %d skipped %d", len(res.Tickets), res.Skipped)
	}
	got := res.Tickets[0]
	if got.Amount != 1160 || got.Title != "Cable; UTP" || got.TaxID != "ABC123456XYZ" {
		t.Errorf("ticket = %+v", got.Record)
	}
	if tax.Format(got.ISR) != "12.50" {
		t.Errorf("ISR = %v, want 12.50", got.ISR)
	}
}

func TestReadCSVStripsStrayQuotes(t *testing.T) {
	in := strings.Join(Header, ",") + "\n" +
		`"F-1","2024-01-01","Cable "UTP" 5m",Juan","X","Aceptada","100","16","0","116"` + "\n"
	res, err := ReadCSV(strings.NewReader(in), sequentialIDs())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(res.Tickets) != 1 {
		t.Fatalf("imported %d skipped %d", len(res.Tickets), res.Skipped)
	}
	if got := res.Tickets[0]; got.Title != "Cable UTP 5m" || got.Client != "Juan" {
		t.Errorf("title %q client %q", got.Title, got.Client)
	}
}

func TestReadCSVSkipsShortRows(t *testing.T) {
	in := "Folio,Fecha,Concepto,Cliente,RFC,Estado,Subtotal,IVA,ISR,MontoTotal\n" +
		`"A","2024-01-01","x","y","z","Aceptada","1","2"` + "\n" +
		`"B","2024-01-02","x","y","z","Aceptada","abc","2","0","116"` + "\r\n" +
		"\n"
	res, err := ReadCSV(strings.NewReader(in), sequentialIDs())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if res.Skipped != 1 || len(res.Tickets) != 1 {
		t.Fatalf("imported %d skipped %d", len(res.Tickets), res.Skipped)
	}
	tk := res.Tickets[0]
	if tk.Folio != "B" || tk.Subtotal != 0 || tk.IVA != 2 || tk.Amount != 116 {
		t.Errorf("ticket = %+v", tk)
	}
}

func TestReadCSVHeaderOnly(t *testing.T) {
	res, err := ReadCSV(strings.NewReader(strings.Join(Header, ",")), sequentialIDs())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(res.Tickets) != 0 {
		t.Fatalf("tickets = %d", len(res.Tickets))
	}
}

func TestRowsTypesAndStatus(t *testing.T) {
	q := &document.Quote{Record: document.Record{ID: "q1"}, Status: document.StatusPending}
	n := &document.Note{Record: document.Record{ID: "n1", Folio: "CV-00001"}}
	docs := append([]document.Document{q, n}, sampleTickets()...)

	rows := Rows(docs)
	wantTypes := []string{TypeQuote, TypeNote, TypeExpense, TypeTicket}
	for i, row := range rows {
		if row.Type != wantTypes[i] {
			t.Errorf("row %d type = %q, want %q", i, row.Type, wantTypes[i])
		}
	}
	if rows[0].Status != "Pendiente" || rows[1].Status != "Aceptada" {
		t.Errorf("statuses = %q, %q", rows[0].Status, rows[1].Status)
	}
	if rows[0].Folio != "q1" || rows[1].Folio != "CV-00001" {
		t.Errorf("folios = %q, %q", rows[0].Folio, rows[1].Folio)
	}
}

func TestWriteXLS(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLS(&buf, Rows(sampleTickets())); err != nil {
		t.Fatalf("WriteXLS: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<th>Tipo</th><th>Folio</th>",
		"<td>Gasto</td><td>CV-00012</td><td>2024-09-05</td>",
		"<td>Cable &#34;UTP&#34;</td>",
		"<td>1234.56</td></tr>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, Rows(sampleTickets())); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "Tipo" || rows[1][0] != TypeExpense || rows[1][1] != "CV-00012" {
		t.Errorf("rows = %v", rows[:2])
	}
	if rows[1][10] != "1234.56" {
		t.Errorf("amount cell = %q", rows[1][10])
	}
}

func TestFileNames(t *testing.T) {
	day := time.Date(2024, 9, 5, 23, 0, 0, 0, time.UTC)
	if got := CSVFileName(day); got != "IT_BACKUP_2024-09-05.csv" {
		t.Errorf("CSVFileName = %q", got)
	}
	if got := XLSFileName(day); got != "REPORT_TI_2024-09-05.xls" {
		t.Errorf("XLSFileName = %q", got)
	}
	if got := XLSXFileName(day); got != "REPORT_TI_2024-09-05.xlsx" {
		t.Errorf("XLSXFileName = %q", got)
	}
}
