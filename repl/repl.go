// repl (read eval print loop) adapts db to the command line, per spec.md
// §6: statements are text terminated by ';' outside quotes, '#' begins a
// line comment, and EOF exits.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jamishoo-go/oursqlgo/db"
)

const (
	// emptyRowValue is printed when the cell in a row is nil.
	emptyRowValue = "NULL"
	// emptyHeaderValue is printed when the cell in a header is empty
	emptyHeaderValue = "<anonymous>"
)

type repl struct {
	db *db.DB
}

func New(d *db.DB) *repl {
	return &repl{db: d}
}

// Run reads from in (STDIN in the CLI, or a script file named on the
// command line) a statement at a time, terminated by a top-level ';',
// executing and printing each one as it completes. Prompts go to STDERR
// so piped script output stays clean.
func (r *repl) Run(in io.Reader, interactive bool) {
	if interactive {
		fmt.Fprintln(os.Stderr, "Welcome to oursqlgo. Ctrl-D to exit")
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pending strings.Builder
	inQuote := false
	for {
		if interactive {
			fmt.Fprint(os.Stderr, "oursqlgo > ")
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		pending.WriteString(line)
		pending.WriteByte('\n')

		if statementComplete(line, &inQuote) {
			r.runAndPrint(pending.String())
			pending.Reset()
		}
	}
	if strings.TrimSpace(pending.String()) != "" {
		r.runAndPrint(pending.String())
	}
}

// statementComplete reports whether line ends (outside a quoted string and
// outside a '#' comment) with a ';', tracking quote state across lines via
// inQuote.
func statementComplete(line string, inQuote *bool) bool {
	complete := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if *inQuote {
			if c == '\\' {
				i++
				continue
			}
			if c == '\'' {
				*inQuote = false
			}
			continue
		}
		switch c {
		case '\'':
			*inQuote = true
			complete = false
		case '#':
			return complete
		case ';':
			complete = true
		default:
			if c != ' ' && c != '\t' {
				complete = false
			}
		}
	}
	return complete
}

func (r *repl) runAndPrint(sql string) {
	for _, result := range r.db.Execute(sql) {
		if result.Err != nil {
			fmt.Printf("Err: %s\n", result.Err.Error())
			continue
		}
		if result.Text != "" {
			fmt.Println(result.Text)
		}
		if len(result.Rows) != 0 || len(result.Header) != 0 {
			fmt.Println(r.printRows(result.Header, result.Rows))
		}
	}
}

func (r *repl) printRows(header []string, rows [][]*string) string {
	ret := ""
	widths := r.getWidths(header, rows)
	ret += r.printHeader(header, widths)
	ret += "\n"
	for _, row := range rows {
		ret += r.printRow(row, widths)
		ret += "\n"
	}
	if len(rows) == 0 {
		ret += "(0 rows)\n"
	}
	return ret
}

func (*repl) getWidths(header []string, rows [][]*string) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		size := len(h)
		if h == "" {
			size = len(emptyHeaderValue)
		}
		if size > widths[i] {
			widths[i] = size
		}
	}
	for _, row := range rows {
		for i, column := range row {
			size := len(emptyRowValue)
			if column != nil {
				size = len(*column)
			}
			if widths[i] < size {
				widths[i] = size
			}
		}
	}
	return widths
}

func (*repl) printHeader(header []string, widths []int) string {
	ret := ""
	for i, h := range header {
		v := h
		if v == "" {
			v = emptyHeaderValue
		}
		ret += fmt.Sprintf(" %-*s ", widths[i], v)
		if i != len(header)-1 {
			ret += "|"
		}
	}
	ret += "\n"
	for i := range header {
		ret += fmt.Sprintf("-%s-", strings.Repeat("-", widths[i]))
		if i != len(header)-1 {
			ret += "+"
		}
	}
	return ret
}

func (*repl) printRow(row []*string, widths []int) string {
	ret := ""
	for i, column := range row {
		v := emptyRowValue
		if column != nil {
			v = *column
		}
		ret += fmt.Sprintf(" %-*s ", widths[i], v)
		if i != len(row)-1 {
			ret += "|"
		}
	}
	return ret
}
