// graphshell is an interactive CLI for a graphcore database directory.
//
// Usage:
//
//	graphshell <db-dir>
//
// Commands (in REPL):
//
//	create <table> <col:type> [col:type ...]   Create a node table
//	insert <table> <v1> [v2 ...]               Insert one row
//	scan <table>                               Print every row
//	tables                                     List tables
//	help                                       Show this help
//	exit / quit / q                            Exit
//
// Column types: int8 int16 int32 int64 uint8 uint16 uint32 uint64
// float double bool.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/latticedb/graphcore/pkg/catalog"
	"github.com/latticedb/graphcore/pkg/database"
	"github.com/latticedb/graphcore/pkg/gtype"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: graphshell <db-dir>")
		os.Exit(1)
	}

	db, err := database.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "graphshell: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	r := &REPL{db: db, conn: db.Connect()}
	if err := r.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "graphshell: %v\n", err)
		os.Exit(1)
	}
}

// REPL is the interactive command loop, grounded on the teacher's sloty
// REPL shape (peterh/liner for readline-style input and history, a
// switch over the first whitespace-separated token).
type REPL struct {
	db   *database.Database
	conn *database.Connection
	in   *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".graphshell_history")
}

func (r *REPL) Run() error {
	r.in = liner.NewLiner()
	defer r.in.Close()

	r.in.SetCtrlCAborts(true)
	r.in.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.in.ReadHistory(f)
		f.Close()
	}

	fmt.Println("graphshell - graphcore CLI")
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.in.Prompt("graphshell> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.in.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()
			return nil
		case "help", "?":
			r.printHelp()
		case "create":
			r.cmdCreate(args)
		case "insert":
			r.cmdInsert(args)
		case "scan":
			r.cmdScan(args)
		case "tables":
			r.cmdTables()
		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()
	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.in.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{"create", "insert", "scan", "tables", "help", "exit", "quit", "q"}
	var out []string
	lower := strings.ToLower(line)
	for _, c := range commands {
		if strings.HasPrefix(c, lower) {
			out = append(out, c)
		}
	}
	return out
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  create <table> <col:type> [...]   Create a node table")
	fmt.Println("  insert <table> <v1> [v2 ...]       Insert one row (first value is the primary key)")
	fmt.Println("  scan <table>                       Print every row")
	fmt.Println("  tables                             List tables")
	fmt.Println("  help                               Show this help")
	fmt.Println("  exit / quit / q                    Exit")
	fmt.Println()
	fmt.Println("Column types: int8 int16 int32 int64 uint8 uint16 uint32 uint64 float double bool")
}

func parseType(s string) (gtype.LogicalType, error) {
	switch strings.ToLower(s) {
	case "int8":
		return gtype.Int8(), nil
	case "int16":
		return gtype.Int16(), nil
	case "int32":
		return gtype.Int32(), nil
	case "int64":
		return gtype.Int64(), nil
	case "uint8":
		return gtype.UInt8(), nil
	case "uint16":
		return gtype.UInt16(), nil
	case "uint32":
		return gtype.UInt32(), nil
	case "uint64":
		return gtype.UInt64(), nil
	case "float":
		return gtype.Float(), nil
	case "double":
		return gtype.Double(), nil
	case "bool":
		return gtype.Bool(), nil
	default:
		return gtype.LogicalType{}, fmt.Errorf("unknown column type %q", s)
	}
}

func (r *REPL) cmdCreate(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: create <table> <col:type> [col:type ...]")
		return
	}

	name := args[0]
	var cols []catalog.Column
	for _, spec := range args[1:] {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 {
			fmt.Printf("invalid column spec %q, expected name:type\n", spec)
			return
		}
		typ, err := parseType(parts[1])
		if err != nil {
			fmt.Println(err)
			return
		}
		cols = append(cols, catalog.Column{Name: parts[0], Type: typ})
	}

	if _, err := r.db.CreateNodeTable(name, cols); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("created table %s (%d columns)\n", name, len(cols))
}

func (r *REPL) cmdInsert(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: insert <table> <v1> [v2 ...]")
		return
	}

	table, ok := r.db.Table(args[0])
	if !ok {
		fmt.Printf("no such table %q\n", args[0])
		return
	}

	values := make([]gtype.StorageValue, len(args)-1)
	for i, a := range args[1:] {
		if a == "true" || a == "false" {
			var v int64
			if a == "true" {
				v = 1
			}
			values[i] = gtype.StorageValueFromInt64(v)
			continue
		}
		n, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			fmt.Printf("cannot parse value %q as an integer: %v\n", a, err)
			return
		}
		values[i] = gtype.StorageValueFromInt64(n)
	}

	r.conn.BeginWrite()
	rowID, err := r.conn.Insert(table, values)
	if err != nil {
		r.conn.Rollback()
		fmt.Printf("error: %v\n", err)
		return
	}
	if err := r.conn.Commit(); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("inserted row %d\n", rowID)
}

func (r *REPL) cmdScan(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: scan <table>")
		return
	}

	t, ok := r.db.Catalog().Lookup(args[0])
	if !ok {
		fmt.Printf("no such table %q\n", args[0])
		return
	}
	storage, ok := r.db.Table(args[0])
	if !ok {
		fmt.Printf("no such table %q\n", args[0])
		return
	}

	names := make([]string, len(t.Columns))
	types := make([]gtype.LogicalType, len(t.Columns))
	cols := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
		types[i] = c.Type
		cols[i] = i
	}

	res := r.conn.Scan(storage, names, types, cols)
	if !res.Success() {
		fmt.Printf("error: %s\n", res.ErrorMessage())
		return
	}

	fmt.Println(strings.Join(names, "\t"))
	for {
		row, ok, err := res.Next()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		if !ok {
			return
		}
		fields := make([]string, len(row.Values))
		for i, v := range row.Values {
			if row.Nulls[i] {
				fields[i] = "NULL"
			} else {
				fields[i] = strconv.FormatInt(v.Int64(), 10)
			}
		}
		fmt.Println(strings.Join(fields, "\t"))
	}
}

func (r *REPL) cmdTables() {
	for _, t := range r.db.Catalog().Tables() {
		kind := "node"
		if t.Kind == catalog.KindRel {
			kind = "rel"
		}
		fmt.Printf("%s (%s, %d columns)\n", t.Name, kind, len(t.Columns))
	}
}
