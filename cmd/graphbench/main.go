// graphbench is an in-process micro-benchmark CLI for the storage (C1)
// and join-probe (C2) cores, driving pkg/database directly rather than
// shelling out to an external harness.
//
// Usage:
//
//	graphbench [--rows N] [--db dir] [--join-build M --join-probe P]
package main

import (
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/latticedb/graphcore/pkg/catalog"
	"github.com/latticedb/graphcore/pkg/database"
	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/probe"
)

func main() {
	flags := flag.NewFlagSet("graphbench", flag.ContinueOnError)
	rows := flags.IntP("rows", "n", 100_000, "rows to insert for the scan benchmark")
	dbDir := flags.StringP("db", "d", "", "database directory (default: a temp dir)")
	buildRows := flags.Int("join-build", 50_000, "build-side rows for the join benchmark")
	probeRows := flags.Int("join-probe", 200_000, "probe-side rows for the join benchmark")

	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	dir := *dbDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "graphbench-*")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	if err := runScanBenchmark(dir, *rows); err != nil {
		fmt.Fprintln(os.Stderr, "scan benchmark:", err)
		os.Exit(1)
	}

	runJoinBenchmark(*buildRows, *probeRows)
}

// runScanBenchmark inserts rows sequential integer rows into a fresh
// node table, flushes, then times a full scan -- exercising the column
// chunk compression path (component C) and the page cache (component
// A) end to end.
func runScanBenchmark(dir string, rows int) error {
	db, err := database.Open(dir)
	if err != nil {
		return err
	}
	defer db.Close()

	table, err := db.CreateNodeTable("bench_nodes", []catalog.Column{
		{Name: "id", Type: gtype.Int64()},
		{Name: "value", Type: gtype.Int64()},
	})
	if err != nil {
		return err
	}

	conn := db.Connect()

	insertStart := time.Now()
	conn.BeginWrite()
	for i := 0; i < rows; i++ {
		values := []gtype.StorageValue{
			gtype.StorageValueFromInt64(int64(i)),
			gtype.StorageValueFromInt64(int64(i) * 2),
		}
		if _, err := conn.Insert(table, values); err != nil {
			conn.Rollback()
			return err
		}
	}
	if err := conn.Commit(); err != nil {
		return err
	}
	insertElapsed := time.Since(insertStart)

	if err := table.Flush(); err != nil {
		return err
	}

	scanStart := time.Now()
	res := conn.Scan(table, []string{"id", "value"}, []gtype.LogicalType{gtype.Int64(), gtype.Int64()}, []int{0, 1})
	n := 0
	for {
		_, ok, err := res.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		n++
	}
	scanElapsed := time.Since(scanStart)

	fmt.Printf("scan benchmark: %d rows, insert %s (%.0f rows/s), scan %s (%.0f rows/s), read back %d rows\n",
		rows, insertElapsed, float64(rows)/insertElapsed.Seconds(),
		scanElapsed, float64(n)/scanElapsed.Seconds(), n)

	return nil
}

// runJoinBenchmark builds a factorized table of buildRows integer keys
// and probes it with probeRows keys half of which exist, timing the
// build and probe phases separately (component G/H).
func runJoinBenchmark(buildRows, probeRows int) {
	buildKeys := make([]gtype.StorageValue, buildRows)
	payload := make([]gtype.StorageValue, buildRows)
	for i := 0; i < buildRows; i++ {
		buildKeys[i] = gtype.StorageValueFromInt64(int64(i))
		payload[i] = gtype.StorageValueFromInt64(int64(i) * 10)
	}

	probeKeys := make([]gtype.StorageValue, probeRows)
	for i := 0; i < probeRows; i++ {
		probeKeys[i] = gtype.StorageValueFromInt64(int64(i % (buildRows * 2)))
	}

	dir, err := os.MkdirTemp("", "graphbench-join-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, "join benchmark:", err)
		return
	}
	defer os.RemoveAll(dir)

	db, err := database.Open(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "join benchmark:", err)
		return
	}
	defer db.Close()

	start := time.Now()

	names := []string{"key", "payload"}
	types := []gtype.LogicalType{gtype.Int64(), gtype.Int64()}
	conn := db.Connect()
	res := conn.Join(names, types, probe.KindInner, buildKeys, [][]gtype.StorageValue{payload}, probeKeys)
	matches := 0
	for {
		_, ok, err := res.Next()
		if err != nil {
			fmt.Fprintln(os.Stderr, "join benchmark:", err)
			return
		}
		if !ok {
			break
		}
		matches++
	}
	elapsed := time.Since(start)

	fmt.Printf("join benchmark: build=%d probe=%d matches=%d elapsed=%s (%.0f probes/s)\n",
		buildRows, probeRows, matches, elapsed, float64(probeRows)/elapsed.Seconds())
}
