package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"unrealforge.ai/internal/history"
	"unrealforge.ai/internal/transcript"
)

// admin inspects the data a running server leaves behind: the command and
// build ledgers in history.db and the wire transcripts.

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "commands":
			commandsCmd(os.Args[2:])
			return
		case "builds":
			buildsCmd(os.Args[2:])
			return
		case "transcript":
			transcriptCmd(os.Args[2:])
			return
		case "stats":
			statsCmd(os.Args[2:])
			return
		}
	}
	statsCmd(os.Args[1:])
}

func openStore(path string) *history.Store {
	st, err := history.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	return st
}

func commandsCmd(args []string) {
	fs := flag.NewFlagSet("commands", flag.ExitOnError)
	db := fs.String("db", "./data/history.db", "history database path")
	limit := fs.Int("limit", 50, "rows to show")
	_ = fs.Parse(args)

	st := openStore(*db)
	defer st.Close()

	rows, err := st.RecentCommands(context.Background(), *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		line := fmt.Sprintf("%s %-28s %-8s %5dms", r.Time, r.Command, r.Status, r.DurationMS)
		if r.Error != "" {
			line += " " + r.Error
		}
		fmt.Println(line)
	}
}

func buildsCmd(args []string) {
	fs := flag.NewFlagSet("builds", flag.ExitOnError)
	db := fs.String("db", "./data/history.db", "history database path")
	limit := fs.Int("limit", 50, "rows to show")
	_ = fs.Parse(args)

	st := openStore(*db)
	defer st.Close()

	rows, err := st.RecentBuilds(context.Background(), *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		mark := ""
		if r.DryRun {
			mark = " dry-run"
		}
		fmt.Printf("%s %-12s prefix=%-16s spawned=%d/%d failed=%d %dms%s\n",
			r.Time, r.Build, r.Prefix, r.Spawned, r.Requested, r.Failed, r.ElapsedMS, mark)
	}
}

func statsCmd(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	db := fs.String("db", "./data/history.db", "history database path")
	_ = fs.Parse(args)

	st := openStore(*db)
	defer st.Close()

	stats, err := st.CommandStats(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	var total, errs int64
	for _, s := range stats {
		fmt.Printf("%-28s count=%-6d errors=%d\n", s.Command, s.Count, s.Errors)
		total += s.Count
		errs += s.Errors
	}
	fmt.Printf("total commands=%d errors=%d\n", total, errs)
}

func transcriptCmd(args []string) {
	fs := flag.NewFlagSet("transcript", flag.ExitOnError)
	file := fs.String("file", "", "transcript-*.jsonl.zst file")
	filter := fs.String("filter", "", "only show commands of this type")
	_ = fs.Parse(args)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		os.Exit(2)
	}
	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "zstd:", err)
		os.Exit(1)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var e transcript.Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			fmt.Fprintln(os.Stderr, "unmarshal:", err)
			os.Exit(1)
		}
		if *filter != "" && e.Command != *filter {
			continue
		}
		line := fmt.Sprintf("%s %-28s %-8s %5dms", e.Time, e.Command, e.Status, e.DurationMS)
		if e.Fault != "" {
			line += " fault=" + e.Fault
		}
		fmt.Println(line)
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
}
