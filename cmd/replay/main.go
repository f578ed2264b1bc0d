package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/klauspost/compress/zstd"

	"unrealforge.ai/internal/editor"
	"unrealforge.ai/internal/protocol"
	"unrealforge.ai/internal/transcript"
)

// replay re-issues commands recorded in transcript files against a live
// editor, in recorded order. With -dry-run it only prints what it would
// send.

func main() {
	var (
		path       = flag.String("transcript", "", "transcript file or directory of transcript-*.jsonl.zst")
		host       = flag.String("editor-host", editor.DefaultHost, "editor host")
		port       = flag.Int("editor-port", editor.DefaultPort, "editor port")
		filter     = flag.String("filter", "", "only replay commands of this type (optional)")
		skipFailed = flag.Bool("skip-failed", false, "skip entries whose recorded exchange failed")
		dryRun     = flag.Bool("dry-run", false, "print commands without sending them")
	)
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "missing -transcript")
		os.Exit(2)
	}

	files, err := transcriptFiles(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list transcripts:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no transcript files found at", *path)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	var client *editor.Client
	if !*dryRun {
		client = editor.NewClient(editor.Config{Host: *host, Port: *port}, nil, nil)
	}

	var tally struct {
		sent, failed, skipped int
	}
	for _, f := range files {
		err := replayFile(ctx, client, f, *filter, *skipFailed, &tally.sent, &tally.failed, &tally.skipped)
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("replay done: sent=%d failed=%d skipped=%d (files=%d)\n", tally.sent, tally.failed, tally.skipped, len(files))
}

func transcriptFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	ents, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "transcript-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(path, name))
	}
	return out, nil
}

func replayFile(ctx context.Context, client *editor.Client, path, filter string, skipFailed bool, sent, failed, skipped *int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var entry transcript.Entry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if filter != "" && entry.Command != filter {
			*skipped++
			continue
		}
		if skipFailed && (entry.Fault != "" || entry.Status != protocol.StatusSuccess) {
			*skipped++
			continue
		}
		if client == nil {
			params, _ := json.Marshal(entry.Params)
			fmt.Printf("%s %s %s\n", entry.Time, entry.Command, params)
			*sent++
			continue
		}
		resp := client.Send(ctx, entry.Command, entry.Params)
		if resp.IsError() {
			*failed++
			fmt.Fprintf(os.Stderr, "%s: %s\n", entry.Command, resp.ErrorMessage())
			continue
		}
		*sent++
	}
	return sc.Err()
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
