package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"unrealforge.ai/internal/editor"
	"unrealforge.ai/internal/editorsim"
)

func main() {
	defaultListen := net.JoinHostPort(editor.DefaultHost, strconv.Itoa(editor.DefaultPort))
	listen := flag.String("listen", defaultListen, "tcp listen address for the command socket")
	flag.Parse()

	logger := log.New(os.Stdout, "[editorsim] ", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := signalContext()
	defer cancel()

	srv := editorsim.NewServer(editorsim.New(), logger)
	logger.Printf("listening on %s", *listen)
	if err := srv.ListenAndServe(ctx, *listen); err != nil {
		logger.Fatalf("serve: %v", err)
	}
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
