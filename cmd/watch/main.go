package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"unrealforge.ai/internal/observer"
)

// watch tails the observer feed of a running server and prints build
// lifecycle events as they happen.

func main() {
	url := flag.String("url", "ws://127.0.0.1:8911/observer/ws", "observer feed url")
	flag.Parse()

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub := observer.SubscribeMsg{
		Type:            "SUBSCRIBE",
		ProtocolVersion: observer.Version,
	}
	if err := conn.WriteJSON(sub); err != nil {
		logger.Fatalf("send SUBSCRIBE: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var ev observer.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}
		switch ev.Type {
		case observer.EventHello:
			logger.Printf("connected (protocol %s)", ev.ProtocolVersion)
		case observer.EventStarted:
			logger.Printf("%s %s prefix=%s", ev.Type, ev.Build, ev.Prefix)
		case observer.EventProgress:
			logger.Printf("%s %s %d/%d", ev.Type, ev.Build, ev.Spawned, ev.Requested)
		case observer.EventEnded:
			failed := 0
			if f, ok := ev.Result["failed"].(float64); ok {
				failed = int(f)
			}
			logger.Printf("%s %s spawned=%d failed=%d", ev.Type, ev.Build, ev.Spawned, failed)
		}
	}
}
