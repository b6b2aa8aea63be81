package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"taskora/internal/apiclient"
	"taskora/internal/domain"
)

// ws_smoke subscribes to the task feed of a running API, creates and deletes
// a probe task, and checks that both events arrive.
func main() {
	apiURL := flag.String("api", "http://127.0.0.1:5000/api", "task API base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "overall deadline")
	flag.Parse()

	var opts []apiclient.Option
	if token := os.Getenv("TASKORA_TOKEN"); token != "" {
		opts = append(opts, apiclient.WithToken(token))
	}
	client := apiclient.New(*apiURL, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ready := make(chan struct{})
	events := make(chan domain.TaskEvent, 8)
	subErr := make(chan error, 1)
	go func() {
		subErr <- client.Subscribe(ctx, func() { close(ready) }, func(ev domain.TaskEvent) { events <- ev })
	}()

	select {
	case <-ready:
	case err := <-subErr:
		log.Fatalf("subscribe: %v", err)
	case <-ctx.Done():
		log.Fatal("no ready message from feed")
	}

	title := fmt.Sprintf("ws smoke %d", time.Now().UnixNano())
	task, err := client.CreateTask(ctx, apiclient.TaskInput{Title: title, Status: "pending"})
	if err != nil {
		log.Fatalf("create probe: %v", err)
	}
	if err := client.DeleteTask(ctx, task.ID); err != nil {
		log.Fatalf("delete probe: %v", err)
	}

	want := map[domain.EventType]bool{domain.EventTaskCreated: false, domain.EventTaskDeleted: false}
	for remaining := len(want); remaining > 0; {
		select {
		case ev := <-events:
			if ev.TaskID != task.ID {
				continue
			}
			if seen, ok := want[ev.Type]; ok && !seen {
				want[ev.Type] = true
				remaining--
				log.Printf("got %s for %s", ev.Type, ev.TaskID)
			}
		case <-ctx.Done():
			log.Fatalf("missing events: %v", want)
		}
	}

	log.Println("smoke test finished")
}
