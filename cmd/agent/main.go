package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/iwanturequity/proctoring-service/internal/models"
	"github.com/iwanturequity/proctoring-service/internal/proctor"
	"github.com/iwanturequity/proctoring-service/internal/report"
)

// detection is one line of agent input: the observation a detector emitted.
type detection struct {
	EventType string                 `json:"eventType"`
	Message   string                 `json:"message"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// The agent drives one proctoring session from a stream of detection events
// (JSON lines on stdin or a file). It keeps the authoritative local log,
// mirrors to the backend when reachable, and always writes the local CSV
// report at the end — the same fallback the web client uses when the backend
// is down.
func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "Base URL of the proctoring backend")
		candidateID = flag.String("candidate-id", "", "Candidate ID (generated when empty)")
		name        = flag.String("name", "", "Candidate name (required)")
		input       = flag.String("input", "-", "JSONL event input file, or - for stdin")
		output      = flag.String("output", "", "CSV report path (default: ProctoringReport_<candidateId>_<millis>.csv)")
	)
	flag.Parse()

	if *name == "" {
		log.Fatal("candidate -name is required")
	}

	in := os.Stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		in = f
	}

	sessionLog := proctor.NewSessionLog(*candidateID, *name)
	gateway := proctor.NewGateway(*baseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	connected := gateway.TestConnection(ctx)
	cancel()
	log.Printf("backend %s: connected=%v", *baseURL, connected)

	startEvent := sessionLog.Append(models.EventInterviewStart, "Interview session started", nil)
	if connected {
		gateway.NotifySession(sessionLog.StartUpsert())
		gateway.NotifyEvent(startEvent)
	}

	if err := run(sessionLog, gateway, connected, in); err != nil {
		log.Fatal(err)
	}

	end := time.Now().UTC()
	stats := sessionLog.LiveStats()
	endEvent := sessionLog.Append(models.EventInterviewEnd, "Interview session completed", map[string]interface{}{
		"totalEvents":    stats.TotalEvents,
		"integrityScore": stats.IntegrityScore,
	})
	if connected {
		gateway.NotifyEvent(endEvent)
		gateway.NotifySession(sessionLog.EndUpsert(end))
		gateway.Flush()
	}

	fmt.Printf("session %s: events=%d focusLost=%d suspicious=%d integrityScore=%d\n",
		sessionLog.SessionID(), stats.TotalEvents, stats.FocusLostCount,
		stats.SuspiciousEvents, stats.IntegrityScore)

	csv, err := report.BuildCSV(nil, sessionLog.Events())
	if err != nil {
		log.Fatal(err)
	}

	path := *output
	if path == "" {
		path = report.Filename(sessionLog.CandidateID(), end)
	}
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		log.Fatal(err)
	}
	log.Printf("local report written to %s", path)
}

// run consumes detection lines, appending each to the local log and mirroring
// it to the backend. Malformed or unknown-type lines are logged and skipped;
// one bad detector output must not end the session.
func run(sessionLog *proctor.SessionLog, gateway *proctor.Gateway, connected bool, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var d detection
		if err := json.Unmarshal(line, &d); err != nil {
			log.Printf("skipping malformed line: %v", err)
			continue
		}
		if !models.ValidEventType(d.EventType) {
			log.Printf("skipping unknown event type %q", d.EventType)
			continue
		}

		ev := sessionLog.Append(d.EventType, d.Message, d.Meta)
		if connected {
			gateway.NotifyEvent(ev)
		}

		stats := sessionLog.LiveStats()
		log.Printf("%s | focusLost=%d suspicious=%d score=%d",
			d.EventType, stats.FocusLostCount, stats.SuspiciousEvents, stats.IntegrityScore)
	}
	return scanner.Err()
}
