package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Summary aggregates an NDJSON trace file.
type Summary struct {
	RunID           string         `json:"runId"`
	TotalEvents     int            `json:"totalEvents"`
	Tokens          int            `json:"tokens"`
	Declarations    int            `json:"declarations"`
	Reassignments   int            `json:"reassignments"`
	Functions       int            `json:"functions"`
	Calls           int            `json:"calls"`
	CallsByName     map[string]int `json:"callsByName"`
	BranchesTaken   int            `json:"branchesTaken"`
	BranchesSkipped int            `json:"branchesSkipped"`
	Errors          int            `json:"errors"`
	Status          string         `json:"status,omitempty"`
	StartTime       string         `json:"startTime,omitempty"`
	EndTime         string         `json:"endTime,omitempty"`
	DurationMs      float64        `json:"durationMs"`
	InvalidLines    int            `json:"invalidLines,omitempty"`
}

// Summarize reads NDJSON trace events from r. Lines that are not valid
// events are counted and skipped.
func Summarize(r io.Reader) (*Summary, error) {
	summary := &Summary{
		CallsByName: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event Event
		if err := json.Unmarshal([]byte(line), &event); err != nil || event.Event == "" {
			summary.InvalidLines++
			continue
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch event.Event {
		case EventRunStart:
			if summary.StartTime == "" {
				summary.StartTime = event.Timestamp
			}
		case EventRunEnd:
			summary.EndTime = event.Timestamp
			summary.Status = event.Data["status"]
		case EventTokens:
			fmt.Sscan(event.Data["count"], &summary.Tokens)
		case EventDeclare:
			summary.Declarations++
		case EventReassign:
			summary.Reassignments++
		case EventFnDeclare:
			summary.Functions++
		case EventCall, EventBuiltin:
			summary.Calls++
			if event.Name != "" {
				summary.CallsByName[event.Name]++
			}
		case EventBranchTaken, EventElseTaken:
			summary.BranchesTaken++
		case EventBranchSkipped:
			summary.BranchesSkipped++
		case EventError:
			summary.Errors++
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, err
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := parseTime(summary.StartTime)
		end, err2 := parseTime(summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Microseconds()) / 1000
		}
	}

	return summary, nil
}

// WriteText prints the summary in human-readable form.
func (s *Summary) WriteText(w io.Writer) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	if s.Status != "" {
		fmt.Fprintf(w, "Status: %s\n", s.Status)
	}
	fmt.Fprintf(w, "Events: %d (%d tokens)\n", s.TotalEvents, s.Tokens)
	fmt.Fprintf(w, "Declarations: %d, reassignments: %d, functions: %d\n",
		s.Declarations, s.Reassignments, s.Functions)
	fmt.Fprintf(w, "Calls: %d\n", s.Calls)
	names := make([]string, 0, len(s.CallsByName))
	for name := range s.CallsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, s.CallsByName[name])
	}
	fmt.Fprintf(w, "Branches: %d taken, %d skipped\n", s.BranchesTaken, s.BranchesSkipped)
	fmt.Fprintf(w, "Errors: %d\n", s.Errors)
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.3fms\n", s.DurationMs)
	}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
