package trace

import (
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/thomasrohde/svenska/pkg/lexer"
)

// JSONL writes events as newline-delimited JSON, one object per line.
type JSONL struct {
	enc   *json.Encoder
	runID string
	now   func() time.Time
	err   error
}

// NewJSONL creates a JSONL tracer with a fresh run ID.
func NewJSONL(w io.Writer) *JSONL {
	return &JSONL{
		enc:   json.NewEncoder(w),
		runID: uuid.NewString(),
		now:   time.Now,
	}
}

// RunID returns the ID stamped on every event.
func (j *JSONL) RunID() string { return j.runID }

// Err returns the first write error, if any.
func (j *JSONL) Err() error {
	return j.err
}

// Tokens writes a single tokens event carrying the stream length.
func (j *JSONL) Tokens(tokens []lexer.Token) {
	j.Emit(Event{Event: EventTokens, Data: map[string]string{"count": strconv.Itoa(len(tokens))}})
}

// Emit stamps and writes e.
func (j *JSONL) Emit(e Event) {
	if j.err != nil {
		return
	}
	e.Timestamp = j.now().UTC().Format(time.RFC3339Nano)
	e.RunID = j.runID
	j.err = j.enc.Encode(e)
}
