package audit

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Logger appends events to a JSON lines file. A nil Logger or one with an
// empty path drops events.
type Logger struct {
	path string
	mu   sync.Mutex
}

type Event struct {
	Timestamp string            `json:"timestamp"`
	Operation string            `json:"operation"`
	Phase     string            `json:"phase"`
	Status    string            `json:"status"`
	Code      string            `json:"code,omitempty"`
	Message   string            `json:"message,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

func New(path string) *Logger {
	return &Logger{path: path}
}

func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Logger) Log(ev Event) error {
	if l == nil || l.path == "" {
		return nil
	}
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	blob, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(blob, '\n')); err != nil {
		return err
	}
	return nil
}

// Report records a failed operation. It satisfies the injector's error
// reporter; write failures of the log itself are dropped.
func (l *Logger) Report(operation, phase string, err error, fields map[string]string) {
	if err == nil {
		return
	}
	_ = l.Log(Event{
		Operation: operation,
		Phase:     phase,
		Status:    StatusError,
		Code:      codeOf(err),
		Message:   err.Error(),
		Fields:    fields,
	})
}

// Coder is implemented by errors that carry a stable code.
type Coder interface {
	Code() string
}

func codeOf(err error) string {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}
