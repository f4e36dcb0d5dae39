package inspect

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/scribe-editor/scribe/internal/document"
)

// eventFilter wraps a compiled CEL program evaluated per event during
// inspect and export. When disabled, Match always returns true.
type eventFilter struct {
	prog    cel.Program
	enabled bool
}

func newEventFilter(expr string) (eventFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return eventFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("seq", cel.IntType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("type", cel.StringType),
		cel.Variable("user", cel.StringType),
		cel.Variable("group", cel.StringType),
		cel.Variable("sampled", cel.BoolType),
		cel.Variable("group_start", cel.BoolType),
		cel.Variable("group_end", cel.BoolType),
		// Parsed payload for field-level filtering, e.g. json.shapeId == "s1"
		cel.Variable("json", cel.DynType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return eventFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return eventFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return eventFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return eventFilter{}, err
	}
	return eventFilter{prog: prog, enabled: true}, nil
}

// Match evaluates the expression against one event. Evaluation errors count
// as no match.
func (f eventFilter) Match(ev document.Event) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	if raw, err := json.Marshal(ev.Payload); err == nil {
		_ = json.Unmarshal(raw, &jsonObj)
	}
	out, _, err := f.prog.Eval(map[string]any{
		"seq":         int64(ev.Seq),
		"ts_ms":       ev.TimestampMs,
		"type":        string(ev.Type),
		"user":        ev.UserID,
		"group":       ev.GroupID,
		"sampled":     ev.SamplingIntervalMs > 0,
		"group_start": ev.GroupStart,
		"group_end":   ev.GroupEnd,
		"json":        jsonObj,
		"now_ms":      time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
