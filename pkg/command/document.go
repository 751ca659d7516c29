package command

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Format is a batch document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported batch format %q", s)
	}
}

// FormatFromPath picks the format from a file extension. Unknown extensions
// are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// DocumentFact is the fact type inserted by batch documents. It is always
// inserted by pointer so every document object has its own identity.
type DocumentFact struct {
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Field returns a field value.
func (f *DocumentFact) Field(name string) any {
	return f.Fields[name]
}

func (f *DocumentFact) String() string {
	return fmt.Sprintf("%s%v", f.Type, f.Fields)
}

// TypeFilter selects DocumentFacts of one type. Empty matches every fact.
func TypeFilter(typ string) func(object any) bool {
	if typ == "" {
		return nil
	}
	return func(object any) bool {
		f, ok := object.(*DocumentFact)
		return ok && f.Type == typ
	}
}

type document struct {
	Lookup   string                       `json:"lookup"`
	Commands []map[string]json.RawMessage `json:"commands"`
}

type (
	insertSpec struct {
		Object     DocumentFact `json:"object"`
		Out        string       `json:"out-identifier"`
		EntryPoint string       `json:"entry-point"`
	}
	insertElementsSpec struct {
		Objects    []DocumentFact `json:"objects"`
		Out        string         `json:"out-identifier"`
		EntryPoint string         `json:"entry-point"`
	}
	fireSpec struct {
		Max int    `json:"max"`
		Out string `json:"out-identifier"`
	}
	setGlobalSpec struct {
		Identifier string `json:"identifier"`
		Object     any    `json:"object"`
		Out        string `json:"out-identifier"`
	}
	getGlobalSpec struct {
		Identifier string `json:"identifier"`
		Out        string `json:"out-identifier"`
	}
	getObjectsSpec struct {
		Type string `json:"type"`
		Out  string `json:"out-identifier"`
	}
	querySpec struct {
		Name      string `json:"name"`
		Arguments []any  `json:"arguments"`
		Out       string `json:"out-identifier"`
	}
	startProcessSpec struct {
		ProcessID  string         `json:"process-id"`
		Parameters map[string]any `json:"parameters"`
		Out        string         `json:"out-identifier"`
	}
	signalSpec struct {
		EventType         string `json:"event-type"`
		Event             any    `json:"event"`
		ProcessInstanceID int64  `json:"process-instance-id"`
	}
	abortSpec struct {
		ProcessInstanceID int64 `json:"process-instance-id"`
	}
	deleteSpec struct {
		FactHandle string `json:"fact-handle"`
	}
	updateSpec struct {
		FactHandle string       `json:"fact-handle"`
		Object     DocumentFact `json:"object"`
	}
)

// DecodeDocument parses a batch document, validates it against BatchSchema
// and builds the batch.
func DecodeDocument(data []byte, format Format) (*Batch, error) {
	raw, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}
	if err := ValidateDocument(raw); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse batch: %w", err)
	}

	batch := NewBatch()
	batch.Lookup = doc.Lookup
	for i, entry := range doc.Commands {
		for name, body := range entry {
			cmd, err := buildCommand(name, body)
			if err != nil {
				return nil, fmt.Errorf("command %d (%s): %w", i, name, err)
			}
			batch.Append(cmd)
		}
	}
	return batch, nil
}

// ValidateDocument checks JSON document bytes against BatchSchema.
func ValidateDocument(raw []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(BatchSchema), gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("batch validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func toJSON(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return data, nil
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to parse yaml batch: %w", err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to convert yaml batch: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported batch format %q", format)
	}
}

func newFact(f DocumentFact) *DocumentFact {
	return &DocumentFact{Type: f.Type, Fields: f.Fields}
}

func buildCommand(name string, body json.RawMessage) (Command, error) {
	switch name {
	case "insert":
		var s insertSpec
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		return &Insert{Object: newFact(s.Object), OutIdentifier: s.Out, EntryPoint: s.EntryPoint}, nil
	case "insert-elements":
		var s insertElementsSpec
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		objects := make([]any, len(s.Objects))
		for i, f := range s.Objects {
			objects[i] = newFact(f)
		}
		return &InsertElements{Objects: objects, OutIdentifier: s.Out, EntryPoint: s.EntryPoint}, nil
	case "fire-all-rules":
		var s fireSpec
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		return &FireAllRules{Max: s.Max, OutIdentifier: s.Out}, nil
	case "set-global":
		var s setGlobalSpec
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		return &SetGlobal{Identifier: s.Identifier, Object: s.Object, OutIdentifier: s.Out}, nil
	case "get-global":
		var s getGlobalSpec
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		return &GetGlobal{Identifier: s.Identifier, OutIdentifier: s.Out}, nil
	case "get-objects":
		var s getObjectsSpec
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		return &GetObjects{Filter: TypeFilter(s.Type), OutIdentifier: s.Out}, nil
	case "query":
		var s querySpec
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		return &Query{Name: s.Name, Args: s.Arguments, OutIdentifier: s.Out}, nil
	case "start-process":
		var s startProcessSpec
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		return &StartProcess{ProcessID: s.ProcessID, Parameters: s.Parameters, OutIdentifier: s.Out}, nil
	case "signal-event":
		var s signalSpec
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		return &SignalEvent{EventType: s.EventType, Event: s.Event, ProcessInstanceID: s.ProcessInstanceID}, nil
	case "abort-process-instance":
		var s abortSpec
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		return &AbortProcessInstance{ProcessInstanceID: s.ProcessInstanceID}, nil
	case "delete":
		var s deleteSpec
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		return &Delete{HandleRef: s.FactHandle}, nil
	case "update":
		var s updateSpec
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		return &Update{HandleRef: s.FactHandle, Object: newFact(s.Object)}, nil
	default:
		return nil, fmt.Errorf("unknown command")
	}
}
