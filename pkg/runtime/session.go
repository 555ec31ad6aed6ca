package runtime

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/quillmath/quill/pkg/types"
)

// Session is the serializable part of an engine: its configuration and
// the user-defined functions, stored as YAML.
type Session struct {
	Precision int      `yaml:"precision"`
	AngleMode string   `yaml:"angle_mode"`
	Functions []string `yaml:"functions"`
}

// LoadSession decodes a session from YAML.
func LoadSession(r io.Reader) (*Session, error) {
	var s Session
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &s, nil
}

// Apply configures the engine from the session and registers its
// function definitions.
func (s *Session) Apply(e *Engine) error {
	if s.Precision > 0 {
		e.SetPrecision(s.Precision)
	}
	switch s.AngleMode {
	case "degrees":
		e.SetAngleMode(types.Degrees)
	case "radians", "":
		e.SetAngleMode(types.Radians)
	default:
		return fmt.Errorf("unknown angle mode %q", s.AngleMode)
	}
	for _, def := range s.Functions {
		if _, err := e.DefineFunction(def); err != nil {
			return fmt.Errorf("defining %q: %w", def, err)
		}
	}
	return nil
}

// Snapshot captures the engine state as a session.
func Snapshot(e *Engine) *Session {
	cfg := e.Config()
	s := &Session{
		Precision: cfg.Precision,
		AngleMode: "radians",
	}
	if cfg.Angle == types.Degrees {
		s.AngleMode = "degrees"
	}
	for _, fd := range e.Functions() {
		s.Functions = append(s.Functions, fd.Source)
	}
	return s
}

// Save encodes the session as YAML.
func (s *Session) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(s)
}
