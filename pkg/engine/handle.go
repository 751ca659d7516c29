package engine

import (
	"encoding/json"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// FactHandle is the stable reference to one inserted fact. Handles are
// compared by pointer identity.
type FactHandle struct {
	id         int64
	entryPoint string
	object     any
	token      string
	slot       int
}

func newFactHandle(id int64, entryPoint string, object any) *FactHandle {
	token, err := gonanoid.New(10)
	if err != nil {
		// crypto/rand failure; the numeric id alone is still unique per memory
		token = fmt.Sprintf("h%d", id)
	}
	return &FactHandle{
		id:         id,
		entryPoint: entryPoint,
		object:     object,
		token:      token,
		slot:       -1,
	}
}

// ID returns the memory-scoped numeric identifier.
func (h *FactHandle) ID() int64 { return h.id }

// EntryPoint returns the entry point that owns the fact.
func (h *FactHandle) EntryPoint() string { return h.entryPoint }

// Object returns the fact object, or nil once the fact was deleted.
func (h *FactHandle) Object() any { return h.object }

// ExternalForm renders the handle as "0:<id>:<token>".
func (h *FactHandle) ExternalForm() string {
	return fmt.Sprintf("0:%d:%s", h.id, h.token)
}

func (h *FactHandle) String() string { return h.ExternalForm() }

// MarshalJSON encodes the handle as its external form.
func (h *FactHandle) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.ExternalForm())
}
