package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ WorkingMemoryEventListener = DefaultWorkingMemoryEventListener{}
	_ AgendaEventListener        = DefaultAgendaEventListener{}
	_ ProcessEventListener       = DefaultProcessEventListener{}
	_ EventListener              = EventListenerFunc(nil)
)

func TestParseType(t *testing.T) {
	for _, typ := range Types() {
		got, err := ParseType(string(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	_, err := ParseType("object_exploded")
	assert.ErrorContains(t, err, "object_exploded")
}

func TestTypesReturnsCopy(t *testing.T) {
	types := Types()
	require.Len(t, types, 19)
	types[0] = "changed"
	assert.Equal(t, TypeObjectInserted, Types()[0])
}

func TestEventListenerFunc(t *testing.T) {
	var got []Type
	l := EventListenerFunc(func(ev Event) { got = append(got, ev.Type()) })

	l.OnEvent(NewAgendaGroup(TypeAgendaGroupPushed, nil, nil))
	assert.Equal(t, []Type{TypeAgendaGroupPushed}, got)
}
