package editor

import (
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/observability"
)

// EventType names an editor event.
type EventType string

// Editor events.
const (
	EventNodeAdd        EventType = "nodeadd"
	EventNodeRemove     EventType = "noderemove"
	EventNodeClick      EventType = "nodeclick"
	EventNodeEnter      EventType = "nodeenter"
	EventNodeLeave      EventType = "nodeleave"
	EventNodeMove       EventType = "nodemove"
	EventEdgeAdd        EventType = "edgeadd"
	EventEdgeRemove     EventType = "edgeremove"
	EventEdgeClick      EventType = "edgeclick"
	EventEdgeDrop       EventType = "edgedrop"
	EventSelection      EventType = "selection"
	EventModeChange     EventType = "modechange"
	EventZoomModeChange EventType = "zoommodechange"
)

// Event carries the details of one editor event. Only the fields relevant to
// the event type are set.
type Event struct {
	Type EventType

	Node    *graph.Node
	Edge    *graph.Edge
	Dragged *graph.DraggedEdge

	// Key is the data-click value of the clicked template element.
	Key string

	OldMode string
	NewMode string

	Selection []string

	cancelable bool
	canceled   bool
}

// PreventDefault cancels the default action of a cancelable event.
func (e *Event) PreventDefault() {
	if e.cancelable {
		e.canceled = true
	}
}

// DefaultPrevented reports whether a listener canceled the event.
func (e *Event) DefaultPrevented() bool { return e.canceled }

// Cancelable reports whether PreventDefault has an effect.
func (e *Event) Cancelable() bool { return e.cancelable }

// Listener receives editor events.
type Listener func(*Event)

type listenerEntry struct {
	id int
	fn Listener
}

// AddEventListener registers fn for events of type t. The returned function
// removes the listener.
func (g *GraphEditor) AddEventListener(t EventType, fn Listener) (remove func()) {
	g.nextListener++
	id := g.nextListener
	g.listeners[t] = append(g.listeners[t], listenerEntry{id: id, fn: fn})
	return func() {
		entries := g.listeners[t]
		for i, e := range entries {
			if e.id == id {
				g.listeners[t] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}
}

// dispatch delivers ev to all listeners in registration order and reports
// whether the default action should run.
func (g *GraphEditor) dispatch(ev *Event) bool {
	for _, l := range append([]listenerEntry(nil), g.listeners[ev.Type]...) {
		l.fn(ev)
	}
	observability.Graph().OnEvent(string(ev.Type), ev.canceled)
	return !ev.canceled
}
