// Package editor is the rendering and interaction engine of a graph view.
//
// A [GraphEditor] owns a retained SVG scene (pkg/scene) and maps nodes and
// edges onto it through templates resolved by the object cache. Hosts drive
// it explicitly:
//
//	ed := editor.New(editor.Options{Logger: logger})
//	ed.SetNodeTemplates(template.ServiceViewNodes())
//	ed.SetMarkerTemplates(template.Markers())
//	ed.Init(800, 600)
//	ed.SetNodes(nodes)
//	ed.SetEdges(edges)
//	ed.Render()
//	ed.ZoomToBoundingBox(true)
//	ed.WriteSVG(w)
//
// # Reconciliation
//
// [GraphEditor.Render] compares the desired nodes and edges with the scene by
// id: new ids get fresh elements from their template, vanished ids are
// removed and retained ids are updated in place. Edges whose endpoints are not
// present are skipped until a later render.
//
// # Interaction
//
// Pointer input is replayed by the host through ClickNode, HoverNode,
// MoveNode, StartEdgeDrag and friends. The engine answers with events
// ([EventNodeClick], [EventNodeMove], ...) delivered to listeners registered
// with [GraphEditor.AddEventListener]. Cancelable events can be vetoed with
// [Event.PreventDefault].
//
// Styling hooks are predicates: SetNodeClass and SetEdgeClass decide for each
// configured class name whether an element carries it.
//
// A GraphEditor is not safe for concurrent use.
package editor
