// Package graph defines the node and edge model shared by the editor, the
// object cache and the reconcilers, plus the wire types of dependency-graph
// snapshots.
//
// # Architecture
//
// Two families of types live here:
//
//   - [Node], [Edge], [Marker], [DraggedEdge]: the mutable model rendered by
//     pkg/editor. Nodes are shared by pointer between the editor and the
//     reconcilers, so position changes made by one are seen by the other.
//   - [DependencyGraph], [Service], [DependencyEdge], [Application]: the
//     snapshot format delivered by the MICO REST API and read from files.
//
// # Edge Identity
//
// An edge without an explicit id is identified by its endpoints:
//
//	graph.EdgeID(&graph.Edge{Source: "a", Target: "b"}) // "sa,tb"
//
// # Snapshot Serialization
//
// Snapshots use the JSON field names of the REST API:
//
//	{
//	  "micoServices": [{"shortName": "a", "version": "1.0.0"}],
//	  "micoServiceDependencyGraphEdgeList": [
//	    {"sourceShortName": "a", "sourceVersion": "1.0.0",
//	     "targetShortName": "b", "targetVersion": "1.0.0"}
//	  ]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadDependencyGraphFile("deps.json")
//	graph.WriteDependencyGraphFile(g, "copy.json")
package graph
