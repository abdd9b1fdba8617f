// Package reconcile keeps a graph editor in sync with snapshots from the
// MICO API.
//
// Each snapshot is diffed against the nodes and edges already shown, keyed by
// node id ("shortName-version") and edge id. Retained nodes keep their
// position; only their display attributes change. New nodes are placed in the
// next free column, and stale nodes and edges are removed. Applying the same
// snapshot twice is a no-op apart from attribute refreshes.
//
// [ServiceGraph] shows the transitive dependencies of one service version;
// [AppGraph] shows the services of an application. [Controller] polls the API
// for a ServiceGraph and serializes all updates.
package reconcile
