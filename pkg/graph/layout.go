package graph

import (
	"time"

	"github.com/matzehuels/micograph/pkg/geometry"
)

// Layout records the positions users gave to nodes of one view, keyed by
// node id. Root identifies the view, e.g. "service:hello-1.0.0".
type Layout struct {
	Root      string                    `json:"root" bson:"_id"`
	Positions map[string]geometry.Point `json:"positions" bson:"positions"`
	UpdatedAt time.Time                 `json:"updatedAt" bson:"updated_at"`
}

// LayoutOf collects the positions of all nodes moved by the user.
func LayoutOf(root string, nodes []*Node) Layout {
	l := Layout{Root: root, Positions: make(map[string]geometry.Point)}
	for _, n := range nodes {
		if n.WasMovedByUser {
			l.Positions[n.ID] = n.Position()
		}
	}
	return l
}
