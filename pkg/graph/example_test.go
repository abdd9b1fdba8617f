package graph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/micograph/pkg/graph"
)

func ExampleReadDependencyGraph() {
	data := `{"micoServices":[{"shortName":"gateway","version":"1.0.0"},{"shortName":"auth","version":"2.1.0"}],
	"micoServiceDependencyGraphEdgeList":[{"sourceShortName":"gateway","sourceVersion":"1.0.0","targetShortName":"auth","targetVersion":"2.1.0"}]}`
	g, _ := graph.ReadDependencyGraph(strings.NewReader(data))
	for _, e := range g.Edges {
		fmt.Println(e.SourceID(), "->", e.TargetID())
	}
	// Output: gateway-1.0.0 -> auth-2.1.0
}
