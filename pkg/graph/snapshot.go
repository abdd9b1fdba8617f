package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Service describes one service version as delivered by the REST API.
type Service struct {
	ShortName   string `json:"shortName" bson:"short_name"`
	Version     string `json:"version" bson:"version"`
	Name        string `json:"name,omitempty" bson:"name,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// NodeID returns the stable node id of s, shortName-version.
func (s Service) NodeID() string { return ServiceNodeID(s.ShortName, s.Version) }

// DisplayTitle returns the name, falling back to the short name.
func (s Service) DisplayTitle() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ShortName
}

// ServiceNodeID returns the node id of a service version.
func ServiceNodeID(shortName, version string) string { return shortName + "-" + version }

// DependencyEdge states that the source service depends on the target service.
type DependencyEdge struct {
	SourceShortName string `json:"sourceShortName" bson:"source_short_name"`
	SourceVersion   string `json:"sourceVersion" bson:"source_version"`
	TargetShortName string `json:"targetShortName" bson:"target_short_name"`
	TargetVersion   string `json:"targetVersion" bson:"target_version"`
}

// SourceID returns the node id of the depending service.
func (e DependencyEdge) SourceID() string { return ServiceNodeID(e.SourceShortName, e.SourceVersion) }

// TargetID returns the node id of the dependency.
func (e DependencyEdge) TargetID() string { return ServiceNodeID(e.TargetShortName, e.TargetVersion) }

// DependencyGraph is a full snapshot of a service's transitive dependencies.
type DependencyGraph struct {
	Services []Service        `json:"micoServices" bson:"services"`
	Edges    []DependencyEdge `json:"micoServiceDependencyGraphEdgeList" bson:"edges"`
}

// Application groups the services deployed together.
type Application struct {
	ShortName   string    `json:"shortName" bson:"short_name"`
	Version     string    `json:"version" bson:"version"`
	Name        string    `json:"name,omitempty" bson:"name,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Services    []Service `json:"services" bson:"services"`
}

// UnmarshalDependencyGraph decodes a snapshot from JSON.
func UnmarshalDependencyGraph(data []byte) (DependencyGraph, error) {
	var g DependencyGraph
	if err := json.Unmarshal(data, &g); err != nil {
		return DependencyGraph{}, fmt.Errorf("decode dependency graph: %w", err)
	}
	return g, nil
}

// ReadDependencyGraph decodes a snapshot from r.
func ReadDependencyGraph(r io.Reader) (DependencyGraph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return DependencyGraph{}, err
	}
	return UnmarshalDependencyGraph(data)
}

// ReadDependencyGraphFile decodes a snapshot from a JSON file.
func ReadDependencyGraphFile(path string) (DependencyGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return DependencyGraph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDependencyGraph(f)
}

// WriteDependencyGraph encodes g as indented JSON.
func WriteDependencyGraph(g DependencyGraph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

// WriteDependencyGraphFile writes g to path.
func WriteDependencyGraphFile(g DependencyGraph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDependencyGraph(g, f)
}

// Root returns the service the snapshot was requested for: the first
// service that is never a dependency target, or the first service.
func (g DependencyGraph) Root() (Service, bool) {
	if len(g.Services) == 0 {
		return Service{}, false
	}
	targets := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		targets[e.TargetID()] = true
	}
	for _, s := range g.Services {
		if !targets[s.NodeID()] {
			return s, true
		}
	}
	return g.Services[0], true
}

// ReadApplicationFile decodes an application from a JSON file.
func ReadApplicationFile(path string) (Application, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Application{}, fmt.Errorf("open %s: %w", path, err)
	}
	var app Application
	if err := json.Unmarshal(data, &app); err != nil {
		return Application{}, fmt.Errorf("decode application: %w", err)
	}
	return app, nil
}

// Service returns the application itself as a service, the root of the
// application view.
func (a Application) Service() Service {
	return Service{ShortName: a.ShortName, Version: a.Version, Name: a.Name, Description: a.Description}
}
