package api

import (
	"context"
	"net/http"

	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/reconcile"
	"github.com/matzehuels/micograph/pkg/semver"
)

// serviceList is the HAL envelope of service collections.
type serviceList struct {
	Embedded struct {
		Services []graph.Service `json:"micoServiceResponseDTOList"`
	} `json:"_embedded"`
}

func validateService(shortName, version string) error {
	if err := errors.ValidateShortName(shortName); err != nil {
		return err
	}
	return errors.ValidateVersion(version)
}

func notFound(code errors.Code, err error, what string) error {
	if errors.HTTPStatus(err) == http.StatusNotFound {
		return errors.Wrap(code, err, "%s", what)
	}
	return err
}

// Service fetches one service version.
func (c *Client) Service(ctx context.Context, shortName, version string) (graph.Service, error) {
	if err := validateService(shortName, version); err != nil {
		return graph.Service{}, err
	}
	var s graph.Service
	if err := c.getJSON(ctx, &s, "services", shortName, version); err != nil {
		return graph.Service{}, notFound(errors.ErrCodeServiceNotFound, err, shortName+" "+version)
	}
	return s, nil
}

// DependencyGraph fetches the transitive dependency graph of a service.
func (c *Client) DependencyGraph(ctx context.Context, shortName, version string) (graph.DependencyGraph, error) {
	if err := validateService(shortName, version); err != nil {
		return graph.DependencyGraph{}, err
	}
	var g graph.DependencyGraph
	if err := c.getJSON(ctx, &g, "services", shortName, version, "dependencyGraph"); err != nil {
		return graph.DependencyGraph{}, notFound(errors.ErrCodeServiceNotFound, err, shortName+" "+version)
	}
	return g, nil
}

// ServiceVersions lists every version of a service, oldest first.
func (c *Client) ServiceVersions(ctx context.Context, shortName string) ([]graph.Service, error) {
	if err := errors.ValidateShortName(shortName); err != nil {
		return nil, err
	}
	var list serviceList
	if err := c.getJSON(ctx, &list, "services", shortName); err != nil {
		return nil, notFound(errors.ErrCodeServiceNotFound, err, shortName)
	}
	out := list.Embedded.Services
	semver.SortFunc(out, func(s graph.Service) string { return s.Version })
	return out, nil
}

// Dependees lists the direct dependencies of a service.
func (c *Client) Dependees(ctx context.Context, shortName, version string) ([]graph.Service, error) {
	return c.serviceList(ctx, shortName, version, "dependees")
}

// Dependers lists the services depending on a service.
func (c *Client) Dependers(ctx context.Context, shortName, version string) ([]graph.Service, error) {
	return c.serviceList(ctx, shortName, version, "dependers")
}

func (c *Client) serviceList(ctx context.Context, shortName, version, rel string) ([]graph.Service, error) {
	if err := validateService(shortName, version); err != nil {
		return nil, err
	}
	var list serviceList
	if err := c.getJSON(ctx, &list, "services", shortName, version, rel); err != nil {
		return nil, notFound(errors.ErrCodeServiceNotFound, err, shortName+" "+version)
	}
	return list.Embedded.Services, nil
}

// AddDependee makes shortName/version depend on dep.
func (c *Client) AddDependee(ctx context.Context, shortName, version string, dep graph.Service) error {
	if err := validateService(shortName, version); err != nil {
		return err
	}
	if err := validateService(dep.ShortName, dep.Version); err != nil {
		return err
	}
	return c.send(ctx, http.MethodPost, "services", shortName, version, "dependees", dep.ShortName, dep.Version)
}

// DeleteDependee removes the dependency of shortName/version on
// depShortName/depVersion.
func (c *Client) DeleteDependee(ctx context.Context, shortName, version, depShortName, depVersion string) error {
	if err := validateService(shortName, version); err != nil {
		return err
	}
	if err := validateService(depShortName, depVersion); err != nil {
		return err
	}
	return c.send(ctx, http.MethodDelete, "services", shortName, version, "dependees", depShortName, depVersion)
}

// Application fetches an application with its services.
func (c *Client) Application(ctx context.Context, shortName, version string) (graph.Application, error) {
	if err := validateService(shortName, version); err != nil {
		return graph.Application{}, err
	}
	var app graph.Application
	if err := c.getJSON(ctx, &app, "applications", shortName, version); err != nil {
		return graph.Application{}, notFound(errors.ErrCodeApplicationNotFound, err, shortName+" "+version)
	}
	return app, nil
}

var (
	_ reconcile.Source         = (*Client)(nil)
	_ reconcile.DependeeClient = (*Client)(nil)
)
