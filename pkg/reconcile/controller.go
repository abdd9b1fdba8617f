package reconcile

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/micograph/pkg/graph"
)

// Default polling settings.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultDebounce     = 300 * time.Millisecond
)

// Source delivers snapshots for a ServiceGraph.
type Source interface {
	DependencyGraph(ctx context.Context, shortName, version string) (graph.DependencyGraph, error)
	Service(ctx context.Context, shortName, version string) (graph.Service, error)
}

// ControllerOptions configure a Controller.
type ControllerOptions struct {
	Logger       *log.Logger
	PollInterval time.Duration
	Debounce     time.Duration
	// OnUpdate is called under the controller lock after each applied
	// dependency graph.
	OnUpdate func(Stats)
}

// Controller polls a Source for one root service and feeds a ServiceGraph.
//
// Two streams run per subscription: dependency graph snapshots, debounced so
// that only the last of a burst is applied, and live attributes of every node
// shown. Updates are applied one at a time under a lock. Each subscription
// has a generation; updates from an older generation are dropped.
type Controller struct {
	view   *ServiceGraph
	src    Source
	logger *log.Logger
	opts   ControllerOptions

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	refresh chan struct{}
	wg      sync.WaitGroup
}

// NewController returns a controller for view. Call Subscribe to start
// polling.
func NewController(view *ServiceGraph, src Source, opts ControllerOptions) *Controller {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Controller{view: view, src: src, logger: opts.Logger, opts: opts}
}

// Subscribe resets the view to root and starts polling it. A previous
// subscription is canceled first.
func (c *Controller) Subscribe(ctx context.Context, root graph.Service) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.refresh = make(chan struct{}, 1)
	refresh := c.refresh
	c.view.Reset(root)
	c.mu.Unlock()

	snapshots := make(chan graph.DependencyGraph)
	c.wg.Add(3)
	go c.pollGraph(ctx, root, refresh, snapshots)
	go c.debounce(ctx, gen, snapshots)
	go c.pollServices(ctx, gen)
}

// Refresh triggers an immediate dependency graph poll.
func (c *Controller) Refresh() {
	c.mu.Lock()
	ch := c.refresh
	c.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Close stops polling and waits for the pollers to exit.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.mu.Unlock()
	c.wg.Wait()
}

// Do runs fn with exclusive access to the view.
func (c *Controller) Do(fn func(*ServiceGraph)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.view)
}

// ChangeVersion swaps a direct dependency for another version and refreshes.
// The API calls run without holding the lock.
func (c *Controller) ChangeVersion(ctx context.Context, client DependeeClient, nodeID, newVersion string) error {
	c.mu.Lock()
	root := c.view.Root()
	old, err := c.view.BeginVersionChange(nodeID, newVersion)
	gen := c.gen
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if err := swapDependee(ctx, client, root, old, newVersion); err != nil {
		c.apply(gen, func() { c.view.CancelVersionChange() })
		return err
	}
	c.Refresh()
	return nil
}

// apply runs fn under the lock unless the subscription gen has ended.
func (c *Controller) apply(gen uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	fn()
	return true
}

func (c *Controller) pollGraph(ctx context.Context, root graph.Service, refresh <-chan struct{}, out chan<- graph.DependencyGraph) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()
	for {
		dg, err := c.src.DependencyGraph(ctx, root.ShortName, root.Version)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			c.logger.Warn("poll dependency graph", "root", root.NodeID(), "error", err)
		default:
			select {
			case out <- dg:
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-refresh:
		}
	}
}

// debounce applies the last snapshot of each burst once no newer one arrived
// for the debounce period.
func (c *Controller) debounce(ctx context.Context, gen uint64, in <-chan graph.DependencyGraph) {
	defer c.wg.Done()
	timer := time.NewTimer(c.opts.Debounce)
	timer.Stop()
	defer timer.Stop()
	var latest *graph.DependencyGraph
	for {
		select {
		case <-ctx.Done():
			return
		case dg := <-in:
			latest = &dg
			timer.Reset(c.opts.Debounce)
		case <-timer.C:
			if latest == nil {
				continue
			}
			dg := *latest
			latest = nil
			c.apply(gen, func() {
				st := c.view.Apply(dg)
				if c.opts.OnUpdate != nil {
					c.opts.OnUpdate(st)
				}
			})
		}
	}
}

func (c *Controller) pollServices(ctx context.Context, gen uint64) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var shown []graph.Service
		if !c.apply(gen, func() {
			for _, n := range c.view.Editor().Nodes() {
				shown = append(shown, graph.Service{ShortName: n.ShortName, Version: n.Version})
			}
		}) {
			return
		}
		for _, svc := range shown {
			live, err := c.src.Service(ctx, svc.ShortName, svc.Version)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				c.logger.Debug("poll service", "service", svc.NodeID(), "error", err)
				continue
			}
			c.apply(gen, func() { c.view.ApplyService(live) })
		}
	}
}
