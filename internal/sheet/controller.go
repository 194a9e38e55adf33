package sheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/pharmacy-audit/internal/domain/lifecycle"
	"github.com/garyjia/pharmacy-audit/internal/output"
	"github.com/garyjia/pharmacy-audit/internal/report"
	"go.uber.org/zap"
)

// Progress describes one finished controller step
type Progress struct {
	Phase   lifecycle.Trigger
	Manager string
	Done    int
	Total   int
}

type entry struct {
	manager Manager
	machine lifecycle.Machine
}

// Controller runs registered managers in order and carries the state they
// share within one run: the missing-DEA set and the liquid-free controlled
// rows. Use a new controller per run.
type Controller struct {
	src    Sources
	logger *zap.Logger

	entries []*entry
	byName  map[string]*entry

	missing    []string
	missingSet map[string]bool

	solid       []report.ControlledRx
	solidLoaded bool

	progress func(Progress)
	done     int
}

// NewController creates a controller over one run's sources
func NewController(src Sources, logger *zap.Logger) *Controller {
	return &Controller{
		src:        src,
		logger:     logger,
		byName:     make(map[string]*entry),
		missingSet: make(map[string]bool),
	}
}

// Sources returns the run's input models
func (c *Controller) Sources() Sources {
	return c.src
}

// OnProgress installs a callback invoked after every collect and generate step
func (c *Controller) OnProgress(fn func(Progress)) {
	c.progress = fn
}

// Steps is the number of progress events a full run emits
func (c *Controller) Steps() int {
	return 2 * len(c.entries)
}

// Register appends a manager. Its dependencies must already be registered,
// and its collect phase is guarded on them having collected.
func (c *Controller) Register(m Manager) error {
	name := m.Name()
	if _, dup := c.byName[name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateManager, name)
	}

	var deps []string
	if d, ok := m.(Dependent); ok {
		deps = d.DependsOn()
	}
	for _, dep := range deps {
		if _, ok := c.byName[dep]; !ok {
			return fmt.Errorf("%w: %s depends on %s", ErrDependencyOrder, name, dep)
		}
	}

	e := &entry{
		manager: m,
		machine: lifecycle.NewManagerMachine(func(ctx context.Context) error {
			return c.RequireCollected(deps...)
		}),
	}
	c.entries = append(c.entries, e)
	c.byName[name] = e
	return nil
}

// RequireCollected fails unless every named manager has finished collecting.
func (c *Controller) RequireCollected(names ...string) error {
	for _, name := range names {
		e, ok := c.byName[name]
		if !ok {
			return fmt.Errorf("%w: %s is not registered", ErrNotCollected, name)
		}
		if s := e.machine.State(); s != lifecycle.StateCollected && s != lifecycle.StateGenerated {
			return fmt.Errorf("%w: %s is %s", ErrNotCollected, name, s)
		}
	}
	return nil
}

// Names returns registered manager names in order
func (c *Controller) Names() []string {
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.manager.Name())
	}
	return names
}

// State returns a manager's lifecycle state
func (c *Controller) State(name string) (lifecycle.State, bool) {
	e, ok := c.byName[name]
	if !ok {
		return "", false
	}
	return e.machine.State(), true
}

// Manager returns a registered manager by sheet name
func (c *Controller) Manager(name string) (Manager, bool) {
	e, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return e.manager, true
}

// AIG returns the manager of AIG sheet i
func (c *Controller) AIG(i int) (*AIGManager, bool) {
	m, ok := c.Manager(AIGSheetName(i))
	if !ok {
		return nil, false
	}
	a, ok := m.(*AIGManager)
	return a, ok
}

// CollectAll runs every manager's collect phase in registration order.
func (c *Controller) CollectAll(ctx context.Context) error {
	for _, e := range c.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := e.manager.Name()
		if err := e.machine.Fire(ctx, lifecycle.TriggerCollect); err != nil {
			return fmt.Errorf("failed to collect %s: %w", name, err)
		}
		if err := e.manager.Collect(ctx, c); err != nil {
			return fmt.Errorf("failed to collect %s: %w", name, err)
		}
		c.logger.Debug("Sheet collected", zap.String("sheet", name))
		c.step(lifecycle.TriggerCollect, name)
	}
	return nil
}

// GenerateAll runs every manager's generate phase in registration order.
func (c *Controller) GenerateAll(ctx context.Context, wb *output.Workbook) error {
	for _, e := range c.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := e.manager.Name()
		if err := e.machine.Fire(ctx, lifecycle.TriggerGenerate); err != nil {
			return fmt.Errorf("failed to generate %s: %w", name, err)
		}
		if err := e.manager.Generate(ctx, wb); err != nil {
			return fmt.Errorf("failed to generate %s: %w", name, err)
		}
		c.logger.Debug("Sheet generated", zap.String("sheet", name))
		c.step(lifecycle.TriggerGenerate, name)
	}
	return nil
}

func (c *Controller) step(phase lifecycle.Trigger, name string) {
	c.done++
	if c.progress != nil {
		c.progress(Progress{Phase: phase, Manager: name, Done: c.done, Total: c.Steps()})
	}
}

// MarkMissing records a DEA absent from the practitioner reference
func (c *Controller) MarkMissing(dea string) {
	key := strings.ToUpper(strings.TrimSpace(dea))
	if key == "" || c.missingSet[key] {
		return
	}
	c.missingSet[key] = true
	c.missing = append(c.missing, key)
}

// MissingDEA returns missing DEAs in the order they were first seen
func (c *Controller) MissingDEA() []string {
	return append([]string(nil), c.missing...)
}

// SolidControlled returns the controlled rows without liquid formulations,
// computed once per run.
func (c *Controller) SolidControlled() []report.ControlledRx {
	if c.solidLoaded {
		return c.solid
	}
	c.solidLoaded = true
	for _, rx := range c.src.Report.Prescriptions().Controlled() {
		if !rx.Liquid() {
			c.solid = append(c.solid, rx)
		}
	}
	return c.solid
}
