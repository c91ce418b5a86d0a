package remap

import (
	"context"
	"time"

	"github.com/resopt/internal/dex"
	"github.com/resopt/pkg/config"
	"github.com/resopt/pkg/filter"
	"github.com/resopt/pkg/model"
	"github.com/resopt/pkg/parallel"
	"github.com/resopt/pkg/resid"
	"github.com/resopt/pkg/utils"
)

// Config holds configuration for one remap pass.
type Config struct {
	// MaxWorkers bounds the per-class worker pool. Zero picks the
	// machine default.
	MaxWorkers int

	// DryRun computes the full report without mutating any method.
	DryRun bool

	// Filter classifies holder classes. A nil filter uses the default
	// naming rules.
	Filter *filter.RoleFilter

	// Logger is used for diagnostics. If nil, diagnostics are
	// suppressed.
	Logger utils.Logger
}

// DefaultConfig returns the default pass configuration.
func DefaultConfig() *Config {
	return &Config{}
}

// FilterFromConfig builds the holder filter from the resources section
// of the service configuration. An override naming an unknown role is
// a configuration error and must abort before any class is touched.
func FilterFromConfig(res *config.ResourcesConfig) (*filter.RoleFilter, error) {
	f := filter.NewRoleFilter()
	for _, holder := range res.CustomizedHolders {
		f.AddCustomizedHolder(holder)
	}
	for class, role := range res.RoleOverrides {
		if err := f.SetOverride(class, role); err != nil {
			return nil, unknownRolef("role override for %s: %v", class, err)
		}
	}
	return f, nil
}

// Pass rewrites the resource-ID arrays of every holder class in a
// program so they agree with a remap table.
type Pass struct {
	cfg    *Config
	filter *filter.RoleFilter
	logger utils.Logger
}

// NewPass creates a pass from cfg.
func NewPass(cfg *Config) *Pass {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	f := cfg.Filter
	if f == nil {
		f = filter.NewRoleFilter()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Pass{cfg: cfg, filter: f, logger: logger}
}

// classUnit is one class scheduled for processing. Each unit's method
// code is owned exclusively by the worker processing it.
type classUnit struct {
	store      string
	class      *dex.Class
	role       filter.Role
	customized bool
}

// Run processes every holder class in the program and returns the
// merged pass report. Structural errors are contained to their class;
// Run itself fails only when the context ends.
//
// The table is shared read-only across all workers; totals are summed
// class by class in program order, so scheduling never changes the
// result.
func (p *Pass) Run(ctx context.Context, prog *dex.Program, table *resid.Table) (*model.PassReport, error) {
	units := p.collect(prog)

	report := &model.PassReport{}
	if len(units) == 0 {
		report.FinishedAt = time.Now()
		return report, nil
	}

	pool := parallel.NewPool[*classUnit, model.ClassReport](parallel.DefaultConfig().WithWorkers(p.cfg.MaxWorkers))
	results := pool.RunFunc(ctx, units, func(ctx context.Context, u *classUnit) (model.ClassReport, error) {
		return p.processClass(u, table), nil
	})

	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
		report.Add(r.Value)
	}
	report.FinishedAt = time.Now()

	p.logger.Info("remap pass done: %d classes, %d groups rewritten, %d elements deleted",
		report.ClassesScanned, report.GroupsRewritten, report.ElementsDeleted)
	return report, nil
}

// collect classifies every class and keeps the holder classes.
func (p *Pass) collect(prog *dex.Program) []*classUnit {
	var units []*classUnit
	for _, store := range prog.Stores {
		for _, class := range store.Classes {
			role := p.filter.Classify(class.Name)
			switch role {
			case filter.RoleSequential, filter.RolePositional:
				units = append(units, &classUnit{
					store:      store.Name,
					class:      class,
					role:       role,
					customized: p.filter.IsCustomized(class.Name),
				})
			case filter.RoleSkip:
				p.logger.Debug("skipping %s: excluded by configuration", class.Name)
			}
		}
	}
	return units
}

// processClass scans and rewrites one holder class. All structural
// failures land in the report instead of an error, and a failing class
// is never partially rewritten: scanning completes before the first
// mutation.
func (p *Pass) processClass(u *classUnit, table *resid.Table) model.ClassReport {
	rep := model.ClassReport{
		ClassName:  u.class.Name,
		Store:      u.store,
		Role:       u.role.String(),
		Customized: u.customized,
	}

	init := u.class.StaticInit()
	if init == nil || init.Code == nil {
		p.logger.Debug("%s has no static initializer", u.class.Name)
		return rep
	}

	groups, skips, err := ScanGroups(init.Code)
	if err != nil {
		rep.Error = err.Error()
		p.logger.Warn("%s: %v", u.class.Name, err)
		return rep
	}
	rep.GroupsScanned = len(groups) + len(skips)
	rep.GroupsSkipped = len(skips)
	for _, s := range skips {
		// Customized holders legitimately interleave client code, so
		// incomplete idioms there are expected.
		if u.customized {
			p.logger.Debug("%s: allocation at %d skipped: %s", u.class.Name, s.AllocIndex, s.Reason)
		} else {
			p.logger.Warn("%s: allocation at %d skipped: %s", u.class.Name, s.AllocIndex, s.Reason)
		}
	}

	strategy, err := ForRole(u.role)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}

	for _, g := range groups {
		g.Customized = u.customized
		plan := strategy.Apply(g.IDs, table)
		rep.ElementsKept += plan.Kept
		rep.ElementsRemapped += plan.Remapped
		rep.ElementsDeleted += plan.Deleted

		if !p.cfg.DryRun {
			// The payload and the size literal change together, after
			// the plan and its encoding are complete.
			payload := dex.EncodeResourcePayload(plan.IDs)
			init.Code.Instrs[g.FillIndex].Payload = payload
			init.Code.Instrs[g.SizeIndex].Literal = int64(plan.Size())
		}
		rep.GroupsRewritten++
	}
	return rep
}

// ClassInventory lists what the scanner found in one holder class,
// without rewriting anything.
type ClassInventory struct {
	ClassName  string       `json:"class_name"`
	Store      string       `json:"store,omitempty"`
	Role       string       `json:"role"`
	Customized bool         `json:"customized,omitempty"`
	Groups     [][]resid.ID `json:"groups"`
	Skipped    int          `json:"skipped,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// Inspect scans every holder class and reports its groups. Structural
// errors are recorded per class, matching Run's containment.
func (p *Pass) Inspect(ctx context.Context, prog *dex.Program) ([]ClassInventory, error) {
	var inventories []ClassInventory
	for _, u := range p.collect(prog) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		inv := ClassInventory{
			ClassName:  u.class.Name,
			Store:      u.store,
			Role:       u.role.String(),
			Customized: u.customized,
		}
		if init := u.class.StaticInit(); init != nil && init.Code != nil {
			groups, skips, err := ScanGroups(init.Code)
			if err != nil {
				inv.Error = err.Error()
			}
			inv.Skipped = len(skips)
			for _, g := range groups {
				inv.Groups = append(inv.Groups, g.IDs)
			}
		}
		inventories = append(inventories, inv)
	}
	return inventories, nil
}
