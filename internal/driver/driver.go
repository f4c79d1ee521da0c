// Package driver orchestrates the verification pipeline (spec §5): term
// simplification, CFG construction and bug-pattern checking, contract
// discharge, loop-invariant synthesis, and LSP inheritance checking, run
// over one module and reported through a single diag.Sink.
package driver

import (
	"strconv"
	"sync"
	"time"

	"covenant/internal/cfg"
	"covenant/internal/checkers"
	"covenant/internal/diag"
	"covenant/internal/inherit"
	"covenant/internal/lang"
	"covenant/internal/smt"
	"covenant/internal/verify"
	"covenant/internal/wellformed"
)

// Options configures one driver run.
type Options struct {
	Checkers checkers.Options
	Timeout  time.Duration
}

// DefaultOptions mirrors checkers.DefaultOptions and the solver's default
// per-check timeout (spec §4.6).
func DefaultOptions() Options {
	return Options{
		Checkers: checkers.DefaultOptions(),
		Timeout:  smt.DefaultTimeout,
	}
}

// FunctionReport bundles every analysis outcome for one function.
type FunctionReport struct {
	Function *lang.Function
	Verify   verify.FunctionResult
}

// ModuleReport is the full pipeline output for one module.
type ModuleReport struct {
	Module     *lang.Module
	Functions  []FunctionReport
	Inheritors []inherit.CheckResult
}

// RunModule executes the pipeline for a single module: per-function CFG
// construction, bug-pattern checking (C6), and contract verification (C7)
// run sequentially in declaration order (spec §5, "within a module,
// functions are processed in declaration order so diagnostics are
// deterministic"); class/interface inheritance checking (C8) then runs
// once over the whole module. cache is optional and may be shared across
// concurrent RunModule calls (spec §5, "the result cache is the only
// state shared across goroutines").
func RunModule(mod *lang.Module, opts Options, cache *smt.Cache, sink diag.Sink) ModuleReport {
	reportSolverAvailability(mod, sink)
	ctx := newSolverContext(opts, cache)
	enumConsts := moduleEnumConstants(mod)

	report := ModuleReport{Module: mod}
	for i := range mod.Functions {
		report.Functions = append(report.Functions, runFunction(&mod.Functions[i], nil, enumConsts, ctx, opts, sink))
	}
	for ci := range mod.Classes {
		c := &mod.Classes[ci]
		for i := range c.Methods {
			report.Functions = append(report.Functions, runFunction(&c.Methods[i], c.Fields, enumConsts, ctx, opts, sink))
		}
	}

	report.Inheritors = runInheritance(mod, ctx, sink)
	reportVerificationSummary(mod, report, sink)
	return report
}

// moduleEnumConstants collects every enum case name as a module-visible
// constant a contract expression may reference (spec invariant I1's
// "module-visible constants").
func moduleEnumConstants(mod *lang.Module) map[string]bool {
	consts := make(map[string]bool)
	for _, e := range mod.Enums {
		for _, c := range e.Cases {
			consts[c.Name] = true
		}
	}
	return consts
}

func runFunction(fn *lang.Function, fields []lang.Field, enumConsts map[string]bool, ctx *smt.Context, opts Options, sink diag.Sink) FunctionReport {
	graph := cfg.Build(fn.Body)
	checkers.Check(graph, fn.Params, fn.OutputType, ctx, opts.Checkers, sink)

	verifyFn := fn
	if malformed := wellformed.CheckFunction(fn, fields, enumConsts, sink); len(malformed) > 0 {
		filtered := *fn
		filtered.Requires = dropMalformed(fn.Requires, malformed)
		filtered.Ensures = dropMalformed(fn.Ensures, malformed)
		verifyFn = &filtered
	}

	vr := verify.VerifyFunction(verifyFn, ctx, sink)
	return FunctionReport{Function: fn, Verify: vr}
}

// dropMalformed excludes every contract whose span failed a
// well-formedness check from the list C1/C7 operate over, so a malformed
// contract is never simplified or discharged (spec §7, "verification of
// that contract is skipped").
func dropMalformed(contracts []lang.Contract, malformed map[lang.Span]bool) []lang.Contract {
	out := make([]lang.Contract, 0, len(contracts))
	for _, c := range contracts {
		if !malformed[c.Span] {
			out = append(out, c)
		}
	}
	return out
}

// reportVerificationSummary emits one informational roll-up diagnostic
// per module (spec §6's VerificationSummary code) tallying contract
// discharge outcomes across every function.
func reportVerificationSummary(mod *lang.Module, report ModuleReport, sink diag.Sink) {
	var proven, disproven, unproven, unsupported, skipped int
	tally := func(results []verify.ContractResult) {
		for _, r := range results {
			switch r.Status {
			case verify.Proven:
				proven++
			case verify.Disproven:
				disproven++
			case verify.Unsupported:
				unsupported++
			case verify.Skipped:
				skipped++
			default:
				unproven++
			}
		}
	}
	for _, fr := range report.Functions {
		tally(fr.Verify.Requires)
		tally(fr.Verify.Ensures)
	}
	sink.Report(mod.Span(), diag.VerificationSummary,
		summaryMessage(proven, disproven, unproven, unsupported, skipped), diag.Info)
}

func summaryMessage(proven, disproven, unproven, unsupported, skipped int) string {
	return "module " +
		"proven=" + strconv.Itoa(proven) + " disproven=" + strconv.Itoa(disproven) +
		" unproven=" + strconv.Itoa(unproven) + " unsupported=" + strconv.Itoa(unsupported) +
		" skipped=" + strconv.Itoa(skipped)
}

// solverAvailabilityReported latches once per process so the "missing
// native library" diagnostic (spec §7, "Availability... One-time
// informational diagnostic per run") is never repeated across modules.
var solverAvailabilityReported sync.Once

func reportSolverAvailability(mod *lang.Module, sink diag.Sink) {
	if smt.Available() {
		return
	}
	solverAvailabilityReported.Do(func() {
		sink.Report(mod.Span(), diag.SolverUnavailable,
			"no SMT solver binary found on PATH; contract discharge and LSP checks fall back to heuristics", diag.Info)
	})
}

// runInheritance resolves every (class, interface) pair the module
// declares and runs C8 over each method pair, in class-then-interface
// declaration order (spec §5's ordering rule).
func runInheritance(mod *lang.Module, ctx *smt.Context, sink diag.Sink) []inherit.CheckResult {
	ifaceByName := make(map[string]*lang.Interface, len(mod.Interfaces))
	for i := range mod.Interfaces {
		ifaceByName[mod.Interfaces[i].Name] = &mod.Interfaces[i]
	}

	var results []inherit.CheckResult
	for ci := range mod.Classes {
		class := &mod.Classes[ci]
		for _, ifaceName := range class.Interfaces {
			iface, ok := ifaceByName[ifaceName]
			if !ok {
				continue
			}
			reportParamVectorMismatches(class, iface, sink)
			for _, pair := range inherit.ResolvePairs(class, iface) {
				results = append(results, inherit.Check(ctx, class.Fields, pair, sink))
			}
		}
	}
	return results
}

// reportParamVectorMismatches checks spec invariant I4 for every
// same-named (interface method, implementer method) pair: ResolvePairs
// silently skips a pair whose parameter types don't line up position-wise
// (spec §4.8, "a separate error reported elsewhere, not by C8"); this is
// that elsewhere.
func reportParamVectorMismatches(class *lang.Class, iface *lang.Interface, sink diag.Sink) {
	for i := range iface.Methods {
		im := &iface.Methods[i]
		for j := range class.Methods {
			cm := &class.Methods[j]
			if cm.Name == im.Name {
				wellformed.CheckParamVectors(class.Name, iface.Name, im, cm, sink)
			}
		}
	}
}

func newSolverContext(opts Options, cache *smt.Cache) *smt.Context {
	if !smt.Available() {
		return nil
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = smt.DefaultTimeout
	}
	ctx := smt.NewContext(timeout)
	if cache != nil {
		ctx = ctx.WithCache(cache)
	}
	return ctx
}

// RunModules runs RunModule over every module concurrently (spec §5,
// "modules may be verified in parallel; a module's functions may not").
// Each goroutine gets its own *smt.Context (one process per check, per
// spec §4.6) but all share the process-wide availability flag and, when
// cache is non-nil, the same result cache. Reports are returned in the
// same order as mods; diagnostics for module i are reported through
// sinks[i].
func RunModules(mods []*lang.Module, opts Options, cache *smt.Cache, sinks []diag.Sink) []ModuleReport {
	reports := make([]ModuleReport, len(mods))
	var wg sync.WaitGroup
	for i := range mods {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i] = RunModule(mods[i], opts, cache, sinks[i])
		}(i)
	}
	wg.Wait()
	return reports
}
