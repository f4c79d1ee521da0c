package smt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"covenant/internal/lang"
)

// ProveResult is the outcome of an implication query, with a formatted
// counterexample when the query disproves the implication.
type ProveResult struct {
	Status         Status
	Counterexample string // "name=value, ..." when Status == Disproven
}

// Prove checks `A ⇒ C` over the given parameters by asserting A ∧ ¬C and
// checking satisfiability: UNSAT means the implication is Proven, SAT
// means Disproven with an extracted counterexample, anything else
// (including no solver being available) is Unknown (spec §4.4). If a or
// c cannot be encoded, the result is Unsupported and no solver is run.
func Prove(ctx *Context, params []lang.Param, a, c lang.Expr, resultType *lang.Type) ProveResult {
	enc := NewEncoder()
	enc.DeclareParams(params)
	enc.DeclareResult(resultType)

	aTerm, err := enc.Encode(a)
	if err != nil {
		return ProveResult{Status: Unsupported}
	}
	cTerm, err := enc.Encode(c)
	if err != nil {
		return ProveResult{Status: Unsupported}
	}

	var sb strings.Builder
	sb.WriteString(enc.Preamble())
	fmt.Fprintf(&sb, "(assert %s)\n", aTerm)
	fmt.Fprintf(&sb, "(assert (not %s))\n", cTerm)
	sb.WriteString("(check-sat)\n")

	res := ctx.CheckSat(sb.String())
	out := ProveResult{Status: res.Status}
	if res.Status == Disproven {
		out.Counterexample = formatCounterexample(res.Model, enc.Decls())
	}
	return out
}

// ProveEntity is Prove's entity-scoped variant: fields are pre-declared
// as self_<name> constants alongside params (spec §4.2/§4.4, method and
// constructor contracts).
func ProveEntity(ctx *Context, fields []lang.Field, params []lang.Param, a, c lang.Expr, resultType *lang.Type) ProveResult {
	enc := NewEncoder().WithSelfFields(fields)
	enc.DeclareParams(params)
	enc.DeclareResult(resultType)

	aTerm, err := enc.Encode(a)
	if err != nil {
		return ProveResult{Status: Unsupported}
	}
	cTerm, err := enc.Encode(c)
	if err != nil {
		return ProveResult{Status: Unsupported}
	}

	var sb strings.Builder
	sb.WriteString(enc.Preamble())
	fmt.Fprintf(&sb, "(assert %s)\n", aTerm)
	fmt.Fprintf(&sb, "(assert (not %s))\n", cTerm)
	sb.WriteString("(check-sat)\n")

	res := ctx.CheckSat(sb.String())
	out := ProveResult{Status: res.Status}
	if res.Status == Disproven {
		out.Counterexample = formatCounterexample(res.Model, enc.Decls())
	}
	return out
}

var modelLineRE = regexp.MustCompile(`\(define-fun\s+([A-Za-z0-9_]+)\s*\(\)[^#]*?(#x[0-9a-fA-F]+|true|false|\(- \d+\)|\d+)\)?\s*$`)

// formatCounterexample evaluates every declared variable against the
// solver's model output and renders `name=value, ...` sorted by
// variable name. A variable whose value cannot be located degrades to
// `<eval failed>` rather than aborting extraction (spec §4.3,
// "Counterexample extraction").
func formatCounterexample(model string, decls []Decl) string {
	values := make(map[string]string)
	for _, line := range strings.Split(model, "\n") {
		m := modelLineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		values[m[1]] = m[2]
	}

	names := make([]string, 0, len(decls))
	for _, d := range decls {
		names = append(names, d.Name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		v, ok := values[name]
		if !ok {
			v = "<eval failed>"
		}
		parts = append(parts, fmt.Sprintf("%s=%s", name, v))
	}
	return strings.Join(parts, ", ")
}

// ClauseImplies checks each of clauses against candidates one clause at a
// time: clause Ci is satisfied if any single candidate individually
// implies it, rather than requiring their conjunction to. It returns
// Proven only once every clause has been matched this way; otherwise the
// last encountered Disproven result is surfaced as the representative
// counterexample (violation localization picks out which clause failed
// to match, rather than reporting a single opaque conjoined query), or
// Unknown if no candidate/clause pair was conclusively disproven.
// fields pre-declares entity self_<name> constants for method/
// constructor contracts; pass nil for free-function contracts.
func ClauseImplies(ctx *Context, fields []lang.Field, params []lang.Param, candidates, clauses []lang.Expr, resultType *lang.Type) ProveResult {
	var lastDisproven ProveResult
	sawDisproven := false

	for _, ci := range clauses {
		matched := false
		for _, cand := range candidates {
			r := ProveEntity(ctx, fields, params, cand, ci, resultType)
			if r.Status == Proven {
				matched = true
				break
			}
			if r.Status == Disproven {
				lastDisproven = r
				sawDisproven = true
			}
		}
		if !matched {
			if sawDisproven {
				return lastDisproven
			}
			return ProveResult{Status: Unknown}
		}
	}
	return ProveResult{Status: Proven}
}
