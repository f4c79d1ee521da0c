package cfg

import "covenant/internal/lang"

// PathCondition is the conjunction of branch predicates along one
// root-to-block path, used by internal/checkers to scope an SMT query
// to the conditions actually in force at a program point (spec §4.5,
// feeding C6).
type PathCondition []lang.Expr

// Conjunction folds a PathCondition into a single boolean expression,
// `true` for an empty path.
func (p PathCondition) Conjunction() lang.Expr {
	if len(p) == 0 {
		return &lang.BoolLit{Value: true}
	}
	e := p[0]
	for _, c := range p[1:] {
		e = &lang.BinaryExpr{Op: lang.And, Left: e, Right: c}
	}
	return e
}

// CollectPaths enumerates every acyclic root-to-block path condition
// reaching target, starting from entry. Back-edges are not followed
// (loop bodies are path-sensitive only within one iteration; the loop
// invariant discharges the cross-iteration reasoning, spec §4.9).
func CollectPaths(entry, target *Block) []PathCondition {
	var results []PathCondition
	visited := make(map[int]bool)
	var walk func(b *Block, acc PathCondition)
	walk = func(b *Block, acc PathCondition) {
		if visited[b.ID] {
			return
		}
		if b == target {
			cp := make(PathCondition, len(acc))
			copy(cp, acc)
			results = append(results, cp)
			return
		}
		visited[b.ID] = true
		for _, e := range b.Succs {
			next := acc
			if e.Pred != nil {
				next = append(append(PathCondition{}, acc...), e.Pred)
			}
			walk(e.To, next)
		}
		visited[b.ID] = false
	}
	walk(entry, nil)
	return results
}
