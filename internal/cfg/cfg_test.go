package cfg

import (
	"testing"

	"covenant/internal/lang"
)

func TestBuildIfProducesBranchAndJoin(t *testing.T) {
	body := []lang.Stmt{
		&lang.IfStmt{
			Cond: &lang.VarRef{Name: "c"},
			Then: []lang.Stmt{&lang.AssignStmt{Target: &lang.VarRef{Name: "x"}, Value: &lang.IntLit{Value: 1}}},
			Else: []lang.Stmt{&lang.AssignStmt{Target: &lang.VarRef{Name: "x"}, Value: &lang.IntLit{Value: 2}}},
		},
		&lang.ReturnStmt{Value: &lang.VarRef{Name: "x"}},
	}
	g := Build(body)
	if g.Entry.Term.Kind != TermBranch {
		t.Fatalf("expected entry to branch, got %v", g.Entry.Term.Kind)
	}
	if len(g.Entry.Succs) != 2 {
		t.Fatalf("expected 2 successors from the branch, got %d", len(g.Entry.Succs))
	}
}

func TestBuildWhileHasBackEdge(t *testing.T) {
	body := []lang.Stmt{
		&lang.WhileStmt{
			Cond: &lang.VarRef{Name: "c"},
			Body: []lang.Stmt{&lang.AssignStmt{Target: &lang.VarRef{Name: "x"}, Value: &lang.IntLit{Value: 1}}},
		},
	}
	g := Build(body)
	var header *Block
	for _, b := range g.Blocks {
		if b.Term.Kind == TermBranch {
			header = b
		}
	}
	if header == nil {
		t.Fatal("expected a branch block for the loop header")
	}
	foundBackEdge := false
	for _, b := range g.Blocks {
		for _, e := range b.Succs {
			if e.To == header && b.ID > header.ID {
				foundBackEdge = true
			}
		}
	}
	if !foundBackEdge {
		t.Fatal("expected a back-edge into the loop header")
	}
}

func TestUninitializedVariablesDetectsUnboundUse(t *testing.T) {
	body := []lang.Stmt{
		&lang.BindStmt{Name: "x", Type: lang.I32},
		&lang.IfStmt{
			Cond: &lang.VarRef{Name: "c"},
			Then: []lang.Stmt{&lang.AssignStmt{Target: &lang.VarRef{Name: "x"}, Value: &lang.IntLit{Value: 1}}},
		},
		&lang.ReturnStmt{Value: &lang.VarRef{Name: "x"}},
	}
	g := Build(body)
	res := UninitializedVariables(g, nil)

	var returnBlock *Block
	for _, b := range g.Blocks {
		if b.Term.Kind == TermReturn {
			returnBlock = b
		}
	}
	if returnBlock == nil {
		t.Fatal("expected a return block")
	}
	if res.In[returnBlock.ID]["x"] != MaybeInitialized {
		t.Fatalf("expected x to be MaybeInitialized at the return, got %v", res.In[returnBlock.ID]["x"])
	}
}

func TestCollectPathsEnumeratesBothBranches(t *testing.T) {
	body := []lang.Stmt{
		&lang.IfStmt{
			Cond: &lang.VarRef{Name: "c"},
			Then: []lang.Stmt{&lang.AssignStmt{Target: &lang.VarRef{Name: "x"}, Value: &lang.IntLit{Value: 1}}},
			Else: []lang.Stmt{&lang.AssignStmt{Target: &lang.VarRef{Name: "x"}, Value: &lang.IntLit{Value: 2}}},
		},
		&lang.ReturnStmt{Value: &lang.VarRef{Name: "x"}},
	}
	g := Build(body)
	var returnBlock *Block
	for _, b := range g.Blocks {
		if b.Term.Kind == TermReturn {
			returnBlock = b
		}
	}
	paths := CollectPaths(g.Entry, returnBlock)
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths to the return block, got %d", len(paths))
	}
}

func TestUninitializedVariablesSeedsParametersAsInitialized(t *testing.T) {
	body := []lang.Stmt{
		&lang.ReturnStmt{Value: &lang.VarRef{Name: "a"}},
	}
	g := Build(body)
	res := UninitializedVariables(g, []lang.Param{{Name: "a", Type: lang.I32}})

	var returnBlock *Block
	for _, b := range g.Blocks {
		if b.Term.Kind == TermReturn {
			returnBlock = b
		}
	}
	if returnBlock == nil {
		t.Fatal("expected a return block")
	}
	if res.In[returnBlock.ID]["a"] != Initialized {
		t.Fatalf("expected parameter a to be Initialized, got %v", res.In[returnBlock.ID]["a"])
	}
}
