// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"covenant/grammar"
	"covenant/internal/astbuild"
	"covenant/internal/diag"
	"covenant/internal/driver"
	"covenant/internal/smt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: covenant <file.cov>")
		os.Exit(1)
	}

	path := os.Args[1]
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read %s: %s", path, err)
		os.Exit(1)
	}

	prog, err := grammar.ParseString(path, string(source))
	if err != nil {
		// grammar.ParseString already printed a caret-style diagnostic.
		os.Exit(1)
	}

	mods := astbuild.Build(prog)
	cache := smt.NewCache()
	hasErrors := false

	for _, mod := range mods {
		sink := diag.NewCollector()
		driver.RunModule(mod, driver.DefaultOptions(), cache, sink)
		printDiagnostics(string(source), sink)
		hasErrors = hasErrors || sink.HasErrors()
	}

	if !smt.Available() {
		color.Yellow("note: no SMT solver (z3/cvc5/boolector) found on PATH; contract discharge falls back to heuristics")
	}

	if hasErrors {
		os.Exit(1)
	}
	color.Green("%s verified", path)
}

func printDiagnostics(source string, sink *diag.Collector) {
	w := diag.NewColorWriter(source)
	for file, diags := range sink.ByFile() {
		for _, d := range diags {
			fmt.Print(w.Format(file, d))
		}
	}
}
