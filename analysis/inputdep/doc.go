// Package inputdep implements a whole-program input-dependency analysis
// over the SSA form of a Go program.
//
// The analysis classifies every instruction, value and basic block of the
// program as input-independent or input-dependent, where input covers
// environment variables, files, streams, clocks, random sources and any
// data returned by functions the analysis cannot see. Classification is an
// over-approximation: an instruction reported input-independent is
// guaranteed not to be influenced by input; the converse does not hold.
//
// Each function is analyzed once by a forward iterative analysis that
// tracks both explicit data flow and implicit flow through branch
// conditions (blocks executing under an input-dependent branch fold the
// condition into every fact they produce). The per-function result is a
// FunctionSummary whose return and out-parameter dependencies are formulas
// over the function's own formals, composed at call sites. Functions are
// visited callees-first over the strongly connected components of the
// callgraph; a final module-wide fixpoint resolves argument and global
// dependencies across functions.
//
// Library functions without bodies are handled by the model registry of
// package libmodel, and calls that can neither be analyzed nor modeled fall
// back to a conservative policy that taints the call result and everything
// reachable through pointer arguments.
package inputdep
