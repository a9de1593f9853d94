// Package operations runs the KPI pipeline as an ordered list of stages.
//
// A Manager executes the stages of a Registry sequentially over one RunState:
//
//	resolve → normalize → filter → join → collapse → classify → aggregate → correlate
//
// Each stage reads the outputs of earlier stages and stores its own output in
// a separate RunState field, so no stage rewrites what an earlier one
// produced. A dataset rejected by the resolver is reported in the result and
// the remaining datasets carry on; the run fails only when every supplied
// dataset is rejected.
//
// The last successful result is kept in a SessionCache, the single piece of
// state shared between runs and readers.
package operations
