// Package pipeline runs a persona and job query against a set of documents.
//
// Each document is loaded, classified, grouped into sections and ranked on
// an ants worker pool. The scored sections of every document are then
// merged, adjusted by the domain rule filter and cut down by the paragraph
// selector into a core.Result.
//
// A document that fails to load or rank is reported with status "failed"
// and never stops the others. Only query configuration problems or a
// cancelled context abort a run. When the query itself cannot be embedded,
// every document with content is reported failed with that error.
package pipeline
