// Package layout classifies positioned text runs into headings and body text.
//
// The body baseline is the most common font size in a document. Runs set
// noticeably larger than the baseline, or bold at baseline size or larger,
// are heading candidates. Optional shape guards reject candidates that read
// like sentences or carry no letters, so pull quotes and page numbers stay
// body text. Runs at twice the baseline are always headings.
package layout
