// Package terms holds the lexical helpers shared by query encoding, rule
// matching, and paragraph selection.
//
// All matching is case-insensitive and happens on token boundaries: text is
// Unicode-normalized (NFKC, so ligatures such as "ﬁ" extracted from PDFs become
// "fi"), lowercased, and split into word tokens. A term matches when its own
// token sequence appears contiguously in the text, so "ham" never matches
// "graham" while "cash flow" and "gluten-free" match as written.
package terms
