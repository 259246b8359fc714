// Package source loads documents as positioned text runs.
//
// Three formats are understood, chosen by file extension:
//
//   - .pdf: text rows from ledongthuc/pdf with font size and a bold flag
//     taken from the font name
//   - .md, .markdown: goldmark blocks, with heading levels mapped onto
//     synthetic font sizes
//   - .json: pre-extracted runs, mainly for fixtures
//
// A Source lists and loads documents by ID. DirSource reads from a
// directory; MemorySource holds documents in memory for the API and tests.
package source
