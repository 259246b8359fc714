// Package outline groups classified runs into sections.
//
// Each heading opens a section and every following body run belongs to it
// until the next heading. Body text that precedes the first heading goes
// into an implicit section titled with the document title. Within a
// section, runs that sit close together on the same page are joined into
// passages.
package outline
