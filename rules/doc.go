// Package rules applies domain knowledge on top of semantic scores.
//
// A Table lists domains in priority order. Each domain carries keywords used
// to recognise it in a query, boost and penalty terms that nudge section
// scores, hard exclusions that remove sections outright, and conditions that
// add penalties or exclusions only when the query mentions a trigger term.
//
// The Filter is pure: it returns new annotated copies and never mutates its
// input.
package rules
