// Package config loads run settings and query files.
//
// Settings hold every tunable threshold of the pipeline plus the embedding
// client configuration. They start from each package's defaults and may be
// overlaid from a YAML file; keys left out of the file keep their defaults.
//
// Query files come in two JSON shapes, a flat one:
//
//	{"persona": "Travel Planner", "job": "Plan a trip", "documents": ["a.pdf"]}
//
// and the nested challenge shape:
//
//	{"persona": {"role": "Travel Planner"},
//	 "job_to_be_done": {"task": "Plan a trip"},
//	 "documents": [{"filename": "a.pdf", "title": "A"}]}
package config
