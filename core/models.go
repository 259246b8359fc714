// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

type ID uint64

func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DomainGeneral is the label used when no domain keyword matches a query.
const DomainGeneral = "general"

// TextRun is one run of text as laid out on a page.
type TextRun struct {
	Text     string
	FontSize float64
	Bold     bool
	Page     int     // 1-based page number
	Y        float64 // Distance from the top of the page; grows downward
}

type RunKind int

const (
	// RunKindBody is ordinary body text.
	RunKindBody RunKind = iota + 1
	// RunKindHeading marks a run that opens a new section.
	RunKindHeading
)

func (k RunKind) String() string {
	switch k {
	case RunKindBody:
		return "body"
	case RunKindHeading:
		return "heading"
	default:
		return "unknown"
	}
}

type ClassifiedRun struct {
	TextRun
	Kind RunKind
}

// Passage is a block of body text that the section builder kept together.
type Passage struct {
	Text string
	Page int
}

type Section struct {
	Id         ID
	DocumentID string
	Index      int // Position of the section within its document
	Heading    string
	Content    []Passage
	Page       int
	Implicit   bool // Synthesized when body text precedes any heading
}

// Body joins the section's passages with newlines.
func (s *Section) Body() string {
	parts := make([]string, len(s.Content))
	for i, p := range s.Content {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n")
}

// Text is the heading followed by the body, or the heading alone when the
// section has no content.
func (s *Section) Text() string {
	body := s.Body()
	if body == "" {
		return s.Heading
	}
	return s.Heading + "\n" + body
}

type Query struct {
	Persona string
	Job     string
	Text    string
	Domain  string
	Terms   []string  // Significant terms, sorted
	Vector  []float32 // Embedding of Text
}

type ScoredSection struct {
	Section        *Section
	DocumentOrder  int
	SemanticScore  float64
	RuleAdjustment float64
	FinalScore     float64
	Rank           int
	Unranked       bool // Embedding failed; never selected
	Excluded       bool // A hard exclusion term matched; never selected
	BoostHits      []string
	PenaltyHits    []string
}

// Selectable reports whether the section may appear in the final answer set.
func (s ScoredSection) Selectable() bool {
	return !s.Unranked && !s.Excluded
}

type Paragraph struct {
	Text       string
	Page       int
	SectionID  ID
	Included   bool
	MatchTerms []string
}

type DocumentStatus string

const (
	StatusOK     DocumentStatus = "ok"
	StatusEmpty  DocumentStatus = "empty"
	StatusFailed DocumentStatus = "failed"
)

type ResultParagraph struct {
	Text       string `json:"text"`
	PageNumber int    `json:"page_number"`
}

type ResultSection struct {
	DocumentID string            `json:"document_id"`
	Rank       int               `json:"rank"`
	Heading    string            `json:"heading"`
	PageNumber int               `json:"page_number"`
	Score      float64           `json:"score"`
	Paragraphs []ResultParagraph `json:"paragraphs"`
}

type DocumentResult struct {
	DocumentID string          `json:"document_id"`
	Status     DocumentStatus  `json:"status"`
	Error      string          `json:"error,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
	Sections   []ResultSection `json:"sections"`
}

type Result struct {
	Persona   string           `json:"persona"`
	Job       string           `json:"job_to_be_done"`
	Domain    string           `json:"domain"`
	Policy    string           `json:"selection_policy"`
	Documents []DocumentResult `json:"documents"`
}

// RunRecord summarizes one pipeline run for the run history.
type RunRecord struct {
	ID        string
	Persona   string
	Job       string
	Domain    string
	Policy    string
	StartedAt time.Time
	Elapsed   time.Duration
	Documents int
	Failed    int
	Selected  int
}
