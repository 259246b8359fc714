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


package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/layout"
	"github.com/poiesic/docsift/outline"
	"github.com/poiesic/docsift/ranking"
	"github.com/poiesic/docsift/selection"
)

// ErrInvalidSettings wraps every settings validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings configures one docsift process.
type Settings struct {
	Layout    layout.Config    `yaml:"layout"`
	Outline   outline.Config   `yaml:"outline"`
	Ranking   ranking.Config   `yaml:"ranking"`
	Selection selection.Config `yaml:"selection"`

	// PoolSize is the number of documents processed at once.
	PoolSize int `yaml:"pool_size"`

	// CacheDir holds the embedding cache and run history. Empty disables both.
	CacheDir string `yaml:"cache_dir"`

	// RulesFile replaces the built-in rule table when set.
	RulesFile string `yaml:"rules_file"`

	AI *ai.Config `yaml:"ai"`
}

// DefaultSettings returns the package defaults.
func DefaultSettings() *Settings {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	return &Settings{
		Layout:    layout.DefaultConfig(),
		Outline:   outline.DefaultConfig(),
		Ranking:   ranking.DefaultConfig(),
		Selection: selection.DefaultConfig(),
		PoolSize:  poolSize,
		AI:        ai.DefaultConfig(),
	}
}

// ParseSettings overlays YAML data onto the defaults.
func ParseSettings(data []byte) (*Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if s.AI == nil {
		s.AI = ai.DefaultConfig()
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadSettings reads a YAML settings file. An empty path returns the defaults.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return DefaultSettings(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return ParseSettings(data)
}

// Validate checks every section and reports all problems at once.
func (s *Settings) Validate() error {
	var errs []error
	if err := s.Layout.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("layout: %w", err))
	}
	if err := s.Outline.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("outline: %w", err))
	}
	if s.Ranking.Timeout <= 0 || s.Ranking.BatchSize <= 0 || s.Ranking.Concurrency <= 0 {
		errs = append(errs, errors.New("ranking: timeout, batch_size and concurrency must be positive"))
	}
	if err := s.Selection.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("selection: %w", err))
	}
	if s.PoolSize < 1 {
		errs = append(errs, errors.New("pool_size must be at least 1"))
	}
	if s.AI == nil {
		errs = append(errs, errors.New("ai: missing"))
	} else if err := s.AI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ai: %w", err))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
}

// Encode renders the settings as YAML.
func (s *Settings) Encode() ([]byte, error) {
	return yaml.Marshal(s)
}
