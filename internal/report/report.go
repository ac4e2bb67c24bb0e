// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes a YAML summary next to each pipeline output so a
// run that stopped on quota can be picked up the following week.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// Report is the on-disk summary of one command run.
type Report struct {
	RunID   string   `yaml:"run_id"`
	Command string   `yaml:"command"`
	Input   string   `yaml:"input,omitempty"`
	Output  string   `yaml:"output,omitempty"`
	Errors  string   `yaml:"errors,omitempty"`
	Counts  Counts   `yaml:"counts"`
	Dropped []Reason `yaml:"dropped,omitempty"`
	// Unprocessed lists inputs never attempted because the quota ran out.
	Unprocessed []string  `yaml:"unprocessed,omitempty"`
	Quota       *int      `yaml:"remaining_quota,omitempty"`
	Started     time.Time `yaml:"started"`
	Finished    time.Time `yaml:"finished"`
}

// Counts are the row totals of a run.
type Counts struct {
	Input       int `yaml:"input"`
	Records     int `yaml:"records"`
	Failures    int `yaml:"failures"`
	Unprocessed int `yaml:"unprocessed"`
}

// Reason is one classifier drop reason with its row count.
type Reason struct {
	Reason string `yaml:"reason"`
	Rows   int    `yaml:"rows"`
}

// Path names the report written for output: <output minus extension>.run.yaml.
func Path(output string) string {
	if i := strings.LastIndexByte(output, '.'); i > strings.LastIndexAny(output, `/\`) {
		output = output[:i]
	}
	return output + ".run.yaml"
}

// Write saves r as YAML at path.
func Write(path string, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return nil
}

// Read loads a report written by Write.
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing run report: %w", err)
	}
	return &r, nil
}
