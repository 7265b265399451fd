package model

import (
    "time"
)

// Wire types shared by the HTTP API, the store and the CLI.

// LineSpec describes one production line: its stations, its roster and the
// skill matrix. It is the body of a solve request and the payload of a saved line.
type LineSpec struct {
    AutomatedTasks   []AutomatedTask `json:"automatedTasks" yaml:"automatedTasks"`
    ManualTasks      []ManualTask    `json:"manualTasks" yaml:"manualTasks"`
    Workers          []Worker        `json:"workers" yaml:"workers"`
    Pairings         []Pairing       `json:"pairings,omitempty" yaml:"pairings,omitempty"`
    OneTaskPerWorker bool            `json:"oneTaskPerWorker,omitempty" yaml:"oneTaskPerWorker,omitempty"`
}

type AutomatedTask struct {
    ID        string  `json:"id" yaml:"id"`
    CycleTime Decimal `json:"cycleTime" yaml:"cycleTime"`
}

type ManualTask struct {
    ID          string  `json:"id" yaml:"id"`
    BaseTime    Decimal `json:"baseTime,omitempty" yaml:"baseTime,omitempty"`
    Repetitions int     `json:"repetitions,omitempty" yaml:"repetitions,omitempty"`
    MinWorkers  int     `json:"minWorkers,omitempty" yaml:"minWorkers,omitempty"`
    Unpaced     bool    `json:"unpaced,omitempty" yaml:"unpaced,omitempty"`
    Shared      bool    `json:"shared,omitempty" yaml:"shared,omitempty"`
}

type Worker struct {
    ID        string   `json:"id" yaml:"id"`
    Preferred bool     `json:"preferred,omitempty" yaml:"preferred,omitempty"`
    Skills    []string `json:"skills" yaml:"skills"`
}

type Pairing struct {
    First  string `json:"first" yaml:"first"`
    Second string `json:"second" yaml:"second"`
}

// SolveRequest is an inline instance plus per-request budget.
type SolveRequest struct {
    LineSpec     `yaml:",inline"`
    TimeBudgetMs int `json:"timeBudgetMs,omitempty" yaml:"timeBudgetMs,omitempty"`
    NodeLimit    int `json:"nodeLimit,omitempty" yaml:"nodeLimit,omitempty"`
}

// LineSolveRequest re-solves a saved line with overrides for the day.
type LineSolveRequest struct {
    // Preferred replaces the saved preference flags when non-nil.
    Preferred    []string `json:"preferred,omitempty"`
    Exclude      []string `json:"exclude,omitempty"`
    TimeBudgetMs int      `json:"timeBudgetMs,omitempty"`
    NodeLimit    int      `json:"nodeLimit,omitempty"`
}

// LineInput is the body for creating or replacing a saved line.
type LineInput struct {
    Name string   `json:"name"`
    Spec LineSpec `json:"line"`
}

// Line is a saved line profile.
type Line struct {
    ID        string    `json:"id"`
    TenantID  string    `json:"tenantId,omitempty"`
    Name      string    `json:"name"`
    Version   int       `json:"version"`
    Spec      LineSpec  `json:"line"`
    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`
}

// SolverConfig holds solver limits. Zero fields fall back to process defaults.
type SolverConfig struct {
    TimeBudgetMs   int   `json:"timeBudgetMs,omitempty" yaml:"timeBudgetMs,omitempty"`
    NodeLimit      int   `json:"nodeLimit,omitempty" yaml:"nodeLimit,omitempty"`
    MaxDenominator int64 `json:"maxDenominator,omitempty" yaml:"maxDenominator,omitempty"`
}

// Merge overlays the non-zero fields of o on c.
func (c SolverConfig) Merge(o SolverConfig) SolverConfig {
    if o.TimeBudgetMs > 0 { c.TimeBudgetMs = o.TimeBudgetMs }
    if o.NodeLimit > 0 { c.NodeLimit = o.NodeLimit }
    if o.MaxDenominator > 0 { c.MaxDenominator = o.MaxDenominator }
    return c
}

type SolveResponse struct {
    Status          string         `json:"status"`
    Optimal         bool           `json:"optimal"`
    Bottleneck      string         `json:"bottleneck,omitempty"`
    BottleneckExact string         `json:"bottleneckExact,omitempty"`
    TotalWorkers    int            `json:"totalWorkers"`
    PreferredUsed   int            `json:"preferredUsed"`
    Objective       int64          `json:"objective,omitempty"`
    Tasks           []TaskResult   `json:"tasks,omitempty"`
    Workers         []WorkerResult `json:"workers,omitempty"`
    Reasons         []string       `json:"reasons,omitempty"`
    Stats           SolveStats     `json:"stats"`
}

type TaskResult struct {
    TaskID             string   `json:"taskId"`
    Workers            []string `json:"workers"`
    Count              int      `json:"count"`
    Required           int      `json:"required"`
    Paced              bool     `json:"paced"`
    BaseTime           string   `json:"baseTime,omitempty"`
    EffectiveTime      string   `json:"effectiveTime,omitempty"`
    EffectiveTimeExact string   `json:"effectiveTimeExact,omitempty"`
}

type WorkerResult struct {
    WorkerID  string   `json:"workerId"`
    Used      bool     `json:"used"`
    Preferred bool     `json:"preferred,omitempty"`
    Tasks     []string `json:"tasks,omitempty"`
}

type SolveStats struct {
    Nodes      int    `json:"nodes"`
    Conflicts  int    `json:"conflicts"`
    Incumbents int    `json:"incumbents"`
    ElapsedMs  int64  `json:"elapsedMs"`
    Stopped    string `json:"stopped,omitempty"`
}

// ProgressEvent is streamed for every improving assignment.
type ProgressEvent struct {
    TotalWorkers  int   `json:"totalWorkers"`
    PreferredUsed int   `json:"preferredUsed"`
    Objective     int64 `json:"objective"`
    Nodes         int   `json:"nodes"`
    ElapsedMs     int64 `json:"elapsedMs"`
}
