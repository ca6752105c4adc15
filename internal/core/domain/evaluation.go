package domain

import "time"

type EvaluationSample struct {
	Query       string   `json:"query" yaml:"query"`
	RelevantIDs []string `json:"relevant_ids" yaml:"relevant_ids"`
}

type EvaluationResult struct {
	Query        string   `json:"query" yaml:"query"`
	RelevantIDs  []string `json:"relevant_ids" yaml:"relevant_ids"`
	HitIDs       []string `json:"hit_ids" yaml:"hit_ids"`
	RecallAtK    float64  `json:"recall_at_k" yaml:"recall_at_k"`
	PrecisionAtK float64  `json:"precision_at_k" yaml:"precision_at_k"`
	LatencyMS    float64  `json:"latency_ms" yaml:"latency_ms"`
	Error        string   `json:"error,omitempty" yaml:"error,omitempty"`
}

type EvaluationSummary struct {
	MeanRecall    float64 `json:"mean_recall" yaml:"mean_recall"`
	MeanPrecision float64 `json:"mean_precision" yaml:"mean_precision"`
	P95LatencyMS  float64 `json:"p95_latency_ms" yaml:"p95_latency_ms"`
	MeanLatencyMS float64 `json:"mean_latency_ms" yaml:"mean_latency_ms"`
	Samples       int     `json:"samples" yaml:"samples"`
	Failed        int     `json:"failed" yaml:"failed"`
}

type EvaluationReport struct {
	ID         string             `json:"id" yaml:"id"`
	Collection string             `json:"collection" yaml:"collection"`
	TopK       int                `json:"top_k" yaml:"top_k"`
	Summary    EvaluationSummary  `json:"summary" yaml:"summary"`
	Results    []EvaluationResult `json:"results" yaml:"results"`
	CreatedAt  time.Time          `json:"created_at" yaml:"created_at"`
}
