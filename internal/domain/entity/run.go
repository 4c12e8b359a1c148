package entity

import "time"

type CompletionReason string

const (
	ReasonFinished  CompletionReason = "finished"
	ReasonExhausted CompletionReason = "exhausted"
)

type RunResult struct {
	RunID         string           `json:"run_id"`
	Reason        CompletionReason `json:"reason"`
	Steps         int              `json:"steps"`
	ParseFailures int              `json:"parse_failures"`
	Submitted     bool             `json:"submitted"`
	FinalURL      string           `json:"final_url,omitempty"`
	Duration      time.Duration    `json:"duration"`
	Screenshot    *Screenshot      `json:"-"`
}
