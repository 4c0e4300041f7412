package response

import "time"

// Kind is the closed set of response shapes. Rendering switches over it
// exhaustively; adding a kind without a handler is a compile-time hole the
// default branch turns into a visible error response, never a silent one.
type Kind int

const (
	KindData Kind = iota
	KindAction
	KindError
	KindClarification
	KindConfirmation
	KindEmpty
	KindSuccess
	KindSummary
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindAction:
		return "action"
	case KindError:
		return "error"
	case KindClarification:
		return "clarification"
	case KindConfirmation:
		return "confirmation"
	case KindEmpty:
		return "empty"
	case KindSuccess:
		return "success"
	case KindSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// Envelope is the uniform structured result returned for every turn,
// success or failure.
type Envelope struct {
	Type           string                 `json:"type"`
	Text           string                 `json:"text"`
	Verbal         string                 `json:"verbal,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	ResponseID     string                 `json:"response_id,omitempty"`
	ProcessingTime float64                `json:"processing_time,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}
