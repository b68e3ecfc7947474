package http

import "compactd/pkg/compaction"

type Status string

const (
	// StatusOK is used for health-check responses.
	StatusOK Status = "OK"

	// StatusSuccess indicates an operation completed successfully.
	StatusSuccess Status = "success"

	// StatusError indicates an operation failed.
	StatusError Status = "error"
)

// Response represents the standard API response format.
type Response struct {
	Status Status `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SelectRequest is the body of POST /api/compaction/select.
type SelectRequest struct {
	Strategy               string                 `json:"strategy,omitempty"`
	TargetPartitionsPerRun *int                   `json:"target_partitions_per_run,omitempty"`
	TargetIOPerRunMB       *int64                 `json:"target_io_per_run_mb,omitempty"`
	Operations             []compaction.Operation `json:"operations"`
}

// SelectResponse carries the admitted operations in execution order.
type SelectResponse struct {
	Status     Status                 `json:"status"`
	Strategy   string                 `json:"strategy"`
	Operations []compaction.Operation `json:"operations"`
	Admitted   []string               `json:"admitted"`
	Rejected   []string               `json:"rejected"`
}

// PlansResponse lists pending plans.
type PlansResponse struct {
	Status Status            `json:"status"`
	Plans  []compaction.Plan `json:"plans"`
}

// PlanResponse wraps a single pending plan.
type PlanResponse struct {
	Status Status          `json:"status"`
	Plan   compaction.Plan `json:"plan"`
}

func NewOKResponse() Response {
	return Response{Status: StatusOK}
}

func NewSuccessResponse() Response {
	return Response{Status: StatusSuccess}
}

func NewErrorResponse(err string) Response {
	return Response{Status: StatusError, Error: err}
}

func NewSelectResponse(strategy string, sel compaction.Selection) SelectResponse {
	resp := SelectResponse{
		Status:     StatusSuccess,
		Strategy:   strategy,
		Operations: sel.Operations,
		Admitted:   sel.Admitted,
		Rejected:   sel.Rejected,
	}
	if resp.Operations == nil {
		resp.Operations = []compaction.Operation{}
	}
	if resp.Admitted == nil {
		resp.Admitted = []string{}
	}
	if resp.Rejected == nil {
		resp.Rejected = []string{}
	}
	return resp
}
