package ports

import (
	"encoding/json"
	"fmt"
)

// Status is the closed set of variants an exchange call can end in.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusRejected         Status = "rejected"
	StatusTransportFailure Status = "transport_failure"
)

// Result is the normalized reply of a single exchange call. Adapters never
// return Go errors for exchange calls; transport and decode failures are
// folded into a TransportFailure result instead.
type Result struct {
	Status  Status          `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"msg,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"` // the exchange's payload, verbatim
}

// CodeTransport is the code carried by transport failures that have no HTTP status.
const CodeTransport = "-1"

// Success builds a successful result around the raw payload.
func Success(code string, data json.RawMessage) Result {
	return Result{Status: StatusSuccess, Code: code, Data: data}
}

// Rejected builds a result for a call the exchange answered with a failure code.
func Rejected(code, message string, data json.RawMessage) Result {
	return Result{Status: StatusRejected, Code: code, Message: message, Data: data}
}

// TransportFailure builds a result for a call that produced no decodable answer.
func TransportFailure(code, message string) Result {
	if code == "" {
		code = CodeTransport
	}
	return Result{Status: StatusTransportFailure, Code: code, Message: message}
}

// OK reports whether the exchange accepted the call.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// IsTransportFailure reports whether the call failed before the exchange could answer it.
func (r Result) IsTransportFailure() bool { return r.Status == StatusTransportFailure }

func (r Result) String() string {
	if r.OK() {
		return fmt.Sprintf("%s(code=%s)", r.Status, r.Code)
	}
	return fmt.Sprintf("%s(code=%s msg=%q)", r.Status, r.Code, r.Message)
}

// Ptr returns a pointer to a copy of r, for optional outcome fields.
func (r Result) Ptr() *Result { return &r }
