// Package ipc implements the local control socket: one JSON request per
// connection, answered with one JSON response.
package ipc

const (
	OpPing  = "ping"
	OpStart = "start"
	OpStop  = "stop"
)

const (
	ResultPong    = "pong"
	ResultStarted = "started"
	ResultStopped = "stopped"

	errUnknownOp = "Unknown op"
)

type Request struct {
	Op        string `json:"op"`
	Component string `json:"component,omitempty"`
	Instance  string `json:"instance,omitempty"`
}

// Response carries either Result or Error. Error is the string "Unknown op"
// for unsupported ops and true for failures, with the reason in Msg.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  any    `json:"error,omitempty"`
	Msg    string `json:"msg,omitempty"`
}

func failure(msg string) *Response {
	return &Response{Error: true, Msg: msg}
}

// Failed reports whether the response carries an error of either form.
func (r *Response) Failed() bool {
	return r.Error != nil
}
