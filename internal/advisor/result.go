package advisor

import "errors"

// Result is the outcome of one engine call: generated text or the reason it
// could not be produced. Engines never panic on upstream failures.
type Result struct {
	Text string
	Err  error
}

// errEmptyText marks a success carrying no usable text.
var errEmptyText = errors.New("empty text")

// Success wraps generated text.
func Success(text string) Result {
	return Result{Text: text}
}

// Failure wraps the reason a result could not be produced.
func Failure(err error) Result {
	if err == nil {
		err = errEmptyText
	}
	return Result{Err: err}
}

// Failed reports whether the call failed or produced no text.
func (r Result) Failed() bool {
	return r.Err != nil || r.Text == ""
}

// Reason returns why the result failed, or nil on success.
func (r Result) Reason() error {
	if r.Err != nil {
		return r.Err
	}
	if r.Text == "" {
		return errEmptyText
	}
	return nil
}
