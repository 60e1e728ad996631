package advisor

import (
	"errors"
	"testing"
)

func TestResult(t *testing.T) {
	t.Parallel()

	ok := Success("hello")
	if ok.Failed() || ok.Text != "hello" || ok.Reason() != nil {
		t.Errorf("Success: %+v", ok)
	}

	cause := errors.New("timeout")
	failed := Failure(cause)
	if !failed.Failed() || failed.Text != "" || !errors.Is(failed.Reason(), cause) {
		t.Errorf("Failure: %+v", failed)
	}

	empty := Success("")
	if !empty.Failed() || empty.Reason() == nil {
		t.Error("empty text counts as a failure")
	}
	if Failure(nil).Reason() == nil {
		t.Error("Failure(nil) must still carry a reason")
	}
}
