package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAbortExitsWithOne(t *testing.T) {
	code := -1
	exit = func(c int) { code = c }
	defer func() { exit = osExit }()

	Abort("boom", errors.New("cause"))
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestSignalHandlerFollowsParent(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := SetupSignalHandler(parent)
	defer cancel()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("context not cancelled with its parent")
	}
}
