package pipeline

import (
	"errors"
	"testing"
)

func TestChainRunsBothStagesAndReturnsNilOnSuccess(t *testing.T) {
	var upstreamRan, downstreamRan bool

	err := Chain(
		func() error { upstreamRan = true; return nil },
		func() error { downstreamRan = true; return nil },
	)
	if err != nil {
		t.Fatalf("Chain() = %v, want nil", err)
	}
	if !upstreamRan || !downstreamRan {
		t.Fatalf("upstreamRan=%v downstreamRan=%v, want both true", upstreamRan, downstreamRan)
	}
}

func TestChainSurfacesUpstreamError(t *testing.T) {
	want := errors.New("upstream failed")

	err := Chain(
		func() error { return want },
		func() error { return nil },
	)
	if !errors.Is(err, want) {
		t.Fatalf("Chain() = %v, want %v", err, want)
	}
}

func TestChainSurfacesDownstreamErrorWhenUpstreamSucceeds(t *testing.T) {
	want := errors.New("downstream failed")

	err := Chain(
		func() error { return nil },
		func() error { return want },
	)
	if !errors.Is(err, want) {
		t.Fatalf("Chain() = %v, want %v", err, want)
	}
}
