package config

import (
	"context"
	"path/filepath"
	"testing"
)

func TestResolveHomeOverride(t *testing.T) {
	got, err := ResolveHome("/tmp/custom/")
	if err != nil {
		t.Fatalf("ResolveHome: %v", err)
	}
	if got != filepath.Clean("/tmp/custom/") {
		t.Fatalf("home = %q", got)
	}
}

func TestResolveHomeEnv(t *testing.T) {
	t.Setenv("OPTISHIFT_HOME", "/srv/optishift")
	got, err := ResolveHome("")
	if err != nil {
		t.Fatalf("ResolveHome: %v", err)
	}
	if got != "/srv/optishift" {
		t.Fatalf("home = %q", got)
	}
	// Explicit override beats the environment.
	got, err = ResolveHome("/elsewhere")
	if err != nil || got != "/elsewhere" {
		t.Fatalf("override home = %q, %v", got, err)
	}
}

func TestResolveHomeDefault(t *testing.T) {
	t.Setenv("OPTISHIFT_HOME", "")
	got, err := ResolveHome("")
	if err != nil {
		t.Fatalf("ResolveHome: %v", err)
	}
	if filepath.Base(got) != ".optishift" {
		t.Fatalf("default home = %q", got)
	}
}

func TestHomeContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	if _, ok := HomeFrom(ctx); ok {
		t.Fatal("empty context should carry no home")
	}
	ctx = WithHome(ctx, "/srv/optishift")
	got, ok := HomeFrom(ctx)
	if !ok || got != "/srv/optishift" {
		t.Fatalf("HomeFrom = %q, %v", got, ok)
	}
	if MustHomeFrom(ctx) != "/srv/optishift" {
		t.Fatal("MustHomeFrom mismatch")
	}
}

func TestMustHomeFromPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on missing home")
		}
	}()
	MustHomeFrom(context.Background())
}
