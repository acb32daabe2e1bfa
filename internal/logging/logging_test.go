package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// These tests mutate package-level state and therefore do not run in parallel.

func TestSetLogger_CustomLoggerIsReturned(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, nil))
	SetLogger(custom)

	if Logger() != custom {
		t.Fatal("Logger() did not return the installed logger")
	}

	Logger().Info("populated", "key", "sdk+1.0")
	if !strings.Contains(buf.String(), "key=sdk+1.0") {
		t.Errorf("log output = %q, want it to contain key=sdk+1.0", buf.String())
	}
}

func TestSetLogger_NilRestoresDefault(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(custom)
	SetLogger(nil)

	got := Logger()
	if got == nil {
		t.Fatal("Logger() returned nil after SetLogger(nil)")
	}
	if got == custom {
		t.Error("Logger() still returns the custom logger after SetLogger(nil)")
	}
	if Logger() != got {
		t.Error("default logger is not cached between calls")
	}
}

func TestOr(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if Or(custom) != custom {
		t.Error("Or(custom) did not return custom")
	}
	if Or(nil) != Logger() {
		t.Error("Or(nil) did not return the package logger")
	}
}

func TestLogger_FollowsSlogDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		SetLogger(nil)
	})
	SetLogger(nil)

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	first := Logger()
	first.Info("lock acquired")
	if !strings.Contains(buf.String(), "component="+Component) {
		t.Errorf("log output = %q, want the component attribute", buf.String())
	}
	if Logger() != first {
		t.Error("default-derived logger rebuilt without a slog.SetDefault")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if Logger() == first {
		t.Error("Logger() kept the logger derived from the replaced default")
	}
}

func TestSetLogger_WinsOverSlogDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		SetLogger(nil)
	})

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(custom)
	slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	if Logger() != custom {
		t.Error("slog.SetDefault displaced the installed logger")
	}
}
