package sentinel

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  Error
		want string
	}{
		"checksum message": {err: Error("checksum mismatch"), want: "checksum mismatch"},
		"empty message":    {err: Error(""), want: ""},
		"with punctuation": {err: Error("reference: not acquired"), want: "reference: not acquired"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestError_ErrorsIs(t *testing.T) {
	t.Parallel()

	const errMismatch = Error("checksum mismatch")

	tests := map[string]struct {
		err    error
		target error
		want   bool
	}{
		"direct match": {
			err:    errMismatch,
			target: errMismatch,
			want:   true,
		},
		"wrapped once": {
			err:    fmt.Errorf("fetch gs://bucket/sdk.tar.xz: %w", errMismatch),
			target: errMismatch,
			want:   true,
		},
		"wrapped twice": {
			err:    fmt.Errorf("insert key: %w", fmt.Errorf("fetch: %w", errMismatch)),
			target: errMismatch,
			want:   true,
		},
		"joined": {
			err:    errors.Join(errors.New("release lock"), errMismatch),
			target: errMismatch,
			want:   true,
		},
		"different sentinel": {
			err:    errMismatch,
			target: Error("not acquired"),
			want:   false,
		},
		"same text from errors.New": {
			err:    errMismatch,
			target: errors.New("checksum mismatch"),
			want:   false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := errors.Is(tc.err, tc.target); got != tc.want {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tc.err, tc.target, got, tc.want)
			}
		})
	}
}
