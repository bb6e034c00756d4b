package netutil

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad request"), false},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"flood", tele.FloodError{RetryAfter: 3}, true},
		{"server", &tele.Error{Code: 502, Description: "bad gateway"}, true},
		{"client", &tele.Error{Code: 400, Description: "message to delete not found"}, false},
		{"canceled", context.Canceled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldRetry(tc.err); got != tc.want {
				t.Fatalf("ShouldRetry(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
	if d, ok := RetryAfter(tele.FloodError{RetryAfter: 3}); !ok || d != 3*time.Second {
		t.Fatalf("RetryAfter = %v %v", d, ok)
	}
}
