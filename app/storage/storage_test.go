package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/m3rciful/utilbot/app/models"
)

func TestMapErr(t *testing.T) {
	other := errors.New("boom")
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, models.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), models.ErrNotFound},
		{"unique", &pq.Error{Code: "23505"}, models.ErrDuplicate},
		{"fk", &pq.Error{Code: "23503"}, nil},
		{"other", other, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapErr(tc.in)
			switch {
			case tc.in == nil:
				if got != nil {
					t.Fatalf("mapErr(nil) = %v", got)
				}
			case tc.want == nil:
				if errors.Is(got, models.ErrDuplicate) || errors.Is(got, models.ErrNotFound) {
					t.Fatalf("mapErr(%v) = %v, want passthrough", tc.in, got)
				}
			case !errors.Is(got, tc.want):
				t.Fatalf("mapErr(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestFindOrCreateRetriesLostInsert(t *testing.T) {
	other := errors.New("boom")
	lost := fmt.Errorf("storage: find_or_create_address: %w", models.ErrNotFound)
	cases := []struct {
		name      string
		createErr error
		findErr   error
		wantFinds int
		wantErr   error
	}{
		{"created", nil, nil, 0, nil},
		{"lost race", lost, nil, 1, nil},
		{"lost race then gone", lost, models.ErrNotFound, 1, models.ErrNotFound},
		{"failure", other, nil, 0, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			finds := 0
			create := func() (string, error) {
				if tc.createErr != nil {
					return "", tc.createErr
				}
				return "created", nil
			}
			find := func() (string, error) {
				finds++
				if tc.findErr != nil {
					return "", tc.findErr
				}
				return "found", nil
			}
			got, err := findOrCreate(create, find)
			if finds != tc.wantFinds {
				t.Fatalf("finds = %d, want %d", finds, tc.wantFinds)
			}
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("err = %v", err)
			}
			if (tc.wantFinds == 0 && got != "created") || (tc.wantFinds == 1 && got != "found") {
				t.Fatalf("got %q", got)
			}
		})
	}
}
