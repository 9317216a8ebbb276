package cli

import (
	"testing"
)

func TestArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"reviews without item", []string{"reviews"}},
		{"reviews with two items", []string{"reviews", "1", "2"}},
		{"review without comment", []string{"review", "1", "--rating", "4", "--author", "ana"}},
		{"review without rating", []string{"review", "1", "great", "--author", "ana"}},
		{"review without author", []string{"review", "1", "great", "--rating", "4"}},
		{"show without id", []string{"show"}},
		{"fav add without id", []string{"fav", "add"}},
		{"fav rm without id", []string{"fav", "rm"}},
		{"keys create without name", []string{"keys", "create"}},
		{"keys revoke without id", []string{"keys", "revoke"}},
		{"serve with args", []string{"serve", "extra"}},
		{"recent with args", []string{"recent", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			if _, err := executeCommand(tt.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestShowRejectsNonNumericID(t *testing.T) {
	isolateEnv(t)
	if _, err := executeCommand("show", "abc"); err == nil {
		t.Fatal("expected error for non-numeric ID")
	}
}

func TestFavRejectsNonNumericID(t *testing.T) {
	isolateEnv(t)
	for _, sub := range []string{"add", "rm"} {
		if _, err := executeCommand("fav", sub, "abc"); err == nil {
			t.Errorf("fav %s: expected error for non-numeric ID", sub)
		}
	}
}

func TestKeysRevokeRejectsNonNumericID(t *testing.T) {
	isolateEnv(t)
	if _, err := executeCommand("keys", "revoke", "abc"); err == nil {
		t.Fatal("expected error for non-numeric ID")
	}
}

func TestReviewRejectsInvalidRating(t *testing.T) {
	isolateEnv(t)
	_, err := executeCommand("review", "1", "great", "--rating", "9", "--author", "ana")
	if err == nil {
		t.Fatal("expected validation error for rating 9")
	}
}
