package models

import "testing"

func TestParseRole(t *testing.T) {
	if role, err := ParseRole("voter"); err != nil || role != RoleVoter {
		t.Fatalf("got (%q, %v)", role, err)
	}
	if role, err := ParseRole("spectator"); err != nil || role != RoleSpectator {
		t.Fatalf("got (%q, %v)", role, err)
	}
	if _, err := ParseRole("moderator"); err != ErrUnknownRole {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestVoteState(t *testing.T) {
	u := &User{ID: "u1", Role: RoleVoter}

	if _, ok := u.Vote(); ok {
		t.Fatal("fresh user must not have a vote")
	}

	u.SetVote("5")
	if value, ok := u.Vote(); !ok || value != "5" {
		t.Fatalf("got (%q, %v)", value, ok)
	}

	u.SetVote("8")
	if value, _ := u.Vote(); value != "8" {
		t.Fatalf("last write should win, got %q", value)
	}

	u.ClearVote()
	if _, ok := u.Vote(); ok {
		t.Fatal("cleared user must not have a vote")
	}
}
