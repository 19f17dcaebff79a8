package room

import (
	"testing"

	"github.com/zavahq/pokeroom/internal/models"
)

func newVoter(id, name string) *models.User {
	return &models.User{ID: id, ConnID: "conn-" + id, Name: name, Role: models.RoleVoter}
}

func newSpectator(id, name string) *models.User {
	return &models.User{ID: id, ConnID: "conn-" + id, Name: name, Role: models.RoleSpectator}
}

// adminCount walks a snapshot and counts members holding the admin flag.
func adminCount(t *testing.T, r *Room) int {
	t.Helper()
	count := 0
	for _, m := range r.Snapshot().Members {
		if m.IsAdmin {
			count++
		}
	}
	return count
}

func assertSingleAdmin(t *testing.T, r *Room) {
	t.Helper()
	if got := adminCount(t, r); got != 1 {
		t.Fatalf("expected exactly 1 admin, got %d", got)
	}
}

func TestJoinFirstMemberBecomesAdmin(t *testing.T) {
	r := NewRoom("sprint-42")

	r.Join(newVoter("u1", "Alice"))
	if !r.IsAdmin("u1") {
		t.Fatal("first member should be admin")
	}

	r.Join(newVoter("u2", "Bob"))
	if r.IsAdmin("u2") {
		t.Fatal("second member should not be admin")
	}
	assertSingleAdmin(t, r)
}

func TestJoinDuplicateIDPreservesExistingRecord(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("u1", "Alice"))
	if _, err := r.RecordVote("u1", "5"); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	stored := r.Join(newVoter("u1", "Alice2"))

	if stored.Name != "Alice" {
		t.Fatalf("existing record should win, got name %q", stored.Name)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 member, got %d", r.Len())
	}
	if value, ok := stored.Vote(); !ok || value != "5" {
		t.Fatalf("in-flight vote should be preserved, got (%q, %v)", value, ok)
	}
	if !stored.IsAdmin {
		t.Fatal("admin flag should be preserved")
	}
}

func TestLeavePromotionPrefersSpectator(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	r.Join(newSpectator("b", "B"))
	r.Join(newVoter("c", "C"))

	_, promoted, empty := r.Leave("a")
	if empty {
		t.Fatal("room should not be empty")
	}
	if promoted == nil || promoted.ID != "b" {
		t.Fatalf("expected spectator b to be promoted, got %+v", promoted)
	}
	assertSingleAdmin(t, r)
}

func TestLeavePromotionFallsBackToVoter(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	r.Join(newVoter("b", "B"))

	_, promoted, _ := r.Leave("a")
	if promoted == nil || promoted.ID != "b" {
		t.Fatalf("expected b to be promoted, got %+v", promoted)
	}
	assertSingleAdmin(t, r)
}

func TestLeaveNonAdminDoesNotPromote(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	r.Join(newSpectator("b", "B"))

	_, promoted, _ := r.Leave("b")
	if promoted != nil {
		t.Fatalf("no promotion expected, got %+v", promoted)
	}
	if !r.IsAdmin("a") {
		t.Fatal("a should still be admin")
	}
}

func TestLeaveLastMemberReportsEmpty(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))

	removed, promoted, empty := r.Leave("a")
	if removed == nil || !empty || promoted != nil {
		t.Fatalf("expected clean teardown, got removed=%v promoted=%v empty=%v", removed, promoted, empty)
	}
}

func TestRecordVoteRejectsSpectator(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newSpectator("s", "S"))

	if _, err := r.RecordVote("s", "3"); err != ErrSpectatorVote {
		t.Fatalf("expected ErrSpectatorVote, got %v", err)
	}

	m, _ := r.Member("s")
	if m.HasVoted {
		t.Fatal("spectator must never carry a vote")
	}
}

func TestRecordVoteCompletionIgnoresSpectators(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	r.Join(newVoter("b", "B"))
	r.Join(newSpectator("s", "S"))

	allVoted, err := r.RecordVote("a", "5")
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if allVoted {
		t.Fatal("completion should be false with one voter pending")
	}

	allVoted, err = r.RecordVote("b", "8")
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if !allVoted {
		t.Fatal("completion should be true once every voter has voted")
	}
}

func TestRecordVoteLastWriteWins(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))

	if _, err := r.RecordVote("a", "3"); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if _, err := r.RecordVote("a", "13"); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	r.Reveal()
	m, _ := r.Member("a")
	if m.Vote == nil || *m.Vote != "13" {
		t.Fatalf("expected last vote 13, got %v", m.Vote)
	}
}

func TestRecordVoteUnknownUser(t *testing.T) {
	r := NewRoom("sprint-42")
	if _, err := r.RecordVote("ghost", "1"); err != ErrUserNotInRoom {
		t.Fatalf("expected ErrUserNotInRoom, got %v", err)
	}
}

func TestCompletionReflectsRoleChanges(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	r.Join(newVoter("b", "B"))

	if allVoted, _ := r.RecordVote("a", "5"); allVoted {
		t.Fatal("b has not voted yet")
	}

	// b steps out to spectate: a is now the only voter, and has voted.
	if err := r.ChangeRole("b", models.RoleSpectator); err != nil {
		t.Fatalf("role change failed: %v", err)
	}
	if allVoted, _ := r.RecordVote("a", "5"); !allVoted {
		t.Fatal("completion should re-evaluate the shrunk voting population")
	}
}

func TestChangeRoleToSpectatorClearsVote(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	r.Join(newVoter("b", "B"))

	if _, err := r.RecordVote("a", "5"); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if err := r.ChangeRole("a", models.RoleSpectator); err != nil {
		t.Fatalf("role change failed: %v", err)
	}

	m, _ := r.Member("a")
	if m.HasVoted {
		t.Fatal("vote should be cleared on demotion to spectator")
	}
}

func TestRevealIsIdempotent(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	_, _ = r.RecordVote("a", "5")

	r.Reveal()
	first := r.Snapshot()
	r.Reveal()
	second := r.Snapshot()

	if !first.Revealed || !second.Revealed {
		t.Fatal("room should be revealed")
	}
	if *first.Members[0].Vote != *second.Members[0].Vote {
		t.Fatal("double reveal must not change state")
	}
}

func TestRecordVoteWhileRevealed(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	r.Join(newVoter("b", "B"))
	_, _ = r.RecordVote("a", "5")
	r.Reveal()

	// A straggler's vote after the reveal is still counted and shows up
	// immediately, like in the original service.
	if _, err := r.RecordVote("b", "8"); err != nil {
		t.Fatalf("late vote failed: %v", err)
	}

	for _, m := range r.Snapshot().Members {
		if m.UserID == "b" && (m.Vote == nil || *m.Vote != "8") {
			t.Fatalf("late vote should be visible, got %v", m.Vote)
		}
	}
}

func TestResetReturnsRoomToOpen(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	r.Join(newVoter("b", "B"))
	_, _ = r.RecordVote("a", "5")
	_, _ = r.RecordVote("b", "8")
	r.Reveal()

	r.Reset()
	r.Reset()

	snapshot := r.Snapshot()
	if snapshot.Revealed {
		t.Fatal("reset should hide votes")
	}
	for _, m := range snapshot.Members {
		if m.HasVoted || m.Vote != nil {
			t.Fatalf("reset should clear all votes, member %s still has one", m.UserID)
		}
	}
}

func TestSnapshotGatesVoteValues(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	_, _ = r.RecordVote("a", "5")

	before := r.Snapshot()
	if !before.Members[0].HasVoted {
		t.Fatal("hasVoted should be visible before reveal")
	}
	if before.Members[0].Vote != nil {
		t.Fatal("vote value must be withheld before reveal")
	}

	r.Reveal()
	after := r.Snapshot()
	if after.Members[0].Vote == nil || *after.Members[0].Vote != "5" {
		t.Fatalf("vote value should be visible after reveal, got %v", after.Members[0].Vote)
	}
}

func TestTransferAdmin(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	r.Join(newSpectator("s", "S"))
	r.Join(newVoter("b", "B"))

	if err := r.TransferAdmin("a", "s"); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if r.IsAdmin("a") || !r.IsAdmin("s") {
		t.Fatal("admin flag should have moved from a to s")
	}
	assertSingleAdmin(t, r)
}

func TestTransferAdminRejections(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	r.Join(newSpectator("s", "S"))
	r.Join(newVoter("b", "B"))

	cases := []struct {
		name     string
		caller   string
		target   string
		expected error
	}{
		{"caller is not admin", "b", "s", ErrTransferDenied},
		{"target is not a spectator", "a", "b", ErrTransferDenied},
		{"caller absent", "ghost", "s", ErrUserNotInRoom},
		{"target absent", "a", "ghost", ErrUserNotInRoom},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := r.TransferAdmin(tc.caller, tc.target); err != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, err)
			}
			if !r.IsAdmin("a") {
				t.Fatal("failed transfer must leave the admin flag untouched")
			}
			assertSingleAdmin(t, r)
		})
	}
}

func TestSetScaleResetsRound(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	_, _ = r.RecordVote("a", "5")
	r.Reveal()

	r.SetScale("fibonacci")

	snapshot := r.Snapshot()
	if snapshot.Revealed || snapshot.Members[0].HasVoted {
		t.Fatal("scale change should start a fresh round")
	}
	if snapshot.Scale != "fibonacci" {
		t.Fatalf("expected scale fibonacci, got %q", snapshot.Scale)
	}
}

func TestSetItemResetsRound(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	_, _ = r.RecordVote("a", "5")

	item := &WorkItem{ID: "1234", Type: "Product Backlog Item", Title: "Add login"}
	r.SetItem(item)

	snapshot := r.Snapshot()
	if snapshot.Members[0].HasVoted {
		t.Fatal("loading an item should start a fresh round")
	}
	if snapshot.Item == nil || snapshot.Item.ID != "1234" {
		t.Fatalf("item should be part of the snapshot, got %+v", snapshot.Item)
	}
}

func TestRebindPreservesMemberState(t *testing.T) {
	r := NewRoom("sprint-42")
	r.Join(newVoter("a", "A"))
	_, _ = r.RecordVote("a", "5")

	u, err := r.Rebind("a", "conn-new")
	if err != nil {
		t.Fatalf("rebind failed: %v", err)
	}
	if u.ConnID != "conn-new" {
		t.Fatalf("expected new conn id, got %q", u.ConnID)
	}
	if _, ok := u.Vote(); !ok {
		t.Fatal("rebind must not touch the in-flight vote")
	}
	if !u.IsAdmin {
		t.Fatal("rebind must not touch the admin flag")
	}
}
