package ballot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/ballot"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/testutil"
)

func setMarker(t *testing.T, s docstore.Store, voterID string, hasVoted bool) {
	t.Helper()
	ctx := context.Background()
	voters, err := docstore.ReadList[models.Voter](ctx, s, docstore.Voters)
	if err != nil {
		t.Fatal(err)
	}
	for i := range voters {
		if voters[i].ID == voterID {
			voters[i].HasVoted = hasVoted
		}
	}
	if err := docstore.WriteList(ctx, s, docstore.Voters, voters); err != nil {
		t.Fatal(err)
	}
}

func TestReconcileAll_Symmetric(t *testing.T) {
	e := newEnv(t)
	e.voter(t, "a@x.com")
	e.voter(t, "b@x.com")
	e.voter(t, "c@x.com")

	// a: vote without marker; b: marker without vote; c: consistent
	testutil.SubmitTestVote(t, e.store, e.election.ID, "a@x.com", fullBallot())
	setMarker(t, e.store, "a@x.com", false)
	setMarker(t, e.store, "b@x.com", true)

	report, err := e.service.Reconciler().ReconcileAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := ballot.Report{Checked: 3, MarkersSet: 1, MarkersCleared: 1}
	if report != want {
		t.Errorf("expected %+v, got %+v", want, report)
	}

	a := testutil.ReadVoter(t, e.store, "a@x.com")
	if !a.HasVoted || a.VotedAt == nil {
		t.Errorf("expected marker set for a, got %+v", a)
	}
	if testutil.ReadVoter(t, e.store, "b@x.com").HasVoted {
		t.Error("expected marker cleared for b")
	}
	if testutil.ReadVoter(t, e.store, "c@x.com").HasVoted {
		t.Error("expected c untouched")
	}

	// Second pass is a no-op
	report, err = e.service.Reconciler().ReconcileAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Repairs() != 0 {
		t.Errorf("expected no repairs on second pass, got %+v", report)
	}
}

func TestReconcileVoter(t *testing.T) {
	e := newEnv(t)
	e.voter(t, "a@x.com")
	e.voter(t, "b@x.com")
	testutil.SubmitTestVote(t, e.store, e.election.ID, "a@x.com", fullBallot())
	testutil.SubmitTestVote(t, e.store, e.election.ID, "b@x.com", fullBallot())
	setMarker(t, e.store, "a@x.com", false)
	setMarker(t, e.store, "b@x.com", false)

	report, err := e.service.Reconciler().ReconcileVoter(context.Background(), "A@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if report.Checked != 1 || report.MarkersSet != 1 {
		t.Errorf("unexpected report %+v", report)
	}
	if testutil.ReadVoter(t, e.store, "b@x.com").HasVoted {
		t.Error("other voters must not be touched")
	}
}

func TestSubmitBallot_MarkerWithoutVoteIsQueued(t *testing.T) {
	e := newEnv(t)
	e.voter(t, "a@x.com")
	setMarker(t, e.store, "a@x.com", true)
	ctx := context.Background()

	_, err := e.service.SubmitBallot(ctx, ballot.Submission{VoterID: "a@x.com", Selections: fullBallot()})
	if !errors.Is(err, apperr.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
	if pending := e.service.Reconciler().Pending(); len(pending) != 1 || pending[0] != "a@x.com" {
		t.Fatalf("expected voter queued for reconciliation, got %v", pending)
	}

	report, err := e.service.Reconciler().ReconcileAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.MarkersCleared != 1 {
		t.Errorf("expected the orphan marker cleared, got %+v", report)
	}
	if pending := e.service.Reconciler().Pending(); len(pending) != 0 {
		t.Errorf("expected empty queue after the pass, got %v", pending)
	}

	if _, err := e.service.SubmitBallot(ctx, ballot.Submission{VoterID: "a@x.com", Selections: fullBallot()}); err != nil {
		t.Fatalf("expected the voter to vote after repair, got %v", err)
	}
	if n := len(testutil.ReadVotes(t, e.store)); n != 1 {
		t.Errorf("expected 1 vote, got %d", n)
	}
}

func TestReconcile_StoreFailure(t *testing.T) {
	e := newEnv(t)
	e.voter(t, "a@x.com")
	testutil.SubmitTestVote(t, e.store, e.election.ID, "a@x.com", fullBallot())
	setMarker(t, e.store, "a@x.com", false)

	rec := e.service.Reconciler()
	rec.Enqueue("a@x.com")
	e.store.FailWrites(docstore.Voters, 1)

	_, err := rec.ReconcileAll(context.Background())
	if !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if pending := rec.Pending(); len(pending) != 1 {
		t.Errorf("expected queued voter kept after failure, got %v", pending)
	}
}

func TestReconciler_RunDrainsQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := newEnv(t)
	e.voter(t, "a@x.com")

	e.store.FailWrites(docstore.Voters, 1)
	receipt, err := e.service.SubmitBallot(context.Background(), ballot.Submission{VoterID: "a@x.com", Selections: fullBallot()})
	if err != nil || !receipt.MarkerPending {
		t.Fatalf("expected pending marker, got %+v %v", receipt, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.service.Reconciler().Run(ctx, 0)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !testutil.ReadVoter(t, e.store, "a@x.com").HasVoted {
		if time.Now().After(deadline) {
			t.Fatal("reconciler did not repair the marker")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
}

func TestReconciler_RunPeriodicPass(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := newEnv(t)
	e.voter(t, "a@x.com")
	setMarker(t, e.store, "a@x.com", true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.service.Reconciler().Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for testutil.ReadVoter(t, e.store, "a@x.com").HasVoted {
		if time.Now().After(deadline) {
			t.Fatal("periodic pass did not clear the marker")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
}
