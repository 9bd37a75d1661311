package player

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
)

func newTestSession() (*Session, *fakeTransport) {
	ft := newFakeTransport()
	return newSession("guild", 1, ft), ft
}

func TestEnqueueStartsPlaybackOnlyWhenIdle(t *testing.T) {
	s, ft := newTestSession()

	out := s.Enqueue(tracks("A")...)
	if !out.StartedPlayback || out.Position != 0 || out.Queued != 1 {
		t.Fatalf("first enqueue = %+v, want started at position 0", out)
	}
	if s.Status() != StatusPlaying {
		t.Fatalf("status = %v, want playing", s.Status())
	}

	out = s.Enqueue(tracks("B")...)
	if out.StartedPlayback || out.Position != 1 {
		t.Fatalf("second enqueue = %+v, want queued at position 1", out)
	}

	if err := s.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	out = s.Enqueue(tracks("C", "D")...)
	if out.StartedPlayback || out.Position != 2 || out.Queued != 2 {
		t.Fatalf("enqueue while paused = %+v", out)
	}
	if got := len(ft.started()); got != 1 {
		t.Fatalf("streams started = %d, want 1", got)
	}
}

func TestEnqueueManyPreservesOrder(t *testing.T) {
	s, _ := newTestSession()
	s.Enqueue(tracks("A", "B", "C", "B")...)

	v := s.Snapshot()
	if currentTitle(v) != "A" {
		t.Fatalf("current = %q, want A", currentTitle(v))
	}
	if got, want := titles(v.Pending), []string{"B", "C", "B"}; !slices.Equal(got, want) {
		t.Fatalf("pending = %v, want %v", got, want)
	}
}

func TestScenarioSkipLoopFinish(t *testing.T) {
	s, ft := newTestSession()
	s.Enqueue(tracks("A", "B", "C")...)

	v := s.Snapshot()
	if currentTitle(v) != "A" || !slices.Equal(titles(v.Pending), []string{"B", "C"}) {
		t.Fatalf("after enqueue: current=%q pending=%v", currentTitle(v), titles(v.Pending))
	}

	next, err := s.Skip()
	if err != nil || next == nil || next.Title != "B" {
		t.Fatalf("skip = %v, %v; want B", next, err)
	}
	v = s.Snapshot()
	if currentTitle(v) != "B" || !slices.Equal(titles(v.Pending), []string{"C"}) {
		t.Fatalf("after skip: current=%q pending=%v", currentTitle(v), titles(v.Pending))
	}

	on, err := s.ToggleLoop()
	if err != nil || !on {
		t.Fatalf("toggle loop = %v, %v", on, err)
	}
	ft.last().finish(nil)
	v = s.Snapshot()
	if currentTitle(v) != "B" || !slices.Equal(titles(v.Pending), []string{"C"}) {
		t.Fatalf("after looped finish: current=%q pending=%v", currentTitle(v), titles(v.Pending))
	}
	if ft.last().track.Title != "B" || !ft.last().isLive() {
		t.Fatal("looped track was not restarted")
	}

	next, err = s.Skip()
	if err != nil || next == nil || next.Title != "C" {
		t.Fatalf("second skip = %v, %v; want C", next, err)
	}
	v = s.Snapshot()
	if v.Loop {
		t.Fatal("loop survived a skip")
	}
	if len(v.Pending) != 0 {
		t.Fatalf("pending = %v, want empty", titles(v.Pending))
	}

	ft.last().finish(nil)
	v = s.Snapshot()
	if v.Current != nil || v.Status != StatusIdle {
		t.Fatalf("after last finish: current=%q status=%v", currentTitle(v), v.Status)
	}
}

func TestSkip(t *testing.T) {
	t.Run("idle", func(t *testing.T) {
		s, _ := newTestSession()
		next, err := s.Skip()
		if !errors.Is(err, ErrNothingPlaying) || next != nil {
			t.Fatalf("skip on idle = %v, %v", next, err)
		}
	})

	t.Run("last track goes idle", func(t *testing.T) {
		s, ft := newTestSession()
		s.Enqueue(tracks("A")...)
		next, err := s.Skip()
		if err != nil || next != nil {
			t.Fatalf("skip = %v, %v; want nil, nil", next, err)
		}
		if s.Status() != StatusIdle {
			t.Fatalf("status = %v, want idle", s.Status())
		}
		if ft.live() != 0 {
			t.Fatal("stream still live after skipping the last track")
		}
	})

	t.Run("while paused", func(t *testing.T) {
		s, ft := newTestSession()
		s.Enqueue(tracks("A", "B")...)
		if err := s.Pause(); err != nil {
			t.Fatal(err)
		}
		next, err := s.Skip()
		if err != nil || next == nil || next.Title != "B" {
			t.Fatalf("skip = %v, %v", next, err)
		}
		if s.Status() != StatusPlaying {
			t.Fatalf("status = %v, want playing", s.Status())
		}
		if ft.live() != 1 || ft.last().track.Title != "B" {
			t.Fatal("expected exactly B streaming")
		}
	})
}

func TestToggleLoopTwiceIsIdentity(t *testing.T) {
	s, _ := newTestSession()
	s.Enqueue(tracks("A", "B", "C")...)
	before := s.Snapshot()

	first, err := s.ToggleLoop()
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.ToggleLoop()
	if err != nil {
		t.Fatal(err)
	}
	after := s.Snapshot()

	if first == second || second != before.Loop {
		t.Fatalf("loop went %v -> %v -> %v", before.Loop, first, second)
	}
	if currentTitle(after) != currentTitle(before) || !slices.Equal(titles(after.Pending), titles(before.Pending)) {
		t.Fatal("toggling loop changed the queue")
	}

	idle, _ := newTestSession()
	if _, err := idle.ToggleLoop(); !errors.Is(err, ErrNothingPlaying) {
		t.Fatalf("loop on idle err = %v", err)
	}
}

func TestLoopTurnedOffTakesEffectAtNextFinish(t *testing.T) {
	s, ft := newTestSession()
	s.Enqueue(tracks("A", "B")...)
	s.ToggleLoop()
	s.ToggleLoop()
	ft.last().finish(nil)

	if v := s.Snapshot(); currentTitle(v) != "B" {
		t.Fatalf("current = %q, want B", currentTitle(v))
	}
}

func TestClear(t *testing.T) {
	tests := []struct {
		name    string
		enqueue []string
		pause   bool
		want    int
	}{
		{name: "idle", want: 0},
		{name: "playing", enqueue: []string{"A", "B", "C", "D"}, want: 4},
		{name: "paused", enqueue: []string{"A", "B"}, pause: true, want: 2},
		{name: "only current", enqueue: []string{"A"}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ft := newTestSession()
			s.Enqueue(tracks(tt.enqueue...)...)
			if tt.pause {
				if err := s.Pause(); err != nil {
					t.Fatal(err)
				}
			}
			if got := s.Clear(); got != tt.want {
				t.Fatalf("clear = %d, want %d", got, tt.want)
			}
			v := s.Snapshot()
			if v.Status != StatusIdle || v.Len() != 0 || v.Loop {
				t.Fatalf("after clear: %+v", v)
			}
			if ft.live() != 0 {
				t.Fatal("stream still live after clear")
			}
		})
	}
}

func TestPauseResumeErrorsLeaveStateUnchanged(t *testing.T) {
	s, ft := newTestSession()

	if err := s.Pause(); !errors.Is(err, ErrNothingPlaying) {
		t.Fatalf("pause idle = %v", err)
	}
	if err := s.Resume(); !errors.Is(err, ErrNotPaused) {
		t.Fatalf("resume idle = %v", err)
	}
	if s.Status() != StatusIdle {
		t.Fatalf("status = %v", s.Status())
	}

	s.Enqueue(tracks("A")...)
	if err := s.Resume(); !errors.Is(err, ErrNotPaused) {
		t.Fatalf("resume playing = %v", err)
	}
	if s.Status() != StatusPlaying {
		t.Fatalf("status = %v", s.Status())
	}

	if err := s.Pause(); err != nil {
		t.Fatal(err)
	}
	if !ft.last().isPaused() {
		t.Fatal("stream was not paused")
	}
	if err := s.Pause(); !errors.Is(err, ErrAlreadyPaused) {
		t.Fatalf("pause paused = %v", err)
	}
	if s.Status() != StatusPaused {
		t.Fatalf("status = %v", s.Status())
	}

	if err := s.Resume(); err != nil {
		t.Fatal(err)
	}
	if ft.last().isPaused() || s.Status() != StatusPlaying {
		t.Fatal("resume did not resume")
	}
}

func TestStartFailureAdvances(t *testing.T) {
	t.Run("on finish", func(t *testing.T) {
		s, ft := newTestSession()
		ft.fail("B")
		s.Enqueue(tracks("A", "B", "C")...)
		ft.last().finish(nil)

		v := s.Snapshot()
		if currentTitle(v) != "C" || len(v.Pending) != 0 {
			t.Fatalf("current=%q pending=%v, want C and nothing", currentTitle(v), titles(v.Pending))
		}
	})

	t.Run("on first enqueue", func(t *testing.T) {
		s, ft := newTestSession()
		ft.fail("A")
		out := s.Enqueue(tracks("A")...)
		if out.StartedPlayback || !errors.Is(out.StartErr, ErrTransportStartFailed) {
			t.Fatalf("outcome = %+v", out)
		}
		if s.Status() != StatusIdle || s.Snapshot().Len() != 0 {
			t.Fatal("session not idle after failed start")
		}
	})

	t.Run("first of many", func(t *testing.T) {
		s, ft := newTestSession()
		ft.fail("A")
		out := s.Enqueue(tracks("A", "B")...)
		if !out.StartedPlayback || out.StartErr == nil {
			t.Fatalf("outcome = %+v", out)
		}
		if v := s.Snapshot(); currentTitle(v) != "B" {
			t.Fatalf("current = %q", currentTitle(v))
		}
	})
}

func TestFinishWithErrorDoesNotLoop(t *testing.T) {
	s, ft := newTestSession()
	s.Enqueue(tracks("A", "B")...)
	s.ToggleLoop()
	ft.last().finish(errBroken)

	v := s.Snapshot()
	if currentTitle(v) != "B" || v.Loop {
		t.Fatalf("current=%q loop=%v, want B without loop", currentTitle(v), v.Loop)
	}
}

func TestStaleFinishIsIgnored(t *testing.T) {
	s, ft := newTestSession()
	s.Enqueue(tracks("A", "B", "C")...)
	first := ft.last()
	s.Skip()
	first.finish(nil)

	v := s.Snapshot()
	if currentTitle(v) != "B" || !slices.Equal(titles(v.Pending), []string{"C"}) {
		t.Fatalf("current=%q pending=%v", currentTitle(v), titles(v.Pending))
	}
}

func TestQueueSizeIsConserved(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 50; round++ {
		s, ft := newTestSession()
		want := 0
		for step := 0; step < 200; step++ {
			before := s.Snapshot()
			switch rng.IntN(5) {
			case 0, 1:
				n := rng.IntN(3) + 1
				batch := make([]Track, n)
				for i := range batch {
					batch[i] = Track{Title: "t"}
				}
				s.Enqueue(batch...)
				want += n
			case 2:
				if _, err := s.Skip(); err == nil {
					want--
				}
			case 3:
				st := ft.last()
				if st != nil && st.isLive() {
					st.finish(nil)
					if !before.Loop {
						want--
					}
				}
			case 4:
				if rng.IntN(4) == 0 {
					want -= s.Clear()
				} else {
					s.ToggleLoop()
				}
			}
			v := s.Snapshot()
			if v.Len() != want {
				t.Fatalf("round %d step %d: len = %d, want %d", round, step, v.Len(), want)
			}
			if (v.Current != nil) != (v.Status != StatusIdle) {
				t.Fatalf("round %d step %d: current=%v with status %v", round, step, v.Current, v.Status)
			}
			if live := ft.live(); live > 1 {
				t.Fatalf("round %d step %d: %d live streams", round, step, live)
			}
		}
	}
}

func TestConcurrentSkipAndFinishAdvanceOnce(t *testing.T) {
	for i := 0; i < 500; i++ {
		s, ft := newTestSession()
		s.Enqueue(tracks("A", "B", "C")...)
		first := ft.last()

		var (
			wg      sync.WaitGroup
			skipped *Track
			skipErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			skipped, skipErr = s.Skip()
		}()
		go func() {
			defer wg.Done()
			first.finish(nil)
		}()
		wg.Wait()

		if skipErr != nil || skipped == nil {
			t.Fatalf("iteration %d: skip = %v, %v", i, skipped, skipErr)
		}
		v := s.Snapshot()
		switch skipped.Title {
		case "B":
			// skip won; the finish report was stale
			if currentTitle(v) != "B" || !slices.Equal(titles(v.Pending), []string{"C"}) {
				t.Fatalf("iteration %d: current=%q pending=%v", i, currentTitle(v), titles(v.Pending))
			}
		case "C":
			// finish advanced to B, then skip moved past B
			if currentTitle(v) != "C" || len(v.Pending) != 0 {
				t.Fatalf("iteration %d: current=%q pending=%v", i, currentTitle(v), titles(v.Pending))
			}
		default:
			t.Fatalf("iteration %d: skip landed on %q", i, skipped.Title)
		}
		if ft.live() != 1 {
			t.Fatalf("iteration %d: %d live streams", i, ft.live())
		}
	}
}

func TestConcurrentCommandsKeepInvariants(t *testing.T) {
	s, ft := newTestSession()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				switch (w + i) % 6 {
				case 0:
					s.Enqueue(tracks("x", "y")...)
				case 1:
					s.Skip()
				case 2:
					s.Pause()
				case 3:
					s.Resume()
				case 4:
					if st := ft.last(); st != nil && st.isLive() {
						st.finish(nil)
					}
				case 5:
					s.ToggleLoop()
				}
			}
		}(w)
	}
	wg.Wait()

	v := s.Snapshot()
	if (v.Current != nil) != (v.Status != StatusIdle) {
		t.Fatalf("current=%v with status %v", v.Current, v.Status)
	}
	if live := ft.live(); live > 1 {
		t.Fatalf("%d live streams", live)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _ := newTestSession()
	s.Enqueue(tracks("A", "B")...)
	v := s.Snapshot()
	v.Pending[0].Title = "mutated"
	v.Current.Title = "mutated"

	again := s.Snapshot()
	if currentTitle(again) != "A" || again.Pending[0].Title != "B" {
		t.Fatal("snapshot shares memory with the queue")
	}
	if again.PositionSec != 7 {
		t.Fatalf("position = %d, want the stream's position", again.PositionSec)
	}
}
