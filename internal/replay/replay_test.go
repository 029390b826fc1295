package replay

import (
	"bytes"
	"testing"
	"time"

	"fightnet/internal/input"
	"fightnet/internal/kernel"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRecorderWriteToAndLoadRoundTrip(t *testing.T) {
	r := NewRecorder("ryu", "ken", fixedClock(time.Unix(0, 0)))
	r.RecordFrame(0, input.PlayerInput{Right: true}, input.PlayerInput{})
	r.RecordFrame(1, input.PlayerInput{}, input.PlayerInput{LightPunch: true})

	var buf bytes.Buffer
	if err := r.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	doc, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Version != formatVersion {
		t.Fatalf("Version = %d, want %d", doc.Version, formatVersion)
	}
	if doc.Meta.Characters != [2]string{"ryu", "ken"} {
		t.Fatalf("Characters = %v", doc.Meta.Characters)
	}
	if len(doc.Frames) != 2 {
		t.Fatalf("len(Frames) = %d, want 2", len(doc.Frames))
	}
	if !doc.Frames[0].P0.Right || !doc.Frames[1].P1.LightPunch {
		t.Fatalf("frame contents not preserved: %+v", doc.Frames)
	}
	if gaps := doc.Validate(); len(gaps) != 0 {
		t.Fatalf("Validate() = %v, want no gaps", gaps)
	}
}

func TestValidateReportsGapsWithoutErroring(t *testing.T) {
	doc := Replay{Frames: []FrameRecord{{Frame: 0}, {Frame: 1}, {Frame: 5}, {Frame: 6}}}
	gaps := doc.Validate()
	if len(gaps) != 1 || gaps[0] != 2 {
		t.Fatalf("Validate() = %v, want a single gap at index 2", gaps)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	if _, err := Load(bytes.NewReader([]byte("not gzip"))); err == nil {
		t.Fatal("expected an error loading non-gzip data")
	}
}

func TestPlayMatchesDirectKernelSteps(t *testing.T) {
	initial := kernel.NewMatch("ryu", "ken", -1, 1, 1000)
	frames := []FrameRecord{
		{Frame: 0, P0: input.PlayerInput{Right: true}},
		{Frame: 1, P0: input.PlayerInput{Right: true}},
		{Frame: 2, P1: input.PlayerInput{Left: true}},
	}

	got := Play(initial, Replay{Frames: frames})
	if len(got) != 3 {
		t.Fatalf("len(states) = %d, want 3", len(got))
	}

	want := initial
	for _, f := range frames {
		want = kernel.Step(want, f.P0, f.P1)
	}
	if got[len(got)-1].Frame != want.Frame || got[len(got)-1].P0.X != want.P0.X {
		t.Fatalf("final state diverges from a direct kernel.Step sequence")
	}
}
