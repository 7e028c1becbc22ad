package tracker

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/UkoeHB/CvVidProc/videoframe"
)

type record struct {
	frameIndex int
}

func countingTrack(frame videoframe.Frame, frameIndex int, live, archive Table[record], nextID int) (int, error) {
	archive[nextID] = record{frameIndex: frameIndex}
	return nextID + 1, nil
}

func framesOf(t *testing.T, n int) []videoframe.Frame {
	t.Helper()
	frames := make([]videoframe.Frame, n)
	for i := range frames {
		frames[i] = videoframe.Frame{Mat: gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC1), FrameIndex: i}
	}
	return frames
}

func TestAlgoArchivesOneEntryPerFrame(t *testing.T) {
	a := New(Config[record]{Track: countingTrack})

	a.Insert(framesOf(t, 50))
	a.NotifyNoMoreTokens()

	if !a.HasResults() {
		t.Fatalf("HasResults() = false, want true")
	}
	result, ok := a.TryGetResult()
	if !ok {
		t.Fatalf("TryGetResult: ok = false, want true")
	}
	if len(result) != 50 {
		t.Fatalf("len(archive) = %d, want 50", len(result))
	}
	for id := 0; id < 50; id++ {
		rec, present := result[id]
		if !present {
			t.Fatalf("archive missing id %d", id)
		}
		if rec.frameIndex != id {
			t.Fatalf("archive[%d].frameIndex = %d, want %d", id, rec.frameIndex, id)
		}
	}

	if _, ok := a.TryGetResult(); ok {
		t.Fatalf("TryGetResult should only emit once")
	}
}

func TestAlgoSkipsEmptyFrames(t *testing.T) {
	calls := 0
	a := New(Config[record]{Track: func(frame videoframe.Frame, frameIndex int, live, archive Table[record], nextID int) (int, error) {
		calls++
		return nextID + 1, nil
	}})

	frames := []videoframe.Frame{
		{Mat: gocv.Mat{}},
		{Mat: gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC1)},
	}
	a.Insert(frames)

	if calls != 1 {
		t.Fatalf("track calls = %d, want 1 (one frame was empty)", calls)
	}
}

func TestAlgoErrorDoesNotAdvanceNextID(t *testing.T) {
	a := New(Config[record]{Track: func(frame videoframe.Frame, frameIndex int, live, archive Table[record], nextID int) (int, error) {
		return nextID + 1, errors.New("tracking failed")
	}})

	a.Insert(framesOf(t, 3))
	if a.nextID != 0 {
		t.Fatalf("nextID = %d, want 0 (every call errored)", a.nextID)
	}
	a.NotifyNoMoreTokens()

	result, _ := a.TryGetResult()
	if len(result) != 0 {
		t.Fatalf("archive = %v, want empty (every call errored)", result)
	}
}
