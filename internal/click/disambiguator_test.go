package click

import (
	"testing"
	"time"
)

const testWindow = 40 * time.Millisecond

// collect gathers fired intents on a channel large enough for any test.
func collect() (Sink, chan Intent) {
	ch := make(chan Intent, 16)
	return func(i Intent) { ch <- i }, ch
}

// drain waits long enough for any pending timer to fire, then returns
// everything collected.
func drain(ch chan Intent) []Intent {
	time.Sleep(3 * testWindow)
	var got []Intent
	for {
		select {
		case i := <-ch:
			got = append(got, i)
		default:
			return got
		}
	}
}

func TestSingleClickFiresAfterWindow(t *testing.T) {
	sink, ch := collect()
	d := New(testWindow, sink)

	d.LeftClick()

	select {
	case i := <-ch:
		t.Fatalf("intent %v fired before window expired", i)
	case <-time.After(testWindow / 2):
	}

	select {
	case i := <-ch:
		if i != IntentSingle {
			t.Fatalf("intent = %v, want single", i)
		}
	case <-time.After(2 * testWindow):
		t.Fatal("single intent never fired")
	}
}

func TestDoubleClickFiresImmediately(t *testing.T) {
	sink, ch := collect()
	d := New(testWindow, sink)

	d.LeftClick()
	d.LeftClick()

	select {
	case i := <-ch:
		if i != IntentDouble {
			t.Fatalf("intent = %v, want double", i)
		}
	case <-time.After(testWindow / 2):
		t.Fatal("double intent not fired immediately on second click")
	}

	// The cancelled timer must not also fire a single.
	if got := drain(ch); len(got) != 0 {
		t.Errorf("extra intents after double: %v", got)
	}
}

func TestSlowClicksFireTwoSingles(t *testing.T) {
	sink, ch := collect()
	d := New(testWindow, sink)

	d.LeftClick()
	time.Sleep(2 * testWindow)
	d.LeftClick()

	got := drain(ch)
	if len(got) != 2 || got[0] != IntentSingle || got[1] != IntentSingle {
		t.Errorf("intents = %v, want [single single]", got)
	}
}

func TestRightClickBypassesTimer(t *testing.T) {
	sink, ch := collect()
	d := New(testWindow, sink)

	d.RightClick()
	select {
	case i := <-ch:
		if i != IntentRight {
			t.Fatalf("intent = %v, want right", i)
		}
	default:
		t.Fatal("right intent not fired synchronously")
	}

	// A pending left click is unaffected by an interleaved right click.
	d.LeftClick()
	d.RightClick()
	got := drain(ch)
	if len(got) != 2 || got[0] != IntentRight || got[1] != IntentSingle {
		t.Errorf("intents = %v, want [right single]", got)
	}
}

func TestTripleClickStartsFreshCycle(t *testing.T) {
	sink, ch := collect()
	d := New(testWindow, sink)

	d.LeftClick()
	d.LeftClick() // double fires
	d.LeftClick() // new pending single

	got := drain(ch)
	if len(got) != 2 || got[0] != IntentDouble || got[1] != IntentSingle {
		t.Errorf("intents = %v, want [double single]", got)
	}
}

func TestResetDiscardsPendingClick(t *testing.T) {
	sink, ch := collect()
	d := New(testWindow, sink)

	d.LeftClick()
	d.Reset()

	if got := drain(ch); len(got) != 0 {
		t.Errorf("intents after Reset = %v, want none", got)
	}

	// Reset returns the machine to idle: the next pair still doubles.
	d.LeftClick()
	d.LeftClick()
	got := drain(ch)
	if len(got) != 1 || got[0] != IntentDouble {
		t.Errorf("intents = %v, want [double]", got)
	}
}

func TestDefaultWindowApplied(t *testing.T) {
	d := New(0, func(Intent) {})
	if d.window != DefaultWindow {
		t.Errorf("window = %v, want %v", d.window, DefaultWindow)
	}
}
