package input

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeDriver struct {
	states   map[int]State
	failSlot int
	queries  []int
	vibes    map[int]Vibration
}

var errBus = errors.New("bus error")

func (d *fakeDriver) State(slot int) (State, error) {
	d.queries = append(d.queries, slot)
	if slot == d.failSlot {
		return State{Buttons: Buttons(ButtonA)}, errBus
	}
	st, ok := d.states[slot]
	if !ok {
		return State{}, ErrNotConnected
	}
	return st, nil
}

func (d *fakeDriver) Vibrate(slot int, v Vibration) error {
	if d.vibes == nil {
		d.vibes = map[int]Vibration{}
	}
	d.vibes[slot] = v
	return nil
}

func TestStubAlwaysDisconnected(t *testing.T) {
	p := NewPoller(Stub{}, MaxSlots, quiet)
	for i := 0; i < 100; i++ {
		for slot := -1; slot <= MaxSlots; slot++ {
			assert.Equal(t, Snapshot{}, p.Sample(slot))
		}
	}
	p.Rumble(0, Vibration{Low: 65535, High: 65535})
	assert.Equal(t, Snapshot{}, p.Sample(0))
}

func TestSampleMapsFailureToDisconnected(t *testing.T) {
	d := &fakeDriver{
		states: map[int]State{
			0: {Buttons: Buttons(ButtonX).With(ButtonDPadUp)},
			1: {Buttons: Buttons(ButtonB)},
		},
		failSlot: 1,
	}
	p := NewPoller(d, MaxSlots, quiet)

	snaps := p.SampleAll(nil)
	require.Len(t, snaps, MaxSlots)

	assert.True(t, snaps[0].Connected)
	assert.True(t, snaps[0].Buttons.Has(ButtonX))
	assert.True(t, snaps[0].Buttons.Has(ButtonDPadUp))
	assert.False(t, snaps[0].Buttons.Has(ButtonA))

	// The driver returned a partially filled state with its error; none of
	// it may leak into the snapshot.
	assert.Equal(t, Snapshot{}, snaps[1])
	assert.Equal(t, Snapshot{}, snaps[2])
	assert.Equal(t, Snapshot{}, snaps[3])
	assert.Equal(t, []int{0, 1, 2, 3}, d.queries)
}

func TestPollerClampsSlots(t *testing.T) {
	d := &fakeDriver{failSlot: -1}
	p := NewPoller(d, 9, quiet)
	assert.Equal(t, MaxSlots, p.Slots())

	p = NewPoller(d, 2, quiet)
	assert.Len(t, p.SampleAll(nil), 2)

	d.queries = nil
	assert.Equal(t, Snapshot{}, p.Sample(3))
	assert.Empty(t, d.queries, "out of range slots never reach the driver")

	p.Rumble(1, Vibration{Low: 10})
	p.Rumble(5, Vibration{Low: 10})
	assert.Equal(t, map[int]Vibration{1: {Low: 10}}, d.vibes)
}

func TestNilDriverIsStub(t *testing.T) {
	p := NewPoller(nil, MaxSlots, nil)
	assert.IsType(t, Stub{}, p.Driver())
}

func TestResolvePrefersFirstCandidate(t *testing.T) {
	live := &fakeDriver{}
	var tried []string
	open := func(name string) (Driver, error) {
		tried = append(tried, name)
		if name == "new.lib" {
			return nil, errors.New("not found")
		}
		return live, nil
	}

	d := Resolve([]string{"new.lib", "old.lib", "older.lib"}, open, quiet)
	assert.Same(t, live, d)
	assert.Equal(t, []string{"new.lib", "old.lib"}, tried)
}

func TestResolveFallsBackToStub(t *testing.T) {
	calls := 0
	open := func(string) (Driver, error) {
		calls++
		return nil, errors.New("not found")
	}

	d := Resolve([]string{"a", "b"}, open, quiet)
	assert.IsType(t, Stub{}, d)
	assert.Equal(t, 2, calls)

	p := NewPoller(d, MaxSlots, quiet)
	for i := 0; i < 10; i++ {
		assert.Equal(t, Snapshot{}, p.Sample(i%MaxSlots))
	}
	assert.Equal(t, 2, calls, "no retry after resolution")

	assert.IsType(t, Stub{}, Resolve(nil, open, quiet))
}

func TestXInputGamepadState(t *testing.T) {
	g := xinputGamepad{
		Buttons: xinputA | xinputLeftShoulder | xinputDPadRight | xinputStart,
		ThumbLX: 32767,
		ThumbLY: -32768,
	}
	st := g.state()
	assert.Equal(t, Buttons(ButtonA).With(ButtonLeftShoulder).With(ButtonDPadRight).With(ButtonStart), st.Buttons)
	assert.Equal(t, Stick{X: 1, Y: -1}, st.LeftStick)

	g = xinputGamepad{ThumbLX: 7000, ThumbLY: -7848}
	assert.Equal(t, Stick{}, g.state().LeftStick)
}
