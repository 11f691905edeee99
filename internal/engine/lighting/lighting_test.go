package lighting

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-render/internal/engine/gpu/gputest"
)

type flushRecord struct {
	points, spots, dirs int
	ambient             float32
}

func run(b *Batcher, lights []Light) []flushRecord {
	var out []flushRecord
	b.Run(lights, func(u *Uniforms) {
		out = append(out, flushRecord{u.Points, u.Spots, u.Directionals, u.Ambient})
	})
	return out
}

func point() Light {
	return NewPoint(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{1, 1, 1}, 1, 10)
}

func TestAmbientOnlyFrameFlushesOnce(t *testing.T) {
	b := NewBatcher(16)
	got := run(b, []Light{NewAmbient(mgl32.Vec3{1, 1, 1}, 0.25)})

	require.Len(t, got, 1)
	assert.InDelta(t, 0.25, got[0].ambient, 1e-5)
	assert.Equal(t, 0, got[0].points+got[0].spots+got[0].dirs)
}

func TestEmptyFrameStillFlushes(t *testing.T) {
	assert.Equal(t, 1, NewBatcher(4).Run(nil, func(*Uniforms) {}))
}

func TestOverflowSplitsBatchesAndAmbientAppliesOnce(t *testing.T) {
	b := NewBatcher(2)
	lights := []Light{
		NewAmbient(mgl32.Vec3{1, 1, 1}, 0.1),
		point(), point(), point(), point(), point(),
		NewAmbient(mgl32.Vec3{1, 1, 1}, 0.2),
	}

	got := run(b, lights)
	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 2, 1}, []int{got[0].points, got[1].points, got[2].points})
	assert.InDelta(t, 0.3, got[0].ambient, 1e-5, "ambient lights are summed")
	assert.Zero(t, got[1].ambient)
	assert.Zero(t, got[2].ambient)
}

func TestAnyFullTypeFlushesAll(t *testing.T) {
	b := NewBatcher(2)
	spot := NewSpot(mgl32.Vec3{}, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 1, 1}, 1, 0.2, 0.4, 10)
	sun := NewSun(0, 45, mgl32.Vec3{1, 1, 1}, 1)

	got := run(b, []Light{point(), spot, sun, spot})
	require.Len(t, got, 2, "second spot fills the batch, final flush is unconditional")
	assert.Equal(t, flushRecord{points: 1, spots: 2, dirs: 1}, got[0])
	assert.Equal(t, flushRecord{}, got[1])
}

func TestExactCapacityStillFlushesAtEnd(t *testing.T) {
	b := NewBatcher(2)
	got := run(b, []Light{point(), point()})
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].points)
	assert.Equal(t, 0, got[1].points)
}

func TestBatcherDefaultsCapacity(t *testing.T) {
	assert.Equal(t, DefaultBatchSize, NewBatcher(0).Capacity())
}

func TestAmbientCannotBeBatched(t *testing.T) {
	u := NewUniforms(1)
	assert.Panics(t, func() { u.add(NewAmbient(mgl32.Vec3{1, 1, 1}, 1)) })
	assert.Panics(t, func() { u.add(Light{Kind: Kind(9)}) })
}

func TestUniformsApply(t *testing.T) {
	dev := gputest.New()
	prog, _ := dev.NewProgram("", "")
	p := prog.(*gputest.Program)

	u := NewUniforms(4)
	u.add(NewPoint(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{1, 0.5, 0}, 2, 10))
	u.add(NewDirectional(mgl32.Vec3{0, -2, 0}, mgl32.Vec3{1, 1, 1}, 1))
	u.Ambient = 0.1
	u.Apply(p)

	assert.Equal(t, int32(1), p.Uniforms["u_pointCount"])
	assert.Equal(t, int32(0), p.Uniforms["u_spotCount"])
	assert.Equal(t, int32(1), p.Uniforms["u_dirCount"])
	assert.Equal(t, []mgl32.Vec3{{2, 1, 0}}, p.Uniforms["u_pointColor"])
	assert.Equal(t, []mgl32.Vec3{{0, -1, 0}}, p.Uniforms["u_dirDirection"])
	assert.Empty(t, p.Uniforms["u_spotPosition"])
	assert.Equal(t, float32(0.1), p.Uniforms["u_ambient"])
}

func TestSpotConesStoredAsCosines(t *testing.T) {
	u := NewUniforms(1)
	u.add(NewSpot(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{1, 1, 1}, 1, math.Pi/3, math.Pi/6, 5))
	assert.InDelta(t, math.Cos(math.Pi/6), u.SpotCosInner[0], 1e-5, "inner and outer are swapped when reversed")
	assert.InDelta(t, 0.5, u.SpotCosOuter[0], 1e-5)
}

func TestSunDirection(t *testing.T) {
	up := SunDirection(0, 90)
	assert.InDeltaSlice(t, []float32{0, 1, 0}, up[:], 1e-5)

	east := SunDirection(90, 0)
	assert.InDeltaSlice(t, []float32{1, 0, 0}, east[:], 1e-5)

	sun := NewSun(0, 90, mgl32.Vec3{1, 1, 1}, 1)
	assert.Equal(t, Directional, sun.Kind)
	assert.InDeltaSlice(t, []float32{0, -1, 0}, sun.Direction[:], 1e-5)
}

func TestColorClampedAndFalloff(t *testing.T) {
	l := NewPoint(mgl32.Vec3{}, mgl32.Vec3{2, -1, 0.5}, 1, 0)
	assert.Equal(t, mgl32.Vec3{1, 0, 0.5}, l.Color)
	assert.Equal(t, FalloffForRange(100), l.Falloff)
	assert.InDelta(t, 0.045, l.Falloff.Linear, 1e-6)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "spot", Spot.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}
