package main

import (
	"fmt"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/engine/lighting"
	"github.com/Faultbox/midgard-render/internal/engine/scene"
	"github.com/Faultbox/midgard-render/internal/engine/volume"
)

const gridSize = 6

// demoScene is a grid of cubes with a few glass cubes, billboards, a particle
// fountain and orbiting point lights.
type demoScene struct {
	cube    *scene.Geometry
	checker gpu.Texture

	objects []*scene.Object
	lights  []lighting.Light
	orbit   []*lighting.Light
	time    float32
	bounds  volume.AABB
}

func newDemoScene(dev gpu.Device) (*demoScene, error) {
	vertices, indices := scene.Cube()
	cube, err := scene.UploadMesh(dev, vertices, indices)
	if err != nil {
		return nil, err
	}
	checker, err := dev.NewTexture(checkerTexture(8))
	if err != nil {
		cube.Dispose()
		return nil, fmt.Errorf("checker texture: %w", err)
	}

	d := &demoScene{cube: cube, checker: checker}
	unit := volume.NewAABB(mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{1, 1, 1})

	id := int32(1)
	for x := 0; x < gridSize; x++ {
		for z := 0; z < gridSize; z++ {
			pos := mgl32.Vec3{float32(x)*2 - gridSize, 0.5, float32(z)*2 - gridSize}
			color := mgl32.Vec4{0.4 + 0.1*float32(x), 0.5, 0.4 + 0.1*float32(z), 1}
			o := scene.NewMesh(id, mgl32.Translate3D(pos[0], pos[1], pos[2]), unit, cube.Data(checker, color))
			if (x+z)%5 == 0 {
				o.Blend = gpu.Blend
				o.Mesh.Color[3] = 0.5
			}
			d.objects = append(d.objects, o)
			id++
		}
	}

	floor := scene.NewMesh(id, mgl32.Translate3D(0, -0.05, 0).Mul4(mgl32.Scale3D(gridSize*2+2, 0.1, gridSize*2+2)),
		unit, cube.Data(nil, mgl32.Vec4{0.7, 0.7, 0.7, 1}))
	d.objects = append(d.objects, floor)
	id++

	for i := 0; i < 4; i++ {
		a := float32(i) * gomath.Pi / 2
		pos := mgl32.Vec3{float32(gomath.Cos(float64(a))) * (gridSize + 2), 0, float32(gomath.Sin(float64(a))) * (gridSize + 2)}
		d.objects = append(d.objects, scene.NewSprite(id, mgl32.Translate3D(pos[0], pos[1], pos[2]), scene.SpriteData{
			Texture:   checker,
			Size:      mgl32.Vec2{1.5, 3},
			Tint:      mgl32.Vec4{1, 1, 1, 0.9},
			Billboard: true,
		}))
		id++
	}

	var particles []scene.Particle
	for i := 0; i < 64; i++ {
		a := float64(i) * 0.7
		r := float32(i%8) * 0.15
		particles = append(particles, scene.Particle{
			Offset: mgl32.Vec3{r * float32(gomath.Cos(a)), float32(i) * 0.06, r * float32(gomath.Sin(a))},
			Size:   0.2,
			Color:  mgl32.Vec4{1, 0.6, 0.2, 0.6},
		})
	}
	d.objects = append(d.objects, scene.NewParticles(id, mgl32.Translate3D(0, 1, 0), scene.ParticleData{Particles: particles}))

	d.lights = []lighting.Light{
		lighting.NewAmbient(mgl32.Vec3{1, 1, 1}, 0.15),
		lighting.NewSun(30, 50, mgl32.Vec3{1, 0.95, 0.85}, 0.6),
		lighting.NewSpot(mgl32.Vec3{0, 8, 0}, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 1, 1}, 2, 0.3, 0.5, 20),
	}
	for i := 0; i < 24; i++ {
		hue := float64(i) / 24
		color := mgl32.Vec3{
			float32(0.5 + 0.5*gomath.Cos(2*gomath.Pi*hue)),
			float32(0.5 + 0.5*gomath.Cos(2*gomath.Pi*(hue-1.0/3))),
			float32(0.5 + 0.5*gomath.Cos(2*gomath.Pi*(hue-2.0/3))),
		}
		d.lights = append(d.lights, lighting.NewPoint(mgl32.Vec3{}, color, 1.5, 4))
	}
	for i := 3; i < len(d.lights); i++ {
		d.orbit = append(d.orbit, &d.lights[i])
	}

	d.bounds = volume.NewAABBFromMinMax(mgl32.Vec3{-gridSize - 1, 0, -gridSize - 1}, mgl32.Vec3{gridSize + 1, 2, gridSize + 1})
	d.Update(0)
	return d, nil
}

// Update moves the point lights around the grid.
func (d *demoScene) Update(dt float32) {
	d.time += dt
	for i, l := range d.orbit {
		a := float64(d.time)*0.5 + float64(i)*2*gomath.Pi/float64(len(d.orbit))
		radius := float64(gridSize) * (0.4 + 0.6*float64(i%3)/2)
		l.Position = mgl32.Vec3{float32(radius * gomath.Cos(a)), 1.5, float32(radius * gomath.Sin(a))}
	}
}

func (d *demoScene) Objects() []*scene.Object { return d.objects }

func (d *demoScene) Lights() []lighting.Light { return d.lights }

func (d *demoScene) Dispose() {
	d.cube.Dispose()
	d.checker.Dispose()
}

func checkerTexture(size int32) gpu.TextureDesc {
	pixels := make([]byte, 0, size*size*4)
	for y := int32(0); y < size; y++ {
		for x := int32(0); x < size; x++ {
			v := byte(255)
			if (x+y)%2 == 1 {
				v = 190
			}
			pixels = append(pixels, v, v, v, 255)
		}
	}
	return gpu.TextureDesc{Width: size, Height: size, Format: gpu.RGBA8, Pixels: pixels, Nearest: true, Repeat: true}
}
