// ------------------------------------------------------------
// Hanging Cloth in Gusting Wind (mass-spring sheet) in Go
// ------------------------------------------------------------
// Model:
//   - 19 x 25 particle grid, 8 x 6 world units, structural/shear/bending springs
//   - Top edge pinned at both corners (three particles each, pulled inward)
//   - Wind along +z switched on and off every 4 seconds
//   - Optional ball obstacle in front of the sheet
//   - Position-based relaxation + damped Verlet (or force-based, see -policy)
//
// Outputs (relative to where you run the program):
//   output/cloth_wind/height_t*.png     particle height heatmaps
//   output/cloth_wind/corner_*.png      free corner trajectory plots
//   output/cloth_wind/cloth_log.csv
//   output/cloth_wind/frames/*.png + cloth_wind.mp4 with -frames (ffmpeg)
//
// Settings can also come from .env / environment (CLOTH_*); flags win.
// ------------------------------------------------------------

package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/mohammadijoo/ClothIK_Go/internal/cloth"
	"github.com/mohammadijoo/ClothIK_Go/internal/config"
	"github.com/mohammadijoo/ClothIK_Go/internal/plotting"
	"github.com/mohammadijoo/ClothIK_Go/internal/raster"
)

// settings collects the run parameters after env and flag overrides.
type settings struct {
	seconds    float64
	dt         float64
	policy     string
	windZ      float64
	gustPeriod float64
	ballRadius float64
	snapshots  int
	frames     bool
	outDir     string
}

func loadSettings() settings {
	if err := config.Load(); err != nil {
		log.Fatalf("cannot load environment: %v", err)
	}

	s := settings{
		seconds:    16,
		dt:         0.01,
		policy:     "position",
		windZ:      5,
		gustPeriod: 4,
		ballRadius: 0.8,
		snapshots:  16,
		outDir:     filepath.Join("output", "cloth_wind"),
	}

	// Environment first, so flags can still override it.
	var err error
	warn := func(e error) {
		if e != nil {
			log.Printf("warning: %v", e)
		}
	}
	s.seconds, err = config.Float("CLOTH_SECONDS", s.seconds)
	warn(err)
	s.dt, err = config.Float("CLOTH_DT", s.dt)
	warn(err)
	s.windZ, err = config.Float("CLOTH_WIND_Z", s.windZ)
	warn(err)
	s.ballRadius, err = config.Float("CLOTH_BALL_RADIUS", s.ballRadius)
	warn(err)
	s.snapshots, err = config.Int("CLOTH_SNAPSHOTS", s.snapshots)
	warn(err)
	s.frames, err = config.Bool("CLOTH_FRAMES", s.frames)
	warn(err)
	s.policy = config.String("CLOTH_POLICY", s.policy)
	s.outDir = config.String("CLOTH_OUT", s.outDir)

	flag.Float64Var(&s.seconds, "seconds", s.seconds, "simulated time (s)")
	flag.Float64Var(&s.dt, "dt", s.dt, "time step (s)")
	flag.StringVar(&s.policy, "policy", s.policy, "update policy: position or force")
	flag.Float64Var(&s.windZ, "wind", s.windZ, "wind strength along +z during a gust")
	flag.Float64Var(&s.gustPeriod, "gust", s.gustPeriod, "gust on/off period (s)")
	flag.Float64Var(&s.ballRadius, "ball", s.ballRadius, "ball obstacle radius, 0 disables it")
	flag.IntVar(&s.snapshots, "snapshots", s.snapshots, "number of height heatmaps")
	flag.BoolVar(&s.frames, "frames", s.frames, "render PNG frames and encode an MP4")
	flag.StringVar(&s.outDir, "out", s.outDir, "output directory")
	flag.Parse()

	if err := s.validate(); err != nil {
		log.Fatalf("invalid settings: %v", err)
	}
	return s
}

func (s settings) validate() error {
	switch {
	case !(s.dt > 0) || !(s.seconds > 0):
		return fmt.Errorf("dt and seconds must be > 0 (dt=%g, seconds=%g)", s.dt, s.seconds)
	case !(s.gustPeriod > 0):
		return fmt.Errorf("gust period must be > 0, got %g", s.gustPeriod)
	case s.ballRadius < 0:
		return fmt.Errorf("ball radius must be >= 0, got %g", s.ballRadius)
	}
	return nil
}

// windAt returns the gust blowing at time t: on for one period, off for the
// next.
func windAt(t, period, strength float64) mgl64.Vec3 {
	if int(math.Floor(t/period))%2 == 0 {
		return mgl64.Vec3{0, 0, strength}
	}
	return mgl64.Vec3{}
}

// heightGrid copies particle heights into a matrix whose row 0 is the bottom
// row of the sheet, so heatmaps are drawn upright.
func heightGrid(pos [][]mgl64.Vec3) *mat.Dense {
	n, m := len(pos), len(pos[0])
	h := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			h.Set(n-1-i, j, pos[i][j].Y())
		}
	}
	return h
}

func main() {
	s := loadSettings()

	policy, err := cloth.ParsePolicy(s.policy)
	if err != nil {
		log.Fatalf("%v", err)
	}

	// ------------------------------------------------------------
	// Output directory setup
	// ------------------------------------------------------------
	framesDir := filepath.Join(s.outDir, "frames")
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		log.Fatalf("cannot create output dir: %v", err)
	}
	if s.frames {
		if err := raster.CleanFrames(framesDir); err != nil {
			log.Fatalf("cannot clean frames: %v", err)
		}
	}

	// ------------------------------------------------------------
	// Cloth: 3 particles per world unit
	// ------------------------------------------------------------
	const (
		width, height = 8.0, 6.0
		density       = 3
	)
	cfg := cloth.DefaultConfig()
	cfg.Width, cfg.Height = width, height
	cfg.Rows = density*int(height) + 1
	cfg.Cols = density*int(width) + 1
	cfg.Offset = mgl64.Vec3{1, 3, 0}
	cfg.Policy = policy

	sim, err := cloth.New(cfg)
	if err != nil {
		log.Fatalf("cannot create cloth: %v", err)
	}
	if err := sim.Initialize(0.5, 50, 1, cloth.OrientationXY); err != nil {
		log.Fatalf("cannot initialize cloth: %v", err)
	}

	// Pin three particles at each top corner and gather them slightly inward.
	dx := width / float64(cfg.Cols-1)
	dy := height / float64(cfg.Rows-1)
	for k := 0; k < 3; k++ {
		for _, j := range []int{k, cfg.Cols - 1 - k} {
			p := sim.Position(0, j)
			shift := dx * 0.1
			if j >= cfg.Cols/2 {
				shift = -shift
			}
			if err := sim.SetPosition(0, j, p.Add(mgl64.Vec3{shift, 0, 0})); err != nil {
				log.Fatalf("cannot pin particle: %v", err)
			}
			if err := sim.SetFixed(0, j, true); err != nil {
				log.Fatalf("cannot pin particle: %v", err)
			}
		}
	}

	var obstacles []cloth.Obstacle
	ball := cloth.Sphere{Center: mgl64.Vec3{5, 4.5, 1.2}, Radius: s.ballRadius}
	if s.ballRadius > 0 {
		obstacles = append(obstacles, ball)
	}

	log.Printf("Cloth %dx%d, %d springs (%d structural, %d shear, %d bending), policy %s",
		cfg.Rows, cfg.Cols, len(sim.Springs()),
		sim.SpringCount(cloth.Structural), sim.SpringCount(cloth.Shear), sim.SpringCount(cloth.Bending),
		policy)

	// ------------------------------------------------------------
	// Scheduling
	// ------------------------------------------------------------
	nSteps := int(math.Ceil(s.seconds / s.dt))
	snapshotEvery := nSteps
	if s.snapshots > 0 {
		snapshotEvery = nSteps / s.snapshots
	}
	if snapshotEvery < 1 {
		snapshotEvery = 1
	}
	fps := int(math.Round(1 / s.dt))

	// ------------------------------------------------------------
	// Logging (bottom-left corner and sheet centre)
	// ------------------------------------------------------------
	cornerI, cornerJ := cfg.Rows-1, 0
	midI, midJ := cfg.Rows/2, cfg.Cols/2
	rest := sim.Position(cornerI, cornerJ)

	tLog := make([]float64, 0, nSteps)
	windLog := make([]float64, 0, nSteps)
	cxLog := make([]float64, 0, nSteps)
	cyLog := make([]float64, 0, nSteps)
	czLog := make([]float64, 0, nSteps)
	dispLog := make([]float64, 0, nSteps)
	midZLog := make([]float64, 0, nSteps)
	hitLog := make([]float64, 0, nSteps)

	// ------------------------------------------------------------
	// Rendering setup
	// ------------------------------------------------------------
	const W, H = 960, 720
	var (
		cv  *raster.Canvas
		cam *raster.Camera
	)
	if s.frames {
		cv = raster.NewCanvas(W, H)
		cam = raster.NewCamera(mgl64.Vec3{12, 9, 14}, mgl64.Vec3{5, 5, 0}, mgl64.Vec3{0, 1, 0}, math.Pi/4, W, H)
	}
	bg := color.RGBA{20, 20, 20, 255}
	groundCol := color.RGBA{150, 200, 40, 255}
	clothCol := color.RGBA{60, 110, 230, 255}
	ballCol := color.RGBA{240, 70, 70, 255}
	arrowCol := color.RGBA{60, 255, 120, 255}
	toLight := mgl64.Vec3{8, 20, 20}.Normalize()

	// ------------------------------------------------------------
	// Time integration loop
	// ------------------------------------------------------------
	t := 0.0
	for step := 0; step < nSteps; step++ {
		wind := windAt(t, s.gustPeriod, s.windZ)
		sim.Step(s.dt, wind)
		hits := sim.Collide(obstacles...)
		t += s.dt

		c := sim.Position(cornerI, cornerJ)
		tLog = append(tLog, t)
		windLog = append(windLog, wind.Z())
		cxLog = append(cxLog, c.X())
		cyLog = append(cyLog, c.Y())
		czLog = append(czLog, c.Z())
		dispLog = append(dispLog, c.Sub(rest).Len())
		midZLog = append(midZLog, sim.Position(midI, midJ).Z())
		hitLog = append(hitLog, float64(hits))

		if step%snapshotEvery == 0 {
			g := plotting.Grid{Values: heightGrid(sim.Positions()), DX: dx, DY: dy}
			pngName := filepath.Join(s.outDir, fmt.Sprintf("height_t%06d.png", step))
			title := fmt.Sprintf("Particle Height y (t = %.2f s)", t)
			if err := plotting.SaveHeatMap(pngName, title, "column (world units)", "row (world units)", g); err != nil {
				log.Fatalf("cannot save heatmap: %v", err)
			}
			log.Printf("Saved snapshot: %s", pngName)
		}

		if s.frames {
			cv.Fill(bg)
			ground := [][]mgl64.Vec3{
				{{-2, 0, -4}, {12, 0, -4}},
				{{-2, 0, 6}, {12, 0, 6}},
			}
			up := []mgl64.Vec3{{0, 1, 0}, {0, 1, 0}}
			cv.Sheet(cam, ground, [][]mgl64.Vec3{up, up}, groundCol, toLight)
			if s.ballRadius > 0 {
				cv.Ball(cam, ball.Center, ball.Radius, ballCol)
			}
			cv.Sheet(cam, sim.Positions(), sim.Normals(), clothCol, toLight)
			if wind.Z() != 0 {
				x1, y1, ok1 := cam.Project(mgl64.Vec3{0, 8, -1})
				x2, y2, ok2 := cam.Project(mgl64.Vec3{0, 8, 1})
				if ok1 && ok2 {
					cv.Arrow(x1, y1, x2, y2, arrowCol)
				}
			}
			if err := cv.WritePNG(raster.FramePath(framesDir, step)); err != nil {
				log.Fatalf("%v", err)
			}
		}

		if step%100 == 0 {
			log.Printf("Step %d/%d  t=%.2f  wind=%.1f  corner=(%.3f, %.3f, %.3f)  hits=%d",
				step, nSteps, t, wind.Z(), c.X(), c.Y(), c.Z(), hits)
		}
	}

	if s.frames {
		if err := raster.EncodeMP4(framesDir, fps, filepath.Join(s.outDir, "cloth_wind.mp4")); err != nil {
			log.Printf("warning: %v", err)
		}
	}

	// ------------------------------------------------------------
	// Final plots and CSV
	// ------------------------------------------------------------
	log.Printf("Saving plots and CSV...")
	if err := plotting.SaveLines(s.outDir, "corner_position.png", "Free Corner Position", "time (s)", "position",
		plotting.Series{Name: "x", X: tLog, Y: cxLog},
		plotting.Series{Name: "y", X: tLog, Y: cyLog},
		plotting.Series{Name: "z", X: tLog, Y: czLog},
	); err != nil {
		log.Fatalf("cannot save plot: %v", err)
	}
	if err := plotting.SaveLines(s.outDir, "corner_displacement.png", "Free Corner Displacement from Rest", "time (s)", "|p - p0|",
		plotting.Series{Name: "corner", X: tLog, Y: dispLog},
	); err != nil {
		log.Fatalf("cannot save plot: %v", err)
	}
	if err := plotting.SaveLines(s.outDir, "center_billow.png", "Sheet Centre z and Wind", "time (s)", "z / wind",
		plotting.Series{Name: "centre z", X: tLog, Y: midZLog},
		plotting.Series{Name: "wind z", X: tLog, Y: windLog},
	); err != nil {
		log.Fatalf("cannot save plot: %v", err)
	}

	if err := plotting.WriteCSVFile(filepath.Join(s.outDir, "cloth_log.csv"),
		[]string{"t", "wind_z", "corner_x", "corner_y", "corner_z", "corner_disp", "center_z", "collisions"},
		[][]float64{tLog, windLog, cxLog, cyLog, czLog, dispLog, midZLog, hitLog},
	); err != nil {
		log.Printf("warning: %v", err)
	}

	log.Printf("Cloth finished. Results are in: %s", s.outDir)
}
