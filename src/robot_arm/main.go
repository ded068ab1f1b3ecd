// ------------------------------------------------------------
// Robot Arm Sweeping Through Hanging Cloths (IK + mass-spring) in Go
// ------------------------------------------------------------
// Requirements implemented:
//   - 4-DOF counter-top arm (base rotator about y, three links about x)
//   - Differential IK: one SVD pseudo-inverse step per frame toward the goal
//   - Goal eases from the rest effector position onto a Hermite sweep and
//     back again (cosine-eased parameter)
//   - Three 2 x 4 cloths pinned at their top corners, wind gusts along -z
//   - Cloths collide with every joint (sphere) and the three arm links (box)
//   - Outputs: plots (Gonum Plot), CSV log, console residual graph,
//     optional frames + MP4 (ffmpeg)
//
// Output folders:
//   output/robot_arm/*.png plots
//   output/robot_arm/arm_log.csv
//   output/robot_arm/frames/frame_000000.png ... with -frames
//   output/robot_arm/robot_arm.mp4   (with -frames, if ffmpeg in PATH)
// ------------------------------------------------------------

package main

import (
	"flag"
	"image/color"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mohammadijoo/ClothIK_Go/internal/cloth"
	"github.com/mohammadijoo/ClothIK_Go/internal/config"
	"github.com/mohammadijoo/ClothIK_Go/internal/kinematics"
	"github.com/mohammadijoo/ClothIK_Go/internal/plotting"
	"github.com/mohammadijoo/ClothIK_Go/internal/raster"
)

// ------------------------------------------------------------
// Goal trajectory
// ------------------------------------------------------------

// sweep is a cubic Hermite segment evaluated through its Bezier control
// polygon.
type sweep struct {
	p0, p1 mgl64.Vec3
	t0, t1 mgl64.Vec3
}

func (s sweep) at(u float64) mgl64.Vec3 {
	return mgl64.CubicBezierCurve3D(u,
		s.p0,
		s.p0.Add(s.t0.Mul(1.0/3)),
		s.p1.Sub(s.t1.Mul(1.0/3)),
		s.p1,
	)
}

// goalPath moves the goal linearly from rest onto the sweep during the first
// wait seconds, then runs the sweep out and back with a cosine ease.
type goalPath struct {
	rest  mgl64.Vec3
	sweep sweep
	wait  float64
}

func (g goalPath) at(t float64) mgl64.Vec3 {
	start := g.sweep.at(0)
	if t < g.wait {
		return g.rest.Add(start.Sub(g.rest).Mul(t / g.wait))
	}
	u := 0.5 - 0.5*math.Cos((t-g.wait)/2)
	return g.sweep.at(u)
}

// ------------------------------------------------------------
// Collision scene: the arm as seen by the cloths
// ------------------------------------------------------------

const (
	jointRadius = 0.325
	linkBuffer  = 0.3
	// firstLinkObstacle skips the torso and base rotator, which sit below
	// the cloths.
	firstLinkObstacle = 2
)

// armObstacles turns the current arm pose into sphere and box obstacles.
func armObstacles(arm *kinematics.Chain) []cloth.Obstacle {
	joints := arm.JointPositions()
	links := arm.LinkTransforms()

	out := make([]cloth.Obstacle, 0, len(joints)+len(links))
	for _, p := range joints {
		out = append(out, cloth.Sphere{Center: p, Radius: jointRadius})
	}
	for i := firstLinkObstacle; i < len(links) && i < len(kinematics.ArmLinkExtents); i++ {
		ext := kinematics.ArmLinkExtents[i].Add(mgl64.Vec3{linkBuffer, linkBuffer, linkBuffer})
		out = append(out, cloth.Box{
			Center:      mgl64.Vec3{links[i].At(0, 3), links[i].At(1, 3), links[i].At(2, 3)},
			HalfExtents: ext.Mul(0.5),
			Orientation: links[i],
		})
	}
	return out
}

// newCurtain builds one 2 x 4 cloth at offset with three pinned particles at
// each top corner.
func newCurtain(offset mgl64.Vec3, policy cloth.Policy) (*cloth.Simulation, error) {
	const (
		width, height = 2.0, 4.0
		density       = 3
	)
	cfg := cloth.DefaultConfig()
	cfg.Width, cfg.Height = width, height
	cfg.Rows = density*int(height) + 1
	cfg.Cols = density*int(width) + 1
	cfg.Offset = offset
	cfg.Policy = policy

	sim, err := cloth.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := sim.Initialize(0.5, 50, 1, cloth.OrientationXY); err != nil {
		return nil, err
	}
	for k := 0; k < 3; k++ {
		if err := sim.SetFixed(0, k, true); err != nil {
			return nil, err
		}
		if err := sim.SetFixed(0, cfg.Cols-1-k, true); err != nil {
			return nil, err
		}
	}
	return sim, nil
}

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("cannot load environment: %v", err)
	}
	defSeconds, err := config.Float("ARM_SECONDS", 14)
	if err != nil {
		log.Printf("warning: %v", err)
	}
	defMaxStep, err := config.Float("ARM_MAX_STEP", kinematics.DefaultConfig().MaxStep)
	if err != nil {
		log.Printf("warning: %v", err)
	}
	defFrames, err := config.Bool("ARM_FRAMES", false)
	if err != nil {
		log.Printf("warning: %v", err)
	}

	seconds := flag.Float64("seconds", defSeconds, "simulated time (s)")
	dt := flag.Float64("dt", 0.01, "time step (s)")
	maxStep := flag.Float64("max-step", defMaxStep, "largest joint update norm per frame (rad), 0 disables the clamp")
	policyName := flag.String("policy", config.String("ARM_CLOTH_POLICY", "position"), "cloth update policy: position or force")
	frames := flag.Bool("frames", defFrames, "render PNG frames and encode an MP4")
	outDir := flag.String("out", config.String("ARM_OUT", filepath.Join("output", "robot_arm")), "output directory")
	flag.Parse()

	if !(*dt > 0) || !(*seconds > 0) {
		log.Fatalf("dt and seconds must be > 0 (dt=%g, seconds=%g)", *dt, *seconds)
	}
	policy, err := cloth.ParsePolicy(*policyName)
	if err != nil {
		log.Fatalf("%v", err)
	}

	// ----------------------------
	// Output folders
	// ----------------------------
	framesDir := filepath.Join(*outDir, "frames")
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("cannot create output dir: %v", err)
	}
	if *frames {
		if err := raster.CleanFrames(framesDir); err != nil {
			log.Fatalf("cannot clean frames: %v", err)
		}
	}

	// ----------------------------
	// Arm and goal
	// ----------------------------
	kcfg := kinematics.DefaultConfig()
	kcfg.MaxStep = *maxStep
	arm, err := kinematics.NewRobotArm(kcfg)
	if err != nil {
		log.Fatalf("cannot build arm: %v", err)
	}
	path := goalPath{
		rest: arm.EndEffector(),
		sweep: sweep{
			p0: mgl64.Vec3{8, 4.25, -0.5},
			t0: mgl64.Vec3{0, 0, 5},
			p1: mgl64.Vec3{5, 2.25, 2.25},
			t1: mgl64.Vec3{-10, 0, 0},
		},
		wait: 0.2,
	}
	log.Printf("Arm: %d joints on the path, %d DOF, effector at rest %v", len(arm.Path()), arm.DOF(), path.rest)

	// ----------------------------
	// Cloths
	// ----------------------------
	offsets := []mgl64.Vec3{{4.9, 1.95, 0}, {7, 1.95, 0}, {9.1, 1.95, 0}}
	curtains := make([]*cloth.Simulation, 0, len(offsets))
	for _, off := range offsets {
		c, err := newCurtain(off, policy)
		if err != nil {
			log.Fatalf("cannot create cloth: %v", err)
		}
		curtains = append(curtains, c)
	}

	// ----------------------------
	// Logging (one entry per frame)
	// ----------------------------
	nSteps := int(math.Ceil(*seconds / *dt))
	fps := int(math.Round(1 / *dt))

	tLog := make([]float64, 0, nSteps)
	gx := make([]float64, 0, nSteps)
	gy := make([]float64, 0, nSteps)
	gz := make([]float64, 0, nSteps)
	ex := make([]float64, 0, nSteps)
	ey := make([]float64, 0, nSteps)
	ez := make([]float64, 0, nSteps)
	resLog := make([]float64, 0, nSteps)
	hitLog := make([]float64, 0, nSteps)

	// ----------------------------
	// Visual mapping
	// ----------------------------
	const W, H = 1000, 600
	var (
		cv  *raster.Canvas
		cam *raster.Camera
	)
	if *frames {
		cv = raster.NewCanvas(W, H)
		cam = raster.NewCamera(mgl64.Vec3{8, 7, 13}, mgl64.Vec3{7.5, 3, 0}, mgl64.Vec3{0, 1, 0}, math.Pi/4, W, H)
	}
	bg := color.RGBA{20, 20, 20, 255}
	floorCol := color.RGBA{128, 128, 128, 255}
	clothCol := color.RGBA{60, 110, 230, 255}
	steelCol := color.RGBA{200, 200, 210, 255}
	jointCol := color.RGBA{255, 220, 60, 255}
	goalCol := color.RGBA{60, 255, 120, 255}
	toLight := mgl64.Vec3{8, 20, 20}.Normalize()

	// ----------------------------
	// Main loop: frames
	// ----------------------------
	t := 0.0
	for frame := 0; frame < nSteps; frame++ {
		goal := path.at(t)
		residual := arm.Track(goal)

		wind := mgl64.Vec3{}
		if int(math.Floor(t/4))%2 == 0 {
			wind = mgl64.Vec3{0, 0, -0.5}
		}
		obstacles := armObstacles(arm)
		hits := 0
		for _, c := range curtains {
			c.Step(*dt, wind)
			hits += c.Collide(obstacles...)
		}

		eff := arm.EndEffector()
		tLog = append(tLog, t)
		gx = append(gx, goal.X())
		gy = append(gy, goal.Y())
		gz = append(gz, goal.Z())
		ex = append(ex, eff.X())
		ey = append(ey, eff.Y())
		ez = append(ez, eff.Z())
		resLog = append(resLog, residual)
		hitLog = append(hitLog, float64(hits))

		if *frames {
			cv.Fill(bg)
			floor := [][]mgl64.Vec3{
				{{2, 0, -4}, {13, 0, -4}},
				{{2, 0, 4}, {13, 0, 4}},
			}
			up := []mgl64.Vec3{{0, 1, 0}, {0, 1, 0}}
			cv.Sheet(cam, floor, [][]mgl64.Vec3{up, up}, floorCol, toLight)

			arm.Tree().Walk(func(_ int, world mgl64.Mat4) {
				cv.WireBox(cam, world, 3, steelCol)
			})
			for _, p := range arm.JointPositions() {
				cv.Ball(cam, p, 0.12, jointCol)
			}
			cv.Ball(cam, goal, 0.08, goalCol)

			for _, c := range curtains {
				cv.Sheet(cam, c.Positions(), c.Normals(), clothCol, toLight)
			}
			if err := cv.WritePNG(raster.FramePath(framesDir, frame)); err != nil {
				log.Fatalf("%v", err)
			}
		}

		if frame%100 == 0 {
			log.Printf("Frame %d/%d  t=%.2f  goal=(%.2f, %.2f, %.2f)  residual=%.4f  hits=%d",
				frame, nSteps, t, goal.X(), goal.Y(), goal.Z(), residual, hits)
		}
		t += *dt
	}

	if *frames {
		if err := raster.EncodeMP4(framesDir, fps, filepath.Join(*outDir, "robot_arm.mp4")); err != nil {
			log.Printf("warning: %v", err)
		}
	}

	// Plots + CSV
	log.Printf("Saving plots and CSV...")
	if err := savePlots(*outDir, tLog, gx, gy, gz, ex, ey, ez, resLog, hitLog); err != nil {
		log.Fatalf("plot saving failed: %v", err)
	}
	if err := plotting.WriteCSVFile(filepath.Join(*outDir, "arm_log.csv"),
		[]string{"t", "goal_x", "goal_y", "goal_z", "eff_x", "eff_y", "eff_z", "residual", "collisions"},
		[][]float64{tLog, gx, gy, gz, ex, ey, ez, resLog, hitLog},
	); err != nil {
		log.Fatalf("CSV saving failed: %v", err)
	}

	log.Printf("Tracking residual over the run:\n%s",
		plotting.Terminal(resLog, "|goal - effector| per frame", 60, 8))
	log.Printf("Done.")
}

func savePlots(outDir string, t, gx, gy, gz, ex, ey, ez, res, hits []float64) error {
	if err := plotting.SaveLines(outDir, "ik_residual.png", "IK Residual |goal - effector|", "time (s)", "residual", plotting.Series{Name: "residual", X: t, Y: res}); err != nil {
		return err
	}
	axes := []struct {
		name      string
		goal, eff []float64
	}{
		{"x", gx, ex}, {"y", gy, ey}, {"z", gz, ez},
	}
	for _, a := range axes {
		err := plotting.SaveLines(outDir, "track_"+a.name+".png", "Goal vs Effector ("+a.name+")", "time (s)", a.name,
			plotting.Series{Name: "goal", X: t, Y: a.goal},
			plotting.Series{Name: "effector", X: t, Y: a.eff},
		)
		if err != nil {
			return err
		}
	}
	return plotting.SaveLines(outDir, "cloth_collisions.png", "Cloth Particles Pushed by the Arm", "time (s)", "corrections", plotting.Series{Name: "collisions", X: t, Y: hits})
}
