package jump_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bungeesim/internal/dynamo"
	"github.com/san-kum/bungeesim/internal/jump"
	"github.com/san-kum/bungeesim/internal/logging"
)

func safeInputs() jump.Inputs {
	return jump.Inputs{StartHeight: 80, Duration: 20, K: 150, RopeLength: 50, Mass: 100, DragLinear: 1, DragQuadratic: 1}
}

var _ = Describe("Simulator", func() {
	var (
		ctx context.Context
		sim *jump.Simulator
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		sim, err = jump.New()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("a safe jump", func() {
		var res *jump.Result

		BeforeEach(func() {
			var err error
			res, err = sim.Run(ctx, safeInputs())
			Expect(err).NotTo(HaveOccurred())
		})

		It("samples the whole duration", func() {
			Expect(res.Times).To(HaveLen(jump.Samples))
			Expect(res.Trajectory).To(HaveLen(jump.Samples))
			Expect(res.Times[0]).To(Equal(0.0))
			Expect(res.Times[jump.Samples-1]).To(Equal(20.0))
			Expect(res.Dt()).To(BeNumerically("~", 0.02, 1e-12))
		})

		It("starts at rest from the platform", func() {
			Expect(res.Trajectory[0]).To(Equal(dynamo.State{80, 0}))
		})

		It("stays above the ground", func() {
			for _, h := range res.Trajectory.Heights() {
				Expect(h).To(BeNumerically(">", 0))
			}
			Expect(res.Metrics["min_height"]).To(BeNumerically("~", 5.97, 0.05))
		})

		It("reports only the safe outcome", func() {
			Expect(res.Outcome).To(Equal(jump.Safe))
			Expect(res.ImpactIndex).To(Equal(-1))
			Expect(res.Diagnostics).To(Equal(jump.Diagnostics{"OUTCOME: A safe bungee jump happened"}))
		})

		It("loses energy to drag", func() {
			Expect(res.Metrics["energy_loss"]).To(BeNumerically(">", 0))
			Expect(res.Metrics["max_stretch"]).To(BeNumerically(">", 0))
		})
	})

	It("replaces a negative start height and then jumps safely", func() {
		in := safeInputs()
		in.StartHeight = -10

		res, err := sim.Run(ctx, in)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Diagnostics).To(Equal(jump.Diagnostics{
			"WARNING: Negative jump height, setting to 80m",
			"OUTCOME: A safe bungee jump happened",
		}))

		reference, err := sim.Run(ctx, safeInputs())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Trajectory).To(Equal(reference.Trajectory))
		Expect(res.Inputs.StartHeight).To(Equal(-10.0))
	})

	Describe("a slack rope", func() {
		var res *jump.Result

		BeforeEach(func() {
			in := safeInputs()
			in.K = 5
			in.RopeLength = 5

			var err error
			res, err = sim.Run(ctx, in)
			Expect(err).NotTo(HaveOccurred())
		})

		It("hits the ground and blames the rope length", func() {
			Expect(res.Outcome).To(Equal(jump.GroundImpactSlackRope))
			Expect(res.Diagnostics).To(Equal(jump.Diagnostics{
				"OUTCOME: The jumper hit the ground after 4.82 seconds",
				"WARNING: Velocity is set to 0 beyond 4.82 seconds",
				"REASON: l value was set too high",
			}))
		})

		It("splices the ground phase in at the first sample below ground", func() {
			Expect(res.Trajectory).To(HaveLen(jump.Samples))
			Expect(res.ImpactIndex).To(Equal(241))
			Expect(res.ImpactTime).To(BeNumerically("~", 4.82, 1e-9))

			heights := res.Trajectory.Heights()
			Expect(heights[res.ImpactIndex-1]).To(BeNumerically(">", 0))
			Expect(heights[res.ImpactIndex]).To(Equal(0.0))
		})

		It("keeps the jumper on the ground after impact", func() {
			for _, v := range res.Trajectory.Velocities()[res.ImpactIndex:] {
				Expect(v).To(Equal(0.0))
			}
			for _, h := range res.Trajectory.Heights()[res.ImpactIndex:] {
				Expect(h).To(BeNumerically("<=", 0))
			}
		})
	})

	It("treats a rope longer than the drop as slack without a warning", func() {
		in := safeInputs()
		in.RopeLength = 100

		res, err := sim.Run(ctx, in)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Params.NaturalLength).To(Equal(-20.0))
		Expect(res.Outcome).To(Equal(jump.GroundImpactSlackRope))
		Expect(res.Diagnostics).To(HaveLen(3))
		Expect(res.Diagnostics[0]).To(HavePrefix("OUTCOME: The jumper hit the ground after "))
		Expect(res.Diagnostics[2]).To(Equal("REASON: l value was set too high"))
	})

	It("keeps a zero spring constant and falls freely onto the ground", func() {
		in := safeInputs()
		in.K = 0

		res, err := sim.Run(ctx, in)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Params.K).To(BeZero())
		Expect(res.Outcome).To(Equal(jump.GroundImpactSlackRope))
		Expect(res.Diagnostics).To(HaveLen(3))
		Expect(res.Diagnostics[0]).To(HavePrefix("OUTCOME: The jumper hit the ground after "))
		Expect(res.Diagnostics[2]).To(Equal("REASON: l value was set too high"))
	})

	Describe("a weak spring", func() {
		var res *jump.Result

		BeforeEach(func() {
			in := safeInputs()
			in.RopeLength = 60

			var err error
			res, err = sim.Run(ctx, in)
			Expect(err).NotTo(HaveOccurred())
		})

		It("hits the ground and blames the spring constant", func() {
			Expect(res.Outcome).To(Equal(jump.GroundImpactWeakSpring))
			Expect(res.Diagnostics).To(HaveLen(2))
			Expect(res.Diagnostics[0]).To(MatchRegexp(`^OUTCOME: The jumper hit the ground after \d+\.\d{2} seconds$`))
			Expect(res.Diagnostics[1]).To(Equal("REASON: k value was set too low"))
		})

		It("lets the rope pull the jumper back up after impact", func() {
			Expect(res.Trajectory).To(HaveLen(jump.Samples))
			Expect(res.ImpactIndex).To(BeNumerically(">", 0))

			rebound := false
			for _, v := range res.Trajectory.Velocities()[res.ImpactIndex:] {
				if v > 0 {
					rebound = true
					break
				}
			}
			Expect(rebound).To(BeTrue())
		})
	})

	DescribeTable("outcome does not depend on the integrator",
		func(name string, in jump.Inputs, want jump.Outcome) {
			s, err := jump.New(jump.WithIntegrator(name))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Integrator()).To(Equal(name))

			res, err := s.Run(ctx, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(want))
		},
		Entry("rk45 safe", "rk45", safeInputs(), jump.Safe),
		Entry("rk4 safe", "rk4", safeInputs(), jump.Safe),
		Entry("rk4 slack", "rk4", jump.Inputs{StartHeight: 80, Duration: 20, K: 5, RopeLength: 5, Mass: 100, DragLinear: 1, DragQuadratic: 1}, jump.GroundImpactSlackRope),
		Entry("rk4 weak", "rk4", jump.Inputs{StartHeight: 80, Duration: 20, K: 150, RopeLength: 60, Mass: 100, DragLinear: 1, DragQuadratic: 1}, jump.GroundImpactWeakSpring),
	)

	It("keeps every state finite", func() {
		inputs := []jump.Inputs{
			safeInputs(),
			{StartHeight: -1, Duration: -1, K: -1, RopeLength: -1, Mass: -1},
			{StartHeight: 80, Duration: 20, K: 5, RopeLength: 5, Mass: 100, DragLinear: 1, DragQuadratic: 1},
			{StartHeight: 80, Duration: 20, K: 150, RopeLength: 60, Mass: 100},
		}
		for _, in := range inputs {
			res, err := sim.Run(ctx, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Trajectory).To(HaveLen(jump.Samples))
			for _, x := range res.Trajectory {
				Expect(math.IsNaN(x[0]) || math.IsInf(x[0], 0)).To(BeFalse())
				Expect(math.IsNaN(x[1]) || math.IsInf(x[1], 0)).To(BeFalse())
			}
		}
	})

	It("uses the default integrator when none is named", func() {
		s, err := jump.New(jump.WithIntegrator(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Integrator()).To(Equal("rk45"))
	})

	It("rejects an unknown integrator", func() {
		_, err := jump.New(jump.WithIntegrator("leapfrog"))
		Expect(err).To(MatchError(ContainSubstring("unknown integrator")))
	})

	It("stops when the context is canceled", func() {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := sim.Run(canceled, safeInputs())
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})

	It("fails when the step limit is too small to cross an interval", func() {
		opts := dynamo.DefaultSolverOptions()
		opts.MaxSteps = 1
		opts.Tolerance = dynamo.Tolerance{Rel: 1e-14, Abs: 1e-14}
		s, err := jump.New(jump.WithSolverOptions(opts))
		Expect(err).NotTo(HaveOccurred())

		_, err = s.Run(ctx, safeInputs())
		Expect(err).To(MatchError(dynamo.ErrStepLimit))
		Expect(err.Error()).To(HavePrefix("jump phase: "))
	})

	Describe("trace logging", func() {
		run := func(level string, in jump.Inputs) string {
			var buf bytes.Buffer
			s, err := jump.New(jump.WithLogger(logging.NewLogger(level, &buf)))
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Run(ctx, in)
			Expect(err).NotTo(HaveOccurred())
			return buf.String()
		}

		It("logs every sample of a safe jump", func() {
			out := run("trace", safeInputs())
			Expect(strings.Count(out, "level=TRACE msg=sample phase=jump")).To(Equal(jump.Samples))
			Expect(out).NotTo(ContainSubstring("phase=ground"))
		})

		It("logs the ground phase after an impact", func() {
			in := safeInputs()
			in.RopeLength = 60
			out := run("trace", in)
			Expect(strings.Count(out, "msg=sample phase=jump")).To(Equal(jump.Samples))
			Expect(strings.Count(out, "msg=sample phase=ground")).To(Equal(jump.Samples))
		})

		It("stays quiet above trace level", func() {
			Expect(run("debug", safeInputs())).NotTo(ContainSubstring("msg=sample"))
		})
	})

	It("runs through the package-level helper", func() {
		res, err := jump.Simulate(ctx, safeInputs())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(jump.Safe))
	})
})
