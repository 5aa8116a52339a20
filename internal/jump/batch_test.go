package jump_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bungeesim/internal/jump"
)

var _ = Describe("Batch", func() {
	var sim *jump.Simulator

	BeforeEach(func() {
		var err error
		sim, err = jump.New()
		Expect(err).NotTo(HaveOccurred())
	})

	It("defaults to at least one worker", func() {
		Expect(jump.NewBatch(sim, 0).Workers()).To(BeNumerically(">=", 1))
		Expect(jump.NewBatch(sim, 3).Workers()).To(Equal(3))
	})

	It("returns results in input order", func() {
		inputs := []jump.Inputs{safeInputs(), safeInputs(), safeInputs(), safeInputs()}
		inputs[1].RopeLength = 60
		inputs[2].K = 5
		inputs[2].RopeLength = 5
		inputs[3].StartHeight = -10

		results, err := jump.NewBatch(sim, 2).Run(context.Background(), inputs)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(len(inputs)))

		for i, res := range results {
			Expect(res.Inputs).To(Equal(inputs[i]))
		}
		Expect(results[0].Outcome).To(Equal(jump.Safe))
		Expect(results[1].Outcome).To(Equal(jump.GroundImpactWeakSpring))
		Expect(results[2].Outcome).To(Equal(jump.GroundImpactSlackRope))
		Expect(results[3].Outcome).To(Equal(jump.Safe))
	})

	It("matches sequential runs", func() {
		inputs := []jump.Inputs{safeInputs(), safeInputs()}
		inputs[1].Mass = 70

		results, err := jump.NewBatch(sim, 4).Run(context.Background(), inputs)
		Expect(err).NotTo(HaveOccurred())

		for i, in := range inputs {
			want, err := sim.Run(context.Background(), in)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[i].Trajectory).To(Equal(want.Trajectory))
		}
	})

	It("handles an empty batch", func() {
		results, err := jump.NewBatch(sim, 1).Run(context.Background(), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("reports cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := jump.NewBatch(sim, 1).Run(ctx, []jump.Inputs{safeInputs()})
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})
