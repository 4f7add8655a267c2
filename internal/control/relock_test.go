package control

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lockbox/internal/fixed"
)

const lsb = 1 << fixed.StepShift

var _ = Describe("Relock", func() {
	var (
		r   *Relock
		par RelockParams
	)

	BeforeEach(func() {
		r = &Relock{}
		r.Reset()
		par = RelockParams{Enabled: true, Min: 500, Max: 4000, Stepsize: lsb}
	})

	stepUntil := func(in RelockInput, limit int, done func(RelockState) bool) int {
		for i := 1; i <= limit; i++ {
			r.Step(par, in)
			if done(r.State()) {
				return i
			}
		}
		return -1
	}

	Context("when disabled", func() {
		It("reports locked and outputs nothing", func() {
			par.Enabled = false
			out := r.Step(par, RelockInput{Signal: 0})
			Expect(out).To(Equal(RelockOutput{Locked: true}))
		})

		It("drops sweep state immediately", func() {
			for i := 0; i < 50; i++ {
				r.Step(par, RelockInput{Signal: 0})
			}
			Expect(r.State().Current).NotTo(BeZero())

			par.Enabled = false
			out := r.Step(par, RelockInput{Signal: 0})
			Expect(out.Signal).To(BeZero())
			Expect(r.State()).To(Equal(RelockState{Locked: true}))
		})
	})

	Context("when the signal is inside the window", func() {
		It("stays locked without hold or bias", func() {
			for i := 0; i < 10; i++ {
				out := r.Step(par, RelockInput{Signal: 1000})
				Expect(out.Locked).To(BeTrue())
				Expect(out.Hold).To(BeFalse())
				Expect(out.Signal).To(BeZero())
			}
			Expect(r.State().Sweep).To(Equal(SweepZero))
		})

		It("treats the window edges as outside", func() {
			Expect(r.Step(par, RelockInput{Signal: 500}).Locked).To(BeFalse())
			Expect(r.Step(par, RelockInput{Signal: 4000}).Locked).To(BeFalse())
		})
	})

	Context("when the signal leaves the window", func() {
		It("holds the owning PID", func() {
			out := r.Step(par, RelockInput{Signal: 0})
			Expect(out.Hold).To(BeTrue())
			Expect(out.Locked).To(BeFalse())
		})

		It("starts ramping up from zero", func() {
			r.Step(par, RelockInput{Signal: 0})
			Expect(r.State().Sweep).To(Equal(SweepRampUp))
			Expect(r.State().Amplitude).To(Equal(int64(256 * lsb)))
			Expect(r.State().Current).To(BeZero())
		})

		It("reverses at the amplitude and doubles it", func() {
			in := RelockInput{Signal: 0}
			r.Step(par, in)

			n := stepUntil(in, 1000, func(s RelockState) bool { return s.Sweep == SweepRampDown })
			Expect(n).To(Equal(256))
			Expect(r.State().Current).To(Equal(int64(256 * lsb)))
			Expect(r.State().Amplitude).To(Equal(int64(512 * lsb)))

			n = stepUntil(in, 2000, func(s RelockState) bool { return s.Sweep == SweepRampUp })
			Expect(n).To(Equal(768))
			Expect(r.State().Current).To(Equal(int64(-512 * lsb)))
			Expect(r.State().Amplitude).To(Equal(int64(512 * lsb)))

			n = stepUntil(in, 2000, func(s RelockState) bool { return s.Sweep == SweepRampDown })
			Expect(n).To(Equal(1024))
			Expect(r.State().Amplitude).To(Equal(int64(1024 * lsb)))
		})

		It("outputs the ramp in whole counts", func() {
			in := RelockInput{Signal: 0}
			var out RelockOutput
			for i := 0; i < 101; i++ {
				out = r.Step(par, in)
			}
			Expect(out.Signal).To(Equal(fixed.Sample(100)))
		})

		It("reverses early on the matching rail", func() {
			r.Step(par, RelockInput{Signal: 0})
			r.Step(par, RelockInput{Signal: 0, Rail: RailStatus{Upper: true}})
			Expect(r.State().Sweep).To(Equal(SweepRampDown))

			r.Step(par, RelockInput{Signal: 0, Rail: RailStatus{Lower: true}})
			Expect(r.State().Sweep).To(Equal(SweepRampUp))
		})

		It("never grows past half the output range", func() {
			par.Stepsize = 0xFFFFFF
			for i := 0; i < 20000; i++ {
				out := r.Step(par, RelockInput{Signal: 0})
				Expect(out.Signal.Valid()).To(BeTrue())
				Expect(r.State().Amplitude).To(BeNumerically("<=", MaxSweepAmplitude))
			}
			Expect(r.State().Amplitude).To(Equal(int64(MaxSweepAmplitude)))
		})

		It("does not advance while held", func() {
			for i := 0; i < 20; i++ {
				r.Step(par, RelockInput{Signal: 0})
			}
			before := r.State()
			out := r.Step(par, RelockInput{Signal: 0, Hold: true})
			Expect(r.State()).To(Equal(before))
			Expect(out.Hold).To(BeTrue())
		})
	})

	Context("integrator clear pulse", func() {
		countClears := func(rail RailStatus) int {
			r.Step(par, RelockInput{Signal: 1000})
			clears := 0
			for i := 0; i < 10; i++ {
				if r.Step(par, RelockInput{Signal: 0, Rail: rail}).ClearIntegrator {
					clears++
				}
			}
			return clears
		}

		It("fires exactly once when lock is lost while railed", func() {
			Expect(countClears(RailStatus{Upper: true})).To(Equal(1))
		})

		It("does not fire without a rail", func() {
			Expect(countClears(RailStatus{})).To(BeZero())
		})

		It("fires on the first unlocked tick only", func() {
			r.Step(par, RelockInput{Signal: 1000})
			Expect(r.Step(par, RelockInput{Signal: 0, Rail: RailStatus{Lower: true}}).ClearIntegrator).To(BeTrue())
			Expect(r.Step(par, RelockInput{Signal: 0, Rail: RailStatus{Lower: true}}).ClearIntegrator).To(BeFalse())
		})
	})

	Context("when lock is reacquired", func() {
		It("ramps back to zero and resets the amplitude", func() {
			for i := 0; i < 41; i++ {
				r.Step(par, RelockInput{Signal: 0})
			}
			Expect(r.State().Current).To(Equal(int64(40 * lsb)))

			out := r.Step(par, RelockInput{Signal: 2000})
			Expect(out.Locked).To(BeTrue())
			Expect(out.Hold).To(BeFalse())
			Expect(r.State().Amplitude).To(BeZero())
			Expect(r.State().Current).To(Equal(int64(39 * lsb)))

			n := stepUntil(RelockInput{Signal: 2000}, 100, func(s RelockState) bool { return s.Sweep == SweepZero })
			Expect(n).To(Equal(39))
			Expect(r.State().Current).To(BeZero())
		})

		It("resumes a growing search when lock is lost during the decay", func() {
			in := RelockInput{Signal: 0}
			for i := 0; i < 101; i++ {
				r.Step(par, in)
			}
			r.Step(par, RelockInput{Signal: 2000})
			Expect(r.State().Amplitude).To(BeZero())
			Expect(r.State().Sweep).To(Equal(SweepRampUp))
			Expect(r.State().Current).To(Equal(int64(99 * lsb)))

			r.Step(par, in)
			Expect(r.State().Amplitude).To(Equal(int64(256 * lsb)))

			n := stepUntil(in, 1000, func(s RelockState) bool { return s.Sweep == SweepRampDown })
			Expect(n).To(Equal(156))
			Expect(r.State().Amplitude).To(Equal(int64(512 * lsb)))

			n = stepUntil(in, 5000, func(s RelockState) bool { return s.Amplitude == 1024*lsb })
			Expect(n).To(BeNumerically(">", 0))
			Expect(r.State().Current).To(Equal(int64(512 * lsb)))
		})
	})
})
