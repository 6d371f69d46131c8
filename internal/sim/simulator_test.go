package sim_test

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/statesim/internal/dynamo"
	"github.com/san-kum/statesim/internal/integrators"
	"github.com/san-kum/statesim/internal/models"
	"github.com/san-kum/statesim/internal/series"
	"github.com/san-kum/statesim/internal/sim"
)

func newDecay() *models.StateSpace {
	m, err := models.NewStateSpace(1, 1, 1)
	Expect(err).NotTo(HaveOccurred())
	Expect(m.SetA([]float64{-1})).To(Succeed())
	Expect(m.SetC([]float64{1})).To(Succeed())
	Expect(m.SetInitialState([]float64{1})).To(Succeed())
	return m
}

// fickleModel adds a signal after its first state update.
type fickleModel struct {
	x       float64
	updated bool
}

func (f *fickleModel) Derive(x dynamo.State) dynamo.State { return dynamo.State{-x[0]} }
func (f *fickleModel) SignalNames() []string              { return []string{"x_0"} }
func (f *fickleModel) State() dynamo.State                { return dynamo.State{f.x} }

func (f *fickleModel) SetState(x dynamo.State) error {
	f.x = x[0]
	f.updated = true
	return nil
}

func (f *fickleModel) Signals() []float64 {
	if f.updated {
		return []float64{f.x, 0}
	}
	return []float64{f.x}
}

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("configuration", func() {
		DescribeTable("rejects invalid configs",
			func(cfg sim.Config) {
				_, err := sim.New(cfg, newDecay())
				Expect(err).To(HaveOccurred())
			},
			Entry("zero dt", sim.Config{Dt: 0, Horizon: 1, Scheme: integrators.SchemeEuler}),
			Entry("negative dt", sim.Config{Dt: -0.1, Horizon: 1, Scheme: integrators.SchemeEuler}),
			Entry("zero horizon", sim.Config{Dt: 0.1, Horizon: 0, Scheme: integrators.SchemeEuler}),
			Entry("negative horizon", sim.Config{Dt: 0.1, Horizon: -1, Scheme: integrators.SchemeEuler}),
			Entry("NaN dt", sim.Config{Dt: math.NaN(), Horizon: 1, Scheme: integrators.SchemeEuler}),
			Entry("sample count overflows int", sim.Config{Dt: 1e-3, Horizon: 1e20, Scheme: integrators.SchemeRK4}),
			Entry("sample count too large to allocate", sim.Config{Dt: 1e-3, Horizon: 1e9, Scheme: integrators.SchemeRK4}),
			Entry("horizon/dt overflows float", sim.Config{Dt: 1e-300, Horizon: 1e300, Scheme: integrators.SchemeRK4}),
		)

		It("rejects a run longer than MaxSteps with ErrInvalidConfig", func() {
			cfg := sim.Config{Dt: 1e-3, Horizon: 1e20, Scheme: integrators.SchemeRK4}
			Expect(cfg.Validate()).To(MatchError(dynamo.ErrInvalidConfig))

			limit := sim.Config{Dt: 1, Horizon: sim.MaxSteps - 1, Scheme: integrators.SchemeEuler}
			Expect(limit.Validate()).To(Succeed())
			Expect(limit.Steps()).To(Equal(sim.MaxSteps))
			limit.Horizon++
			Expect(limit.Validate()).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("reports ErrInvalidConfig for bad steps", func() {
			_, err := sim.New(sim.Config{Dt: 0, Horizon: 1, Scheme: integrators.SchemeRK4}, newDecay())
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("reports ErrUnknownScheme for an unsupported solver", func() {
			_, err := sim.New(sim.Config{Dt: 0.1, Horizon: 1, Scheme: "rk45"}, newDecay())
			Expect(err).To(MatchError(dynamo.ErrUnknownScheme))
		})

		It("derives the sample count from horizon and step", func() {
			Expect(sim.Config{Horizon: 20, Dt: 0.1}.Steps()).To(Equal(201))
			Expect(sim.Config{Horizon: 1, Dt: 0.001}.Steps()).To(Equal(1001))
			Expect(sim.DefaultConfig().Steps()).To(Equal(1001))
		})
	})

	Describe("seeding", func() {
		It("records t=0 and the initial snapshot", func() {
			s, err := sim.New(sim.Config{Horizon: 1, Dt: 0.1, Scheme: integrators.SchemeRK4}, newDecay())
			Expect(err).NotTo(HaveOccurred())

			store := s.Series()
			Expect(store.Names()).To(Equal([]string{"time", "u_0", "x_0", "y_0"}))
			Expect(store.Len()).To(Equal(1))
			Expect(store.Row(0)).To(Equal([]float64{0, 0, 1, 1}))
			Expect(s.Recorded()).To(Equal(1))
			Expect(s.Done()).To(BeFalse())
		})
	})

	Describe("Run", func() {
		It("fills every series with N samples on the exact time grid", func() {
			s, err := sim.New(sim.Config{Horizon: 20, Dt: 0.1, Scheme: integrators.SchemeEuler}, newDecay())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Run(ctx)).To(Succeed())

			store := s.Series()
			for _, name := range store.Names() {
				values, ok := store.Series(name)
				Expect(ok).To(BeTrue())
				Expect(values).To(HaveLen(201), "series %s", name)
			}

			times, _ := store.Series(series.TimeKey)
			for idx, tv := range times {
				Expect(tv).To(Equal(float64(idx) * 0.1))
				if idx > 0 {
					Expect(tv).To(BeNumerically(">", times[idx-1]))
				}
			}
			Expect(s.Done()).To(BeTrue())
			Expect(s.Time()).To(BeNumerically("~", 20.0, 1e-12))
		})

		DescribeTable("tracks exp(-t)",
			func(scheme integrators.Scheme, tol float64) {
				s, err := sim.New(sim.Config{Horizon: 1, Dt: 0.001, Scheme: scheme}, newDecay())
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Run(ctx)).To(Succeed())

				y, _ := s.Series().Series("y_0")
				Expect(y).To(HaveLen(1001))
				Expect(y[len(y)-1]).To(BeNumerically("~", math.Exp(-1), tol))
			},
			Entry("euler", integrators.SchemeEuler, 1e-2),
			Entry("rk4", integrators.SchemeRK4, 1e-8),
		)

		It("is a no-op once complete", func() {
			s, err := sim.New(sim.Config{Horizon: 0.5, Dt: 0.1, Scheme: integrators.SchemeRK4}, newDecay())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Run(ctx)).To(Succeed())
			Expect(s.Run(ctx)).To(Succeed())
			Expect(s.Series().Len()).To(Equal(6))

			done, err := s.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeTrue())
		})

		It("can be stepped one sample at a time", func() {
			s, err := sim.New(sim.Config{Horizon: 0.3, Dt: 0.1, Scheme: integrators.SchemeEuler}, newDecay())
			Expect(err).NotTo(HaveOccurred())

			var done bool
			for i := 0; i < 3; i++ {
				done, err = s.Step()
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(done).To(BeTrue())
			Expect(s.Series().Len()).To(Equal(4))
		})

		It("fails when the model changes its signal set", func() {
			s, err := sim.New(sim.Config{Horizon: 1, Dt: 0.1, Scheme: integrators.SchemeEuler}, &fickleModel{x: 1})
			Expect(err).NotTo(HaveOccurred())

			err = s.Run(ctx)
			Expect(err).To(MatchError(dynamo.ErrSignalMismatch))

			_, again := s.Step()
			Expect(again).To(MatchError(dynamo.ErrSignalMismatch))
			Expect(s.Done()).To(BeFalse())
		})

		It("stops on a cancelled context", func() {
			s, err := sim.New(sim.Config{Horizon: 1, Dt: 0.1, Scheme: integrators.SchemeEuler}, newDecay())
			Expect(err).NotTo(HaveOccurred())

			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			Expect(s.Run(cancelled)).To(MatchError(context.Canceled))
			Expect(s.Series().Len()).To(Equal(1))
		})
	})

	Describe("Export", func() {
		var s *sim.Simulator

		BeforeEach(func() {
			var err error
			s, err = sim.New(sim.Config{Horizon: 2, Dt: 0.1, Scheme: integrators.SchemeRK4}, newDecay())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Run(ctx)).To(Succeed())
		})

		It("writes a header and N rows of equal width", func() {
			path := filepath.Join(GinkgoT().TempDir(), "run.csv")
			Expect(s.Export(path)).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())

			lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			Expect(lines).To(HaveLen(1 + s.Steps()))
			Expect(lines[0]).To(Equal("time,u_0,x_0,y_0"))
			for _, line := range lines[1:] {
				Expect(strings.Split(line, ",")).To(HaveLen(4))
			}
			Expect(lines[2]).To(HavePrefix("0.1,0,"))
		})

		It("matches WriteCSV", func() {
			path := filepath.Join(GinkgoT().TempDir(), "run.csv")
			Expect(s.Export(path)).To(Succeed())
			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())

			var buf bytes.Buffer
			Expect(s.WriteCSV(&buf)).To(Succeed())
			Expect(buf.String()).To(Equal(string(data)))
		})

		It("reports ErrIO when the destination cannot be created", func() {
			path := filepath.Join(GinkgoT().TempDir(), "missing", "run.csv")
			err := s.Export(path)
			Expect(err).To(MatchError(dynamo.ErrIO))

			var ioErr *dynamo.IOError
			Expect(err).To(BeAssignableToTypeOf(ioErr))
		})
	})

	Describe("RunAll", func() {
		It("runs independent simulators to completion", func() {
			sims := make([]*sim.Simulator, 4)
			for i := range sims {
				scheme := integrators.SchemeEuler
				if i%2 == 1 {
					scheme = integrators.SchemeRK4
				}
				s, err := sim.New(sim.Config{Horizon: 1, Dt: 0.01, Scheme: scheme}, newDecay())
				Expect(err).NotTo(HaveOccurred())
				sims[i] = s
			}

			Expect(sim.RunAll(ctx, sims, 2)).To(Succeed())
			for _, s := range sims {
				Expect(s.Done()).To(BeTrue())
				Expect(s.Series().Len()).To(Equal(101))
			}

			euler, _ := sims[0].Series().Series("x_0")
			rk4, _ := sims[1].Series().Series("x_0")
			Expect(math.Abs(rk4[100] - math.Exp(-1))).To(BeNumerically("<", math.Abs(euler[100]-math.Exp(-1))))
		})

		It("returns the first failure", func() {
			good, err := sim.New(sim.Config{Horizon: 1, Dt: 0.1, Scheme: integrators.SchemeEuler}, newDecay())
			Expect(err).NotTo(HaveOccurred())
			bad, err := sim.New(sim.Config{Horizon: 1, Dt: 0.1, Scheme: integrators.SchemeEuler}, &fickleModel{x: 1})
			Expect(err).NotTo(HaveOccurred())

			Expect(sim.RunAll(ctx, []*sim.Simulator{good, bad}, 0)).To(MatchError(dynamo.ErrSignalMismatch))
		})
	})
})
