package universe

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/bbnsim/internal/parallel"
)

// MakeStep runs the step pipeline once, advances aT and x, and records the new row.
func (u *Universe) MakeStep(ctx context.Context) error {
	if err := u.prepare(); err != nil {
		return err
	}
	start := time.Now()
	prevT, prevTime := u.Params.T, u.Params.Time

	fraction, err := u.Integrand(ctx)
	if err != nil {
		return u.stepError(err)
	}

	delta, err := u.ab.Step(u.data.Last("fraction", u.ab.Order(u.step)-1), fraction, u.Params.Dy, u.step)
	if err != nil {
		return u.stepError(err)
	}
	u.Params.AT += delta
	u.Params.X += u.Params.Dx
	u.Params.Update(u.totalEnergyDensity())

	if math.IsNaN(u.Params.AT) || math.IsInf(u.Params.AT, 0) || math.IsNaN(u.Params.T) {
		return u.stepError(fmt.Errorf("%w: aT=%g", ErrNonFinite, u.Params.AT))
	}

	if u.opts.StepMonitor != nil {
		u.opts.StepMonitor(u)
	}
	for _, m := range u.opts.Monitors {
		m.Observe(u.Params, fraction)
	}
	// a failed step leaves both tables unchanged
	ratesLen := u.rates.Len()
	if err := u.saveRates(prevT, prevTime); err != nil {
		return u.stepError(err)
	}
	if err := u.save(); err != nil {
		u.rates.Truncate(ratesLen)
		return u.stepError(err)
	}

	u.step++
	u.opts.Metrics.ObserveStep(time.Since(start), u.Params)
	return nil
}

func (u *Universe) stepError(err error) error {
	return &StepError{Step: u.step, X: u.Params.X, T: u.Params.T, Wrapped: err}
}

// Integrand runs the first five phases of a step and returns the derivative
// sample x·ΣN/ΣD of the temperature equation.
func (u *Universe) Integrand(ctx context.Context) (float64, error) {
	for _, p := range u.particles {
		p.Update()
	}
	for _, in := range u.interactions {
		in.Initialize()
	}

	if err := u.calculateCollisions(ctx); err != nil {
		return 0, err
	}

	if u.oscillations != nil {
		u.oscillations.apply()
	}
	for _, p := range u.particles {
		p.UpdateDistribution()
	}

	numerator, denominator := 0.0, 0.0
	for _, p := range u.particles {
		numerator += p.Numerator()
		denominator += p.Denominator()
	}
	if denominator == 0 {
		return 0, ErrNoHeatCapacity
	}
	u.fraction = u.Params.X * numerator / denominator
	return u.fraction, nil
}

// calculateCollisions sets exactly one aggregate collision integral on every
// species with active integrals.
func (u *Universe) calculateCollisions(ctx context.Context) error {
	type pending struct {
		particle Particle
		handle   *parallel.Handle
		start    time.Time
	}
	var jobs []pending

	for _, p := range u.particles {
		if !p.HasCollisionIntegrals() {
			continue
		}
		start := time.Now()
		if u.pool.Enabled() {
			jobs = append(jobs, pending{p, u.pool.Submit(ctx, p.CollisionAt, p.Grid().Points()), start})
			continue
		}
		values, err := p.IntegrateCollisions(ctx)
		if err != nil {
			return err
		}
		u.setCollision(p, values, start)
	}

	for i, job := range jobs {
		values, err := job.handle.Get(u.opts.PoolTimeout)
		if err != nil {
			for _, rest := range jobs[i:] {
				rest.handle.Cancel()
			}
			return fmt.Errorf("%s collision integral: %w", job.particle.Symbol(), err)
		}
		u.setCollision(job.particle, values, job.start)
	}
	return nil
}

func (u *Universe) setCollision(p Particle, values []float64, start time.Time) {
	p.SetCollisionIntegral(values)
	d := time.Since(start)
	u.opts.Metrics.ObserveCollision(p.Symbol(), d)
	u.log.Debug("collision integral", "particle", p.Symbol(), "duration", d)
}
