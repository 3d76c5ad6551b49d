package growth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/njchilds90/symsolve"
)

func TestReference_Validate(t *testing.T) {
	require.NoError(t, DefaultReference().Validate())

	tests := []struct {
		name   string
		mutate func(*Reference)
		substr string
	}{
		{"negative gamma", func(r *Reference) { r.GammaMax = -1 }, "gamma_max must satisfy gt=0"},
		{"zero nu", func(r *Reference) { r.NuMax = 0 }, "nu_max must satisfy gt=0"},
		{"kd too large", func(r *Reference) { r.Kd = 1.5 }, "kd must satisfy lt=1"},
		{"allocation over one", func(r *Reference) { r.PhiO, r.PhiRb = 0.7, 0.4 }, "phi_o + phi_rb must be below 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := DefaultReference()
			tt.mutate(&ref)
			err := ref.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

func TestFluxBalance_IsQuadraticInLambda(t *testing.T) {
	sy := NewSymbols()
	num, _, err := symsolve.Together(FluxBalance(sy))
	require.NoError(t, err)
	assert.Equal(t, 2, symsolve.Degree(num, sy.Lambda.Name()))
}

func TestGrowthRate(t *testing.T) {
	d, err := GrowthRate(symsolve.NewSolver(), DefaultReference())
	require.NoError(t, err)
	assert.Equal(t, "growth rate", d.Name)
	assert.Equal(t, "λ", d.Symbol)
	assert.Equal(t, 2, d.Candidates)
	assert.InDelta(t, 1.0834, d.Value, 1e-3)

	// The selected root agrees with the closed form at the reference.
	sy := NewSymbols()
	want, err := symsolve.EvaluateReal(ClosedFormGrowthRate(sy), DefaultReference().Point(sy))
	require.NoError(t, err)
	assert.InDelta(t, want, d.Value, 1e-9)
}

func TestGrowthRate_RootSolvesFluxBalance(t *testing.T) {
	d, err := GrowthRate(symsolve.NewSolver(), DefaultReference())
	require.NoError(t, err)
	sy := NewSymbols()
	residual := FluxBalance(sy).Sub(sy.Lambda.Name(), d.Expr)
	v, err := symsolve.EvaluateReal(residual, DefaultReference().Point(sy))
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1e-9)
}

func TestOptimalAllocation(t *testing.T) {
	d, err := OptimalAllocation(symsolve.NewSolver(), DefaultReference())
	require.NoError(t, err)
	assert.Equal(t, "φ_Rb", d.Symbol)
	assert.InDelta(t, 0.15449, d.Value, 1e-4)
	assert.GreaterOrEqual(t, d.Candidates, 2)

	sy := NewSymbols()
	want, err := symsolve.EvaluateReal(ClosedFormOptimalAllocation(sy), DefaultReference().Point(sy))
	require.NoError(t, err)
	assert.InDelta(t, want, d.Value, 1e-9)
}

func TestOptimalAllocation_MatchesClosedFormAcrossReferences(t *testing.T) {
	refs := []Reference{
		{GammaMax: 8, NuMax: 3, Kd: 0.05, PhiO: 0.5, PhiRb: 0.25},
		{GammaMax: 12, NuMax: 6, Kd: 0.01, PhiO: 0.4, PhiRb: 0.1},
	}
	sy := NewSymbols()
	for _, ref := range refs {
		d, err := OptimalAllocation(symsolve.NewSolver(), ref)
		require.NoError(t, err)
		want, err := symsolve.EvaluateReal(ClosedFormOptimalAllocation(sy), ref.Point(sy))
		require.NoError(t, err)
		assert.InDelta(t, want, d.Value, 1e-9)
	}
}

func TestOptimalAllocation_IsStationaryPoint(t *testing.T) {
	s := symsolve.NewSolver()
	ref := DefaultReference()
	d, err := OptimalAllocation(s, ref)
	require.NoError(t, err)

	sy := NewSymbols()
	dl, err := s.Differentiate(ClosedFormGrowthRate(sy), sy.PhiRb)
	require.NoError(t, err)
	slope, err := symsolve.EvaluateReal(dl, ref.Point(sy).With(sy.PhiRb.Name(), d.Value))
	require.NoError(t, err)
	assert.InDelta(t, 0, slope, 1e-8)
}

func TestPrecursors(t *testing.T) {
	d, err := Precursors(symsolve.NewSolver(), DefaultReference())
	require.NoError(t, err)
	assert.Equal(t, "c_pc", d.Symbol)
	assert.InDelta(t, 0.0384, d.Value, 1e-3)
	assert.Greater(t, d.Value, 0.0)
}

func TestTranslationRate(t *testing.T) {
	d, err := TranslationRate(symsolve.NewSolver(), DefaultReference())
	require.NoError(t, err)
	assert.Equal(t, "γ", d.Symbol)

	// γ φ_Rb = λ at steady state.
	ref := DefaultReference()
	assert.InDelta(t, 1.0834/ref.PhiRb, d.Value, 1e-2)
	assert.InDelta(t, 0, d.Check, 1e-9)
}

func TestRun(t *testing.T) {
	ds, err := Run(context.Background(), symsolve.NewSolver(), DefaultReference())
	require.NoError(t, err)
	require.Len(t, ds, 4)

	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name
		assert.NotEmpty(t, d.String)
		assert.NotEmpty(t, d.LaTeX)
	}
	assert.Equal(t, []string{"growth rate", "optimal allocation", "precursors", "translation rate"}, names)
}

func TestRun_InvalidReference(t *testing.T) {
	ref := DefaultReference()
	ref.Kd = 0
	_, err := Run(context.Background(), symsolve.NewSolver(), ref)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reference")
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, symsolve.NewSolver(), DefaultReference())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_SolvesGrowthRateOnce(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := symsolve.NewSolver(symsolve.WithLogger(zap.New(core)))

	ds, err := Run(context.Background(), s, DefaultReference())
	require.NoError(t, err)
	require.Len(t, ds, 4)

	solved := logs.FilterMessage("solved")
	assert.Equal(t, 1, solved.FilterField(zap.String("symbol", "λ")).Len())
	assert.Equal(t, 1, solved.FilterField(zap.String("symbol", "φ_Rb")).Len())
	assert.Equal(t, 2, solved.Len())
}

func TestTranslationRate_MatchesRun(t *testing.T) {
	s := symsolve.NewSolver()
	ds, err := Run(context.Background(), s, DefaultReference())
	require.NoError(t, err)
	d, err := TranslationRate(s, DefaultReference())
	require.NoError(t, err)
	assert.InDelta(t, d.Value, ds[3].Value, 1e-12)
	assert.Equal(t, d.String, ds[3].String)
}

func TestSteadyState_StopsWhenCancelled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := symsolve.NewSolver(symsolve.WithLogger(zap.New(core)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lam, cpc, gamma, err := steadyState(ctx, s, DefaultReference())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, lam)
	assert.Nil(t, cpc)
	assert.Nil(t, gamma)
	assert.Zero(t, logs.Len())
}
