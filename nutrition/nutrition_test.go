package nutrition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reference() Biometrics {
	return Biometrics{Gender: Male, Age: 30, HeightCm: 180, WeightKg: 80, Activity: Sedentary, Goal: Maintain}
}

func TestCalculate_Reference(t *testing.T) {
	got := Calculate(reference())
	assert.Equal(t, Targets{
		BaseCalories:   1780,
		TargetCalories: 2136,
		ProteinDaily:   128.0,
		FatsDaily:      72.0,
		CarbsDaily:     244.0,
	}, got)
}

func TestBaseCalories_Female(t *testing.T) {
	b := Biometrics{Gender: Female, Age: 25, HeightCm: 165, WeightKg: 60}
	// 600 + 1031.25 - 125 - 161 = 1345.25
	assert.Equal(t, 1345, BaseCalories(b))
}

func TestCalculate_GoalMultipliers(t *testing.T) {
	b := reference()
	b.Activity = Moderate

	b.Goal = LoseMedium
	lose := Calculate(b)
	// int(1780 * 1.55 * 0.85) = int(2345.15)
	assert.Equal(t, 2345, lose.TargetCalories)
	assert.Equal(t, 144.0, lose.ProteinDaily)

	b.Goal = GainFast
	gain := Calculate(b)
	assert.Equal(t, 3310, gain.TargetCalories)
	assert.Equal(t, 160.0, gain.ProteinDaily)
}

func TestProteinPerKg(t *testing.T) {
	assert.Equal(t, 1.6, ProteinPerKg(Maintain))
	for _, g := range []GoalType{LoseSlow, LoseMedium, LoseFast} {
		assert.Equal(t, 1.8, ProteinPerKg(g), g)
	}
	for _, g := range []GoalType{GainSlow, GainMedium, GainFast} {
		assert.Equal(t, 2.0, ProteinPerKg(g), g)
	}
}

func TestCalculate_NegativeCarbs(t *testing.T) {
	b := Biometrics{Gender: Female, Age: 90, HeightCm: 60, WeightKg: 120, Activity: Sedentary, Goal: LoseFast}

	raw := Calculate(b)
	assert.Less(t, raw.CarbsDaily, 0.0)

	clamped := CalculateWith(b, Options{ClampCarbs: true})
	assert.Equal(t, 0.0, clamped.CarbsDaily)
	assert.Equal(t, raw.TargetCalories, clamped.TargetCalories)
}

func TestScale(t *testing.T) {
	chicken := Profile{Calories: 165, Protein: 31, Fats: 3.6, Carbs: 0}
	got := Scale(chicken, 150)
	assert.Equal(t, Totals{Calories: 247, Protein: 46.5, Fats: 5.4, Carbs: 0}, got)

	// recomputing from the same pair never drifts
	assert.Equal(t, got, Scale(chicken, 150))
}

func TestRound1(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{5.25, 5.2},
		{0.25, 0.2},
		{0.75, 0.8},
		{0.35, 0.3},
		{0.15, 0.1},
		{3.72, 3.7},
		{-2.25, -2.2},
		{128.00000000000003, 128},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Round1(c.in), "Round1(%v)", c.in)
	}

	z := Round1(-0.04)
	assert.Equal(t, 0.0, z)
	assert.False(t, math.Signbit(z), "negative zero leaked")
}

func TestScale_HalfEven(t *testing.T) {
	// 3.5 * 150 / 100 is exactly 5.25
	got := Scale(Profile{Calories: 100, Fats: 3.5}, 150)
	assert.Equal(t, 5.2, got.Fats)
	assert.Equal(t, 150, got.Calories)
}

func TestSum(t *testing.T) {
	breakfast := Sum(
		Scale(Profile{Calories: 366, Protein: 12, Fats: 6.2, Carbs: 68}, 60),
		Scale(Profile{Calories: 61, Protein: 3.2, Fats: 3.2, Carbs: 4.7}, 200),
	)
	assert.Equal(t, Totals{Calories: 219 + 122, Protein: 13.6, Fats: 10.1, Carbs: 50.2}, breakfast)

	lunch := Sum(Scale(Profile{Calories: 165, Protein: 31, Fats: 3.6}, 150))
	plan := Sum(breakfast, lunch)
	assert.Equal(t, breakfast.Calories+lunch.Calories, plan.Calories)
	assert.Equal(t, 60.1, plan.Protein)
	assert.Equal(t, Totals{}, Sum())
}

func TestShare(t *testing.T) {
	assert.Equal(t, 0.0, Share(10, 0))
	assert.Equal(t, 0.5, Share(50, 100))
	assert.Equal(t, 1.0, Share(150, 100))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(reference()))

	bad := reference()
	bad.HeightCm = -1
	bad.Activity = "couch"
	err := Validate(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "heightcm")
	assert.Contains(t, err.Error(), "activity")
}
