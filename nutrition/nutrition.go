// Package nutrition computes daily calorie and macro targets from user
// biometrics, scales per-100 g food profiles to portions, and sums portions
// into meal and plan totals.
//
// The engine performs no validation: callers reject malformed input first
// (see Validate).  All functions are pure and safe for concurrent use.
package nutrition

import (
	"strconv"
	"strings"
)

// Gender selects the Mifflin-St Jeor constant.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// ActivityLevel is self-reported daily activity.
type ActivityLevel string

const (
	Sedentary  ActivityLevel = "sedentary"
	Light      ActivityLevel = "light"
	Moderate   ActivityLevel = "moderate"
	Active     ActivityLevel = "active"
	VeryActive ActivityLevel = "very_active"
)

// GoalType is the desired weight trajectory.
type GoalType string

const (
	Maintain   GoalType = "maintain"
	LoseSlow   GoalType = "lose_slow"
	LoseMedium GoalType = "lose_medium"
	LoseFast   GoalType = "lose_fast"
	GainSlow   GoalType = "gain_slow"
	GainMedium GoalType = "gain_medium"
	GainFast   GoalType = "gain_fast"
)

// Energy density in kcal per gram.
const (
	KcalPerGramProtein = 4
	KcalPerGramFat     = 9
	KcalPerGramCarbs   = 4

	fatsPerKg = 0.9
)

var activityMultipliers = map[ActivityLevel]float64{
	Sedentary:  1.2,
	Light:      1.375,
	Moderate:   1.55,
	Active:     1.725,
	VeryActive: 1.9,
}

var goalMultipliers = map[GoalType]float64{
	Maintain:   1.0,
	LoseSlow:   0.9,
	LoseMedium: 0.85,
	LoseFast:   0.8,
	GainSlow:   1.1,
	GainMedium: 1.15,
	GainFast:   1.2,
}

// ActivityMultiplier returns the factor for level, or 0 for an unknown level.
func ActivityMultiplier(level ActivityLevel) float64 { return activityMultipliers[level] }

// GoalMultiplier returns the factor for goal, or 0 for an unknown goal.
func GoalMultiplier(goal GoalType) float64 { return goalMultipliers[goal] }

// Biometrics is the input to Calculate.
type Biometrics struct {
	Gender   Gender        `json:"gender" validate:"required,oneof=male female"`
	Age      int           `json:"age" validate:"required,min=10,max=120"`
	HeightCm float64       `json:"height" validate:"required,gt=50,lt=300"`
	WeightKg float64       `json:"weight" validate:"required,gt=20,lt=500"`
	Activity ActivityLevel `json:"activity_level" validate:"required,oneof=sedentary light moderate active very_active"`
	Goal     GoalType      `json:"goal" validate:"required,oneof=maintain lose_slow lose_medium lose_fast gain_slow gain_medium gain_fast"`
}

// Targets are the derived daily values.
type Targets struct {
	BaseCalories   int     `json:"base_calories"`
	TargetCalories int     `json:"target_calories"`
	ProteinDaily   float64 `json:"protein_daily"`
	FatsDaily      float64 `json:"fats_daily"`
	CarbsDaily     float64 `json:"carbs_daily"`
}

// Options tune Calculate.
type Options struct {
	// ClampCarbs floors CarbsDaily at zero.  Off by default: a negative
	// value is reported as computed.
	ClampCarbs bool
}

// BaseCalories is the Mifflin-St Jeor estimate, truncated to an integer.
func BaseCalories(b Biometrics) int {
	bmr := 10*b.WeightKg + 6.25*b.HeightCm - 5*float64(b.Age)
	if b.Gender == Male {
		bmr += 5
	} else {
		bmr -= 161
	}
	return int(bmr)
}

// ProteinPerKg depends on the direction of the goal.
func ProteinPerKg(goal GoalType) float64 {
	switch {
	case strings.Contains(string(goal), "lose"):
		return 1.8
	case strings.Contains(string(goal), "gain"):
		return 2.0
	default:
		return 1.6
	}
}

// Calculate derives all targets with default options.
func Calculate(b Biometrics) Targets {
	return CalculateWith(b, Options{})
}

// CalculateWith derives all targets.
func CalculateWith(b Biometrics, opts Options) Targets {
	base := BaseCalories(b)
	target := int(float64(base) * ActivityMultiplier(b.Activity) * GoalMultiplier(b.Goal))

	protein := Round1(ProteinPerKg(b.Goal) * b.WeightKg)
	fats := Round1(fatsPerKg * b.WeightKg)
	remaining := float64(target) - protein*KcalPerGramProtein - fats*KcalPerGramFat
	carbs := Round1(remaining / KcalPerGramCarbs)
	if opts.ClampCarbs && carbs < 0 {
		carbs = 0
	}

	return Targets{
		BaseCalories:   base,
		TargetCalories: target,
		ProteinDaily:   protein,
		FatsDaily:      fats,
		CarbsDaily:     carbs,
	}
}

// Round1 rounds x to one decimal place. Exact binary halves go to the even
// digit (5.25 -> 5.2), and values such as 0.35, stored just below the half,
// round down. Negative zero is returned as 0.
func Round1(x float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	if err != nil || r == 0 {
		return 0
	}
	return r
}
