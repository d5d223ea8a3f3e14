package nutrition

// Profile is a food's nutrient content per 100 g.
type Profile struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fats     float64 `json:"fats"`
	Carbs    float64 `json:"carbs"`
}

// Totals is the absolute content of a portion, a meal or a plan.
type Totals struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Fats     float64 `json:"fats"`
	Carbs    float64 `json:"carbs"`
}

// Scale converts a per-100 g profile to the absolute values of grams.
// Calories are truncated; macros are rounded to one decimal.
func Scale(p Profile, grams float64) Totals {
	return Totals{
		Calories: int(p.Calories * grams / 100),
		Protein:  Round1(p.Protein * grams / 100),
		Fats:     Round1(p.Fats * grams / 100),
		Carbs:    Round1(p.Carbs * grams / 100),
	}
}

// Add returns t + o.  Macro sums are re-rounded so float drift never
// shows up as 12.300000000000001.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Calories: t.Calories + o.Calories,
		Protein:  Round1(t.Protein + o.Protein),
		Fats:     Round1(t.Fats + o.Fats),
		Carbs:    Round1(t.Carbs + o.Carbs),
	}
}

// Sum adds all parts.
func Sum(parts ...Totals) Totals {
	var total Totals
	for _, p := range parts {
		total = total.Add(p)
	}
	return total
}

// Share returns consumed/target as a fraction capped at 1, or 0 when the
// target is not positive.
func Share(consumed, target float64) float64 {
	if target <= 0 {
		return 0
	}
	if p := consumed / target; p < 1 {
		return p
	}
	return 1
}
