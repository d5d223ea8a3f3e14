package models

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/weightloss/nutrition"
	"github.com/cppla/weightloss/slug"
)

var (
	ErrInvalidMealDay   = errors.New("day of week must be between 1 and 7")
	ErrInvalidMealType  = errors.New("unknown meal type")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrNegativeNutrient = errors.New("nutrient values must not be negative")
)

var (
	nutritionOptsMu sync.RWMutex
	nutritionOpts   nutrition.Options
)

// SetNutritionOptions configures how NutritionGoal derives its targets.
func SetNutritionOptions(o nutrition.Options) {
	nutritionOptsMu.Lock()
	nutritionOpts = o
	nutritionOptsMu.Unlock()
}

func currentNutritionOptions() nutrition.Options {
	nutritionOptsMu.RLock()
	defer nutritionOptsMu.RUnlock()
	return nutritionOpts
}

// NutritionGoal holds a user's biometrics and the daily targets derived
// from them. The derived columns are written only by BeforeSave.
type NutritionGoal struct {
	ID             uint                    `gorm:"primaryKey" json:"id"`
	UserID         uint                    `gorm:"not null;uniqueIndex" json:"user_id"`
	Gender         nutrition.Gender        `gorm:"size:6;not null" json:"gender"`
	Age            int                     `gorm:"not null" json:"age"`
	Height         float64                 `gorm:"not null" json:"height"`
	Weight         float64                 `gorm:"not null" json:"weight"`
	ActivityLevel  nutrition.ActivityLevel `gorm:"size:20;not null" json:"activity_level"`
	Goal           nutrition.GoalType      `gorm:"size:20;not null" json:"goal"`
	BaseCalories   int                     `json:"base_calories"`
	TargetCalories int                     `json:"target_calories"`
	ProteinDaily   float64                 `json:"protein_daily"`
	FatsDaily      float64                 `json:"fats_daily"`
	CarbsDaily     float64                 `json:"carbs_daily"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	User           User                    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Biometrics returns the engine input stored in g.
func (g *NutritionGoal) Biometrics() nutrition.Biometrics {
	return nutrition.Biometrics{
		Gender:   g.Gender,
		Age:      g.Age,
		HeightCm: g.Height,
		WeightKg: g.Weight,
		Activity: g.ActivityLevel,
		Goal:     g.Goal,
	}
}

// SetBiometrics replaces the input fields and recomputes the targets.
func (g *NutritionGoal) SetBiometrics(b nutrition.Biometrics) {
	g.Gender = b.Gender
	g.Age = b.Age
	g.Height = b.HeightCm
	g.Weight = b.WeightKg
	g.ActivityLevel = b.Activity
	g.Goal = b.Goal
	g.recalculate()
}

// Targets returns the derived values.
func (g *NutritionGoal) Targets() nutrition.Targets {
	return nutrition.Targets{
		BaseCalories:   g.BaseCalories,
		TargetCalories: g.TargetCalories,
		ProteinDaily:   g.ProteinDaily,
		FatsDaily:      g.FatsDaily,
		CarbsDaily:     g.CarbsDaily,
	}
}

func (g *NutritionGoal) recalculate() {
	t := nutrition.CalculateWith(g.Biometrics(), currentNutritionOptions())
	g.BaseCalories = t.BaseCalories
	g.TargetCalories = t.TargetCalories
	g.ProteinDaily = t.ProteinDaily
	g.FatsDaily = t.FatsDaily
	g.CarbsDaily = t.CarbsDaily
}

// BeforeSave overwrites any directly assigned target with the computed one.
func (g *NutritionGoal) BeforeSave(tx *gorm.DB) error {
	g.recalculate()
	return nil
}

// FoodCategory groups foods in the catalogue.
type FoodCategory struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Slug        string `gorm:"size:120;not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
}

func (c *FoodCategory) SlugSource() string             { return c.Name }
func (c *FoodCategory) SlugRef() *string               { return &c.Slug }
func (c *FoodCategory) slugGenerator() *slug.Generator { return categorySlugs }
func (c *FoodCategory) slugModel() interface{}         { return &FoodCategory{} }

// BeforeCreate assigns the slug.
func (c *FoodCategory) BeforeCreate(tx *gorm.DB) error { return assignSlug(tx, c) }

// Food is a catalogue entry with nutrients per 100 g. Foods with an owner
// are custom entries visible only to that user.
type Food struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	Name       string        `gorm:"size:200;not null;index" json:"name"`
	CategoryID *uint         `gorm:"index" json:"category_id"`
	Calories   float64       `gorm:"not null" json:"calories"`
	Protein    float64       `gorm:"not null" json:"protein"`
	Fats       float64       `gorm:"not null" json:"fats"`
	Carbs      float64       `gorm:"not null" json:"carbs"`
	UserID     *uint         `gorm:"index" json:"user_id,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	Category   *FoodCategory `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`
	User       *User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Profile returns the per-100 g values.
func (f *Food) Profile() nutrition.Profile {
	return nutrition.Profile{Calories: f.Calories, Protein: f.Protein, Fats: f.Fats, Carbs: f.Carbs}
}

// IsCustom reports whether the food belongs to a user.
func (f *Food) IsCustom() bool { return f.UserID != nil }

// BeforeSave rejects negative nutrient values.
func (f *Food) BeforeSave(tx *gorm.DB) error {
	if f.Calories < 0 || f.Protein < 0 || f.Fats < 0 || f.Carbs < 0 {
		return ErrNegativeNutrient
	}
	return nil
}

// MealPlan is a user's weekly plan. Totals are always summed from items.
type MealPlan struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"index;not null" json:"user_id"`
	NutritionGoalID *uint          `gorm:"index" json:"nutrition_goal_id"`
	Name            string         `gorm:"size:100;not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	User            User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	NutritionGoal   *NutritionGoal `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"nutrition_goal,omitempty"`
	Meals           []Meal         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"meals,omitempty"`
}

// Totals sums the loaded meals.
func (p *MealPlan) Totals() nutrition.Totals {
	parts := make([]nutrition.Totals, 0, len(p.Meals))
	for i := range p.Meals {
		parts = append(parts, p.Meals[i].Totals())
	}
	return nutrition.Sum(parts...)
}

// MealType is the slot of a meal within a day.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// Valid reports whether t is a known meal type.
func (t MealType) Valid() bool {
	switch t {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

// Meal is one slot of a plan on a given weekday (1 = Monday).
type Meal struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	MealPlanID uint       `gorm:"index;not null" json:"meal_plan_id"`
	MealType   MealType   `gorm:"size:10;not null" json:"meal_type"`
	DayOfWeek  int        `gorm:"not null" json:"day_of_week"`
	Items      []MealItem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items,omitempty"`
}

// BeforeSave validates the slot.
func (m *Meal) BeforeSave(tx *gorm.DB) error {
	if m.DayOfWeek < 1 || m.DayOfWeek > 7 {
		return ErrInvalidMealDay
	}
	if !m.MealType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMealType, m.MealType)
	}
	return nil
}

// Totals sums the loaded items.
func (m *Meal) Totals() nutrition.Totals {
	parts := make([]nutrition.Totals, 0, len(m.Items))
	for i := range m.Items {
		parts = append(parts, m.Items[i].Totals())
	}
	return nutrition.Sum(parts...)
}

// MealItem is an amount of one food. The nutrient columns cache
// Food × Amount / 100 and are written only by BeforeSave.
type MealItem struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	MealID   uint    `gorm:"index;not null" json:"meal_id"`
	FoodID   uint    `gorm:"index;not null" json:"food_id"`
	Amount   float64 `gorm:"not null" json:"amount"`
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Fats     float64 `json:"fats"`
	Carbs    float64 `json:"carbs"`
	Food     Food    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"food"`
}

// Totals returns the cached values.
func (it *MealItem) Totals() nutrition.Totals {
	return nutrition.Totals{Calories: it.Calories, Protein: it.Protein, Fats: it.Fats, Carbs: it.Carbs}
}

func (it *MealItem) recalculate() {
	t := nutrition.Scale(it.Food.Profile(), it.Amount)
	it.Calories = t.Calories
	it.Protein = t.Protein
	it.Fats = t.Fats
	it.Carbs = t.Carbs
}

// BeforeSave loads the food when it is missing or stale and recomputes the
// cached nutrients.
func (it *MealItem) BeforeSave(tx *gorm.DB) error {
	if it.Amount <= 0 {
		return ErrInvalidAmount
	}
	if it.Food.ID != it.FoodID {
		var food Food
		if err := tx.Session(&gorm.Session{NewDB: true}).First(&food, it.FoodID).Error; err != nil {
			return fmt.Errorf("load food %d: %w", it.FoodID, err)
		}
		it.Food = food
	}
	it.recalculate()
	return nil
}

// SaveMealItem inserts or updates it without touching the referenced food.
func SaveMealItem(db *gorm.DB, it *MealItem) error {
	return db.Omit(clause.Associations).Save(it).Error
}
