package controllers

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/config"
	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/nutrition"
	"github.com/cppla/weightloss/utils"
)

// NutritionController serves the calculator, goals, the food catalogue and
// meal plans.
type NutritionController struct {
	db *gorm.DB
}

// NewNutritionController creates a new NutritionController instance.
func NewNutritionController(db *gorm.DB) *NutritionController {
	return &NutritionController{db: db}
}

func nutritionOptions() nutrition.Options {
	return nutrition.Options{ClampCarbs: config.Get().NutritionClampCarbs}
}

func bindBiometrics(ctx *gin.Context) (nutrition.Biometrics, bool) {
	var b nutrition.Biometrics
	if err := ctx.ShouldBindJSON(&b); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40400, "invalid request payload")
		return b, false
	}
	if err := nutrition.Validate(b); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40401, err.Error())
		return b, false
	}
	return b, true
}

// Calculate returns daily targets for the posted biometrics without
// storing anything.
func (n *NutritionController) Calculate(ctx *gin.Context) {
	b, ok := bindBiometrics(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"input": b, "targets": nutrition.CalculateWith(b, nutritionOptions())})
}

// GetGoal returns the caller's saved goal.
func (n *NutritionController) GetGoal(ctx *gin.Context) {
	uid, _ := getUserID(ctx)
	var goal models.NutritionGoal
	if err := n.db.Where("user_id = ?", uid).First(&goal).Error; err != nil {
		loadFailed(ctx, err, 40440, 50400, "nutrition goal")
		return
	}
	utils.Success(ctx, gin.H{"goal": goal})
}

// PutGoal creates or replaces the caller's goal. Targets are always
// recomputed from the biometrics.
func (n *NutritionController) PutGoal(ctx *gin.Context) {
	b, ok := bindBiometrics(ctx)
	if !ok {
		return
	}
	uid, _ := getUserID(ctx)
	var goal models.NutritionGoal
	err := n.db.Where("user_id = ?", uid).First(&goal).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusInternalServerError, 50400, "failed to load nutrition goal")
		return
	}
	goal.UserID = uid
	goal.SetBiometrics(b)
	if err := n.db.Omit("User").Save(&goal).Error; err != nil {
		logError(ctx, "save nutrition goal", err)
		utils.Error(ctx, http.StatusInternalServerError, 50401, "failed to save nutrition goal")
		return
	}
	utils.Success(ctx, gin.H{"goal": goal})
}

// ListFoodCategories returns the catalogue sections.
func (n *NutritionController) ListFoodCategories(ctx *gin.Context) {
	var cats []models.FoodCategory
	if err := n.db.Order("name ASC").Find(&cats).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50402, "failed to list food categories")
		return
	}
	utils.Success(ctx, gin.H{"items": cats})
}

// visibleFoods limits q to catalogue foods plus the caller's own.
func (n *NutritionController) visibleFoods(ctx *gin.Context) *gorm.DB {
	q := n.db.Model(&models.Food{})
	if uid, ok := getUserID(ctx); ok {
		return q.Where("foods.user_id IS NULL OR foods.user_id = ?", uid)
	}
	return q.Where("foods.user_id IS NULL")
}

// ListFoods searches foods by name and category slug.
func (n *NutritionController) ListFoods(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	q := n.visibleFoods(ctx)
	if term := strings.TrimSpace(ctx.Query("q")); term != "" {
		q = q.Where("foods.name LIKE ?", likeContains(term))
	}
	if cat := strings.TrimSpace(ctx.Query("category")); cat != "" {
		q = q.Joins("JOIN food_categories ON food_categories.id = foods.category_id").
			Where("food_categories.slug = ?", cat)
	}
	if ctx.Query("custom") == "true" {
		q = q.Where("foods.user_id IS NOT NULL")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50403, "failed to count foods")
		return
	}
	var foods []models.Food
	if err := q.Preload("Category").Order("foods.name ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&foods).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50404, "failed to list foods")
		return
	}
	utils.Success(ctx, paginated(foods, page, pageSize, total))
}

type foodRequest struct {
	Name       string  `json:"name" binding:"required,min=1,max=200"`
	CategoryID *uint   `json:"category_id"`
	Calories   float64 `json:"calories" binding:"gte=0,lte=900"`
	Protein    float64 `json:"protein" binding:"gte=0,lte=100"`
	Fats       float64 `json:"fats" binding:"gte=0,lte=100"`
	Carbs      float64 `json:"carbs" binding:"gte=0,lte=100"`
}

// CreateFood adds a custom food owned by the caller.
func (n *NutritionController) CreateFood(ctx *gin.Context) {
	var req foodRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40402, "invalid food payload")
		return
	}
	uid, _ := getUserID(ctx)
	food := models.Food{
		Name:       utils.PlainText(req.Name),
		CategoryID: req.CategoryID,
		Calories:   req.Calories,
		Protein:    req.Protein,
		Fats:       req.Fats,
		Carbs:      req.Carbs,
		UserID:     &uid,
	}
	if err := n.db.Omit("Category", "User").Create(&food).Error; err != nil {
		if errors.Is(err, models.ErrNegativeNutrient) {
			utils.Error(ctx, http.StatusBadRequest, 40403, err.Error())
			return
		}
		logError(ctx, "create food", err)
		utils.Error(ctx, http.StatusInternalServerError, 50405, "failed to create food")
		return
	}
	utils.Success(ctx, gin.H{"food": food})
}

// DeleteFood removes one of the caller's custom foods.
func (n *NutritionController) DeleteFood(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40404, "invalid food id")
		return
	}
	uid, _ := getUserID(ctx)
	res := n.db.Where("user_id = ?", uid).Delete(&models.Food{}, id)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50406, "failed to delete food")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40441, "food not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "food deleted"})
}

// ListMealPlans returns the caller's plans.
func (n *NutritionController) ListMealPlans(ctx *gin.Context) {
	uid, _ := getUserID(ctx)
	var plans []models.MealPlan
	if err := n.db.Where("user_id = ?", uid).Order("created_at DESC").Find(&plans).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50407, "failed to list meal plans")
		return
	}
	utils.Success(ctx, gin.H{"items": plans})
}

// CreateMealPlan starts an empty plan linked to the caller's goal, if any.
func (n *NutritionController) CreateMealPlan(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1,max=100"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40405, "invalid meal plan payload")
		return
	}
	uid, _ := getUserID(ctx)
	plan := models.MealPlan{
		UserID:      uid,
		Name:        utils.PlainText(req.Name),
		Description: utils.Sanitize(req.Description),
	}
	var goal models.NutritionGoal
	if err := n.db.Select("id").Where("user_id = ?", uid).First(&goal).Error; err == nil {
		plan.NutritionGoalID = &goal.ID
	}
	if err := n.db.Omit("User", "NutritionGoal", "Meals").Create(&plan).Error; err != nil {
		logError(ctx, "create meal plan", err)
		utils.Error(ctx, http.StatusInternalServerError, 50408, "failed to create meal plan")
		return
	}
	utils.Success(ctx, gin.H{"plan": plan})
}

type dayTotals struct {
	Day    int              `json:"day_of_week"`
	Totals nutrition.Totals `json:"totals"`
	// Percent of the goal's calorie target, when a goal is linked.
	CaloriesShare *float64 `json:"calories_share,omitempty"`
}

// GetMealPlan returns a plan with every meal, per-meal, per-day and plan
// totals. Totals are summed from the items on each request.
func (n *NutritionController) GetMealPlan(ctx *gin.Context) {
	uid, _ := getUserID(ctx)
	var plan models.MealPlan
	if err := n.db.Preload("NutritionGoal").
		Preload("Meals", func(db *gorm.DB) *gorm.DB { return db.Order("day_of_week ASC, id ASC") }).
		Preload("Meals.Items.Food").
		Where("user_id = ?", uid).
		First(&plan, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40442, 50409, "meal plan")
		return
	}

	meals := make([]gin.H, 0, len(plan.Meals))
	perDay := map[int]nutrition.Totals{}
	for i := range plan.Meals {
		m := &plan.Meals[i]
		t := m.Totals()
		perDay[m.DayOfWeek] = perDay[m.DayOfWeek].Add(t)
		meals = append(meals, gin.H{"meal": m, "totals": t})
	}
	days := make([]dayTotals, 0, len(perDay))
	for d, t := range perDay {
		dt := dayTotals{Day: d, Totals: t}
		if plan.NutritionGoal != nil && plan.NutritionGoal.TargetCalories > 0 {
			s := nutrition.Share(float64(t.Calories), float64(plan.NutritionGoal.TargetCalories))
			dt.CaloriesShare = &s
		}
		days = append(days, dt)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })

	plan.Meals = nil
	utils.Success(ctx, gin.H{"plan": plan, "meals": meals, "days": days, "totals": plan.Totals()})
}

// DeleteMealPlan removes a plan with its meals and items.
func (n *NutritionController) DeleteMealPlan(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40406, "invalid meal plan id")
		return
	}
	uid, _ := getUserID(ctx)
	res := n.db.Where("user_id = ?", uid).Delete(&models.MealPlan{}, id)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50410, "failed to delete meal plan")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40442, "meal plan not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "meal plan deleted"})
}

// AddMeal adds a meal slot to one of the caller's plans.
func (n *NutritionController) AddMeal(ctx *gin.Context) {
	var req struct {
		MealType  models.MealType `json:"meal_type" binding:"required"`
		DayOfWeek int             `json:"day_of_week" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40407, "invalid meal payload")
		return
	}
	uid, _ := getUserID(ctx)
	var plan models.MealPlan
	if err := n.db.Select("id").Where("user_id = ?", uid).First(&plan, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40442, 50411, "meal plan")
		return
	}
	meal := models.Meal{MealPlanID: plan.ID, MealType: req.MealType, DayOfWeek: req.DayOfWeek}
	if err := n.db.Omit("Items").Create(&meal).Error; err != nil {
		if errors.Is(err, models.ErrInvalidMealDay) || errors.Is(err, models.ErrInvalidMealType) {
			utils.Error(ctx, http.StatusBadRequest, 40408, err.Error())
			return
		}
		logError(ctx, "create meal", err)
		utils.Error(ctx, http.StatusInternalServerError, 50412, "failed to create meal")
		return
	}
	utils.Success(ctx, gin.H{"meal": meal})
}

// ownedMeal loads a meal that belongs to one of the caller's plans.
func (n *NutritionController) ownedMeal(ctx *gin.Context, id uint) (*models.Meal, bool) {
	uid, _ := getUserID(ctx)
	var meal models.Meal
	err := n.db.Joins("JOIN meal_plans ON meal_plans.id = meals.meal_plan_id").
		Where("meal_plans.user_id = ?", uid).
		First(&meal, id).Error
	if err != nil {
		loadFailed(ctx, err, 40443, 50413, "meal")
		return nil, false
	}
	return &meal, true
}

// DeleteMeal removes a meal and its items.
func (n *NutritionController) DeleteMeal(ctx *gin.Context) {
	meal, ok := n.ownedMeal(ctx, idParam(ctx, "id"))
	if !ok {
		return
	}
	if err := n.db.Delete(meal).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50414, "failed to delete meal")
		return
	}
	utils.Success(ctx, gin.H{"message": "meal deleted"})
}

type mealItemRequest struct {
	FoodID uint    `json:"food_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0,lte=5000"`
}

// visibleFood loads a food the caller may use.
func (n *NutritionController) visibleFood(ctx *gin.Context, id uint) (*models.Food, bool) {
	var food models.Food
	if err := n.visibleFoods(ctx).First(&food, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusBadRequest, 40409, "unknown food")
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50415, "failed to load food")
		return nil, false
	}
	return &food, true
}

// AddMealItem adds an amount of a food to a meal. Nutrients are derived
// on save.
func (n *NutritionController) AddMealItem(ctx *gin.Context) {
	var req mealItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40410, "invalid meal item payload")
		return
	}
	meal, ok := n.ownedMeal(ctx, idParam(ctx, "id"))
	if !ok {
		return
	}
	food, ok := n.visibleFood(ctx, req.FoodID)
	if !ok {
		return
	}
	item := models.MealItem{MealID: meal.ID, FoodID: food.ID, Food: *food, Amount: req.Amount}
	if err := models.SaveMealItem(n.db, &item); err != nil {
		n.saveItemFailed(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"item": item})
}

// UpdateMealItem changes the food or amount of an item and recomputes its
// nutrients.
func (n *NutritionController) UpdateMealItem(ctx *gin.Context) {
	var req mealItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40410, "invalid meal item payload")
		return
	}
	item, ok := n.ownedItem(ctx)
	if !ok {
		return
	}
	food, ok := n.visibleFood(ctx, req.FoodID)
	if !ok {
		return
	}
	item.FoodID = food.ID
	item.Food = *food
	item.Amount = req.Amount
	if err := models.SaveMealItem(n.db, item); err != nil {
		n.saveItemFailed(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"item": item})
}

// DeleteMealItem removes an item from a meal.
func (n *NutritionController) DeleteMealItem(ctx *gin.Context) {
	item, ok := n.ownedItem(ctx)
	if !ok {
		return
	}
	if err := n.db.Delete(item).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50416, "failed to delete meal item")
		return
	}
	utils.Success(ctx, gin.H{"message": "meal item deleted"})
}

func (n *NutritionController) ownedItem(ctx *gin.Context) (*models.MealItem, bool) {
	uid, _ := getUserID(ctx)
	var item models.MealItem
	err := n.db.Joins("JOIN meals ON meals.id = meal_items.meal_id").
		Joins("JOIN meal_plans ON meal_plans.id = meals.meal_plan_id").
		Where("meal_plans.user_id = ?", uid).
		First(&item, idParam(ctx, "id")).Error
	if err != nil {
		loadFailed(ctx, err, 40444, 50417, "meal item")
		return nil, false
	}
	return &item, true
}

func (n *NutritionController) saveItemFailed(ctx *gin.Context, err error) {
	if errors.Is(err, models.ErrInvalidAmount) {
		utils.Error(ctx, http.StatusBadRequest, 40411, err.Error())
		return
	}
	logError(ctx, "save meal item", err)
	utils.Error(ctx, http.StatusInternalServerError, 50418, "failed to save meal item")
}
