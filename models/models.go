// Package models holds the gorm schema and the persistence hooks that keep
// slugs, cached nutrition values and notifications consistent.
package models

// All lists every model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{}, &Post{}, &Comment{},
		&Recipe{}, &RecipeComment{},
		&ForumCategory{}, &ForumTopic{}, &ForumPost{},
		&VIPPost{}, &VIPComment{},
		&Challenge{},
		&FoodCategory{}, &Food{}, &NutritionGoal{}, &MealPlan{}, &Meal{}, &MealItem{},
		&Notification{},
		&PageView{},
	}
}
