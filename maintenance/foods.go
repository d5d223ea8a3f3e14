package maintenance

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/weightloss/models"
)

type seedFood struct {
	Name     string
	Calories float64
	Protein  float64
	Fats     float64
	Carbs    float64
}

type seedCategory struct {
	Name  string
	Foods []seedFood
}

// starterCatalogue is the initial food list, nutrients per 100 g.
var starterCatalogue = []seedCategory{
	{"Мясо и птица", []seedFood{
		{"Куриная грудка", 165, 31, 3.6, 0},
		{"Говядина", 250, 26, 17, 0},
		{"Свинина", 242, 27, 14, 0},
		{"Индейка", 135, 29, 2, 0},
	}},
	{"Рыба и морепродукты", []seedFood{
		{"Лосось", 208, 20, 13, 0},
		{"Тунец", 144, 30, 1, 0},
		{"Креветки", 99, 24, 0.3, 0.2},
	}},
	{"Молочные продукты", []seedFood{
		{"Молоко 3,2%", 61, 3.2, 3.2, 4.7},
		{"Творог 5%", 121, 18, 5, 3},
		{"Йогурт натуральный", 60, 5, 3.2, 4},
		{"Сыр твердый", 350, 25, 27, 0},
	}},
	{"Крупы и злаки", []seedFood{
		{"Гречка", 343, 12.6, 3.3, 68},
		{"Рис", 330, 7, 0.6, 78},
		{"Овсянка", 366, 12, 6.2, 68},
		{"Киноа", 368, 14, 6, 64},
	}},
	{"Овощи", []seedFood{
		{"Брокколи", 34, 2.8, 0.4, 7},
		{"Морковь", 41, 0.9, 0.2, 10},
		{"Шпинат", 23, 2.9, 0.4, 3.6},
		{"Помидоры", 20, 0.9, 0.2, 4.2},
		{"Огурцы", 16, 0.8, 0.1, 3.6},
	}},
	{"Фрукты и ягоды", []seedFood{
		{"Яблоки", 52, 0.3, 0.2, 14},
		{"Бананы", 89, 1.1, 0.3, 23},
		{"Апельсины", 43, 0.9, 0.1, 11},
		{"Черника", 57, 0.7, 0.3, 14},
	}},
	{"Орехи и семена", []seedFood{
		{"Миндаль", 576, 21, 49, 22},
		{"Грецкие орехи", 654, 15, 65, 14},
		{"Семена чиа", 486, 17, 31, 42},
	}},
	{"Масла и жиры", []seedFood{
		{"Оливковое масло", 884, 0, 100, 0},
		{"Сливочное масло", 748, 0.6, 82, 0.6},
	}},
	{"Сладости и десерты", []seedFood{
		{"Темный шоколад", 546, 7.8, 31, 61},
		{"Мед", 304, 0.3, 0, 82},
	}},
	{"Напитки", []seedFood{
		{"Кофе (черный)", 2, 0.1, 0, 0},
		{"Зеленый чай", 1, 0, 0, 0.3},
	}},
}

// SeedReport counts the rows SeedFoods inserted.
type SeedReport struct {
	Categories int
	Foods      int
}

// SeedFoods loads the starter catalogue. Existing categories and catalogue
// foods are matched by name and left alone, so running it twice is safe.
// With reset the catalogue is removed first; custom foods are kept.
func SeedFoods(ctx context.Context, db *gorm.DB, reset bool, maxRetries int) (SeedReport, error) {
	var report SeedReport
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if reset {
			if err := tx.Where("user_id IS NULL").Delete(&models.Food{}).Error; err != nil {
				return fmt.Errorf("clear foods: %w", err)
			}
			if err := tx.Where("1 = 1").Delete(&models.FoodCategory{}).Error; err != nil {
				return fmt.Errorf("clear food categories: %w", err)
			}
		}
		for _, sc := range starterCatalogue {
			var cat models.FoodCategory
			err := tx.Where("name = ?", sc.Name).First(&cat).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				cat = models.FoodCategory{Name: sc.Name}
				if err := models.CreateWithSlug(tx, &cat, maxRetries); err != nil {
					return fmt.Errorf("create category %q: %w", sc.Name, err)
				}
				report.Categories++
			case err != nil:
				return err
			}
			for _, f := range sc.Foods {
				var n int64
				if err := tx.Model(&models.Food{}).Where("name = ? AND user_id IS NULL", f.Name).Count(&n).Error; err != nil {
					return err
				}
				if n > 0 {
					continue
				}
				food := models.Food{
					Name:       f.Name,
					CategoryID: &cat.ID,
					Calories:   f.Calories,
					Protein:    f.Protein,
					Fats:       f.Fats,
					Carbs:      f.Carbs,
				}
				if err := tx.Omit("Category", "User").Create(&food).Error; err != nil {
					return fmt.Errorf("create food %q: %w", f.Name, err)
				}
				report.Foods++
			}
		}
		return nil
	})
	return report, err
}
