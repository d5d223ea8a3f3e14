package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PageView counts reads of one content path on one local day.
type PageView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"uniqueIndex:idx_pv_date_path;type:date;not null" json:"date"`
	Path      string    `gorm:"index;uniqueIndex:idx_pv_date_path;size:255;not null" json:"path"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PathViews is one row of TopPaths.
type PathViews struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

func dayOf(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// RecordPageView adds one view of path on the local day of at. The upsert
// keeps concurrent first views of a day from colliding.
func RecordPageView(db *gorm.DB, path string, at time.Time) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "path"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("page_views.count + 1"),
			"updated_at": at,
		}),
	}).Create(&PageView{Date: dayOf(at), Path: path, Count: 1}).Error
}

// DailyViews sums all views recorded on the local day of at.
func DailyViews(db *gorm.DB, at time.Time) (int64, error) {
	var n int64
	// compare as a string so DATE columns match on every driver
	err := db.Model(&PageView{}).
		Where("date = ?", dayOf(at).Format("2006-01-02")).
		Select("COALESCE(SUM(count),0)").
		Scan(&n).Error
	return n, err
}

// TotalViews sums the views of path over all days.
func TotalViews(db *gorm.DB, path string) (int64, error) {
	var n int64
	err := db.Model(&PageView{}).
		Where("path = ?", path).
		Select("COALESCE(SUM(count),0)").
		Scan(&n).Error
	return n, err
}

// TopPaths returns the most viewed paths since the local day of since.
func TopPaths(db *gorm.DB, since time.Time, limit int) ([]PathViews, error) {
	var rows []PathViews
	err := db.Model(&PageView{}).
		Select("path, SUM(count) AS views").
		Where("date >= ?", dayOf(since).Format("2006-01-02")).
		Group("path").
		Order("views DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
