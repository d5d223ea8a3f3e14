package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/utils"
)

// ProfileController serves member profiles and the weight journey.
type ProfileController struct {
	db *gorm.DB
}

// NewProfileController creates a new ProfileController instance.
func NewProfileController(db *gorm.DB) *ProfileController {
	return &ProfileController{db: db}
}

func profilePayload(u *models.User) gin.H {
	return gin.H{
		"user":                 u,
		"bmi":                  u.BMI(),
		"weight_loss_progress": u.WeightLossProgress(),
		"weight_goal_reached":  u.WeightGoalReached(),
	}
}

// Me returns the caller's profile with BMI and progress.
func (p *ProfileController) Me(ctx *gin.Context) {
	uid, _ := getUserID(ctx)
	var user models.User
	if err := p.db.First(&user, uid).Error; err != nil {
		loadFailed(ctx, err, 40460, 50600, "user")
		return
	}
	utils.Success(ctx, profilePayload(&user))
}

// GetByUsername returns a member's public profile.
func (p *ProfileController) GetByUsername(ctx *gin.Context) {
	var user models.User
	if err := p.db.Where("username = ?", strings.TrimSpace(ctx.Param("username"))).First(&user).Error; err != nil {
		loadFailed(ctx, err, 40461, 50601, "user")
		return
	}
	user.Email = ""
	utils.Success(ctx, profilePayload(&user))
}

// Update edits the caller's profile. When the new current weight reaches
// the goal for the first time a congratulation notification is stored.
func (p *ProfileController) Update(ctx *gin.Context) {
	var req struct {
		Email          *string  `json:"email" binding:"omitempty,email,max=255"`
		Bio            *string  `json:"bio" binding:"omitempty,max=5000"`
		AvatarURL      *string  `json:"avatar_url" binding:"omitempty,url,max=512"`
		StartingWeight *float64 `json:"starting_weight" binding:"omitempty,gt=20,lt=500"`
		CurrentWeight  *float64 `json:"current_weight" binding:"omitempty,gt=20,lt=500"`
		GoalWeight     *float64 `json:"goal_weight" binding:"omitempty,gt=20,lt=500"`
		Height         *float64 `json:"height" binding:"omitempty,gt=50,lt=300"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40600, "invalid profile payload")
		return
	}
	uid, _ := getUserID(ctx)
	var user models.User
	if err := p.db.First(&user, uid).Error; err != nil {
		loadFailed(ctx, err, 40460, 50600, "user")
		return
	}
	reachedBefore := user.WeightGoalReached()

	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.Bio != nil {
		user.Bio = utils.Sanitize(*req.Bio)
	}
	if req.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*req.AvatarURL)
	}
	if req.StartingWeight != nil {
		user.StartingWeight = req.StartingWeight
	}
	if req.CurrentWeight != nil {
		user.CurrentWeight = req.CurrentWeight
	}
	if req.GoalWeight != nil {
		user.GoalWeight = req.GoalWeight
	}
	if req.Height != nil {
		user.Height = req.Height
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		if reachedBefore || !user.WeightGoalReached() {
			return nil
		}
		return tx.Create(&models.Notification{
			RecipientID: user.ID,
			Type:        models.NotifyWeightGoal,
			Title:       "Goal reached!",
			Message:     fmt.Sprintf("Congratulations! You reached your goal weight of %.1f kg", *user.GoalWeight),
			URL:         "/profile",
		}).Error
	})
	if err != nil {
		logError(ctx, "update profile", err)
		utils.Error(ctx, http.StatusInternalServerError, 50602, "failed to update profile")
		return
	}
	utils.Success(ctx, profilePayload(&user))
}
