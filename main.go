package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/config"
	"github.com/cppla/weightloss/maintenance"
	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/nutrition"
	"github.com/cppla/weightloss/routes"
	"github.com/cppla/weightloss/utils"
)

const usage = `usage: weightloss [command] [flags]

commands:
  serve              run the HTTP server (default)
  fix-slugs          regenerate empty or malformed slugs
  fix-post-statuses  reset unknown post statuses
  seed-foods         load the starter food catalogue (-reset to reload)
  token              print a bearer token (-user ID -name USERNAME -ttl 24h)
`

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	models.SetNutritionOptions(nutrition.Options{ClampCarbs: cfg.NutritionClampCarbs})

	cmd, args := "serve", []string{}
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}

	switch cmd {
	case "serve":
		serve(cfg)
	case "fix-slugs":
		runMaintenance(cmd, func(ctx context.Context, db *gorm.DB) ([]zap.Field, error) {
			report, err := maintenance.FixSlugs(ctx, db)
			fields := []zap.Field{zap.Int("updated", report.Total())}
			for table, n := range report {
				fields = append(fields, zap.Int(table, n))
			}
			return fields, err
		})
	case "fix-post-statuses":
		runMaintenance(cmd, func(ctx context.Context, db *gorm.DB) ([]zap.Field, error) {
			n, err := maintenance.FixPostStatuses(ctx, db)
			return []zap.Field{zap.Int("updated", n)}, err
		})
	case "seed-foods":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		reset := fs.Bool("reset", false, "remove the existing catalogue before seeding")
		_ = fs.Parse(args)
		runMaintenance(cmd, func(ctx context.Context, db *gorm.DB) ([]zap.Field, error) {
			report, err := maintenance.SeedFoods(ctx, db, *reset, cfg.SlugMaxRetries)
			return []zap.Field{zap.Int("categories", report.Categories), zap.Int("foods", report.Foods)}, err
		})
	case "token":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		uid := fs.Uint("user", 0, "user id")
		name := fs.String("name", "", "username")
		ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
		_ = fs.Parse(args)
		if *uid == 0 || *name == "" {
			fs.Usage()
			os.Exit(2)
		}
		token, err := utils.GenerateToken(uint(*uid), *name, *ttl)
		if err != nil {
			utils.Logger.Fatal("token failed", zap.Error(err))
		}
		fmt.Println(token)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

// runMaintenance opens the database, runs job and logs its result fields.
func runMaintenance(name string, job func(context.Context, *gorm.DB) ([]zap.Field, error)) {
	start := time.Now()
	db := config.InitDatabase(models.All()...)
	fields, err := job(context.Background(), db)
	fields = append(fields, zap.String("command", name), utils.Elapsed(start))
	if err != nil {
		utils.Logger.Fatal("maintenance failed", append(fields, zap.Error(err))...)
	}
	utils.Logger.Info("maintenance done", fields...)
}

func serve(cfg config.AppConfig) {
	db := config.InitDatabase(models.All()...)

	srv := utils.NewServer(":"+cfg.AppPort, routes.SetupRouter(db))
	srv.OnShutdown(func() {
		_ = utils.CloseRedis()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	utils.Logger.Info("starting server", zap.String("port", cfg.AppPort), zap.String("db_driver", cfg.DBDriver))
	if err := srv.ListenAndServe(); err != nil {
		utils.Logger.Fatal("server stopped", zap.Error(err))
	}
	utils.Logger.Info("server stopped")
}
