package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EthanMiao/manaboo/internal/app"
	"github.com/EthanMiao/manaboo/internal/config"
	"github.com/EthanMiao/manaboo/internal/repository"
	"github.com/EthanMiao/manaboo/internal/service"
	"github.com/EthanMiao/manaboo/pkg/database"
	"github.com/EthanMiao/manaboo/pkg/logger"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	application, err := app.NewApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return application.Run()
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and seed grammar data, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.InitLogger(cfg)
			defer logger.Log.Sync()

			db, err := database.Open(&cfg.Database, cfg.Server.Mode)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := database.Migrate(db); err != nil {
				return err
			}
			logger.Log.Info("数据库迁移完成")
			return nil
		},
	}
}

func newExportCommand() *cobra.Command {
	var (
		userID  string
		outFile string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's study data as an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.InitLogger(cfg)
			defer logger.Log.Sync()

			db, err := database.Open(&cfg.Database, cfg.Server.Mode)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			// 离线导出不归档
			stats := service.NewStatsService(
				repository.NewStudyStatRepository(db),
				repository.NewProficiencyRepository(db),
				repository.NewMistakeRepository(db),
				repository.NewDialogueRepository(db),
				nil,
				false,
			)
			file, err := stats.Export(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			if outFile == "" {
				outFile = file.Name
			}
			if err := os.WriteFile(outFile, file.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outFile, err)
			}
			logger.Log.Info("导出完成", zap.String("user_id", userID), zap.String("file", outFile))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to export")
	cmd.Flags().StringVar(&outFile, "out", "", "output file, defaults to the generated name")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
