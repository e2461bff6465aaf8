// Seeds the catalogue by generating courses from a YAML batch file.
//
// Usage: go run scripts/generate_courses.go -batch scripts/course_batch.yaml -user 1

package main

import (
	"context"
	"flag"
	"invest_edu_backend/internal/config"
	"invest_edu_backend/internal/model"
	"invest_edu_backend/internal/repository"
	"invest_edu_backend/internal/service"
	"invest_edu_backend/pkg/database"
	"invest_edu_backend/pkg/logger"
	"log"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type batchFile struct {
	Courses []struct {
		Topic string      `yaml:"topic"`
		Level model.Level `yaml:"level"`
	} `yaml:"courses"`
}

func main() {
	batchPath := flag.String("batch", "scripts/course_batch.yaml", "YAML file listing topics and levels")
	userID := flag.Uint("user", 1, "account recorded as the course creator")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg)

	data, err := os.ReadFile(*batchPath)
	if err != nil {
		log.Fatalf("Failed to read batch file: %v", err)
	}
	var batch batchFile
	if err := yaml.Unmarshal(data, &batch); err != nil {
		log.Fatalf("Failed to parse batch file: %v", err)
	}

	db, err := database.InitDB(&cfg.Database, true)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	// no limiter: this is an operator tool
	generator := service.NewCourseGeneratorService(
		repository.NewContentRepository(db),
		service.NewAIService(cfg.AI),
		nil,
		cfg.Generation.InsertConcurrency,
	)

	ctx := context.Background()
	failed := 0
	for _, c := range batch.Courses {
		result, err := generator.Generate(ctx, *userID, c.Topic, c.Level)
		if err != nil {
			failed++
			logger.Log.Error("Course generation failed", zap.String("topic", c.Topic), zap.Error(err))
			continue
		}
		logger.Log.Info("Course generated",
			zap.String("topic", c.Topic),
			zap.String("course_id", result.CourseID),
			zap.Int("skipped", result.SkippedItems),
		)
	}
	_ = logger.Log.Sync()

	if failed > 0 {
		log.Fatalf("%d of %d courses failed", failed, len(batch.Courses))
	}
	log.Printf("Generated %d courses", len(batch.Courses))
}
