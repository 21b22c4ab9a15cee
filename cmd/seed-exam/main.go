package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/teachexamhub/examhub-backend/internal/config"
	"github.com/teachexamhub/examhub-backend/internal/database"
	"github.com/teachexamhub/examhub-backend/internal/logger"
	"github.com/teachexamhub/examhub-backend/internal/model"
	"github.com/teachexamhub/examhub-backend/internal/repository"
	"github.com/teachexamhub/examhub-backend/internal/service"
)

func main() {
	var email string
	var publish bool
	flag.StringVar(&email, "teacher", "", "Email of the teacher who will own the exam")
	flag.BoolVar(&publish, "publish", true, "Publish the exam after creating it")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if email == "" {
		log.Fatal().Msg("-teacher is required")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	teacherRepo := repository.NewTeacherRepository(pool)
	examService := service.NewExamService(cfg, repository.NewExamRepository(pool), teacherRepo, rdb, log)

	teacher, err := teacherRepo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("Teacher not found")
	}

	exam, err := examService.Create(ctx, teacher.ID, sampleExam())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam")
	}
	fmt.Printf("Created draft exam %s (%d questions)\n", exam.ID, exam.QuestionCount)

	if !publish {
		return
	}
	exam, err = examService.Publish(ctx, teacher.ID, exam.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to publish exam")
	}
	fmt.Printf("Published with share code %s\n%s\n", *exam.ShareCode, exam.ShareLink)
}

func option(i int) *int { return &i }

func sampleExam() model.ExamDraft {
	return model.ExamDraft{
		Title:           "Photosynthesis Basics",
		Description:     "A short check on the light and dark reactions.",
		Instructions:    "Answer every question. Long answers are reviewed by your teacher.",
		DurationMinutes: 15,
		Questions: []model.QuestionDraft{
			{
				Type:          model.QuestionKindMultipleChoice,
				Text:          "Which pigment absorbs most of the light used in photosynthesis?",
				Options:       []string{"Carotene", "Chlorophyll", "Xanthophyll", "Melanin"},
				CorrectOption: option(1),
			},
			{
				Type:          model.QuestionKindMultipleChoice,
				Text:          "Where do the light-dependent reactions take place?",
				Options:       []string{"Stroma", "Cytoplasm", "Thylakoid membrane", "Mitochondria"},
				CorrectOption: option(2),
			},
			{
				Type:          model.QuestionKindMultipleChoice,
				Text:          "Which gas is released as a by-product?",
				Options:       []string{"Carbon dioxide", "Nitrogen", "Oxygen", "Hydrogen"},
				CorrectOption: option(2),
			},
			{
				Type:  model.QuestionKindLongAnswer,
				Text:  "Explain why the Calvin cycle is called light-independent.",
				Marks: 5,
			},
		},
	}
}
