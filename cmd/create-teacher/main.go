package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/teachexamhub/examhub-backend/internal/config"
	"github.com/teachexamhub/examhub-backend/internal/database"
	"github.com/teachexamhub/examhub-backend/internal/logger"
	"github.com/teachexamhub/examhub-backend/internal/model"
	"github.com/teachexamhub/examhub-backend/internal/repository"
	"github.com/teachexamhub/examhub-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	// Token revocation is not used here, so no Redis client is needed.
	authService := service.NewAuthService(cfg, nil)
	teacherService := service.NewTeacherService(repository.NewTeacherRepository(pool), authService, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Teacher Account ===")

	prompt := func(label string) string {
		fmt.Print(label)
		v, _ := reader.ReadString('\n')
		return strings.TrimSpace(v)
	}

	req := model.SignupRequest{
		Name:  prompt("Enter Name: "),
		Email: prompt("Enter Email: "),
	}
	if req.Name == "" || req.Email == "" {
		fmt.Println("Error: Name and Email are required")
		return
	}
	req.Subject = prompt("Enter Subject (optional): ")
	req.Institute = prompt("Enter Institute (optional): ")

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	req.Password = string(bytePassword)
	if len(req.Password) < 8 {
		fmt.Println("Error: Password must be at least 8 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	res, err := teacherService.Signup(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			fmt.Println("Error: An account with this email already exists")
			return
		}
		log.Fatal().Err(err).Msg("Failed to create teacher")
	}

	fmt.Printf("\nSuccess! Teacher '%s' (%s) created with ID: %d\n", res.Teacher.Name, res.Teacher.Email, res.Teacher.ID)
}
