// Package main provides operator commands for managing Librarium accounts.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"librarium/internal/cache"
	"librarium/internal/config"
	"librarium/internal/database"
	"librarium/internal/models"
	"librarium/internal/notifications"
	"librarium/internal/repository"
	"librarium/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <email>      - Grant admin rights")
	fmt.Println("  go run ./cmd/admin demote <email>       - Revoke admin rights")
	fmt.Println("  go run ./cmd/admin deactivate <email>   - Block the account")
	fmt.Println("  go run ./cmd/admin list-admins          - List all admins")
	fmt.Println("  go run ./cmd/admin watch-loans          - Stream lend/return events")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	users := service.NewUserService(repository.NewUserRepository(db), repository.NewRefreshTokenRepository(db))
	ctx := context.Background()

	command := os.Args[1]
	switch command {
	case "promote", "demote", "deactivate":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <email>\n", command)
			os.Exit(1)
		}
		email := os.Args[2]

		var (
			user *models.User
			err  error
		)
		switch command {
		case "promote":
			user, err = users.SetAdminByEmail(ctx, email, true)
		case "demote":
			user, err = users.SetAdminByEmail(ctx, email, false)
		default:
			user, err = users.DeactivateByEmail(ctx, email)
		}
		if err != nil {
			if models.ErrorCode(err) == models.CodeNotFound {
				fmt.Printf("User with email %s not found\n", email)
				os.Exit(1)
			}
			log.Fatalf("Failed to %s user: %v", command, err)
		}
		fmt.Printf("%s: %s (ID: %d) admin=%t active=%t\n", command, user.Username, user.ID, user.IsAdmin, user.IsActive)

	case "list-admins":
		admins, err := users.ListAdmins(ctx)
		if err != nil {
			log.Fatalf("Failed to fetch admins: %v", err)
		}
		if len(admins) == 0 {
			fmt.Println("No admins found in the system")
			return
		}
		fmt.Println("Current Admins:")
		for _, admin := range admins {
			fmt.Printf("ID: %d | Username: %s | Email: %s | Active: %t\n", admin.ID, admin.Username, admin.Email, admin.IsActive)
		}

	case "watch-loans":
		watchLoans(cfg)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func watchLoans(cfg *config.Config) {
	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()
	if rdb == nil {
		log.Fatal("watch-loans requires a reachable REDIS_URL")
	}
	defer func() { _ = cache.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := notifications.NewNotifier(rdb)
	err := notifier.StartPatternSubscriber(ctx, func(channel string, event notifications.LoanEvent) {
		fmt.Printf("%s %-13s book=%d %q user=%d available=%d\n",
			event.OccurredAt.Format("2006-01-02 15:04:05"), event.Type, event.BookID, event.Title, event.UserID, event.Available)
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}
	fmt.Println("Watching loan events, Ctrl+C to stop")
	<-ctx.Done()
}
