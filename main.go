package main

import (
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/Majid760/xpensemate-sub000/src/config"
	"github.com/Majid760/xpensemate-sub000/src/database"
	"github.com/Majid760/xpensemate-sub000/src/handlers"
	"github.com/Majid760/xpensemate-sub000/src/logger"
	"github.com/Majid760/xpensemate-sub000/src/security"
)

const usage = `usage: xpensemate <command> [args]

commands:
  serve                                   run the local dev backend
  token <userID>                          issue a dev token and save it to API_TOKEN_FILE
  list <resource> [page]                  show one page of expenses, budget-goals or payments
  add-expense <name> <amount> <date> <category> [budgetGoalID]
  set-status <goalID> <status> [page]     change a budget goal's status
  delete <resource> [-page N] <id>...     delete one or more records
  insights                                summarise spending against budget goals
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = serve()
	case "token":
		err = issueToken(args)
	case "list":
		err = runList(args)
	case "add-expense":
		err = runAddExpense(args)
	case "set-status":
		err = runSetStatus(args)
	case "delete":
		err = runDelete(args)
	case "insights":
		err = runInsights()
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serve() error {
	logger.L.Info("XpenseMate dev backend starting...")

	authService, err := security.NewAuthService(config.Cfg.JWTSecret)
	if err != nil {
		logger.L.Error("JWT_SECRET configuration invalid.", "error", err)
		return err
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	db, err := database.OpenAndMigrate(config.Cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	router := handlers.NewRouter(db, authService, handlers.RouterOptions{
		RatePerSecond: config.Cfg.ServerRate,
		Burst:         config.Cfg.ServerBurst,
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
	return nil
}
