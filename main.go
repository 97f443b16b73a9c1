package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"MediFlow/Configs"
	"MediFlow/CronJobs"
	"MediFlow/FiberConfig"
	"MediFlow/Models"
	"MediFlow/Notifications"
)

func main() {
	cfg := Configs.LoadEnv()
	if cfg.LogToFile {
		setupLogging()
	}

	db, err := Models.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := Models.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	deps := FiberConfig.Dependencies{DB: db, Config: cfg}
	var reminder *CronJobs.SurveyReminder
	if cfg.FirebaseCredentials != "" {
		authClient, messagingClient, err := Notifications.InitFirebase(context.Background(), cfg.FirebaseCredentials)
		if err != nil {
			log.Fatal("Failed to initialize Firebase:", err)
		}
		notifier := Notifications.Notifier{Sender: messagingClient}
		deps.Verifier = authClient
		deps.Notifier = notifier

		reminder = CronJobs.NewSurveyReminder(db, notifier, cfg.Location, cfg.SurveyReminderSchedule, false)
		if err := reminder.Start(); err != nil {
			log.Printf("Failed to start survey reminder: %v", err)
			reminder = nil
		}
	}

	app := FiberConfig.NewApp(deps)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		if reminder != nil {
			reminder.Stop()
		}
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Server Up on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func setupLogging() {
	// Create logs directory if it doesn't exist
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
		return
	}

	logFile, err := os.OpenFile("logs/application.log",
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}

	// Redirect log output to the file
	log.SetOutput(logFile)
	log.SetFlags(log.Ldate | log.Ltime)
}
