package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yungbote/paperdeck-backend/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using process environment")
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start application: %v\n", err)
		os.Exit(1)
	}
	defer application.Log.Sync()

	if err := application.Run(); err != nil {
		application.Log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
