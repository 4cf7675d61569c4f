// @title           Taskun API
// @version         1.0
// @description     Task management service with Google Calendar and Slack integrations.
// @BasePath        /
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/NaiYuk/Taskun/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}
	app.Run()
}
