package main

import (
	"log"

	"github.com/MrSnakeDoc/stakehub/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ stakehub failed to start: %v", err)
	}
}
