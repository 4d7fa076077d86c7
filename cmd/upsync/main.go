package main

import (
	"log"

	"github.com/MrSnakeDoc/upsync/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ upsync failed to start: %v", err)
	}
}
