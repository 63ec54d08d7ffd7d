package main

import (
	"log"
	"net/http"

	scenarios "github.com/ShroXd/venom/internal/mock"
)

func main() {
	log.Println("Mock server is running on http://localhost:6657")
	if err := http.ListenAndServe(":6657", scenarios.NewHandler()); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
