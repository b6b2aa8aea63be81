package main

import (
	"flag"
	"fmt"
	"log"

	"taskora/internal/config"
	"taskora/internal/service"
)

func main() {
	subject := flag.String("sub", "console", "token subject")
	flag.Parse()

	cfg := config.Load()
	if !cfg.AuthEnabled() {
		log.Fatal("JWT_SECRET not set; the API accepts unauthenticated requests")
	}

	jwtManager, err := service.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatalf("jwt manager: %v", err)
	}
	token, err := jwtManager.Generate(*subject)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}

	log.Printf("token for %q valid %s\n", *subject, cfg.JWTTTL)
	fmt.Println(token)
}
