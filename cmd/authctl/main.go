package main

import (
	"log"

	"graphical-auth-service/internal/tools/authctl"
)

func main() {
	if err := authctl.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
