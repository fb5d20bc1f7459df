package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gymtrack/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/add_member <name> <surname> [contact]")
		os.Exit(2)
	}
	name := os.Args[1]
	surname := os.Args[2]
	contact := ""
	if len(os.Args) > 3 {
		contact = os.Args[3]
	}

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	// check existing
	var existing models.Member
	if err := db.Where("name = ? AND surname = ?", name, surname).First(&existing).Error; err == nil {
		fmt.Printf("member %s %s already exists (id=%d)\n", name, surname, existing.ID)
		os.Exit(0)
	}

	m := models.Member{Name: name, Surname: surname, Contact: contact}
	if err := db.Create(&m).Error; err != nil {
		log.Fatalf("failed to create member: %v", err)
	}
	fmt.Printf("created member %s %s id=%d\n", name, surname, m.ID)
}
