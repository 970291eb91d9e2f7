package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"tnr_clinic_go/config"
	"tnr_clinic_go/db"
	"tnr_clinic_go/models"
	"tnr_clinic_go/services"

	"golang.org/x/term"
)

// Bootstraps the first admin account. Further accounts are provisioned
// through the API by an admin.
func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(&models.User{}, &models.Session{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Admin Account ===")
	fmt.Println()

	fmt.Print("First name: ")
	firstName, _ := reader.ReadString('\n')
	firstName = strings.TrimSpace(firstName)

	fmt.Print("Last name: ")
	lastName, _ := reader.ReadString('\n')
	lastName = strings.TrimSpace(lastName)

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	// Lowercased to match the login handler's comparison
	email = strings.ToLower(strings.TrimSpace(email))

	// Get password securely
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	password := string(passwordBytes)
	fmt.Println() // New line after password input

	// Validate inputs
	if firstName == "" || email == "" || password == "" {
		log.Fatal("First name, email, and password are required")
	}

	if len(password) < 8 {
		log.Fatal("Password must be at least 8 characters long")
	}

	// Check if user already exists
	var existingUser models.User
	if err := db.DB.Where("email = ?", email).First(&existingUser).Error; err == nil {
		log.Fatalf("User with email %s already exists", email)
	}

	// Hash password
	hashedPassword, err := services.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  hashedPassword,
		Role:      models.RoleAdmin,
		IsActive:  true,
	}

	if err := db.DB.Create(user).Error; err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Println()
	fmt.Println("✓ Admin account created successfully!")
	fmt.Printf("  ID: %s\n", user.ID)
	fmt.Printf("  Name: %s\n", user.FullName())
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Println()
	fmt.Printf("Log in via POST %s/api/auth/login\n", "http://localhost:"+cfg.ServerPort)
}
