package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mroshb/friends_api/internal/config"
	"github.com/mroshb/friends_api/internal/database"
	"github.com/mroshb/friends_api/internal/models"
	"github.com/mroshb/friends_api/internal/repositories"
	"github.com/mroshb/friends_api/internal/security"
	"github.com/mroshb/friends_api/internal/services"
	"github.com/xuri/excelize/v2"
)

// Registers every row of an .xlsx sheet whose header is
// username,email,password. Imported accounts start verified.
func main() {
	path := flag.String("file", "users.xlsx", "spreadsheet to import")
	sheet := flag.String("sheet", "", "sheet name (defaults to the first sheet)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	f, err := excelize.OpenFile(*path)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	rows, err := readUsers(f, *sheet)
	if err != nil {
		log.Fatal(err)
	}

	auth := services.NewAuthService(
		repositories.NewUserRepository(db),
		security.NewTokenManager(cfg.JWTSecret, cfg.SessionTokenTTL, cfg.EmailTokenTTL),
		services.LogMailer{},
		nil,
		services.AuthOptions{BcryptCost: cfg.BcryptCost},
	)

	imported := importUsers(context.Background(), auth, rows)
	fmt.Printf("Successfully imported %d of %d users.\n", imported, len(rows))
}

type userRow struct {
	line int
	req  models.RegisterRequest
}

// readUsers maps columns by header name, so column order does not matter
func readUsers(f *excelize.File, sheet string) ([]userRow, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	columns := make(map[string]int)
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"username", "email", "password"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("sheet %s has no %q column", sheet, required)
		}
	}

	cell := func(row []string, name string) string {
		if i := columns[name]; i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	users := make([]userRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(strings.Join(row, "")) == 0 {
			continue
		}
		password := cell(row, "password")
		users = append(users, userRow{
			line: i + 2,
			req: models.RegisterRequest{
				Username:        cell(row, "username"),
				Email:           cell(row, "email"),
				Password:        password,
				ConfirmPassword: password,
			},
		})
	}

	return users, nil
}

type registrar interface {
	Register(ctx context.Context, req models.RegisterRequest) (*services.RegisterResult, error)
}

func importUsers(ctx context.Context, auth registrar, rows []userRow) int {
	imported := 0
	for _, row := range rows {
		if _, err := auth.Register(ctx, row.req); err != nil {
			fmt.Printf("Error importing row %d (%s): %v\n", row.line, row.req.Email, err)
			continue
		}
		imported++
	}
	return imported
}
