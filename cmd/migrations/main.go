package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/pollstr/internal/config"
	"github.com/vncsmyrnk/pollstr/internal/logging"
)

// Usage: migrations <name> [flags], e.g. `migrations create_pollstr_schema.up`.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("a migration name is required.")
	}
	migrationName := os.Args[1]

	cfg, err := config.Load("migrations", os.Args[2:])
	if err != nil {
		log.Fatal(err)
	}
	_ = logging.Configure(cfg.LogLevel)

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	basePath := filepath.Join(".", "internal", "adapters", "repository", "postgres", "migrations")
	fileName, err := migrationFilePath(basePath, migrationName)
	if err != nil {
		log.Fatal(err)
	}

	fileContent, err := os.ReadFile(filepath.Join(basePath, fileName))
	if err != nil {
		log.Fatal(err)
	}

	if _, err := db.Exec(string(fileContent)); err != nil {
		log.Fatalf("Failed to execute SQL file: %v", err)
	}

	log.WithField("file", fileName).Info("Migration file executed successfully.")
}

func migrationFilePath(basePath string, migrationName string) (string, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return "", fmt.Errorf("invalid pattern: %w", err)
	}

	files, err := os.ReadDir(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to read migrations directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if regex.MatchString(f.Name()) {
			return f.Name(), nil
		}
	}

	return "", fmt.Errorf("migration file not found")
}
