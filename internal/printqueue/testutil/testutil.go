package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Aceless34/PrintingQueue/internal/config"
	"github.com/Aceless34/PrintingQueue/internal/database"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/migration"
)

const TestSchema = "test_printqueue"

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	if root := projectRoot(); root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB returns a migrated database private to the test. SQLite in memory by default;
// TEST_DB_DRIVER=postgres runs against a throwaway schema of the DB_* server instead.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	var db *gorm.DB
	if config.GetEnvOrDefault("TEST_DB_DRIVER", database.DriverSQLite) == database.DriverPostgres {
		db = setupPostgres(t)
	} else {
		var err error
		db, err = database.OpenSQLite(":memory:", &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		if err != nil {
			t.Fatalf("Failed to open test database: %v", err)
		}
		t.Cleanup(func() {
			if sqlDB, _ := db.DB(); sqlDB != nil {
				sqlDB.Close()
			}
		})
	}

	if err := migration.Run(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	port, _ := strconv.Atoi(config.GetEnvOrDefault("DB_PORT", "5432"))
	cfg := config.DatabaseConfig{
		Host:     config.GetEnvOrDefault("DB_HOST", "127.0.0.1"),
		Port:     port,
		User:     config.GetEnvOrDefault("DB_USER", "printqueue"),
		Password: config.GetEnvOrDefault("DB_PASSWORD", "printqueue"),
		DBName:   config.GetEnvOrDefault("DB_NAME", "printqueue"),
		SSLMode:  "disable",
	}
	baseDSN := cfg.PostgresDSN()
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	if sqlSetup, _ := setupDB.DB(); sqlSetup != nil {
		sqlSetup.Close()
	}

	// search_path in the DSN so every pooled connection uses the test schema
	db, err := gorm.Open(postgres.Open(fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			if sqlClean, _ := cleanDB.DB(); sqlClean != nil {
				sqlClean.Close()
			}
		}
	})
	return db
}

// SetupRouter creates a gin router in test mode
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// DoRequest executes an HTTP request against the test router. A string body is sent verbatim.
func DoRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	switch b := body.(type) {
	case nil:
	case string:
		reqBody.WriteString(b)
	default:
		jsonBytes, _ := json.Marshal(b)
		reqBody.Write(jsonBytes)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse decodes a JSON object response
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// ParseList decodes a JSON array response
func ParseList(w *httptest.ResponseRecorder) []map[string]interface{} {
	var result []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedColor creates a color. An empty manufacturer is stored as null.
func SeedColor(t *testing.T, db *gorm.DB, name, manufacturer string, inStock bool) *entity.FilamentColor {
	t.Helper()
	color := &entity.FilamentColor{Name: name, InStock: inStock}
	if manufacturer != "" {
		color.Manufacturer = &manufacturer
	}
	if err := db.Create(color).Error; err != nil {
		t.Fatalf("Failed to seed color: %v", err)
	}
	return color
}

// SeedRoll creates a roll of color with the given total and remaining grams
func SeedRoll(t *testing.T, db *gorm.DB, colorID uint, total, remaining float64) *entity.FilamentRoll {
	t.Helper()
	roll := &entity.FilamentRoll{ColorID: colorID, GramsTotal: total, GramsRemaining: remaining}
	if err := db.Create(roll).Error; err != nil {
		t.Fatalf("Failed to seed roll: %v", err)
	}
	return roll
}

// SeedProject creates a project in the given status
func SeedProject(t *testing.T, db *gorm.DB, url, urgency, status string) *entity.Project {
	t.Helper()
	project := &entity.Project{URL: url, Quantity: 1, Urgency: urgency, Status: status}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return project
}

// SeedLookup creates a manufacturer or material row in table
func SeedLookup(t *testing.T, db *gorm.DB, table, name string) *entity.Lookup {
	t.Helper()
	item := &entity.Lookup{Name: name}
	if err := db.Table(table).Create(item).Error; err != nil {
		t.Fatalf("Failed to seed %s: %v", table, err)
	}
	return item
}
