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
	"testing"
	"time"

	"github.com/bitfantasy/toolroom/internal/middleware"
	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_toolroom"
	JWTSecret  = "toolroom-test-jwt-secret"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the directory holding go.mod.
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

func loadEnv() {
	if root := projectRoot(); root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB opens PostgreSQL on a fresh schema that is dropped when the
// test ends. The test is skipped when no database is reachable.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "toolroom")
	password := getEnv("DB_PASSWORD", "toolroom")
	dbname := getEnv("DB_NAME", "toolroom")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable connect_timeout=3",
		host, port, user, password, dbname)

	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	if err := setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName)).Error; err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// search_path in the DSN so every pooled connection uses the test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := entity.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group behind the JWT middleware.
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT for testing.
func GenerateTestToken(userID, name, email string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"roles": roles,
		"iss":   "toolroom",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for an admin test user.
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Admin", "admin@test.com", []string{middleware.AdminRole})
}

// DoRequest executes an HTTP request against the test router.
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse decodes the {code, message, data} envelope.
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// === Seed helpers ===

func SeedEmployee(t *testing.T, db *gorm.DB, card, lastName string) *entity.Employee {
	t.Helper()
	e := &entity.Employee{
		ID:        entity.NewID(),
		Card:      card,
		LastName:  lastName,
		FirstName: "Test",
	}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("Failed to seed employee: %v", err)
	}
	return e
}

func SeedSupplier(t *testing.T, db *gorm.DB, code, email string) *entity.Supplier {
	t.Helper()
	s := &entity.Supplier{
		ID:    entity.NewID(),
		Code:  code,
		Name:  "Supplier " + code,
		Email: email,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("Failed to seed supplier: %v", err)
	}
	return s
}

func SeedToolType(t *testing.T, db *gorm.DB, description, packaging string, qtyPerPackage int) *entity.ToolType {
	t.Helper()
	tt := &entity.ToolType{
		ID:            entity.NewID(),
		Description:   description,
		Packaging:     packaging,
		QtyPerPackage: qtyPerPackage,
		MinStock:      5,
		MaxStock:      20,
	}
	if err := db.Omit("Subcategory", "LastSupplier", "DefaultLocation").Create(tt).Error; err != nil {
		t.Fatalf("Failed to seed tool type: %v", err)
	}
	return tt
}

// SeedInstance stores an instance of tt in state, snapshotting its packaging.
func SeedInstance(t *testing.T, db *gorm.DB, tt *entity.ToolType, state string) *entity.ToolInstance {
	t.Helper()
	now := time.Now()
	inst := &entity.ToolInstance{
		ID:          entity.NewID(),
		ToolTypeID:  tt.ID,
		State:       state,
		Unit:        tt.Packaging,
		QtyPerUnit:  tt.QtyPerPackage,
		PurchasedAt: &now,
	}
	if err := db.Omit("ToolType", "Location", "Invoice").Create(inst).Error; err != nil {
		t.Fatalf("Failed to seed instance: %v", err)
	}
	return inst
}

// SeedOrder stores an order in status with one position per requested
// quantity, all for tt at the given unit price.
func SeedOrder(t *testing.T, db *gorm.DB, number, status string, supplier *entity.Supplier, tt *entity.ToolType, price string, requested ...int) *entity.Order {
	t.Helper()
	o := &entity.Order{
		ID:         entity.NewID(),
		Number:     number,
		SupplierID: supplier.ID,
		Status:     status,
	}
	for i, qty := range requested {
		o.Positions = append(o.Positions, entity.OrderPosition{
			ID:           entity.NewID(),
			OrderID:      o.ID,
			ToolTypeID:   tt.ID,
			RequestedQty: qty,
			Unit:         tt.Packaging,
			QtyPerUnit:   tt.QtyPerPackage,
			UnitPrice:    decimal.NewNullDecimal(decimal.RequireFromString(price)),
			SortOrder:    i + 1,
		})
	}
	if err := db.Omit("Supplier").Create(o).Error; err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}
	return o
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
