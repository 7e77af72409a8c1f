package db

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/appointa/appointa-server/cmd/models"
)

func NewPSQLStorage() (*gorm.DB, error) {

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	connString := os.Getenv("DB_URL")

	db, err := gorm.Open(postgres.Open(connString), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)

	return db, nil
}

// Migrate creates the schema and the uniqueness guard for booked slots.
func Migrate(DB *gorm.DB) error {
	migrations := map[interface{}]string{
		&models.User{}:         "User",
		&models.Appointment{}:  "Appointment",
		&models.Notification{}: "Notification",
	}

	log.Println("Starting database migrations...")
	for model, name := range migrations {
		log.Printf("Migrating %s table...", name)
		if err := DB.AutoMigrate(model); err != nil {
			return err
		}
		log.Printf("%s migration successful", name)
	}

	// AutoMigrate cannot express a partial index. This index is the actual
	// double-booking guard: at most one non-canceled appointment may exist
	// per (provider_id, date).
	if err := DB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_provider_slot
		ON appointments (provider_id, date)
		WHERE canceled_at IS NULL AND deleted_at IS NULL
	`).Error; err != nil {
		return err
	}
	log.Println("Appointment slot index created/verified")

	return nil
}
