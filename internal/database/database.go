// Package database persists the generation history in SQLite.
package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookscan/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&entities.Generation{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordGeneration stores a row for a successfully generated artifact.
func (d *Database) RecordGeneration(gen *entities.Generation) error {
	if err := d.DB.Create(gen).Error; err != nil {
		return fmt.Errorf("record generation: %w", err)
	}
	return nil
}

// ListGenerations returns the most recent generations, newest first.
func (d *Database) ListGenerations(limit int) ([]entities.Generation, error) {
	var gens []entities.Generation
	err := d.DB.Order("created_at DESC, id DESC").Limit(limit).Find(&gens).Error
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	return gens, nil
}
