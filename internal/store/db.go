package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GenerationRun is one end-to-end generation attempt, recorded for the
// history endpoint and post-hoc debugging.
type GenerationRun struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PaperURL     string         `gorm:"not null" json:"paper_url"`
	StudentLevel int            `gorm:"not null" json:"student_level"`
	TemplateName string         `json:"template_name"`
	Status       string         `gorm:"not null;index" json:"status"`
	SlideCount   int            `json:"slide_count"`
	DeckPath     string         `json:"deck_path,omitempty"`
	PodcastPath  string         `json:"podcast_path,omitempty"`
	Warnings     datatypes.JSON `json:"warnings,omitempty"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RenderRecord is the content-addressed formula render cache: the hash keys
// on the formula source and name so identical fragments render once across
// runs.
type RenderRecord struct {
	Hash      string    `gorm:"primaryKey" json:"hash"`
	Formula   string    `gorm:"not null" json:"formula"`
	Name      string    `json:"name"`
	Path      string    `gorm:"not null" json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

type DB struct {
	gdb *gorm.DB
}

func NewDB(path string) (*DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: opening sqlite db at %s: %w", path, err)
	}
	if err := gdb.AutoMigrate(&GenerationRun{}, &RenderRecord{}); err != nil {
		return nil, fmt.Errorf("store: migrating schema: %w", err)
	}
	return &DB{gdb: gdb}, nil
}

func (d *DB) CreateRun(run *GenerationRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	return d.gdb.Create(run).Error
}

func (d *DB) UpdateRun(run *GenerationRun) error {
	return d.gdb.Save(run).Error
}

func (d *DB) GetRun(id uuid.UUID) (*GenerationRun, error) {
	var run GenerationRun
	if err := d.gdb.First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (d *DB) ListRuns(limit int) ([]GenerationRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []GenerationRun
	err := d.gdb.Order("created_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}

func (d *DB) LookupRender(hash string) (*RenderRecord, error) {
	var rec RenderRecord
	err := d.gdb.First(&rec, "hash = ?", hash).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (d *DB) SaveRender(rec *RenderRecord) error {
	return d.gdb.Save(rec).Error
}
