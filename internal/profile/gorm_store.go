// File: internal/profile/gorm_store.go
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileModel is the SQL row for a profile record.
type ProfileModel struct {
	UserID      string    `gorm:"column:user_id;primaryKey;size:128"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
	Email       string    `gorm:"column:email;size:320"`
	DisplayName string    `gorm:"column:display_name;size:255"`
	ProfileURL  string    `gorm:"column:profile_url;size:2048"`
	IsVerified  bool      `gorm:"column:is_verified;not null"`
	IsAdmin     bool      `gorm:"column:is_admin;not null"`
}

var gormColumns = map[string]string{
	FieldCreatedAt:   "created_at",
	FieldEmail:       "email",
	FieldDisplayName: "display_name",
	FieldProfileURL:  "profile_url",
	FieldIsVerified:  "is_verified",
	FieldIsAdmin:     "is_admin",
}

// GormStore keeps profiles in a SQL table through GORM.
type GormStore struct {
	db     *gorm.DB
	table  string
	logger *zap.Logger
}

// NewGormStore migrates the table before returning.
func NewGormStore(db *gorm.DB, table string, logger *zap.Logger) (*GormStore, error) {
	if err := db.Table(table).AutoMigrate(&ProfileModel{}); err != nil {
		return nil, fmt.Errorf("migrate profile table %s: %w", table, err)
	}
	return &GormStore{db: db, table: table, logger: logger.Named("GormStore")}, nil
}

func (s *GormStore) Get(ctx context.Context, userID string) (*Record, error) {
	var m ProfileModel
	err := s.db.WithContext(ctx).Table(s.table).Where("user_id = ?", userID).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select profile %s: %w", userID, err)
	}
	return &Record{
		CreatedAt:   m.CreatedAt,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		ProfileURL:  m.ProfileURL,
		IsVerified:  m.IsVerified,
		IsAdmin:     m.IsAdmin,
	}, nil
}

func (s *GormStore) Set(ctx context.Context, userID string, fields Fields, opts SetOptions) error {
	now := time.Now().UTC()

	var rec Record
	if err := fields.apply(&rec, now); err != nil {
		return err
	}
	m := ProfileModel{
		UserID:      userID,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   now,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
		ProfileURL:  rec.ProfileURL,
		IsVerified:  rec.IsVerified,
		IsAdmin:     rec.IsAdmin,
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}

	conflict := clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}}
	switch {
	case opts.CreateOnly:
		conflict.DoNothing = true
	case opts.Merge:
		cols := []string{"updated_at"}
		for name := range fields {
			cols = append(cols, gormColumns[name])
		}
		conflict.DoUpdates = clause.AssignmentColumns(cols)
	default:
		conflict.UpdateAll = true
	}

	result := s.db.WithContext(ctx).Table(s.table).Clauses(conflict).Create(&m)
	if result.Error != nil {
		return fmt.Errorf("upsert profile %s: %w", userID, result.Error)
	}
	if opts.CreateOnly && result.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	s.logger.Debug("Profile row written", zap.String("userID", userID), zap.Bool("merge", opts.Merge))
	return nil
}
