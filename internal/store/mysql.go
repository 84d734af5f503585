package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/josephcopenhaver/cadence-bot/internal/logging"
	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

// MySQL is the gorm backed store selected with STORE_DRIVER=mysql
type MySQL struct {
	db *gorm.DB
}

func OpenMySQL(ctx context.Context, dsn string) (*MySQL, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   logging.GormLogger(),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "mysql pool")
	}

	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetMaxOpenConns(16)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.WithContext(ctx).AutoMigrate(&GuildSettings{}, &User{}); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "migrate mysql")
	}

	return &MySQL{db: db}, nil
}

func (s *MySQL) LoadSettings(ctx context.Context, guildID string) (service.Settings, error) {
	var r GuildSettings

	err := s.db.WithContext(ctx).Where("id = ?", guildID).Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return service.Settings{}, service.ErrSettingsNotFound
	}
	if err != nil {
		return service.Settings{}, errors.Wrap(err, "load guild settings")
	}

	return r.Settings(), nil
}

func (s *MySQL) SaveSettings(ctx context.Context, guildID string, v service.Settings) error {
	r := rowFromSettings(guildID, v)

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&r).Error

	return errors.Wrap(err, "save guild settings")
}

func (s *MySQL) SetPassword(ctx context.Context, userID, hash string) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&User{ID: userID, Password: hash}).Error

	return errors.Wrap(err, "save user password")
}

func (s *MySQL) PasswordHash(ctx context.Context, userID string) (string, error) {
	var u User

	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "load user password")
	}

	return u.Password, nil
}

func (s *MySQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
