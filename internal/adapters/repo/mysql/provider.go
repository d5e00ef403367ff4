package mysql

import (
	"fmt"

	driver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kirthika/stocklens/internal/config"
)

// Provider opens one dedicated session per report request against the
// tenant's database. The caller releases it via the returned func on every
// exit path; nothing is pooled across requests.
type Provider struct {
	cfg config.Datastore
}

func NewProvider(cfg config.Datastore) *Provider { return &Provider{cfg: cfg} }

func (p *Provider) Open(dbName string) (*gorm.DB, func(), error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=Local",
		p.cfg.User, p.cfg.Password, p.cfg.Host, p.cfg.Port, dbName)
	db, err := gorm.Open(driver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	release := func() { _ = sqlDB.Close() }
	return db, release, nil
}
