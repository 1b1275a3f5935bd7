/* Copyright 2025 StoryLab Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// objectRecord is the gorm model for a stored object
type objectRecord struct {
	Key       string `gorm:"primaryKey"`
	Body      []byte
	UpdatedAt time.Time
}

func (objectRecord) TableName() string {
	return "objects"
}

// Postgres is a Store backed by a postgres database
type Postgres struct {
	db *gorm.DB
}

// NewPostgres connects to the database at the given URL and migrates the
// objects table
func NewPostgres(databaseURL string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening the database")
	}

	if err := db.AutoMigrate(&objectRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrating the objects table")
	}

	return &Postgres{db: db}, nil
}

// Get returns the body stored under the key
func (p *Postgres) Get(key string) ([]byte, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	var rec objectRecord
	err := p.db.Where("key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "finding %s", key)
	}

	return rec.Body, true, nil
}

// Put stores the body under the key, replacing any existing object
func (p *Postgres) Put(key string, body []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	rec := objectRecord{
		Key:       key,
		Body:      body,
		UpdatedAt: time.Now().UTC(),
	}

	err := p.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return errors.Wrapf(err, "upserting %s", key)
	}

	return nil
}

// Delete removes the object under the key, reporting whether it existed
func (p *Postgres) Delete(key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	res := p.db.Where("key = ?", key).Delete(&objectRecord{})
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "deleting %s", key)
	}

	return res.RowsAffected > 0, nil
}

// List returns all objects whose key starts with the given prefix
func (p *Postgres) List(prefix string) ([]Object, error) {
	var recs []objectRecord
	if err := p.db.Where("key LIKE ?", prefix+"%").Order("key").Find(&recs).Error; err != nil {
		return nil, errors.Wrapf(err, "listing %s", prefix)
	}

	ret := make([]Object, 0, len(recs))
	for _, rec := range recs {
		ret = append(ret, Object{
			Key:       rec.Key,
			Body:      rec.Body,
			UpdatedAt: rec.UpdatedAt,
		})
	}

	return ret, nil
}

// Close closes the underlying database connection
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return errors.Wrap(err, "getting the underlying connection")
	}

	return sqlDB.Close()
}
