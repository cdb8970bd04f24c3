package store

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/annolab/metahub/dao/model"
)

// Migrate brings the schema up to date. On a fresh database the whole
// schema is created in one step via InitSchema; incremental migrations
// are appended to the list as the models evolve.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{})

	m.InitSchema(func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&model.User{},
			&model.Project{},
			&model.UserProject{},
			&model.Dataset{},
			&model.DatasetProject{},
			&model.Notification{},
		)
	})

	if err := m.Migrate(); err != nil {
		return err
	}
	klog.Info("database migration finished")
	return nil
}
