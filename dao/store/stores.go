package store

import (
	"gorm.io/gorm"
)

// Stores bundles the repositories over one gorm handle. The access
// engine calls WithTx inside db.Transaction to get the same
// repositories bound to the transaction, so membership writes, dataset
// visibility updates and notification enqueues commit or abort as one
// unit.
type Stores struct {
	db *gorm.DB

	Users           UserStore
	Projects        ProjectStore
	Memberships     MembershipStore
	Datasets        DatasetStore
	DatasetProjects DatasetProjectStore
	Notifications   NotificationStore
}

func New(db *gorm.DB) *Stores {
	return &Stores{
		db:              db,
		Users:           &userStore{db: db},
		Projects:        &projectStore{db: db},
		Memberships:     &membershipStore{db: db},
		Datasets:        &datasetStore{db: db},
		DatasetProjects: &datasetProjectStore{db: db},
		Notifications:   &notificationStore{db: db},
	}
}

func (s *Stores) DB() *gorm.DB { return s.db }

func (s *Stores) WithTx(tx *gorm.DB) *Stores { return New(tx) }
