package access

import (
	"context"

	"github.com/annolab/metahub/dao/store"
)

// synchronizer propagates a membership transition into the
// dataset_project.approved flags of the affected user's datasets. It is
// only ever invoked from inside an engine transaction, so the
// membership write and the visibility update commit together and no
// reader observes one without the other.
//
// Both operations are single set-based statements in the store layer;
// the synchronizer exists as an explicit step (rather than a database
// trigger) so the cascade stays auditable and testable on its own.
type synchronizer struct {
	datasetProjects store.DatasetProjectStore
}

// approveAll is called on transitions into MEMBER or above.
func (s *synchronizer) approveAll(ctx context.Context, userID, projectID uint) error {
	return s.datasetProjects.ApproveAllForUser(ctx, userID, projectID)
}

// purgeAll is called on transitions back to no membership (leave,
// removal, rejection, decline).
func (s *synchronizer) purgeAll(ctx context.Context, userID, projectID uint) error {
	return s.datasetProjects.PurgeAllForUser(ctx, userID, projectID)
}
