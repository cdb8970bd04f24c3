package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/annolab/metahub/dao/model"
	"github.com/annolab/metahub/dao/store"
	"github.com/annolab/metahub/pkg/metrics"
)

// txFunc runs fn against a Stores view whose writes commit or abort as
// one atomic unit.
type txFunc func(ctx context.Context, fn func(s *store.Stores) error) error

// Engine validates every requested membership transition against the
// acting user's current role, applies it, and synchronizes dataset
// visibility — all inside one transaction. Notification intents are
// written to the outbox in the same transaction; delivery is someone
// else's problem (pkg/alert) and can never roll a transition back.
type Engine struct {
	inTx txFunc
	// host is the externally visible base URL, used for registration
	// links in invitation mails.
	host string
}

func NewEngine(db *gorm.DB, host string) *Engine {
	base := store.New(db)
	return &Engine{
		host: host,
		inTx: func(ctx context.Context, fn func(s *store.Stores) error) error {
			return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				return fn(base.WithTx(tx))
			})
		},
	}
}

// requireManager rejects the transition before any mutation if the
// actor does not hold a manager-or-above role in the project. A missing
// membership row is reported identically to an insufficient role, so
// the error does not reveal whether the project has the actor at all.
func requireManager(ctx context.Context, s *store.Stores, actorID, projectID uint) error {
	up, err := s.Memberships.Get(ctx, actorID, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: manager role required", ErrUnauthorized)
	}
	if err != nil {
		return err
	}
	if !up.Role.CanManageMembers() {
		return fmt.Errorf("%w: manager role required", ErrUnauthorized)
	}
	return nil
}

// RequestAccess creates a PENDING membership for the caller and
// notifies every manager of the project.
func (e *Engine) RequestAccess(ctx context.Context, callerID, projectID uint) (*model.UserProject, error) {
	var up *model.UserProject
	err := e.inTx(ctx, func(s *store.Stores) error {
		project, err := s.Projects.GetByID(ctx, projectID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: project %d", ErrNotFound, projectID)
		} else if err != nil {
			return err
		}

		up = &model.UserProject{
			UserID:    callerID,
			ProjectID: projectID,
			Role:      model.ProjectRolePending,
		}
		if err := s.Memberships.Create(ctx, up); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: membership for user %d in project %d", ErrConflict, callerID, projectID)
			}
			return err
		}

		caller, err := s.Users.GetByID(ctx, callerID)
		if err != nil {
			return err
		}
		managers, err := s.Memberships.ListManagers(ctx, projectID)
		if err != nil {
			return err
		}
		for i := range managers {
			if err := s.Notifications.Enqueue(ctx, requestAccessMail(&managers[i], caller, project)); err != nil {
				return err
			}
		}
		return nil
	})
	e.observe("request_access", err)
	if err != nil {
		return nil, err
	}
	return up, nil
}

// AcceptRequest moves a PENDING membership to MEMBER and approves the
// target user's datasets in the project.
func (e *Engine) AcceptRequest(ctx context.Context, actorID, projectID, userID uint) (*model.UserProject, error) {
	var up *model.UserProject
	err := e.inTx(ctx, func(s *store.Stores) error {
		if err := requireManager(ctx, s, actorID, projectID); err != nil {
			return err
		}

		var err error
		up, err = s.Memberships.GetForUpdate(ctx, userID, projectID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no access request from user %d", ErrNotFound, userID)
		} else if err != nil {
			return err
		}
		if up.Role != model.ProjectRolePending {
			return fmt.Errorf("%w: no pending access request from user %d", ErrNotFound, userID)
		}

		if err := s.Memberships.UpdateRole(ctx, userID, projectID, model.ProjectRoleMember); err != nil {
			return err
		}
		up.Role = model.ProjectRoleMember

		sync := &synchronizer{datasetProjects: s.DatasetProjects}
		if err := sync.approveAll(ctx, userID, projectID); err != nil {
			return err
		}

		project, err := s.Projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		target, err := s.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		return s.Notifications.Enqueue(ctx, requestAcceptedMail(target, project))
	})
	e.observe("accept_request", err)
	if err != nil {
		return nil, err
	}
	return up, nil
}

// RemoveUser deletes a membership in any state and purges the target's
// dataset associations in the project. Managers may remove anyone;
// every user may remove themself ("leave"), which also covers declining
// an invitation and withdrawing a request.
func (e *Engine) RemoveUser(ctx context.Context, actorID, projectID, userID uint) error {
	err := e.inTx(ctx, func(s *store.Stores) error {
		if actorID != userID {
			if err := requireManager(ctx, s, actorID, projectID); err != nil {
				return err
			}
		}

		if _, err := s.Memberships.GetForUpdate(ctx, userID, projectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %d is not related to project %d", ErrNotFound, userID, projectID)
			}
			return err
		}

		if err := s.Memberships.Delete(ctx, userID, projectID); err != nil {
			return err
		}

		sync := &synchronizer{datasetProjects: s.DatasetProjects}
		return sync.purgeAll(ctx, userID, projectID)
	})
	e.observe("remove_user", err)
	return err
}

// InviteUser resolves the address to a user (creating a credential-less
// placeholder if needed) and creates an INVITED membership. The
// authorization check runs before the identity lookup so an
// unauthorized caller learns nothing about the address.
func (e *Engine) InviteUser(ctx context.Context, actorID, projectID uint, email string) (*model.UserProject, error) {
	var up *model.UserProject
	err := e.inTx(ctx, func(s *store.Stores) error {
		if err := requireManager(ctx, s, actorID, projectID); err != nil {
			return err
		}

		project, err := s.Projects.GetByID(ctx, projectID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: project %d", ErrNotFound, projectID)
		} else if err != nil {
			return err
		}

		invitee, err := s.Users.FindOrCreateUnverified(ctx, email)
		if err != nil {
			return err
		}

		up = &model.UserProject{
			UserID:    invitee.ID,
			ProjectID: projectID,
			Role:      model.ProjectRoleInvited,
		}
		if err := s.Memberships.Create(ctx, up); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s is already related to the project", ErrConflict, email)
			}
			return err
		}

		actor, err := s.Users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		if invitee.IsPlaceholder() {
			return s.Notifications.Enqueue(ctx, newUserInvitationMail(email, actor, project, e.host))
		}
		return s.Notifications.Enqueue(ctx, invitationMail(invitee, actor, project))
	})
	e.observe("invite_user", err)
	if err != nil {
		return nil, err
	}
	return up, nil
}

// AcceptInvitation moves the caller's own INVITED membership to MEMBER.
// A missing or non-INVITED row is reported as Unauthorized rather than
// NotFound so the call cannot be used to probe membership state.
func (e *Engine) AcceptInvitation(ctx context.Context, callerID, projectID uint) (*model.UserProject, error) {
	var up *model.UserProject
	err := e.inTx(ctx, func(s *store.Stores) error {
		var err error
		up, err = s.Memberships.GetForUpdate(ctx, callerID, projectID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no invitation to project %d", ErrUnauthorized, projectID)
		} else if err != nil {
			return err
		}
		if up.Role != model.ProjectRoleInvited {
			return fmt.Errorf("%w: no invitation to project %d", ErrUnauthorized, projectID)
		}

		if err := s.Memberships.UpdateRole(ctx, callerID, projectID, model.ProjectRoleMember); err != nil {
			return err
		}
		up.Role = model.ProjectRoleMember

		sync := &synchronizer{datasetProjects: s.DatasetProjects}
		return sync.approveAll(ctx, callerID, projectID)
	})
	e.observe("accept_invitation", err)
	if err != nil {
		return nil, err
	}
	return up, nil
}

// ImportDatasets upserts dataset associations for the project. The
// approved flag is derived from the caller's membership role at import
// time; later transitions keep it in sync. The role is read under the
// same row lock the transitions take, so a concurrent transition either
// blocks until these rows exist and cascades over them, or commits
// first and is observed here.
func (e *Engine) ImportDatasets(ctx context.Context, callerID, projectID uint, datasetIDs []string) error {
	err := e.inTx(ctx, func(s *store.Stores) error {
		if _, err := s.Projects.GetByID(ctx, projectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: project %d", ErrNotFound, projectID)
			}
			return err
		}

		ids := lo.Uniq(datasetIDs)
		owned, err := s.Datasets.ListOwned(ctx, callerID, ids)
		if err != nil {
			return err
		}
		if len(owned) != len(ids) {
			return fmt.Errorf("%w: caller does not own all datasets", ErrUnauthorized)
		}

		approved := false
		up, err := s.Memberships.GetForUpdate(ctx, callerID, projectID)
		if err == nil {
			approved = up.Role.HasDatasetAccess()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		for _, id := range ids {
			dp := &model.DatasetProject{
				DatasetID: id,
				ProjectID: projectID,
				Approved:  approved,
			}
			if err := s.DatasetProjects.Upsert(ctx, dp); err != nil {
				return err
			}
		}
		return nil
	})
	e.observe("import_datasets", err)
	return err
}

// SetRole changes the role of an existing member between MEMBER,
// MANAGER and PRINCIPAL_INVESTIGATOR. Request states cannot be assigned
// through here; the transition table owns those. Touching a
// PRINCIPAL_INVESTIGATOR (either side of the change) additionally
// requires the actor to be one.
func (e *Engine) SetRole(ctx context.Context, actorID, projectID, userID uint, role model.ProjectRole) (*model.UserProject, error) {
	var up *model.UserProject
	err := e.inTx(ctx, func(s *store.Stores) error {
		if !role.Valid() || !role.HasDatasetAccess() {
			return fmt.Errorf("%w: role %s cannot be assigned directly", ErrConflict, role)
		}
		if err := requireManager(ctx, s, actorID, projectID); err != nil {
			return err
		}

		var err error
		up, err = s.Memberships.GetForUpdate(ctx, userID, projectID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %d is not a member of project %d", ErrNotFound, userID, projectID)
		} else if err != nil {
			return err
		}
		if !up.Role.HasDatasetAccess() {
			return fmt.Errorf("%w: user %d has not joined project %d yet", ErrConflict, userID, projectID)
		}

		if up.Role == model.ProjectRolePrincipalInvestigator || role == model.ProjectRolePrincipalInvestigator {
			actor, err := s.Memberships.Get(ctx, actorID, projectID)
			if err != nil {
				return err
			}
			if actor.Role != model.ProjectRolePrincipalInvestigator {
				return fmt.Errorf("%w: principal investigator role required", ErrUnauthorized)
			}
		}

		if err := s.Memberships.UpdateRole(ctx, userID, projectID, role); err != nil {
			return err
		}
		up.Role = role
		return nil
	})
	e.observe("set_role", err)
	if err != nil {
		return nil, err
	}
	return up, nil
}

func (e *Engine) observe(op string, err error) {
	switch {
	case err == nil:
		metrics.Transition(op, metrics.OutcomeOK)
	case errors.Is(err, ErrUnauthorized):
		metrics.Transition(op, metrics.OutcomeDenied)
	case errors.Is(err, ErrConflict):
		metrics.Transition(op, metrics.OutcomeConflict)
	case errors.Is(err, ErrNotFound):
		metrics.Transition(op, metrics.OutcomeNotFound)
	default:
		metrics.Transition(op, metrics.OutcomeError)
	}
}
