package access

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/annolab/metahub/dao/model"
	"github.com/annolab/metahub/dao/store"
)

// fakeState is an in-memory backing store shared by the fake
// repositories. The engine under test gets a trivial inTx that runs the
// callback against the same state; the engine's check-before-mutate
// discipline is what the assertions on failed transitions rely on.
type fakeState struct {
	users       map[uint]*model.User
	projects    map[uint]*model.Project
	memberships map[memberKey]*model.UserProject
	datasets    map[string]*model.Dataset
	visibility  map[visKey]*model.DatasetProject
	outbox      []model.Notification

	// membership keys read through GetForUpdate, i.e. under the row
	// lock that serializes concurrent transitions.
	lockedReads []memberKey

	nextUserID uint
}

type memberKey struct {
	userID    uint
	projectID uint
}

type visKey struct {
	datasetID string
	projectID uint
}

func newFakeState() *fakeState {
	return &fakeState{
		users:       map[uint]*model.User{},
		projects:    map[uint]*model.Project{},
		memberships: map[memberKey]*model.UserProject{},
		datasets:    map[string]*model.Dataset{},
		visibility:  map[visKey]*model.DatasetProject{},
		nextUserID:  1,
	}
}

func (f *fakeState) stores() *store.Stores {
	return &store.Stores{
		Users:           &fakeUserStore{f},
		Projects:        &fakeProjectStore{f},
		Memberships:     &fakeMembershipStore{f},
		Datasets:        &fakeDatasetStore{f},
		DatasetProjects: &fakeDatasetProjectStore{f},
		Notifications:   &fakeNotificationStore{f},
	}
}

func newTestEngine(f *fakeState) *Engine {
	s := f.stores()
	return &Engine{
		host: "https://metahub.test",
		inTx: func(_ context.Context, fn func(s *store.Stores) error) error {
			return fn(s)
		},
	}
}

func (f *fakeState) addUser(name, email string) *model.User {
	u := &model.User{
		Name:   name,
		Email:  &email,
		Role:   model.RoleUser,
		Status: model.StatusActive,
	}
	u.ID = f.nextUserID
	f.nextUserID++
	f.users[u.ID] = u
	return u
}

func (f *fakeState) addProject(id uint, name string) *model.Project {
	p := &model.Project{Name: name}
	p.ID = id
	f.projects[id] = p
	return p
}

func (f *fakeState) addMembership(userID, projectID uint, role model.ProjectRole) *model.UserProject {
	up := &model.UserProject{UserID: userID, ProjectID: projectID, Role: role}
	f.memberships[memberKey{userID, projectID}] = up
	return up
}

func (f *fakeState) addDataset(id string, ownerID uint) *model.Dataset {
	ds := &model.Dataset{ID: id, OwnerID: ownerID, Name: "ds-" + id}
	f.datasets[id] = ds
	return ds
}

func (f *fakeState) addVisibility(datasetID string, projectID uint, approved bool) *model.DatasetProject {
	dp := &model.DatasetProject{DatasetID: datasetID, ProjectID: projectID, Approved: approved}
	f.visibility[visKey{datasetID, projectID}] = dp
	return dp
}

func (f *fakeState) membership(userID, projectID uint) *model.UserProject {
	return f.memberships[memberKey{userID, projectID}]
}

type fakeUserStore struct{ f *fakeState }

func (s *fakeUserStore) GetByID(_ context.Context, id uint) (*model.User, error) {
	u, ok := s.f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range s.f.users {
		if (u.Email != nil && *u.Email == email) ||
			(u.NotVerifiedEmail != nil && *u.NotVerifiedEmail == email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) FindOrCreateUnverified(ctx context.Context, email string) (*model.User, error) {
	if u, err := s.GetByEmail(ctx, email); err == nil {
		return u, nil
	}
	u := &model.User{
		Name:             email,
		NotVerifiedEmail: &email,
		Role:             model.RoleUser,
		Status:           model.StatusActive,
	}
	return u, s.Create(ctx, u)
}

func (s *fakeUserStore) Create(_ context.Context, u *model.User) error {
	u.ID = s.f.nextUserID
	s.f.nextUserID++
	s.f.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) Update(_ context.Context, u *model.User) error {
	s.f.users[u.ID] = u
	return nil
}

type fakeProjectStore struct{ f *fakeState }

func (s *fakeProjectStore) Create(_ context.Context, p *model.Project) error {
	p.ID = uint(len(s.f.projects) + 1)
	s.f.projects[p.ID] = p
	return nil
}

func (s *fakeProjectStore) GetByID(_ context.Context, id uint) (*model.Project, error) {
	p, ok := s.f.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (s *fakeProjectStore) ListForUser(_ context.Context, userID uint) ([]store.ProjectWithRole, error) {
	var out []store.ProjectWithRole
	for key, up := range s.f.memberships {
		if key.userID != userID {
			continue
		}
		p := s.f.projects[key.projectID]
		out = append(out, store.ProjectWithRole{ID: p.ID, Name: p.Name, Role: up.Role})
	}
	return out, nil
}

type fakeMembershipStore struct{ f *fakeState }

func (s *fakeMembershipStore) Get(_ context.Context, userID, projectID uint) (*model.UserProject, error) {
	up, ok := s.f.memberships[memberKey{userID, projectID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *up
	return &cp, nil
}

func (s *fakeMembershipStore) GetForUpdate(ctx context.Context, userID, projectID uint) (*model.UserProject, error) {
	s.f.lockedReads = append(s.f.lockedReads, memberKey{userID, projectID})
	return s.Get(ctx, userID, projectID)
}

func (s *fakeMembershipStore) Create(_ context.Context, up *model.UserProject) error {
	key := memberKey{up.UserID, up.ProjectID}
	if _, exists := s.f.memberships[key]; exists {
		return gorm.ErrDuplicatedKey
	}
	cp := *up
	s.f.memberships[key] = &cp
	return nil
}

func (s *fakeMembershipStore) UpdateRole(_ context.Context, userID, projectID uint, role model.ProjectRole) error {
	up, ok := s.f.memberships[memberKey{userID, projectID}]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	up.Role = role
	return nil
}

func (s *fakeMembershipStore) Delete(_ context.Context, userID, projectID uint) error {
	key := memberKey{userID, projectID}
	if _, ok := s.f.memberships[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.f.memberships, key)
	return nil
}

func (s *fakeMembershipStore) ListByProject(_ context.Context, projectID uint) ([]model.UserProject, error) {
	var out []model.UserProject
	for key, up := range s.f.memberships {
		if key.projectID == projectID {
			out = append(out, *up)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *fakeMembershipStore) ListByUser(_ context.Context, userID uint) ([]model.UserProject, error) {
	var out []model.UserProject
	for key, up := range s.f.memberships {
		if key.userID == userID {
			out = append(out, *up)
		}
	}
	return out, nil
}

func (s *fakeMembershipStore) ListManagers(_ context.Context, projectID uint) ([]model.User, error) {
	var out []model.User
	for key, up := range s.f.memberships {
		if key.projectID == projectID && up.Role.CanManageMembers() {
			out = append(out, *s.f.users[key.userID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeDatasetStore struct{ f *fakeState }

func (s *fakeDatasetStore) Create(_ context.Context, ds *model.Dataset) error {
	s.f.datasets[ds.ID] = ds
	return nil
}

func (s *fakeDatasetStore) GetByID(_ context.Context, id string) (*model.Dataset, error) {
	ds, ok := s.f.datasets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ds, nil
}

func (s *fakeDatasetStore) ListOwned(_ context.Context, ownerID uint, ids []string) ([]model.Dataset, error) {
	var out []model.Dataset
	for _, id := range ids {
		if ds, ok := s.f.datasets[id]; ok && ds.OwnerID == ownerID {
			out = append(out, *ds)
		}
	}
	return out, nil
}

func (s *fakeDatasetStore) ListByOwner(_ context.Context, ownerID uint) ([]model.Dataset, error) {
	var out []model.Dataset
	for _, ds := range s.f.datasets {
		if ds.OwnerID == ownerID {
			out = append(out, *ds)
		}
	}
	return out, nil
}

type fakeDatasetProjectStore struct{ f *fakeState }

func (s *fakeDatasetProjectStore) Upsert(_ context.Context, dp *model.DatasetProject) error {
	cp := *dp
	s.f.visibility[visKey{dp.DatasetID, dp.ProjectID}] = &cp
	return nil
}

func (s *fakeDatasetProjectStore) ApproveAllForUser(_ context.Context, userID, projectID uint) error {
	for key, dp := range s.f.visibility {
		ds := s.f.datasets[key.datasetID]
		if key.projectID == projectID && ds != nil && ds.OwnerID == userID {
			dp.Approved = true
		}
	}
	return nil
}

func (s *fakeDatasetProjectStore) PurgeAllForUser(_ context.Context, userID, projectID uint) error {
	for key := range s.f.visibility {
		ds := s.f.datasets[key.datasetID]
		if key.projectID == projectID && ds != nil && ds.OwnerID == userID {
			delete(s.f.visibility, key)
		}
	}
	return nil
}

func (s *fakeDatasetProjectStore) ListByProject(_ context.Context, projectID uint) ([]model.DatasetProject, error) {
	var out []model.DatasetProject
	for key, dp := range s.f.visibility {
		if key.projectID == projectID {
			out = append(out, *dp)
		}
	}
	return out, nil
}

func (s *fakeDatasetProjectStore) ListByDatasets(_ context.Context, datasetIDs []string) ([]model.DatasetProject, error) {
	var out []model.DatasetProject
	for _, id := range datasetIDs {
		for key, dp := range s.f.visibility {
			if key.datasetID == id {
				out = append(out, *dp)
			}
		}
	}
	return out, nil
}

type fakeNotificationStore struct{ f *fakeState }

func (s *fakeNotificationStore) Enqueue(_ context.Context, n *model.Notification) error {
	s.f.outbox = append(s.f.outbox, *n)
	return nil
}

func (s *fakeNotificationStore) ListPending(_ context.Context, _, _ int) ([]model.Notification, error) {
	return append([]model.Notification(nil), s.f.outbox...), nil
}

func (s *fakeNotificationStore) MarkSent(_ context.Context, _ uint) error { return nil }

func (s *fakeNotificationStore) MarkFailed(_ context.Context, _ uint, _ string) error { return nil }
