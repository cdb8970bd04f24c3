package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/annolab/metahub/dao/model"
	"github.com/annolab/metahub/dao/store"
	"github.com/annolab/metahub/internal/access"
	"github.com/annolab/metahub/internal/resputil"
	"github.com/annolab/metahub/internal/util"
)

type ProjectMgr struct {
	name   string
	db     *gorm.DB
	stores *store.Stores
	engine *access.Engine
}

func NewProjectMgr(conf RegisterConfig) Manager {
	return &ProjectMgr{
		name:   "projects",
		db:     conf.Stores.DB(),
		stores: conf.Stores,
		engine: conf.Engine,
	}
}

func init() {
	Registers = append(Registers, NewProjectMgr)
}

func (mgr *ProjectMgr) GetName() string { return mgr.name }

func (mgr *ProjectMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ProjectMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.ListProjects)
	g.POST("", mgr.CreateProject)
	g.GET(":pid/members", mgr.ListMembers)
	g.POST(":pid/requests", mgr.RequestAccess)
	g.POST(":pid/requests/:uid/accept", mgr.AcceptRequest)
	g.POST(":pid/invitations", mgr.InviteUser)
	g.POST(":pid/invitations/accept", mgr.AcceptInvitation)
	g.DELETE(":pid/members/:uid", mgr.RemoveMember)
	g.POST(":pid/leave", mgr.Leave)
	g.PUT(":pid/members/:uid/role", mgr.SetRole)
}

func (mgr *ProjectMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	ProjectURI struct {
		ProjectID uint `uri:"pid" binding:"required"`
	}
	ProjectMemberURI struct {
		ProjectID uint `uri:"pid" binding:"required"`
		UserID    uint `uri:"uid" binding:"required"`
	}
	CreateProjectReq struct {
		Name      string  `json:"name" binding:"required"`
		ShortName string  `json:"shortName"`
		URLSlug   *string `json:"urlSlug"`
	}
	InviteUserReq struct {
		Email string `json:"email" binding:"required,email"`
	}
	SetRoleReq struct {
		Role model.ProjectRole `json:"role" binding:"required"`
	}
	MembershipResp struct {
		UserID uint              `json:"userId"`
		Name   string            `json:"name"`
		Email  string            `json:"email"`
		Role   model.ProjectRole `json:"role"`
	}
)

// ListProjects returns the projects the caller is related to, with the
// caller's role in each.
func (mgr *ProjectMgr) ListProjects(c *gin.Context) {
	token := util.GetToken(c)
	projects, err := mgr.stores.Projects.ListForUser(c.Request.Context(), token.UserID)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, projects)
}

// CreateProject creates a project and makes the caller its principal
// investigator in the same transaction.
func (mgr *ProjectMgr) CreateProject(c *gin.Context) {
	var req CreateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)

	project := &model.Project{
		Name:      req.Name,
		ShortName: req.ShortName,
		URLSlug:   req.URLSlug,
	}
	err := mgr.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		s := mgr.stores.WithTx(tx)
		if err := s.Projects.Create(c.Request.Context(), project); err != nil {
			return err
		}
		return s.Memberships.Create(c.Request.Context(), &model.UserProject{
			UserID:    token.UserID,
			ProjectID: project.ID,
			Role:      model.ProjectRolePrincipalInvestigator,
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			resputil.HTTPError(c, http.StatusConflict, "project name already taken", resputil.AlreadyExists)
			return
		}
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	klog.Infof("user %d created project %d (%s)", token.UserID, project.ID, project.Name)
	resputil.Success(c, project)
}

// ListMembers is visible to anyone related to the project, including
// pending requesters and invitees.
func (mgr *ProjectMgr) ListMembers(c *gin.Context) {
	var uri ProjectURI
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)
	ctx := c.Request.Context()

	if _, err := mgr.stores.Memberships.Get(ctx, token.UserID, uri.ProjectID); err != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "not related to the project", resputil.UserNotAllowed)
		return
	}

	ups, err := mgr.stores.Memberships.ListByProject(ctx, uri.ProjectID)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	members := make([]MembershipResp, 0, len(ups))
	for i := range ups {
		u, err := mgr.stores.Users.GetByID(ctx, ups[i].UserID)
		if err != nil {
			resputil.Error(c, err.Error(), resputil.NotSpecified)
			return
		}
		members = append(members, MembershipResp{
			UserID: u.ID,
			Name:   u.Name,
			Email:  u.EmailAddress(),
			Role:   ups[i].Role,
		})
	}
	resputil.Success(c, members)
}

func (mgr *ProjectMgr) RequestAccess(c *gin.Context) {
	var uri ProjectURI
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)
	up, err := mgr.engine.RequestAccess(c.Request.Context(), token.UserID, uri.ProjectID)
	if err != nil {
		transitionError(c, err)
		return
	}
	resputil.Success(c, up)
}

func (mgr *ProjectMgr) AcceptRequest(c *gin.Context) {
	var uri ProjectMemberURI
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)
	up, err := mgr.engine.AcceptRequest(c.Request.Context(), token.UserID, uri.ProjectID, uri.UserID)
	if err != nil {
		transitionError(c, err)
		return
	}
	resputil.Success(c, up)
}

func (mgr *ProjectMgr) InviteUser(c *gin.Context) {
	var uri ProjectURI
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req InviteUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)
	up, err := mgr.engine.InviteUser(c.Request.Context(), token.UserID, uri.ProjectID, req.Email)
	if err != nil {
		transitionError(c, err)
		return
	}
	resputil.Success(c, up)
}

func (mgr *ProjectMgr) AcceptInvitation(c *gin.Context) {
	var uri ProjectURI
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)
	up, err := mgr.engine.AcceptInvitation(c.Request.Context(), token.UserID, uri.ProjectID)
	if err != nil {
		transitionError(c, err)
		return
	}
	resputil.Success(c, up)
}

func (mgr *ProjectMgr) RemoveMember(c *gin.Context) {
	var uri ProjectMemberURI
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)
	if err := mgr.engine.RemoveUser(c.Request.Context(), token.UserID, uri.ProjectID, uri.UserID); err != nil {
		transitionError(c, err)
		return
	}
	resputil.Success(c, "removed")
}

// Leave removes the caller's own membership, whatever its state. It
// doubles as declining an invitation and withdrawing a request.
func (mgr *ProjectMgr) Leave(c *gin.Context) {
	var uri ProjectURI
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)
	if err := mgr.engine.RemoveUser(c.Request.Context(), token.UserID, uri.ProjectID, token.UserID); err != nil {
		transitionError(c, err)
		return
	}
	resputil.Success(c, "left")
}

func (mgr *ProjectMgr) SetRole(c *gin.Context) {
	var uri ProjectMemberURI
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req SetRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)
	up, err := mgr.engine.SetRole(c.Request.Context(), token.UserID, uri.ProjectID, uri.UserID, req.Role)
	if err != nil {
		transitionError(c, err)
		return
	}
	resputil.Success(c, up)
}
