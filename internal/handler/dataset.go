package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/annolab/metahub/dao/model"
	"github.com/annolab/metahub/dao/store"
	"github.com/annolab/metahub/internal/access"
	"github.com/annolab/metahub/internal/resputil"
	"github.com/annolab/metahub/internal/util"
)

type DatasetMgr struct {
	name   string
	stores *store.Stores
	engine *access.Engine
}

func NewDatasetMgr(conf RegisterConfig) Manager {
	return &DatasetMgr{
		name:   "datasets",
		stores: conf.Stores,
		engine: conf.Engine,
	}
}

func init() {
	Registers = append(Registers, NewDatasetMgr)
}

func (mgr *DatasetMgr) GetName() string { return mgr.name }

func (mgr *DatasetMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *DatasetMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.ListDatasets)
	g.POST("", mgr.CreateDataset)
	g.GET(":did", mgr.GetDataset)
	g.POST("import/:pid", mgr.ImportDatasets)
}

func (mgr *DatasetMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	DatasetURI struct {
		DatasetID string `uri:"did" binding:"required"`
	}
	ImportURI struct {
		ProjectID uint `uri:"pid" binding:"required"`
	}
	CreateDatasetReq struct {
		Name string `json:"name" binding:"required"`
	}
	ImportDatasetsReq struct {
		DatasetIDs []string `json:"datasetIds" binding:"required,min=1"`
	}
)

func (mgr *DatasetMgr) ListDatasets(c *gin.Context) {
	token := util.GetToken(c)
	datasets, err := mgr.stores.Datasets.ListByOwner(c.Request.Context(), token.UserID)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, datasets)
}

func (mgr *DatasetMgr) CreateDataset(c *gin.Context) {
	var req CreateDatasetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)

	ds := &model.Dataset{
		OwnerID: token.UserID,
		Name:    req.Name,
	}
	if err := mgr.stores.Datasets.Create(c.Request.Context(), ds); err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, ds)
}

func (mgr *DatasetMgr) GetDataset(c *gin.Context) {
	var uri DatasetURI
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)

	ds, err := mgr.stores.Datasets.GetByID(c.Request.Context(), uri.DatasetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resputil.HTTPError(c, http.StatusNotFound, "dataset not found", resputil.TargetNotFound)
		return
	} else if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if ds.OwnerID != token.UserID {
		resputil.HTTPError(c, http.StatusUnauthorized, "not the dataset owner", resputil.UserNotAllowed)
		return
	}
	resputil.Success(c, ds)
}

// ImportDatasets shares the caller's datasets into a project. The
// approved flag of each association follows the caller's membership
// role at import time.
func (mgr *DatasetMgr) ImportDatasets(c *gin.Context) {
	var uri ImportURI
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req ImportDatasetsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)
	if err := mgr.engine.ImportDatasets(c.Request.Context(), token.UserID, uri.ProjectID, req.DatasetIDs); err != nil {
		transitionError(c, err)
		return
	}
	resputil.Success(c, "imported")
}
