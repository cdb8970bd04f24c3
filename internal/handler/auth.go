package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/annolab/metahub/dao/model"
	"github.com/annolab/metahub/dao/store"
	"github.com/annolab/metahub/internal/resputil"
	"github.com/annolab/metahub/internal/util"
	"github.com/annolab/metahub/pkg/config"
)

const verificationTokenTTL = 24 * time.Hour

type AuthMgr struct {
	name   string
	db     *gorm.DB
	stores *store.Stores
}

func NewAuthMgr(conf RegisterConfig) Manager {
	return &AuthMgr{
		name:   "auth",
		db:     conf.Stores.DB(),
		stores: conf.Stores,
	}
}

func init() {
	Registers = append(Registers, NewAuthMgr)
}

func (mgr *AuthMgr) GetName() string { return mgr.name }

func (mgr *AuthMgr) RegisterPublic(g *gin.RouterGroup) {
	g.POST("signup", mgr.Signup)
	g.POST("verify", mgr.Verify)
	g.POST("login", mgr.Login)
	g.POST("refresh", mgr.Refresh)
}

func (mgr *AuthMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *AuthMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	SignupReq struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	VerifyReq struct {
		Email string `json:"email" binding:"required,email"`
		Token string `json:"token" binding:"required"`
	}
	LoginReq struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	RefreshReq struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	TokenResp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
)

// Signup registers credentials for an address. If the address belongs
// to a placeholder user created by an invitation, the placeholder is
// claimed instead of creating a second identity, so the invitation's
// membership row survives registration.
func (mgr *AuthMgr) Signup(c *gin.Context) {
	var req SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	hashStr := string(hash)
	token := uuid.New().String()
	expires := time.Now().Add(verificationTokenTTL)

	err = mgr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := mgr.stores.WithTx(tx)

		user, err := s.Users.GetByEmail(ctx, req.Email)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = &model.User{
				Name:             req.Name,
				NotVerifiedEmail: &req.Email,
				Role:             model.RoleUser,
				Status:           model.StatusActive,
			}
			if err := s.Users.Create(ctx, user); err != nil {
				return err
			}
		case err != nil:
			return err
		case user.Email != nil && user.PasswordHash != nil:
			return gorm.ErrDuplicatedKey
		}

		user.Name = req.Name
		user.PasswordHash = &hashStr
		user.VerificationToken = &token
		user.VerificationTokenExpires = &expires
		if err := s.Users.Update(ctx, user); err != nil {
			return err
		}
		return s.Notifications.Enqueue(ctx, verificationMail(req.Email, token))
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			resputil.HTTPError(c, http.StatusConflict, "email already registered", resputil.AlreadyExists)
			return
		}
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, "verification mail queued")
}

// Verify confirms ownership of the address and promotes it from
// not_verified_email to email.
func (mgr *AuthMgr) Verify(c *gin.Context) {
	var req VerifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	user, err := mgr.stores.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "invalid verification token", resputil.UserNotAllowed)
		return
	}
	if user.VerificationToken == nil || *user.VerificationToken != req.Token ||
		user.VerificationTokenExpires == nil || time.Now().After(*user.VerificationTokenExpires) {
		resputil.HTTPError(c, http.StatusUnauthorized, "invalid verification token", resputil.UserNotAllowed)
		return
	}

	user.Email = &req.Email
	user.NotVerifiedEmail = nil
	user.VerificationToken = nil
	user.VerificationTokenExpires = nil
	if err := mgr.stores.Users.Update(ctx, user); err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	klog.Infof("user %d verified email", user.ID)
	resputil.Success(c, "email verified")
}

func (mgr *AuthMgr) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	user, err := mgr.stores.Users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || user.PasswordHash == nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "invalid credentials", resputil.InvalidCredentials)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)) != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "invalid credentials", resputil.InvalidCredentials)
		return
	}
	if user.Email == nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "email not verified", resputil.UserNotAllowed)
		return
	}

	mgr.issueTokens(c, user)
}

func (mgr *AuthMgr) Refresh(c *gin.Context) {
	var req RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	msg, err := util.GetTokenMgr().CheckToken(req.RefreshToken)
	if err != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, err.Error(), resputil.TokenExpired)
		return
	}
	user, err := mgr.stores.Users.GetByID(c.Request.Context(), msg.UserID)
	if err != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "unknown user", resputil.UserNotAllowed)
		return
	}
	mgr.issueTokens(c, user)
}

func (mgr *AuthMgr) issueTokens(c *gin.Context, user *model.User) {
	accessToken, refreshToken, err := util.GetTokenMgr().CreateTokens(&util.JWTMessage{
		UserID:       user.ID,
		Username:     user.Name,
		Email:        user.EmailAddress(),
		RolePlatform: user.Role,
	})
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, TokenResp{AccessToken: accessToken, RefreshToken: refreshToken})
}

func verificationMail(email, token string) *model.Notification {
	link := fmt.Sprintf("%s/verify?email=%s&token=%s",
		config.GetConfig().Host, url.QueryEscape(email), url.QueryEscape(token))
	return &model.Notification{
		Kind:      model.NotificationEmailVerification,
		Recipient: email,
		Subject:   "Verify your email address",
		Body:      fmt.Sprintf("Please confirm your email address by visiting %s", link),
	}
}
