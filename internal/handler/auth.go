package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jdvansice-cloud/reservepty-api/internal/config"
	"github.com/jdvansice-cloud/reservepty-api/internal/model"
	"github.com/jdvansice-cloud/reservepty-api/internal/repository"
	"github.com/jdvansice-cloud/reservepty-api/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Families *repository.FamilyRepo
	Tokens   *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, f *repository.FamilyRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Families: f, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName string  `json:"display_name"`
	FamilyName  string  `json:"family_name"` // create a new family
	FamilyID    *uint64 `json:"family_id"`   // or join an existing one
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID          uint64  `json:"id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name"`
	FamilyID    *uint64 `json:"family_id,omitempty"`
	Tier        uint8   `json:"tier"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register creates a user together with their family membership and
// returns a token pair immediately.  Supplying family_name creates a
// fresh family with the registrant as its tier-1 member; supplying
// family_id joins an existing family at tier 4.  Exactly one of the
// two must be present.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.FamilyName = strings.TrimSpace(req.FamilyName)
	if req.Email == "" || req.Password == "" || req.DisplayName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password/display_name required"})
	}
	if (req.FamilyName == "") == (req.FamilyID == nil) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide exactly one of family_name or family_id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.FamilyID != nil {
		if _, err := h.Families.GetByID(ctx, *req.FamilyID); err != nil {
			if errors.Is(err, repository.ErrFamilyNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "family not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}

	// Family and user inserts share one transaction: a rejected
	// registration must not leave behind a memberless family row.
	tx, err := h.Users.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var familyID uint64
	var tier uint8
	if req.FamilyName != "" {
		fam := &model.Family{Name: req.FamilyName}
		if err := h.Families.CreateTx(ctx, tx, fam); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create family failed"})
		}
		familyID, tier = fam.ID, 1
	} else {
		familyID, tier = *req.FamilyID, 4
	}

	uid, err := h.Users.CreateTx(ctx, tx, req.Email, req.Password, req.DisplayName, &familyID, tier, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	committed = true

	resp, err := h.issueTokens(ctx, userPart{ID: uid, Email: req.Email, DisplayName: req.DisplayName, FamilyID: &familyID, Tier: tier}, familyID, tier)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	var fam uint64
	if u.FamilyID != nil {
		fam = *u.FamilyID
	}
	resp, err := h.issueTokens(ctx, userPart{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, FamilyID: u.FamilyID, Tier: u.Tier}, fam, u.Tier)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh validates a refresh token by hash, revokes it and issues a
// fresh pair (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	var fam uint64
	if u.FamilyID != nil {
		fam = *u.FamilyID
	}
	resp, err := h.issueTokens(ctx, userPart{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, FamilyID: u.FamilyID, Tier: u.Tier}, fam, u.Tier)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes a single session identified by its refresh token.
// No JWT is required: possession of the refresh token is proof
// enough to end that session.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every refresh token belonging to the
// authenticated user, ending all sessions across devices.  This
// endpoint sits behind the JWT middleware.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the identity claims of the current session.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":   c.Get("user_id"),
		"family_id": c.Get("family_id"),
		"tier":      c.Get("tier"),
	})
}

func (h *AuthHandler) issueTokens(ctx context.Context, user userPart, familyID uint64, tier uint8) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, familyID, tier, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, user.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    user,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}
