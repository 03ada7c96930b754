package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"schoolhub/internal/authz"
	"schoolhub/internal/models"
	"schoolhub/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type userResponse struct {
	*models.User
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}

func newUserResponse(u *models.User) userResponse {
	full := u.FirstName
	if u.LastName != "" {
		if full != "" {
			full += " "
		}
		full += u.LastName
	}
	return userResponse{User: u, Role: authz.RoleName(u.RoleID), FullName: full}
}

// @Summary  Create a user and email the credentials
// @Tags     Users
// @Accept   json
// @Produce  json
// @Param    user  body  models.CreateUserRequest  true  "New user"
// @Success  201  {object}  map[string]interface{}
// @Router   /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !authz.IsValidRole(req.RoleID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role_id"})
		return
	}
	_, callerRole := getUserAndRole(c)
	if req.RoleID == authz.RoleAdmin && !authz.IsSuperuser(callerRole) {
		c.JSON(http.StatusForbidden, gin.H{"error": msgForbidden})
		return
	}

	user, emailSent, err := h.service.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "[users][create]", err, "Failed to create user")
		return
	}

	resp := gin.H{"user": newUserResponse(user), "email_sent": emailSent}
	if !emailSent {
		resp["warning"] = "User created, but the welcome email could not be sent."
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, "[users][get]", err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// UpdateUser is the staff-management edit, guarded by auth.change_user.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	h.update(c, true)
}

// UpdateProfile lets users edit their own profile. Holders of auth.change_user
// may edit anyone; only admins may change role or active flag.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	h.update(c, false)
}

func (h *UserHandler) update(c *gin.Context, managed bool) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	callerID, callerRole := getUserAndRole(c)
	if !managed && callerID != id && !authz.HasPerm(callerRole, authz.PermChangeUser) {
		c.JSON(http.StatusForbidden, gin.H{"error": msgForbidden})
		return
	}

	var upd models.UserUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if upd.RoleID != nil && !authz.IsValidRole(*upd.RoleID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role_id"})
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), id, &upd, managed || authz.IsSuperuser(callerRole))
	if err != nil {
		respondError(c, "[users][update]", err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if callerID, _ := getUserAndRole(c); callerID == id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, "[users][delete]", err, "Failed to delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// @Summary  List users
// @Tags     Users
// @Produce  json
// @Param    page      query  int  false  "Page number"
// @Param    per-page  query  int  false  "Items per page (max 100)"
// @Router   /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, err := h.service.ListUsers(c.Request.Context(), c.Query("page"), c.Query("per-page"))
	if err != nil {
		respondError(c, "[users][list]", err, "Failed to list users")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     lo.Map(page.Items, func(u *models.User, _ int) userResponse { return newUserResponse(u) }),
		"page":      page.Page,
		"per_page":  page.PerPage,
		"total":     page.Total,
		"num_pages": page.NumPages,
	})
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "[users][me]", err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":        newUserResponse(user),
		"permissions": lo.Filter(authz.AllPerms(), func(p string, _ int) bool { return authz.HasPerm(user.RoleID, p) }),
	})
}

// @Summary  Dashboard counters
// @Tags     Users
// @Produce  json
// @Success  200  {object}  models.DashboardStats
// @Router   /dashboard [get]
func (h *UserHandler) Dashboard(c *gin.Context) {
	stats, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, "[users][dashboard]", err, "Failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, stats)
}
