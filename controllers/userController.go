package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"civicalert-be/config"
	"civicalert-be/identity"
	"civicalert-be/middlewares"
	"civicalert-be/models"
	"civicalert-be/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the user accessor the controller consumes.
type UserStore interface {
	CreateCitizen(ctx context.Context, email, name string) (bool, error)
	CreateStaff(ctx context.Context, user models.User) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	ListStaff(ctx context.Context) ([]models.User, error)
	UpdateName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	SetBlocked(ctx context.Context, id string, blocked bool) error
}

// StaffProvisioner creates and removes identity-provider accounts.
type StaffProvisioner interface {
	CreateAccount(ctx context.Context, email, password, name string) (string, error)
	DeleteAccount(ctx context.Context, uid string) error
}

type UserController struct {
	users               UserStore
	provisioner         StaffProvisioner
	trustClientIdentity bool
}

func NewUserController(users UserStore, provisioner StaffProvisioner, cfg *config.Config) *UserController {
	return &UserController{
		users:               users,
		provisioner:         provisioner,
		trustClientIdentity: cfg.TrustClientIdentity,
	}
}

// Register handles POST /users, the idempotent citizen self-registration on
// first sign-in. An existing account is acknowledged, never duplicated.
func (uc *UserController) Register(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	email, ok := resolveIdentity(c, input.Email, uc.trustClientIdentity)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"message": "email does not match the authenticated user"})
		return
	}

	created, err := uc.users.CreateCitizen(c.Request.Context(), email, input.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to register user"})
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "User already exists", "inserted": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User registered", "inserted": true})
}

// GetUser handles GET /users/:email. Callers may read themselves; admins may
// read anyone.
func (uc *UserController) GetUser(c *gin.Context) {
	email := c.Param("email")
	caller := middlewares.Caller(c)
	if caller.Email != email && caller.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return
	}

	user, err := uc.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve user"})
		}
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers handles GET /users (admin).
func (uc *UserController) ListUsers(c *gin.Context) {
	users, err := uc.users.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// ListStaff handles GET /users/staff (admin).
func (uc *UserController) ListStaff(c *gin.Context) {
	staff, err := uc.users.ListStaff(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve staff"})
		return
	}
	c.JSON(http.StatusOK, staff)
}

// CreateStaff handles POST /users/staff (admin). The identity-provider
// account is provisioned first; a provisioning failure leaves no local
// record. If the local insert fails afterwards the provider account is
// removed again, best effort.
func (uc *UserController) CreateStaff(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Name     string `json:"name" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	uid, err := uc.provisioner.CreateAccount(ctx, input.Email, input.Password, input.Name)
	if err != nil {
		if errors.Is(err, identity.ErrAccountExists) {
			c.JSON(http.StatusConflict, gin.H{"message": "An account with this email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to provision staff account"})
		return
	}

	now := time.Now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Email:     input.Email,
		Name:      input.Name,
		Role:      models.RoleStaff,
		UID:       uid,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.users.CreateStaff(ctx, user); err != nil {
		if cleanupErr := uc.provisioner.DeleteAccount(ctx, uid); cleanupErr != nil {
			log.Println("Failed to clean up identity account after staff insert failure:", cleanupErr)
		}
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"message": "A user with this email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create staff record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Staff created", "uid": uid})
}

// UpdateStaff handles PUT /users/staff/:id (admin).
func (uc *UserController) UpdateStaff(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if err := uc.users.UpdateName(c.Request.Context(), c.Param("id"), input.Name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Staff not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update staff"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff updated"})
}

// DeleteStaff handles DELETE /users/staff/:id (admin). The provider account
// is removed after the local record, best effort.
func (uc *UserController) DeleteStaff(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Staff not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve staff"})
		}
		return
	}

	if err := uc.users.Delete(ctx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete staff"})
		return
	}
	if user.UID != "" {
		if err := uc.provisioner.DeleteAccount(ctx, user.UID); err != nil {
			log.Println("Failed to delete identity account for staff:", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff deleted"})
}

// BlockUser handles PATCH /users/block/:id (admin).
func (uc *UserController) BlockUser(c *gin.Context) {
	var input struct {
		IsBlocked *bool `json:"isBlocked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if err := uc.users.SetBlocked(c.Request.Context(), c.Param("id"), *input.IsBlocked); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update user"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated"})
}
