package controllers

import (
	"errors"
	"net/http"

	"civicalert-be/identity"

	"github.com/gin-gonic/gin"
)

// TokenIssuer signs bearer tokens for authenticated identities.
type TokenIssuer interface {
	IssueToken(id identity.Identity) (string, error)
}

type AuthController struct {
	provider identity.Provider
	tokens   TokenIssuer
}

func NewAuthController(provider identity.Provider, tokens TokenIssuer) *AuthController {
	return &AuthController{provider: provider, tokens: tokens}
}

// Register handles POST /auth/register: create an identity account and
// return a bearer token for it.
func (ac *AuthController) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if _, err := ac.provider.CreateAccount(c.Request.Context(), input.Email, input.Password, input.Name); err != nil {
		if errors.Is(err, identity.ErrAccountExists) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User with this email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	token, err := ac.tokens.IssueToken(identity.Identity{Email: input.Email, Name: input.Name})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"email": input.Email,
		"name":  input.Name,
	})
}

// Login handles POST /auth/login.
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if _, err := ac.provider.Authenticate(c.Request.Context(), input.Email, input.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, err := ac.tokens.IssueToken(identity.Identity{Email: input.Email})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"email": input.Email,
	})
}
