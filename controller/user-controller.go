package controller

import (
	"net/http"
	"strconv"

	"arena-backend/auth"
	"arena-backend/config"
	"arena-backend/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserController struct {
	userRepository *repository.UserRepository
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{userRepository: repository.NewUserRepository(db)}
}

func setupUserController(db *gorm.DB) []RouteInfo {
	controller := NewUserController(db)
	routes := []RouteInfo{
		{Method: "GET", Path: "users/me", HandlerFunc: controller.getMeHandler(), Authenticated: true},
		{Method: "POST", Path: "users", HandlerFunc: controller.createUserHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
	}
	// no identity provider runs locally, so development gets a direct
	// session mint for seeded users
	if config.IsDevelopment() {
		routes = append(routes, RouteInfo{Method: "POST", Path: "users/:user_id/session", HandlerFunc: controller.createSessionHandler()})
	}
	return routes
}

type UserCreate struct {
	DisplayName string   `json:"display_name" binding:"required"`
	Permissions []string `json:"permissions"`
}

type UserResponse struct {
	Id          int      `json:"id"`
	DisplayName string   `json:"display_name"`
	Permissions []string `json:"permissions"`
}

func toUserResponse(user *repository.User) *UserResponse {
	return &UserResponse{
		Id:          user.Id,
		DisplayName: user.DisplayName,
		Permissions: user.Permissions,
	}
}

// @id GetMe
// @Description Returns the identity of the calling organizer or admin
// @Tags user
// @Produce json
// @Success 200 {object} UserResponse
// @Router /users/me [get]
func (e *UserController) getMeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		authCookie, err := c.Cookie("auth")
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
			return
		}
		token, err := auth.ParseToken(authCookie)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
			return
		}
		claims := &auth.Claims{}
		claims.FromJWTClaims(token.Claims)
		user, err := e.userRepository.GetUserById(claims.UserId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, toUserResponse(user))
	}
}

// @id CreateUser
// @Description Creates an organizer identity
// @Tags user
// @Accept json
// @Produce json
// @Param body body UserCreate true "user to create"
// @Success 201 {object} UserResponse
// @Router /users [post]
func (e *UserController) createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var userCreate UserCreate
		if err := c.BindJSON(&userCreate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userRepository.SaveUser(&repository.User{
			DisplayName: userCreate.DisplayName,
			Permissions: userCreate.Permissions,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, toUserResponse(user))
	}
}

// @id CreateSession
// @Description Development only: issues an auth cookie for a seeded user
// @Tags user
// @Produce json
// @Success 200 {object} UserResponse
// @Router /users/{user_id}/session [post]
func (e *UserController) createSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		user, err := e.userRepository.GetUserById(userId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		token, err := auth.CreateToken(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.SetCookie("auth", token, 60*60*24*21, "/", "", false, true)
		c.JSON(http.StatusOK, toUserResponse(user))
	}
}
