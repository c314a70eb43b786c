package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carissacho3/pet-adoption-backend/internal/domain"
	"github.com/carissacho3/pet-adoption-backend/internal/service"
)

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	// Role is accepted for compatibility with older clients and never applied.
	Role json.RawMessage `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Username       *string `json:"username"`
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	ProfilePicture *string `json:"profilePicture"`
}

type UserResponse struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	ProfilePicture string   `json:"profilePicture"`
	Role           string   `json:"role"`
	Bookmarks      []string `json:"bookmarks"`
	CreatedAt      string   `json:"createdAt,omitempty"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}

type AuthResponse struct {
	UserResponse
	Token string `json:"token"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, service.KindBadRequest, "invalid request body")
		return
	}
	if len(req.Role) > 0 {
		h.logger.WithFields(requestFields(c)).Warn("ignoring client supplied role on registration")
	}

	user, token, err := h.users.Register(c.Request.Context(), domain.Registration{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, AuthResponse{UserResponse: userToResponse(*user), Token: token})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, service.KindBadRequest, "invalid request body")
		return
	}

	user, token, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{UserResponse: userToResponse(*user), Token: token})
}

func (h *Handler) getProfile(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		abortWith(c, service.KindUnauthenticated, "not authorized")
		return
	}

	user, err := h.users.Profile(c.Request.Context(), me.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) updateProfile(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		abortWith(c, service.KindUnauthenticated, "not authorized")
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, service.KindBadRequest, "invalid request body")
		return
	}

	user, token, err := h.users.UpdateProfile(c.Request.Context(), me.ID, domain.ProfilePatch{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{UserResponse: userToResponse(*user), Token: token})
}

func (h *Handler) deleteProfile(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		abortWith(c, service.KindUnauthenticated, "not authorized")
		return
	}

	if err := h.users.Delete(c.Request.Context(), me.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": me.ID})
}

func (h *Handler) listBookmarks(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		abortWith(c, service.KindUnauthenticated, "not authorized")
		return
	}

	pets, err := h.users.Bookmarks(c.Request.Context(), me.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": petsToResponse(pets)})
}

func (h *Handler) addBookmark(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		abortWith(c, service.KindUnauthenticated, "not authorized")
		return
	}

	bookmarks, err := h.users.AddBookmark(c.Request.Context(), me.ID, c.Param("petId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": nonNil(bookmarks)})
}

func (h *Handler) removeBookmark(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		abortWith(c, service.KindUnauthenticated, "not authorized")
		return
	}

	bookmarks, err := h.users.RemoveBookmark(c.Request.Context(), me.ID, c.Param("petId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": nonNil(bookmarks)})
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		ProfilePicture: user.ProfilePicture,
		Role:           string(user.Role),
		Bookmarks:      nonNil(user.Bookmarks),
		CreatedAt:      formatTime(user.CreatedAt),
		UpdatedAt:      formatTime(user.UpdatedAt),
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
