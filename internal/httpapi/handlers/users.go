package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/herochat/herochat/internal/store"
)

type createUserReq struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// CreateUser is get-or-create by username: a second POST with the same
// username returns the existing user unchanged.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request data")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		fail(c, http.StatusBadRequest, "username is required")
		return
	}

	ctx := c.Request.Context()
	if u, err := h.Store.GetUserByUsername(ctx, req.Username); err == nil {
		c.JSON(http.StatusOK, u)
		return
	} else if err != store.ErrNotFound {
		h.storageFail(c, err, "Failed to create user")
		return
	}

	u := &store.User{
		Username: req.Username,
		Nickname: req.Nickname,
		Avatar:   req.Avatar,
	}
	if err := h.Store.CreateUser(ctx, u); err != nil {
		// two concurrent first-posts can race; the loser reads the winner
		if err == store.ErrExists {
			if existing, gerr := h.Store.GetUserByUsername(ctx, req.Username); gerr == nil {
				c.JSON(http.StatusOK, existing)
				return
			}
		}
		h.storageFail(c, err, "Failed to create user")
		return
	}
	c.JSON(http.StatusOK, u)
}
