package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harmoni/harmoniconnect/internal/validation"
)

func (h *handler) me(c *gin.Context) {
	u, err := h.svc.Identity.Me(c.Request.Context(), identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(*u))
}

func (h *handler) createUser(c *gin.Context) {
	var in validation.UserInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	u, err := h.svc.Identity.CreateUser(c.Request.Context(), identity(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUser(*u))
}

func (h *handler) listUsers(c *gin.Context) {
	p, err := pageParams(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.svc.Identity.ListUsers(c.Request.Context(), identity(c), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	writePage(c, page, toUser)
}

func (h *handler) getUser(c *gin.Context) {
	id, err := pathID(c, "user")
	if err != nil {
		h.fail(c, err)
		return
	}
	u, err := h.svc.Identity.GetUser(c.Request.Context(), identity(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(*u))
}

func (h *handler) updateUser(c *gin.Context) {
	id, err := pathID(c, "user")
	if err != nil {
		h.fail(c, err)
		return
	}
	var in validation.UserPatch
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	u, err := h.svc.Identity.UpdateUser(c.Request.Context(), identity(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(*u))
}

func (h *handler) deleteUser(c *gin.Context) {
	id, err := pathID(c, "user")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.Identity.DeleteUser(c.Request.Context(), identity(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) registerClient(c *gin.Context) {
	cl, err := h.svc.Identity.RegisterClient(c.Request.Context(), identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toClient(*cl))
}
