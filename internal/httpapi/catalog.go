package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/service"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

// ---------- service providers ----------

func (h *handler) listProviders(c *gin.Context) {
	p, err := pageParams(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.svc.Providers.List(c.Request.Context(), identity(c), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	writePage(c, page, toProvider)
}

func (h *handler) getProvider(c *gin.Context) {
	id, err := pathID(c, "service provider")
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.svc.Providers.Get(c.Request.Context(), identity(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toProvider(*p))
}

func (h *handler) createProvider(c *gin.Context) {
	var in validation.ProviderInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.svc.Providers.Create(c.Request.Context(), identity(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProvider(*p))
}

func (h *handler) updateProvider(c *gin.Context) {
	id, err := pathID(c, "service provider")
	if err != nil {
		h.fail(c, err)
		return
	}
	var in validation.ProviderPatch
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.svc.Providers.Update(c.Request.Context(), identity(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toProvider(*p))
}

func (h *handler) deleteProvider(c *gin.Context) {
	id, err := pathID(c, "service provider")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.Providers.Delete(c.Request.Context(), identity(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- services ----------

func (h *handler) listServices(c *gin.Context) {
	p, err := pageParams(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var f service.ServiceListFilter
	if raw := c.Query("category"); raw != "" {
		cat := model.ServiceCategory(raw)
		if !cat.Valid() {
			h.fail(c, apperr.Validation(map[string]string{"category": `"` + raw + `" is not a valid choice.`}))
			return
		}
		f.Category = &cat
	}
	if f.ProviderID, err = queryID(c, "provider"); err != nil {
		h.fail(c, err)
		return
	}

	page, err := h.svc.Catalog.List(c.Request.Context(), identity(c), f, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	writePage(c, page, toService)
}

func (h *handler) getService(c *gin.Context) {
	id, err := pathID(c, "service")
	if err != nil {
		h.fail(c, err)
		return
	}
	s, err := h.svc.Catalog.Get(c.Request.Context(), identity(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toService(*s))
}

func (h *handler) createService(c *gin.Context) {
	var in validation.ServiceInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	s, err := h.svc.Catalog.Create(c.Request.Context(), identity(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toService(*s))
}

func (h *handler) updateService(c *gin.Context) {
	id, err := pathID(c, "service")
	if err != nil {
		h.fail(c, err)
		return
	}
	var in validation.ServicePatch
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	s, err := h.svc.Catalog.Update(c.Request.Context(), identity(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toService(*s))
}

func (h *handler) deleteService(c *gin.Context) {
	id, err := pathID(c, "service")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.Catalog.Delete(c.Request.Context(), identity(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
