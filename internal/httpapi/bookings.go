package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/service"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

func (h *handler) listBookings(c *gin.Context) {
	p, err := pageParams(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var f service.BookingListFilter
	if raw := c.Query("status"); raw != "" {
		st := model.BookingStatus(raw)
		if !st.Valid() {
			h.fail(c, apperr.Validation(map[string]string{"status": `"` + raw + `" is not a valid choice.`}))
			return
		}
		f.Status = &st
	}
	if f.ServiceID, err = queryID(c, "service"); err != nil {
		h.fail(c, err)
		return
	}

	page, err := h.svc.Bookings.List(c.Request.Context(), identity(c), f, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	writePage(c, page, toBooking)
}

func (h *handler) getBooking(c *gin.Context) {
	id, err := pathID(c, "booking")
	if err != nil {
		h.fail(c, err)
		return
	}
	b, err := h.svc.Bookings.Get(c.Request.Context(), identity(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toBooking(*b))
}

func (h *handler) createBooking(c *gin.Context) {
	var in validation.BookingInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	b, err := h.svc.Bookings.Create(c.Request.Context(), identity(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBooking(*b))
}

func (h *handler) patchBooking(c *gin.Context) {
	id, err := pathID(c, "booking")
	if err != nil {
		h.fail(c, err)
		return
	}
	var in validation.BookingStatusPatch
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	b, err := h.svc.Bookings.UpdateStatus(c.Request.Context(), identity(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toBooking(*b))
}

func (h *handler) confirmBooking(c *gin.Context) {
	id, err := pathID(c, "booking")
	if err != nil {
		h.fail(c, err)
		return
	}
	b, err := h.svc.Bookings.Confirm(c.Request.Context(), identity(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toBooking(*b))
}

func (h *handler) completeBooking(c *gin.Context) {
	id, err := pathID(c, "booking")
	if err != nil {
		h.fail(c, err)
		return
	}
	b, err := h.svc.Bookings.Complete(c.Request.Context(), identity(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toBooking(*b))
}

func (h *handler) cancelBooking(c *gin.Context) {
	id, err := pathID(c, "booking")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.Bookings.Cancel(c.Request.Context(), identity(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- payment ----------

// payBooking отвечает 201 на проведённый платёж и 402 на отклонённый;
// в обоих случаях тело — записанный платёж.
func (h *handler) payBooking(c *gin.Context) {
	id, err := pathID(c, "booking")
	if err != nil {
		h.fail(c, err)
		return
	}
	var in validation.PaymentInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.svc.Payments.Pay(c.Request.Context(), identity(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusCreated
	if !p.Processed() {
		status = http.StatusPaymentRequired
	}
	c.JSON(status, toPayment(*p))
}

func (h *handler) getPayment(c *gin.Context) {
	id, err := pathID(c, "booking")
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.svc.Payments.Get(c.Request.Context(), identity(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPayment(*p))
}

// ---------- event details ----------

func (h *handler) attachEventDetails(c *gin.Context) {
	id, err := pathID(c, "booking")
	if err != nil {
		h.fail(c, err)
		return
	}
	var in validation.EventDetailsInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	d, err := h.svc.EventDetails.Attach(c.Request.Context(), identity(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toEventDetails(*d))
}

func (h *handler) getEventDetails(c *gin.Context) {
	id, err := pathID(c, "booking")
	if err != nil {
		h.fail(c, err)
		return
	}
	d, err := h.svc.EventDetails.Get(c.Request.Context(), identity(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventDetails(*d))
}

func (h *handler) updateEventDetails(c *gin.Context) {
	id, err := pathID(c, "booking")
	if err != nil {
		h.fail(c, err)
		return
	}
	var in validation.EventDetailsPatch
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	d, err := h.svc.EventDetails.Update(c.Request.Context(), identity(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventDetails(*d))
}

// ---------- reviews ----------

func (h *handler) listReviews(c *gin.Context) {
	p, err := pageParams(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var f service.ReviewListFilter
	if f.BookingID, err = queryID(c, "booking"); err != nil {
		h.fail(c, err)
		return
	}
	if f.ServiceID, err = queryID(c, "service"); err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.svc.Reviews.List(c.Request.Context(), identity(c), f, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	writePage(c, page, toReview)
}

func (h *handler) getReview(c *gin.Context) {
	id, err := pathID(c, "review")
	if err != nil {
		h.fail(c, err)
		return
	}
	r, err := h.svc.Reviews.Get(c.Request.Context(), identity(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toReview(*r))
}

func (h *handler) createReview(c *gin.Context) {
	var in validation.ReviewInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	r, err := h.svc.Reviews.Create(c.Request.Context(), identity(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReview(*r))
}

func (h *handler) updateReview(c *gin.Context) {
	id, err := pathID(c, "review")
	if err != nil {
		h.fail(c, err)
		return
	}
	var in validation.ReviewPatch
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	r, err := h.svc.Reviews.Update(c.Request.Context(), identity(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toReview(*r))
}
