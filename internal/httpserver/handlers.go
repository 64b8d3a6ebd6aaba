package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"cartify/internal/domain"
	"cartify/internal/service/fulfillment"
	"cartify/internal/service/payment"
	"cartify/internal/service/posadmin"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	user, err := h.deps.Session.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toUserView(user))
}

func (h *handlers) currentUser(c *gin.Context) {
	user, _ := h.deps.Session.Current()
	c.JSON(http.StatusOK, toUserView(user))
}

func (h *handlers) logout(c *gin.Context) {
	h.deps.Session.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

type scanRequest struct {
	Code     string `json:"code" binding:"required"`
	Quantity int    `json:"quantity"`
}

func (h *handlers) scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}
	product, err := h.deps.Resolver.Resolve(c.Request.Context(), req.Code)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProductView(product))
}

func (h *handlers) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, toCartView(h.deps.Cart.Snapshot()))
}

// addItem resolves the scanned code and merges it into the cart.
func (h *handlers) addItem(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	product, err := h.deps.Resolver.Resolve(c.Request.Context(), req.Code)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	cart, err := h.deps.Cart.Add(product, req.Quantity)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toCartView(cart))
}

func (h *handlers) incrementItem(c *gin.Context) {
	h.mutateCart(c, h.deps.Cart.Increment)
}

func (h *handlers) decrementItem(c *gin.Context) {
	h.mutateCart(c, h.deps.Cart.Decrement)
}

func (h *handlers) removeItem(c *gin.Context) {
	h.mutateCart(c, h.deps.Cart.Remove)
}

func (h *handlers) mutateCart(c *gin.Context, fn func(productID string) (domain.Cart, error)) {
	cart, err := fn(c.Param("productId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCartView(cart))
}

type failureView struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

type checkoutView struct {
	State       fulfillment.State `json:"state"`
	Bill        *billView         `json:"bill,omitempty"`
	CartVersion uint64            `json:"cartVersion,omitempty"`
	Submitting  bool              `json:"submitting"`
	Message     string            `json:"message,omitempty"`
	Failure     *failureView      `json:"failure,omitempty"`
	Payment     *domain.Outcome   `json:"payment,omitempty"`
}

func toCheckoutView(s fulfillment.Status) checkoutView {
	v := checkoutView{
		State:       s.State,
		CartVersion: s.CartVersion,
		Submitting:  s.Submitting,
		Message:     s.Message,
		Payment:     s.Payment,
	}
	if s.Bill != nil {
		bill := toBillView(*s.Bill)
		v.Bill = &bill
	}
	if s.Failure != nil {
		v.Failure = &failureView{Kind: s.Failure.Kind, Reason: s.Failure.Reason}
	}
	return v
}

func (h *handlers) checkoutState(c *gin.Context) {
	c.JSON(http.StatusOK, toCheckoutView(h.deps.Checkout.State()))
}

func (h *handlers) submitBill(c *gin.Context) {
	status, err := h.deps.Checkout.Submit(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toCheckoutView(status))
}

type posRequest struct {
	BillID string `json:"billId" binding:"required"`
}

func (h *handlers) sendToPOS(c *gin.Context) {
	var req posRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "billId is required")
		return
	}
	status, err := h.deps.Checkout.SendToPOS(c.Request.Context(), req.BillID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCheckoutView(status))
}

type payRequest struct {
	BillID        string `json:"billId" binding:"required"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	PaymentMethod string `json:"paymentMethod"`
}

// payOnline leaves payer validation to the payment processor so the
// failure is recorded on the checkout.
func (h *handlers) payOnline(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "billId is required")
		return
	}
	payer := domain.Payer{Name: req.Name, Email: req.Email}
	status, err := h.deps.Checkout.PayOnline(c.Request.Context(), req.BillID, payer, payment.PaymentMethod(req.PaymentMethod))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCheckoutView(status))
}

func (h *handlers) resetCheckout(c *gin.Context) {
	if err := h.deps.Checkout.Reset(); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCheckoutView(h.deps.Checkout.State()))
}

func (h *handlers) pendingBills(c *gin.Context) {
	bills, err := h.deps.POSAdmin.Pending(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bills": toBillViews(bills)})
}

func (h *handlers) markPaid(c *gin.Context) {
	if err := h.deps.POSAdmin.MarkPaid(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *handlers) printBill(c *gin.Context) {
	billID := c.Param("billId")
	doc, err := h.deps.POSAdmin.Print(c.Request.Context(), billID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", "bill-"+billID+".pdf"))
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (h *handlers) billHistory(c *gin.Context) {
	from, err := parseDay(c.Query("from"), false)
	if err != nil {
		badRequest(c, "from must be YYYY-MM-DD or RFC3339")
		return
	}
	to, err := parseDay(c.Query("to"), true)
	if err != nil {
		badRequest(c, "to must be YYYY-MM-DD or RFC3339")
		return
	}
	bills, err := h.deps.POSAdmin.History(c.Request.Context(), posadmin.HistoryFilter{
		BillID: c.Query("billId"),
		From:   from,
		To:     to,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bills": toBillViews(bills)})
}

// parseDay accepts a calendar day or a timestamp. A day used as the end
// of a range covers the whole day.
func parseDay(v string, endOfDay bool) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	day, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Nanosecond), nil
	}
	return day, nil
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
}
