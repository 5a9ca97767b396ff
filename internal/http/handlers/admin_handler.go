// Admin HTTP handlers, mounted under /api/admin behind middleware.AdminToken.
//
//   - GET /api/admin/customers           paginated customer list
//   - GET /api/admin/customers/:contact  one customer's summary
//   - GET /api/admin/stats               aggregate counters
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/opc-agent/internal/domain"
	"github.com/tbourn/opc-agent/internal/services"
	"github.com/tbourn/opc-agent/internal/tools"
	"github.com/tbourn/opc-agent/internal/utils"
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListCustomersResponse wraps a page of customers.
type ListCustomersResponse struct {
	Customers  []domain.User `json:"customers"`
	Pagination Pagination    `json:"pagination"`
}

// ListCustomers godoc
// @ID          listCustomers
// @Summary     List customers (paginated)
// @Description Most recently active first.
// @Tags        Admin
// @Produce     json
// @Security    AdminToken
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListCustomersResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/customers [get]
func (h *Handlers) ListCustomers(c *gin.Context) {
	p := utils.ParsePage(c.Query("page"), c.Query("page_size"))
	items, total, err := h.customers.ListCustomers(c.Request.Context(), p.Number, p.Size)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := p.TotalPages(total)
	ok(c, http.StatusOK, ListCustomersResponse{
		Customers: items,
		Pagination: Pagination{
			Page:       p.Number,
			PageSize:   p.Size,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    p.Number < totalPages,
		},
	})
}

// GetCustomer godoc
// @ID          getCustomer
// @Summary     Customer summary
// @Description Profile, recommendations, payments and service record of one customer.
// @Description With format=text the same rendering the assistant uses is returned as plain text.
// @Tags        Admin
// @Produce     json
// @Produce     plain
// @Security    AdminToken
// @Param       contact  path   string  true   "Phone number or email"
// @Param       format   query  string  false  "json or text"  Enums(json, text)  default(json)
// @Success     200  {object}  services.CustomerSummary
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Customer not found"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/customers/{contact} [get]
func (h *Handlers) GetCustomer(c *gin.Context) {
	contact := c.Param("contact")
	sum, err := h.customers.GetCustomerSummary(c.Request.Context(), contact)
	switch {
	case errors.Is(err, services.ErrEmptyContact):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "contact required")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeLookupFailed, err.Error())
		return
	case sum == nil:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "customer not found")
		return
	}

	if strings.EqualFold(c.Query("format"), "text") {
		c.String(http.StatusOK, tools.FormatSummary(sum))
		return
	}
	ok(c, http.StatusOK, sum)
}

// Stats godoc
// @ID          getStats
// @Summary     Customer statistics
// @Tags        Admin
// @Produce     json
// @Security    AdminToken
// @Success     200  {object}  repo.CustomerStats
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/stats [get]
func (h *Handlers) Stats(c *gin.Context) {
	st, err := h.customers.Stats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeLookupFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}
