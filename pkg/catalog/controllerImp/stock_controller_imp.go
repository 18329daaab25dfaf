package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"farmportal/pkg/apperr"
	"farmportal/pkg/catalog/service"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
)

type StockCtrl struct {
	svc      service.StockService
	pageSize int
}

func NewStock(svc service.StockService, pageSize int) *StockCtrl {
	return &StockCtrl{svc: svc, pageSize: pageSize}
}

// owner resolves whose stock a request is about. Farm presidents always
// work on their own; supervisors and admins name the owner.
func owner(c echo.Context, requested uint) (uint, error) {
	me := session.Must(c)
	if !me.Oversees() {
		return me.UserID, nil
	}
	if requested == 0 {
		return 0, apperr.Invalid("owner_id is required")
	}
	return requested, nil
}

func (h *StockCtrl) List(c echo.Context) error {
	var requested uint
	if v := c.QueryParam("owner_id"); v != "" {
		id, err := parseUint(v)
		if err != nil {
			return apperr.Respond(c, err)
		}
		requested = id
	}
	me := session.Must(c)
	if me.Oversees() && requested == 0 {
		all, err := h.svc.All(c.Request().Context(), c.QueryParam("kind"))
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(http.StatusOK, paging.Slice(all, paging.FromQuery(c, h.pageSize)))
	}
	ownerID, err := owner(c, requested)
	if err != nil {
		return apperr.Respond(c, err)
	}
	pg, err := h.svc.List(c.Request().Context(), ownerID, c.QueryParam("kind"), paging.FromQuery(c, h.pageSize))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pg)
}

type stockReq struct {
	Kind     string   `json:"kind"`
	ItemID   uint     `json:"item_id"`
	OwnerID  uint     `json:"owner_id"`
	Quantity *float64 `json:"quantity"`
	Delta    *float64 `json:"delta"`
}

// Set overwrites the quantity on hand, e.g. after a physical count.
func (h *StockCtrl) Set(c echo.Context) error {
	var req stockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	if req.Quantity == nil {
		return apperr.Respond(c, apperr.Invalid("quantity is required"))
	}
	ownerID, err := owner(c, req.OwnerID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	s, err := h.svc.Set(c.Request().Context(), req.Kind, req.ItemID, ownerID, *req.Quantity)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *StockCtrl) Adjust(c echo.Context) error {
	var req stockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	if req.Delta == nil {
		return apperr.Respond(c, apperr.Invalid("delta is required"))
	}
	ownerID, err := owner(c, req.OwnerID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	s, err := h.svc.Adjust(c.Request().Context(), req.Kind, req.ItemID, ownerID, *req.Delta)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
