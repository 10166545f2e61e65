package handlers

import (
	"strconv"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/models"
	"pizza-franchise-api/services"

	"github.com/gin-gonic/gin"
)

// TokenIssuer signs a fresh token after a user changed their own record.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// Handler serves the HTTP API on top of the services.
type Handler struct {
	sessions  *services.Sessions
	directory *services.Directory
	hierarchy *services.Hierarchy
	orders    *services.Orders
	tokens    TokenIssuer
}

func New(sessions *services.Sessions, directory *services.Directory, hierarchy *services.Hierarchy, orders *services.Orders, tokens TokenIssuer) *Handler {
	return &Handler{
		sessions:  sessions,
		directory: directory,
		hierarchy: hierarchy,
		orders:    orders,
		tokens:    tokens,
	}
}

func idParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperr.New(apperr.KindMalformed, "%s must be a positive integer", name)
	}
	return uint(v), nil
}

type pageQuery struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	Name  string `form:"name"`
}

func bindPage(c *gin.Context) (pageQuery, error) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return q, apperr.New(apperr.KindMalformed, "page and limit must be integers")
	}
	return q, nil
}

func bindJSON(c *gin.Context, dst any, detail string) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Wrap(apperr.KindMalformed, err, "%s", detail)
	}
	return nil
}
