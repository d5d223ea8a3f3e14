package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/middleware"
	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/utils"
)

const jsonContentType = "application/json; charset=utf-8"

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

// paginated is a utils.Page as a map so handlers can add keys next to it.
func paginated(items interface{}, page, pageSize int, total int64) gin.H {
	p := utils.NewPage(items, page, pageSize, total)
	return gin.H{"items": p.Items, "pagination": p.Pagination}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeContains builds a LIKE pattern matching term literally anywhere in
// the column. Backslash is the default LIKE escape in MySQL and Postgres.
func likeContains(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func getUserID(ctx *gin.Context) (uint, bool) {
	return middleware.UserID(ctx)
}

func isAdmin(ctx *gin.Context) bool {
	return middleware.IsAdmin(ctx)
}

// paramID parses a numeric path parameter.
func paramID(ctx *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// loadFailed answers 404 for a missing row and 500 for anything else.
func loadFailed(ctx *gin.Context, err error, notFoundCode, failCode int, what string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, notFoundCode, what+" not found")
		return
	}
	logError(ctx, "load "+what, err)
	utils.Error(ctx, http.StatusInternalServerError, failCode, "failed to load "+what)
}

func logError(ctx *gin.Context, msg string, err error) {
	if utils.Logger == nil {
		return
	}
	utils.Logger.Error(msg,
		zap.Error(err),
		zap.String("path", ctx.Request.URL.Path),
		zap.String("request_id", ctx.GetString(utils.RequestIDKey)),
	)
}

// threadNode is one comment in a rendered discussion tree. ReplyCount is
// the number of replies below the node at any depth.
type threadNode struct {
	Item       interface{}   `json:"item"`
	ReplyCount int           `json:"reply_count"`
	Replies    []*threadNode `json:"replies"`
}

// buildThread arranges a flat comment list into trees under its roots.
func buildThread[T models.Node](items []T) ([]*threadNode, error) {
	ix := models.IndexOf(items)
	counts, err := ix.Counts()
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]T, len(items))
	for _, it := range items {
		byID[it.NodeID()] = it
	}
	var build func(id uint) *threadNode
	build = func(id uint) *threadNode {
		n := &threadNode{Item: byID[id], ReplyCount: counts[id], Replies: []*threadNode{}}
		for _, c := range ix.Children(id) {
			n.Replies = append(n.Replies, build(c))
		}
		return n
	}
	roots := make([]*threadNode, 0, len(ix.Roots()))
	for _, id := range ix.Roots() {
		roots = append(roots, build(id))
	}
	return roots, nil
}

// idParam returns the numeric path parameter, or 0 when it is malformed so
// the lookup simply finds nothing. Raw strings must never reach First as
// gorm treats non-numeric strings as SQL conditions.
func idParam(ctx *gin.Context, name string) uint {
	id, _ := paramID(ctx, name)
	return id
}
