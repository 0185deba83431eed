// Package handler holds the pieces shared by the per-resource HTTP handlers.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

// CRUDService is what a Resource needs from an entity service.
type CRUDService[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, rec *T) (*T, error)
	Update(ctx context.Context, id int64, patch []byte) (*T, error)
	Delete(ctx context.Context, id int64) (*T, error)
}

// Resource serves the five standard routes for one collection. Handlers
// embed it and replace the routes they need to change.
type Resource[T any] struct {
	svc CRUDService[T]
}

func NewResource[T any](svc CRUDService[T]) Resource[T] {
	return Resource[T]{svc: svc}
}

// Mount registers list, create, get, update and delete under g. A nil list
// handler means the plain listing.
func (r Resource[T]) Mount(g *gin.RouterGroup, list gin.HandlerFunc) {
	if list == nil {
		list = r.List
	}
	g.GET("", list)
	g.POST("", r.Create)
	g.GET("/:id", r.Get)
	g.PUT("/:id", r.Update)
	g.PATCH("/:id", r.Update)
	g.DELETE("/:id", r.Delete)
}

func (r Resource[T]) List(c *gin.Context) {
	items, err := r.svc.List(c.Request.Context())
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, items)
}

func (r Resource[T]) Get(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	item, err := r.svc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, item)
}

func (r Resource[T]) Create(c *gin.Context) {
	var rec T
	if err := c.ShouldBindJSON(&rec); err != nil {
		httputil.BindError(c, err)
		return
	}
	created, err := r.svc.Create(c.Request.Context(), &rec)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.Created(c, created)
}

// Update treats the body as a merge patch: only the keys sent change.
func (r Resource[T]) Update(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	patch, err := c.GetRawData()
	if err != nil || !json.Valid(patch) {
		c.AbortWithStatusJSON(http.StatusBadRequest, httputil.NewErrorResponse("request body must be a JSON object"))
		return
	}
	updated, err := r.svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, updated)
}

func (r Resource[T]) Delete(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	removed, err := r.svc.Delete(c.Request.Context(), id)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, removed)
}

// PatientFilter answers ?patientId= listings through byPatient and falls
// back to the full list without it.
func PatientFilter[T any](r Resource[T], byPatient func(ctx context.Context, patientID int64) ([]T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("patientId") == "" {
			r.List(c)
			return
		}
		id, ok := httputil.QueryID(c, "patientId")
		if !ok {
			return
		}
		items, err := byPatient(c.Request.Context(), id)
		if err != nil {
			httputil.Error(c, err)
			return
		}
		httputil.OK(c, items)
	}
}
