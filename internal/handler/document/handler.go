package document

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/service/document"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

const formField = "file"

type Handler struct {
	service *document.Service
}

func NewHandler(service *document.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/patients/:id/documents", h.List)
	r.POST("/patients/:id/documents", h.Upload)

	documents := r.Group("/documents")
	{
		documents.POST("/validate", h.Validate)
		documents.GET("/:id", h.Get)
		documents.DELETE("/:id", h.Delete)
	}
}

// formFile reads the multipart "file" part. Nothing is written to disk.
func formFile(c *gin.Context) (*multipart.FileHeader, multipart.File, bool) {
	header, err := c.FormFile(formField)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, httputil.NewErrorResponse("multipart field \"file\" is required"))
		return nil, nil, false
	}
	f, err := header.Open()
	if err != nil {
		httputil.Error(c, err)
		return nil, nil, false
	}
	return header, f, true
}

func (h *Handler) Upload(c *gin.Context) {
	patientID, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	header, f, ok := formFile(c)
	if !ok {
		return
	}
	defer f.Close()

	doc, err := h.service.Attach(c.Request.Context(), patientID, document.File{
		Name:    header.Filename,
		Size:    header.Size,
		Content: f,
	}, c.PostForm("category"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.Created(c, doc)
}

// Validate checks a file without storing anything.
func (h *Handler) Validate(c *gin.Context) {
	header, f, ok := formFile(c)
	if !ok {
		return
	}
	defer f.Close()

	httputil.OK(c, document.Validate(document.File{Name: header.Filename, Size: header.Size, Content: f}))
}

func (h *Handler) List(c *gin.Context) {
	patientID, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	docs, err := h.service.ByPatient(c.Request.Context(), patientID)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, docs)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, doc)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	removed, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, removed)
}
