package document

import (
	"net/http"

	"pms/common"
	"pms/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const PathDocuments = "/v1/documents"

func RegisterDocumentsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathDocuments, middleWares...)

	g.POST("", handleUploadDocument)
	g.GET("", handleQueryDocuments)
	g.GET(":id/content", handleDownloadDocument)
	g.DELETE(":id", handleDeleteDocument)
}

func handleUploadDocument(c *gin.Context) {
	projectId, err := types.ParseID(c.Query("projectId"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	file, err := fileHeader.Open()
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	defer func() {
		_ = file.Close()
	}()

	record, err := UploadDocumentFunc(c.Request.Context(), projectId, fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"), fileHeader.Size, file, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleQueryDocuments(c *gin.Context) {
	query := DocumentQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	documents, err := QueryDocumentsFunc(&query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, documents)
}

func handleDownloadDocument(c *gin.Context) {
	id := parseDocumentId(c)
	record, reader, err := DownloadDocumentFunc(c.Request.Context(), id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = reader.Close()
	}()

	contentType := record.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+record.Name+`"`)
	c.DataFromReader(http.StatusOK, record.Size, contentType, reader, nil)
}

func handleDeleteDocument(c *gin.Context) {
	id := parseDocumentId(c)
	if err := DeleteDocumentFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func parseDocumentId(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	return id
}
