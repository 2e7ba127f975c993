package document

import "github.com/fundwit/go-commons/types"

// Document metadata row, the payload lives in object storage under ObjectKey.
type Document struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	ProjectID types.ID `json:"projectId"`

	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	ObjectKey   string `json:"-" gorm:"unique_index:uni_document_object_key"`

	UploadedBy types.ID        `json:"uploadedBy"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type DocumentQuery struct {
	ProjectID types.ID `form:"projectId"`
}
