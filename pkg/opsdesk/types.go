package opsdesk

import "encoding/json"

// Envelope is the uniform wrapper of every backend reply.
type Envelope[T any] struct {
	Success bool   `json:"success"        yaml:"success"`
	Message string `json:"message"        yaml:"message"`
	Data    T      `json:"data,omitempty" yaml:"data,omitempty"`
}

// RawEnvelope is an envelope whose payload has not been decoded.
type RawEnvelope = Envelope[json.RawMessage]

// PageMeta describes the position of a page within a paginated list.
// Total is the authoritative record count; the length of Page.Data only
// reflects the current page.
type PageMeta struct {
	Total           int     `json:"total"           yaml:"total"`
	PerPage         int     `json:"perPage"         yaml:"perPage"`
	CurrentPage     *int    `json:"currentPage"     yaml:"currentPage"`
	LastPage        int     `json:"lastPage"        yaml:"lastPage"`
	FirstPage       int     `json:"firstPage"       yaml:"firstPage"`
	FirstPageURL    string  `json:"firstPageUrl"    yaml:"firstPageUrl"`
	LastPageURL     string  `json:"lastPageUrl"     yaml:"lastPageUrl"`
	NextPageURL     *string `json:"nextPageUrl"     yaml:"nextPageUrl"`
	PreviousPageURL *string `json:"previousPageUrl" yaml:"previousPageUrl"`
}

// HasNext reports whether a page follows this one.
func (m PageMeta) HasNext() bool {
	if m.NextPageURL != nil && *m.NextPageURL != "" {
		return true
	}

	return m.CurrentPage != nil && *m.CurrentPage < m.LastPage
}

// Page is one page of a paginated list.
type Page[T any] struct {
	Data []T      `json:"data" yaml:"data"`
	Meta PageMeta `json:"meta" yaml:"meta"`
}

// File is an upload carried by a multipart request body. Fields of this type
// (or *File, []File) are written as file parts; other fields become form values.
type File struct {
	Filename    string `json:"filename"               yaml:"filename"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Content     []byte `json:"content"                yaml:"-"`
}
