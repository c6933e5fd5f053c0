package main

import (
	"context"
)

// RemoteStore is the capability set of the content management backend used by
// the publisher and the admin commands. ContentfulClient implements it over HTTP.
type RemoteStore interface {
	GetSpace(ctx context.Context) (*Space, error)
	ListContentTypes(ctx context.Context) ([]ContentType, error)

	ListEntries(ctx context.Context, contentTypeID string) ([]Entry, error)
	CreateEntry(ctx context.Context, contentTypeID string, fields map[string]any) (*Entry, error)
	PublishEntry(ctx context.Context, entry *Entry) (*Entry, error)
	UnpublishEntry(ctx context.Context, entry *Entry) (*Entry, error)
	DeleteEntry(ctx context.Context, entry *Entry) error

	CreateUpload(ctx context.Context, data []byte) (*Upload, error)
	CreateAsset(ctx context.Context, asset NewAsset) (*Asset, error)
	ProcessAsset(ctx context.Context, asset *Asset) error
	GetAsset(ctx context.Context, id string) (*Asset, error)
	PublishAsset(ctx context.Context, asset *Asset) (*Asset, error)
	ListAssets(ctx context.Context) ([]Asset, error)
	UnpublishAsset(ctx context.Context, asset *Asset) (*Asset, error)
	DeleteAsset(ctx context.Context, asset *Asset) error
}

// Sys is the system metadata block carried by every CMA resource
type Sys struct {
	ID               string `json:"id"`
	Type             string `json:"type,omitempty"`
	LinkType         string `json:"linkType,omitempty"`
	Version          int    `json:"version,omitempty"`
	PublishedVersion int    `json:"publishedVersion,omitempty"`
	ContentType      *Link  `json:"contentType,omitempty"`
}

// Link is a typed reference to another resource
type Link struct {
	Sys LinkSys `json:"sys"`
}

// LinkSys is the body of a Link
type LinkSys struct {
	Type     string `json:"type"`
	LinkType string `json:"linkType"`
	ID       string `json:"id"`
}

// AssetLink builds the link stored on a mural entry for an asset
func AssetLink(id string) Link {
	return Link{Sys: LinkSys{Type: "Link", LinkType: "Asset", ID: id}}
}

// Space describes the target space
type Space struct {
	Name string `json:"name"`
	Sys  Sys    `json:"sys"`
}

// ContentType is a content model schema
type ContentType struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
	Sys    Sys     `json:"sys"`
}

// Field is a single field of a content type
type Field struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Entry is a content entry. Fields are keyed by field id, then locale.
type Entry struct {
	Fields map[string]map[string]any `json:"fields"`
	Sys    Sys                       `json:"sys"`
}

// IsPublished reports whether the entry has a published version
func (e *Entry) IsPublished() bool {
	return e.Sys.PublishedVersion > 0
}

// FieldString returns a string field value for the locale, or "" when absent
func (e *Entry) FieldString(field, locale string) string {
	values, ok := e.Fields[field]
	if !ok {
		return ""
	}
	if s, ok := values[locale].(string); ok {
		return s
	}
	return ""
}

// Upload is a raw file staged for asset creation
type Upload struct {
	Sys Sys `json:"sys"`
}

// NewAsset describes an asset to create from an upload
type NewAsset struct {
	Title       string
	Description string
	FileName    string
	ContentType string
	UploadID    string
}

// Asset is a media asset
type Asset struct {
	Fields AssetFields `json:"fields"`
	Sys    Sys         `json:"sys"`
}

// AssetFields holds localized asset fields
type AssetFields struct {
	Title       map[string]string    `json:"title,omitempty"`
	Description map[string]string    `json:"description,omitempty"`
	File        map[string]AssetFile `json:"file,omitempty"`
}

// AssetFile is the file block of an asset; URL is set once processing finished
type AssetFile struct {
	ContentType string `json:"contentType,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	URL         string `json:"url,omitempty"`
	UploadFrom  *Link  `json:"uploadFrom,omitempty"`
}

// IsPublished reports whether the asset has a published version
func (a *Asset) IsPublished() bool {
	return a.Sys.PublishedVersion > 0
}

// Processed reports whether the file for locale has been processed
func (a *Asset) Processed(locale string) bool {
	file, ok := a.Fields.File[locale]
	return ok && file.URL != ""
}
