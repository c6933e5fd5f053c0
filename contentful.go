package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultAPIURL    = "https://api.contentful.com"
	defaultUploadURL = "https://upload.contentful.com"
	cmaMediaType     = "application/vnd.contentful.management.v1+json"
	defaultPageSize  = 100
)

// ContentfulConfig holds configuration for creating a ContentfulClient
type ContentfulConfig struct {
	APIURL      string // defaults to https://api.contentful.com
	UploadURL   string // defaults to https://upload.contentful.com
	Token       string
	SpaceID     string
	Environment string // defaults to "master"
	Locale      string // defaults to "en-US"
	PageSize    int
	// HTTPClient supplies the base transport; the bearer token is always added on top.
	HTTPClient *http.Client
}

// ContentfulClient talks to the Content Management API of one space environment
type ContentfulClient struct {
	apiURL      string
	uploadURL   string
	spaceID     string
	environment string
	locale      string
	pageSize    int
	httpClient  *http.Client
}

// NewContentfulClient creates a client authenticated with a management token
func NewContentfulClient(config ContentfulConfig) (*ContentfulClient, error) {
	if config.Token == "" {
		return nil, &ConfigError{Key: envManagementToken, Err: fmt.Errorf("management token is required")}
	}
	if config.SpaceID == "" {
		return nil, &ConfigError{Key: envSpaceID, Err: fmt.Errorf("space id is required")}
	}

	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	uploadURL := config.UploadURL
	if uploadURL == "" {
		uploadURL = defaultUploadURL
	}
	for _, raw := range []string{apiURL, uploadURL} {
		if _, err := url.Parse(raw); err != nil {
			return nil, &ConfigError{Key: "api_url", Err: fmt.Errorf("invalid URL %q: %w", raw, err)}
		}
	}

	environment := config.Environment
	if environment == "" {
		environment = "master"
	}
	locale := config.Locale
	if locale == "" {
		locale = "en-US"
	}
	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var base http.RoundTripper
	timeout := 60 * time.Second
	if config.HTTPClient != nil {
		base = config.HTTPClient.Transport
		if config.HTTPClient.Timeout > 0 {
			timeout = config.HTTPClient.Timeout
		}
	}
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token}),
			Base:   base,
		},
	}

	return &ContentfulClient{
		apiURL:      strings.TrimRight(apiURL, "/"),
		uploadURL:   strings.TrimRight(uploadURL, "/"),
		spaceID:     config.SpaceID,
		environment: environment,
		locale:      locale,
		pageSize:    pageSize,
		httpClient:  httpClient,
	}, nil
}

// APIURL returns the management API base URL
func (c *ContentfulClient) APIURL() string {
	return c.apiURL
}

// Locale returns the locale used for asset files
func (c *ContentfulClient) Locale() string {
	return c.locale
}

func (c *ContentfulClient) envPath(parts ...string) string {
	p := "/spaces/" + url.PathEscape(c.spaceID) + "/environments/" + url.PathEscape(c.environment)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// GetSpace fetches the configured space
func (c *ContentfulClient) GetSpace(ctx context.Context) (*Space, error) {
	var space Space
	if err := c.do(ctx, http.MethodGet, c.apiURL, "/spaces/"+url.PathEscape(c.spaceID), nil, nil, &space); err != nil {
		return nil, fmt.Errorf("getting space %s: %w", c.spaceID, err)
	}
	return &space, nil
}

// ListContentTypes returns every content type of the environment
func (c *ContentfulClient) ListContentTypes(ctx context.Context) ([]ContentType, error) {
	types, err := listAll[ContentType](ctx, c, c.envPath("content_types"), nil)
	if err != nil {
		return nil, fmt.Errorf("listing content types: %w", err)
	}
	return types, nil
}

// ListEntries returns every entry of a content type; an empty id lists all entries
func (c *ContentfulClient) ListEntries(ctx context.Context, contentTypeID string) ([]Entry, error) {
	query := url.Values{}
	if contentTypeID != "" {
		query.Set("content_type", contentTypeID)
	}
	entries, err := listAll[Entry](ctx, c, c.envPath("entries"), query)
	if err != nil {
		return nil, fmt.Errorf("listing entries of %q: %w", contentTypeID, err)
	}
	return entries, nil
}

// CreateEntry creates a draft entry. fields are keyed by field id, then locale.
func (c *ContentfulClient) CreateEntry(ctx context.Context, contentTypeID string, fields map[string]any) (*Entry, error) {
	headers := map[string]string{"X-Contentful-Content-Type": contentTypeID}
	body := map[string]any{"fields": fields}

	var entry Entry
	if err := c.do(ctx, http.MethodPost, c.apiURL, c.envPath("entries"), headers, body, &entry); err != nil {
		return nil, fmt.Errorf("creating %s entry: %w", contentTypeID, err)
	}
	return &entry, nil
}

// PublishEntry publishes the given version of an entry
func (c *ContentfulClient) PublishEntry(ctx context.Context, entry *Entry) (*Entry, error) {
	var published Entry
	if err := c.do(ctx, http.MethodPut, c.apiURL, c.envPath("entries", entry.Sys.ID, "published"), versionHeader(entry.Sys.Version), nil, &published); err != nil {
		return nil, fmt.Errorf("publishing entry %s: %w", entry.Sys.ID, err)
	}
	return &published, nil
}

// UnpublishEntry moves a published entry back to draft
func (c *ContentfulClient) UnpublishEntry(ctx context.Context, entry *Entry) (*Entry, error) {
	var draft Entry
	if err := c.do(ctx, http.MethodDelete, c.apiURL, c.envPath("entries", entry.Sys.ID, "published"), versionHeader(entry.Sys.Version), nil, &draft); err != nil {
		return nil, fmt.Errorf("unpublishing entry %s: %w", entry.Sys.ID, err)
	}
	return &draft, nil
}

// DeleteEntry deletes an unpublished entry
func (c *ContentfulClient) DeleteEntry(ctx context.Context, entry *Entry) error {
	if err := c.do(ctx, http.MethodDelete, c.apiURL, c.envPath("entries", entry.Sys.ID), versionHeader(entry.Sys.Version), nil, nil); err != nil {
		return fmt.Errorf("deleting entry %s: %w", entry.Sys.ID, err)
	}
	return nil
}

// CreateUpload stages raw file bytes on the upload API
func (c *ContentfulClient) CreateUpload(ctx context.Context, data []byte) (*Upload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL+c.envPath("uploads"), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	var upload Upload
	if err := c.send(req, &upload); err != nil {
		return nil, fmt.Errorf("creating upload: %w", err)
	}
	return &upload, nil
}

// CreateAsset creates a draft asset whose file comes from an upload
func (c *ContentfulClient) CreateAsset(ctx context.Context, asset NewAsset) (*Asset, error) {
	uploadLink := Link{Sys: LinkSys{Type: "Link", LinkType: "Upload", ID: asset.UploadID}}
	fields := AssetFields{
		Title: map[string]string{c.locale: asset.Title},
		File: map[string]AssetFile{c.locale: {
			ContentType: asset.ContentType,
			FileName:    asset.FileName,
			UploadFrom:  &uploadLink,
		}},
	}
	if asset.Description != "" {
		fields.Description = map[string]string{c.locale: asset.Description}
	}

	var created Asset
	if err := c.do(ctx, http.MethodPost, c.apiURL, c.envPath("assets"), nil, map[string]any{"fields": fields}, &created); err != nil {
		return nil, fmt.Errorf("creating asset %s: %w", asset.FileName, err)
	}
	return &created, nil
}

// ProcessAsset asks the API to process the asset file for the client locale.
// Processing is asynchronous; poll GetAsset until Processed reports true.
func (c *ContentfulClient) ProcessAsset(ctx context.Context, asset *Asset) error {
	path := c.envPath("assets", asset.Sys.ID, "files", c.locale, "process")
	if err := c.do(ctx, http.MethodPut, c.apiURL, path, versionHeader(asset.Sys.Version), nil, nil); err != nil {
		return fmt.Errorf("processing asset %s: %w", asset.Sys.ID, err)
	}
	return nil
}

// GetAsset fetches an asset by id
func (c *ContentfulClient) GetAsset(ctx context.Context, id string) (*Asset, error) {
	var asset Asset
	if err := c.do(ctx, http.MethodGet, c.apiURL, c.envPath("assets", id), nil, nil, &asset); err != nil {
		return nil, fmt.Errorf("getting asset %s: %w", id, err)
	}
	return &asset, nil
}

// PublishAsset publishes the given version of an asset
func (c *ContentfulClient) PublishAsset(ctx context.Context, asset *Asset) (*Asset, error) {
	var published Asset
	if err := c.do(ctx, http.MethodPut, c.apiURL, c.envPath("assets", asset.Sys.ID, "published"), versionHeader(asset.Sys.Version), nil, &published); err != nil {
		return nil, fmt.Errorf("publishing asset %s: %w", asset.Sys.ID, err)
	}
	return &published, nil
}

// ListAssets returns every asset of the environment
func (c *ContentfulClient) ListAssets(ctx context.Context) ([]Asset, error) {
	assets, err := listAll[Asset](ctx, c, c.envPath("assets"), nil)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	return assets, nil
}

// UnpublishAsset moves a published asset back to draft
func (c *ContentfulClient) UnpublishAsset(ctx context.Context, asset *Asset) (*Asset, error) {
	var draft Asset
	if err := c.do(ctx, http.MethodDelete, c.apiURL, c.envPath("assets", asset.Sys.ID, "published"), versionHeader(asset.Sys.Version), nil, &draft); err != nil {
		return nil, fmt.Errorf("unpublishing asset %s: %w", asset.Sys.ID, err)
	}
	return &draft, nil
}

// DeleteAsset deletes an unpublished asset
func (c *ContentfulClient) DeleteAsset(ctx context.Context, asset *Asset) error {
	if err := c.do(ctx, http.MethodDelete, c.apiURL, c.envPath("assets", asset.Sys.ID), versionHeader(asset.Sys.Version), nil, nil); err != nil {
		return fmt.Errorf("deleting asset %s: %w", asset.Sys.ID, err)
	}
	return nil
}

type collection[T any] struct {
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Items []T `json:"items"`
}

// listAll follows skip/limit pagination until every item has been read
func listAll[T any](ctx context.Context, c *ContentfulClient, path string, query url.Values) ([]T, error) {
	var all []T
	skip := 0
	for {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("skip", strconv.Itoa(skip))
		q.Set("limit", strconv.Itoa(c.pageSize))

		var page collection[T]
		if err := c.do(ctx, http.MethodGet, c.apiURL, path+"?"+q.Encode(), nil, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		skip += len(page.Items)

		if len(page.Items) == 0 || skip >= page.Total {
			return all, nil
		}
	}
}

func versionHeader(version int) map[string]string {
	return map[string]string{"X-Contentful-Version": strconv.Itoa(version)}
}

func (c *ContentfulClient) do(ctx context.Context, method, base, path string, headers map[string]string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", cmaMediaType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.send(req, out)
}

func (c *ContentfulClient) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, URL: req.URL.Path}
		var payload struct {
			Sys       Sys    `json:"sys"`
			Message   string `json:"message"`
			RequestID string `json:"requestId"`
		}
		if json.Unmarshal(data, &payload) == nil {
			apiErr.ID = payload.Sys.ID
			apiErr.Message = payload.Message
			apiErr.RequestID = payload.RequestID
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response from %s: %w", req.URL.Path, err)
	}
	return nil
}
