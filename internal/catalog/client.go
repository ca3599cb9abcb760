// Package catalog talks to the DummyJSON-compatible product API and maps its
// payloads into storefront products and users.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/flicky/go-storefront/internal/model"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// StatusError is returned for non-2xx responses that carry no better meaning.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog %s: unexpected status %d", e.Path, e.Code)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	pageLimit  int
}

func NewClient(baseURL string, timeout time.Duration, pageLimit int) *Client {
	if pageLimit <= 0 {
		pageLimit = 100
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		pageLimit:  pageLimit,
	}
}

type dummyProduct struct {
	ID                 int      `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Price              float64  `json:"price"`
	DiscountPercentage float64  `json:"discountPercentage"`
	Rating             float64  `json:"rating"`
	Stock              int      `json:"stock"`
	Brand              string   `json:"brand"`
	Category           string   `json:"category"`
	Thumbnail          string   `json:"thumbnail"`
	Images             []string `json:"images"`
}

type dummyProductsResponse struct {
	Products []dummyProduct `json:"products"`
	Total    int            `json:"total"`
	Skip     int            `json:"skip"`
	Limit    int            `json:"limit"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Image       string `json:"image"`
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (c *Client) Products(ctx context.Context) ([]model.Product, error) {
	var resp dummyProductsResponse
	path := "/products?limit=" + strconv.Itoa(c.pageLimit)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return mapProducts(resp.Products), nil
}

func (c *Client) Product(ctx context.Context, id string) (*model.Product, error) {
	var dp dummyProduct
	err := c.getJSON(ctx, "/products/"+url.PathEscape(id), &dp)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	p := mapProduct(dp)
	return &p, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]model.Product, error) {
	var resp dummyProductsResponse
	if err := c.getJSON(ctx, "/products/search?q="+url.QueryEscape(query), &resp); err != nil {
		return nil, err
	}
	return mapProducts(resp.Products), nil
}

// Categories checks the upstream category endpoint is reachable and returns
// the storefront's own category set, which every product is mapped into.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/products/categories", &raw); err != nil {
		return nil, err
	}
	return StandardCategories(), nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*model.User, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("encode login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&er) == nil && er.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, er.Message)
		}
		return nil, ErrInvalidCredentials
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("decode login: %w", err)
	}
	token := lr.Token
	if token == "" {
		token = lr.AccessToken
	}
	return &model.User{
		ID:        lr.ID,
		Username:  lr.Username,
		Email:     lr.Email,
		FirstName: lr.FirstName,
		LastName:  lr.LastName,
		Image:     lr.Image,
		Token:     token,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Path: path, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
