package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"readhub/pkg/domain"
)

// genericErrMsg is substituted when an error response carries no detail field.
const genericErrMsg = "request failed"

// LoginRequest is the payload for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the payload for registering a new user.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateBookRequest is the payload for adding a book to the catalog.
// ImageURL may carry a base64 data URL for a locally picked cover.
type CreateBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// CreateLoanRequest is the payload for reserving a book. Dates are ISO
// YYYY-MM-DD strings.
type CreateLoanRequest struct {
	UserID             int    `json:"user_id"`
	BookID             int    `json:"book_id"`
	LoanDate           string `json:"loan_date"`
	ExpectedReturnDate string `json:"expected_return_date"`
}

// ChangePasswordRequest is the payload for updating a user's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// CreateTicketRequest is the payload for submitting a support ticket.
type CreateTicketRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Client is the ReadHub API client. The logged-in user's id travels in
// query parameters or bodies; there is no bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

// New creates a new API client. A nil logger discards request logs.
func New(baseURL string, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Client{
		baseURL: baseURL,
		log:     log,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Login authenticates by email and password and returns the user record.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var u domain.User
	if err := c.post(ctx, "/users/login", LoginRequest{Email: email, Password: password}, &u); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &u, nil
}

// Signup registers a new user.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*domain.User, error) {
	var u domain.User
	if err := c.post(ctx, "/users", req, &u); err != nil {
		return nil, fmt.Errorf("client.Signup: %w", err)
	}
	return &u, nil
}

// GetUser fetches a single user by id, used to refresh the cached profile.
func (c *Client) GetUser(ctx context.Context, id int) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/users/"+strconv.Itoa(id), &u); err != nil {
		return nil, fmt.Errorf("client.GetUser: %w", err)
	}
	return &u, nil
}

// ChangePassword updates a user's password. The server verifies the current
// password and the new/confirm match.
func (c *Client) ChangePassword(ctx context.Context, userID int, req ChangePasswordRequest) error {
	if err := c.doRequest(ctx, http.MethodPut, "/users/"+strconv.Itoa(userID)+"/password", req, nil); err != nil {
		return fmt.Errorf("client.ChangePassword: %w", err)
	}
	return nil
}

// --- Books ---

// ListBooks fetches the catalog with an optional server-side substring filter.
func (c *Client) ListBooks(ctx context.Context, search string) ([]domain.Book, error) {
	path := "/books"
	if search != "" {
		params := url.Values{}
		params.Set("search", search)
		path += "?" + params.Encode()
	}
	var books []domain.Book
	if err := c.get(ctx, path, &books); err != nil {
		return nil, fmt.Errorf("client.ListBooks: %w", err)
	}
	return books, nil
}

// GetBook fetches a single book by id. A missing book surfaces as an
// HTTPError with status 404.
func (c *Client) GetBook(ctx context.Context, id int) (*domain.Book, error) {
	var book domain.Book
	if err := c.get(ctx, "/books/"+strconv.Itoa(id), &book); err != nil {
		return nil, fmt.Errorf("client.GetBook: %w", err)
	}
	return &book, nil
}

// CreateBook adds a book to the catalog.
func (c *Client) CreateBook(ctx context.Context, req CreateBookRequest) (*domain.Book, error) {
	var created domain.Book
	if err := c.post(ctx, "/books", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateBook: %w", err)
	}
	return &created, nil
}

// DeleteBook removes a book from the catalog.
func (c *Client) DeleteBook(ctx context.Context, id int) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/books/"+strconv.Itoa(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteBook: %w", err)
	}
	return nil
}

// --- Favorites ---

// ListFavorites returns a user's favorites with the embedded book records.
func (c *Client) ListFavorites(ctx context.Context, userID int) ([]domain.Favorite, error) {
	params := url.Values{}
	params.Set("user_id", strconv.Itoa(userID))
	var favs []domain.Favorite
	if err := c.get(ctx, "/favorites?"+params.Encode(), &favs); err != nil {
		return nil, fmt.Errorf("client.ListFavorites: %w", err)
	}
	return favs, nil
}

// AddFavorite bookmarks a book for a user.
func (c *Client) AddFavorite(ctx context.Context, userID, bookID int) error {
	params := url.Values{}
	params.Set("user_id", strconv.Itoa(userID))
	body := map[string]int{"book_id": bookID}
	if err := c.post(ctx, "/favorites?"+params.Encode(), body, nil); err != nil {
		return fmt.Errorf("client.AddFavorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes a bookmark, keyed by book id + user id.
func (c *Client) RemoveFavorite(ctx context.Context, bookID, userID int) error {
	params := url.Values{}
	params.Set("user_id", strconv.Itoa(userID))
	if err := c.doRequest(ctx, http.MethodDelete, "/favorites/"+strconv.Itoa(bookID)+"?"+params.Encode(), nil, nil); err != nil {
		return fmt.Errorf("client.RemoveFavorite: %w", err)
	}
	return nil
}

// --- Loans ---

// ListLoans fetches loans for a user. A zero userID omits the filter and
// returns every loan, which the overdue report relies on.
func (c *Client) ListLoans(ctx context.Context, userID int) ([]domain.Loan, error) {
	path := "/loans"
	if userID != 0 {
		params := url.Values{}
		params.Set("user_id", strconv.Itoa(userID))
		path += "?" + params.Encode()
	}
	var loans []domain.Loan
	if err := c.get(ctx, path, &loans); err != nil {
		return nil, fmt.Errorf("client.ListLoans: %w", err)
	}
	return loans, nil
}

// CreateLoan reserves a book for a user.
func (c *Client) CreateLoan(ctx context.Context, req CreateLoanRequest) (*domain.Loan, error) {
	var created domain.Loan
	if err := c.post(ctx, "/loans", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateLoan: %w", err)
	}
	return &created, nil
}

// ReturnLoan marks a loan as returned on the given ISO date.
func (c *Client) ReturnLoan(ctx context.Context, loanID int, realReturnDate string) error {
	body := map[string]string{"real_return_date": realReturnDate}
	if err := c.doRequest(ctx, http.MethodPut, "/loans/"+strconv.Itoa(loanID)+"/return", body, nil); err != nil {
		return fmt.Errorf("client.ReturnLoan: %w", err)
	}
	return nil
}

// --- Support ---

// ListSupport returns all support tickets.
func (c *Client) ListSupport(ctx context.Context) ([]domain.SupportTicket, error) {
	var tickets []domain.SupportTicket
	if err := c.get(ctx, "/support", &tickets); err != nil {
		return nil, fmt.Errorf("client.ListSupport: %w", err)
	}
	return tickets, nil
}

// CreateSupport submits a new support ticket.
func (c *Client) CreateSupport(ctx context.Context, req CreateTicketRequest) (*domain.SupportTicket, error) {
	var created domain.SupportTicket
	if err := c.post(ctx, "/support", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateSupport: %w", err)
	}
	return &created, nil
}

// ResolveSupport transitions a ticket to the resolved status.
func (c *Client) ResolveSupport(ctx context.Context, id int) error {
	body := map[string]string{"status": domain.TicketResolved}
	if err := c.doRequest(ctx, http.MethodPatch, "/support/"+strconv.Itoa(id), body, nil); err != nil {
		return fmt.Errorf("client.ResolveSupport: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     method,
			"path":       path,
		}).WithError(err).Error("api request failed")
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	c.log.WithFields(logrus.Fields{
		"request_id": reqID,
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"duration":   time.Since(start).String(),
	}).Debug("api request")

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: genericErrMsg}
		}
		var apiErr struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Detail != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Detail}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: genericErrMsg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &DecodeError{Err: err}
		}
	}
	return nil
}
