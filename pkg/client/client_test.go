package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"readhub/pkg/domain"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/login" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Email != "ana@example.com" {
			t.Errorf("email = %q, want %q", req.Email, "ana@example.com")
		}
		json.NewEncoder(w).Encode(domain.User{ID: 7, Name: "Ana", Email: req.Email}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	u, err := c.Login(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if u.ID != 7 {
		t.Errorf("ID = %d, want 7", u.ID)
	}
	if u.Name != "Ana" {
		t.Errorf("Name = %q, want %q", u.Name, "Ana")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "invalid credentials"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Login(context.Background(), "ana@example.com", "wrong")
	if err == nil {
		t.Fatal("expected error for rejected login")
	}
	if !IsStatus(err, 401) {
		t.Errorf("IsStatus(err, 401) = false, want true")
	}
	if got := err.Error(); !strings.Contains(got, "invalid credentials") {
		t.Errorf("error = %q, want it to contain the server detail", got)
	}
}

func TestLogin_ErrorWithoutDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>oops</html>")) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Login(context.Background(), "ana@example.com", "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); !strings.Contains(got, genericErrMsg) {
		t.Errorf("error = %q, want the generic message for undecodable bodies", got)
	}
}

func TestListBooks_SearchParam(t *testing.T) {
	var gotSearch string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSearch = r.URL.Query().Get("search")
		json.NewEncoder(w).Encode([]domain.Book{{ID: 1, Title: "Dune"}}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	books, err := c.ListBooks(context.Background(), "dune")
	if err != nil {
		t.Fatalf("ListBooks() error: %v", err)
	}
	if gotSearch != "dune" {
		t.Errorf("search param = %q, want %q", gotSearch, "dune")
	}
	if len(books) != 1 || books[0].Title != "Dune" {
		t.Errorf("books = %+v, want a single Dune entry", books)
	}
}

func TestListBooks_NoSearchOmitsParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("query = %q, want empty", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode([]domain.Book{}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	if _, err := c.ListBooks(context.Background(), ""); err != nil {
		t.Fatalf("ListBooks() error: %v", err)
	}
}

func TestGetBook_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Book not found"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.GetBook(context.Background(), 99)
	if err == nil {
		t.Fatal("expected error for missing book")
	}
	if !IsStatus(err, 404) {
		t.Errorf("IsStatus(err, 404) = false, want true")
	}
}

func TestCreateLoan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loans" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req CreateLoanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.LoanDate != "2026-09-01" || req.ExpectedReturnDate != "2026-09-08" {
			t.Errorf("dates = %q/%q, want ISO strings unchanged", req.LoanDate, req.ExpectedReturnDate)
		}
		created := domain.Loan{ID: 12, UserID: req.UserID, BookID: req.BookID,
			LoanDate: req.LoanDate, ExpectedReturnDate: req.ExpectedReturnDate, Status: "Ativo"}
		json.NewEncoder(w).Encode(created) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	loan, err := c.CreateLoan(context.Background(), CreateLoanRequest{
		UserID: 7, BookID: 3, LoanDate: "2026-09-01", ExpectedReturnDate: "2026-09-08",
	})
	if err != nil {
		t.Fatalf("CreateLoan() error: %v", err)
	}
	if loan.ID != 12 {
		t.Errorf("ID = %d, want 12", loan.ID)
	}
}

func TestCreateLoanThenListLoans(t *testing.T) {
	var loans []domain.Loan
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/loans":
			var req CreateLoanRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			created := domain.Loan{ID: len(loans) + 1, UserID: req.UserID, BookID: req.BookID,
				LoanDate: req.LoanDate, ExpectedReturnDate: req.ExpectedReturnDate, Status: "Ativo"}
			loans = append(loans, created)
			json.NewEncoder(w).Encode(created) //nolint:errcheck
		case r.Method == http.MethodGet && r.URL.Path == "/loans":
			json.NewEncoder(w).Encode(loans) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.CreateLoan(context.Background(), CreateLoanRequest{
		UserID: 7, BookID: 3, LoanDate: "2026-09-01", ExpectedReturnDate: "2026-09-08",
	})
	if err != nil {
		t.Fatalf("CreateLoan() error: %v", err)
	}

	got, err := c.ListLoans(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListLoans() error: %v", err)
	}
	found := false
	for _, l := range got {
		if l.BookID == 3 && l.LoanDate == "2026-09-01" {
			found = true
		}
	}
	if !found {
		t.Errorf("created loan missing from listing: %+v", got)
	}
}

func TestReturnLoan(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&gotBody) //nolint:errcheck
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	if err := c.ReturnLoan(context.Background(), 12, "2026-09-05"); err != nil {
		t.Fatalf("ReturnLoan() error: %v", err)
	}
	if gotPath != "/loans/12/return" {
		t.Errorf("path = %q, want /loans/12/return", gotPath)
	}
	if gotBody["real_return_date"] != "2026-09-05" {
		t.Errorf("real_return_date = %q, want 2026-09-05", gotBody["real_return_date"])
	}
}

func TestListLoans_UserFilter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]domain.Loan{}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	if _, err := c.ListLoans(context.Background(), 7); err != nil {
		t.Fatalf("ListLoans() error: %v", err)
	}
	if gotQuery != "user_id=7" {
		t.Errorf("query = %q, want user_id=7", gotQuery)
	}

	if _, err := c.ListLoans(context.Background(), 0); err != nil {
		t.Fatalf("ListLoans(0) error: %v", err)
	}
	if gotQuery != "" {
		t.Errorf("query = %q, want empty for the unfiltered fetch", gotQuery)
	}
}

func TestFavorites(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/favorites":
			if r.URL.Query().Get("user_id") != "7" {
				t.Errorf("user_id = %q, want 7", r.URL.Query().Get("user_id"))
			}
			json.NewEncoder(w).Encode([]domain.Favorite{ //nolint:errcheck
				{ID: 1, UserID: 7, BookID: 3, Book: &domain.Book{ID: 3, Title: "Dune"}},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/favorites":
			var body map[string]int
			json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
			if body["book_id"] != 5 {
				t.Errorf("book_id = %d, want 5", body["book_id"])
			}
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodDelete && r.URL.Path == "/favorites/3":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	favs, err := c.ListFavorites(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListFavorites() error: %v", err)
	}
	if len(favs) != 1 || favs[0].Book == nil || favs[0].Book.Title != "Dune" {
		t.Errorf("favs = %+v, want one entry with embedded book", favs)
	}
	if err := c.AddFavorite(context.Background(), 7, 5); err != nil {
		t.Fatalf("AddFavorite() error: %v", err)
	}
	if err := c.RemoveFavorite(context.Background(), 3, 7); err != nil {
		t.Fatalf("RemoveFavorite() error: %v", err)
	}
}

func TestDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json")) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.GetBook(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error for undecodable success body")
	}
	if !IsDecode(err) {
		t.Errorf("IsDecode(err) = false, want true; err = %v", err)
	}
	if IsStatus(err, 200) {
		t.Error("decode failures must not satisfy IsStatus")
	}
}

func TestRequestIDHeader(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode([]domain.Book{}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	if _, err := c.ListBooks(context.Background(), ""); err != nil {
		t.Fatalf("ListBooks() error: %v", err)
	}
	if gotID == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]domain.Book{}) //nolint:errcheck
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(srv.URL, nil)
	if _, err := c.ListBooks(ctx, ""); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
