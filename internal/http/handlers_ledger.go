package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"budget/internal/core"
	"budget/internal/export"
	"budget/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.reports.Dashboard(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		With("summary", d.Summary).
		With("transactions", d.Recent).
		With("chart", d.Chart).
		With("currency", d.Currency).
		Write(w)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := currentUser(r)

	profile, err := s.accounts.Profile(ctx, user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	categories, err := s.ledger.Categories(ctx, user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	NewResponse().
		With("user", user).
		With("profile", profile).
		With("currencies", core.Currencies()).
		With("categories", categories).
		Write(w)
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := s.accounts.SetCurrency(r.Context(), currentUser(r).ID, p.Get("currency"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Message("Currency preference updated.").With("profile", profile).Write(w)
}

func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	s.listTransactions(w, r, core.Income, "Income History")
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	s.listTransactions(w, r, core.Expense, "Expense History")
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request, typ core.TransactionType, title string) {
	txs, err := s.ledger.Transactions(r.Context(), currentUser(r).ID, typ)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		With("title", title).
		With("type", typ).
		With("transactions", txs).
		Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.ledger.Categories(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().With("categories", categories).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.ledger.CreateCategory(r.Context(), currentUser(r).ID, p.Get("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Message("Category added.").With("category", c).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.ledger.DeleteCategory(r.Context(), currentUser(r).ID, id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Message("Category deleted.").With("id", id).Write(w)
}

func (s *Server) transactionForm(r *http.Request) ([]formField, error) {
	categories, err := s.ledger.Categories(r.Context(), currentUser(r).ID)
	if err != nil {
		return nil, err
	}
	return []formField{
		{Name: "title", Type: "text", Required: true},
		{Name: "amount", Type: "decimal", Required: true},
		{Name: "transaction_type", Type: "choice", Required: true, Choices: []core.TransactionType{core.Income, core.Expense}},
		{Name: "category", Type: "choice", Choices: categories},
		{Name: "date", Type: "date", Required: true},
	}, nil
}

func (s *Server) handleTransactionForm(w http.ResponseWriter, r *http.Request) {
	fields, err := s.transactionForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		With("fields", fields).
		With("initial", map[string]string{"date": core.DateOf(time.Now()).String()}).
		Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := parseTransactionInput(p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.ledger.CreateTransaction(r.Context(), currentUser(r).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Message("Transaction added.").With("transaction", t).Write(w)
}

func (s *Server) handleEditTransactionForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.ledger.Transaction(r.Context(), currentUser(r).ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fields, err := s.transactionForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().With("fields", fields).With("transaction", t).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := parseTransactionInput(p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.ledger.UpdateTransaction(r.Context(), currentUser(r).ID, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Message("Updated.").With("transaction", t).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.ledger.DeleteTransaction(r.Context(), currentUser(r).ID, id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Message("Deleted.").With("id", id).Write(w)
}

// handleExport renders the whole file before sending it so a failure halfway
// through still produces a proper error response.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := currentUser(r)
	var buf bytes.Buffer
	n, err := export.Write(&buf, format, s.ledger.Export(r.Context(), user.ID))
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Ledger exported",
		log.FieldOperation, log.OpExport, "format", format, "rows", n)

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
