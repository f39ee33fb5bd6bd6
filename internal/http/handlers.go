package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bilancio/internal/core"
	"bilancio/internal/export"
	"bilancio/internal/log"
)

// pathID reads the {id} route variable. The route pattern admits only
// digits, so a parse failure means the value overflows int64 and cannot
// name a stored record.
func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %s: %w", raw, core.ErrNotFound)
	}
	return id, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		badRequest(w, err)
		return
	}
	nt, err := parseNewTransaction(p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.ledger.CreateTransaction(r.Context(), nt)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		log.NewFields().WithOperation(log.OpCreate).
			WithTransaction(t.ID, t.Kind.String(), t.Amount.Cents, t.Category).ToSlice()...)

	w.Header().Set("Location", fmt.Sprintf("/api/transactions/%d", t.ID))
	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.ledger.ListTransactions(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionList(txs))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

// handleUpdate serves PATCH (sparse) and PUT (every field) edits.
func (s *Server) handleUpdate(full bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		p := NewRequestBodyParser(w, r)
		if err := p.Parse(); err != nil {
			badRequest(w, err)
			return
		}
		patch, err := parsePatch(p, full)
		if err != nil {
			writeError(w, r, err)
			return
		}

		t, err := s.ledger.UpdateTransaction(r.Context(), id, patch)
		if err != nil {
			writeError(w, r, err)
			return
		}

		log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction updated",
			log.FieldOperation, log.OpUpdate,
			log.FieldID, t.ID)
		writeJSON(w, http.StatusOK, toTransactionResponse(t))
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		// An id that cannot exist is simply not deleted.
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": false})
		return
	}
	deleted, err := s.ledger.DeleteTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if deleted {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction deleted",
			log.FieldOperation, log.OpDelete,
			log.FieldID, id)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.ledger.Summarize(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(sum))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := s.ledger.SummarizeByCategory(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategorySummaryResponse(cs))
}

// handleCategoryHints lists suggested labels, optionally for one kind only.
func handleCategoryHints(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("kind"); v != "" {
		k, err := core.ParseKind(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{string(k): core.CategoryHints(k)})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		string(core.Income):  core.CategoryHints(core.Income),
		string(core.Expense): core.CategoryHints(core.Expense),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.ledger.Dashboard(r.Context(), s.recentLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(d))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.ledger.ListTransactions(r.Context(), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ledger.%s"`, format.Extension()))
	w.WriteHeader(http.StatusOK)
	if err := export.Write(w, format, txs); err != nil {
		// Headers are already sent; the truncated body is all the client gets.
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Export failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Ledger exported",
		log.FieldOperation, log.OpExport,
		"format", string(format),
		log.FieldCount, len(txs))
}
