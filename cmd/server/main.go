package main

import (
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/double-entry-ledger/internal/config"
	"github.com/sheikh-saqib/double-entry-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/ledger"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/postgres"
)

// evidenceRef is the wire form of an evidence reference.
type evidenceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (r evidenceRef) TypeTag() string { return r.Type }
func (r evidenceRef) RefID() string   { return r.ID }

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var store interfaces.LedgerStore
	if cfg.Postgres.DSN != "" {
		pgStore, err := postgres.Open(cfg.Postgres)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		store = pgStore
		log.Info().Msg("using postgres ledger store")
	} else {
		store = memory.NewStore()
		log.Info().Msg("using in-memory ledger store")
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info().Strs("brokers", cfg.KafkaBrokers).Msg("publishing events to kafka")
	}

	engine := ledger.NewEngine(store, ledger.Options{
		Publisher:       publisher,
		DefaultType:     models.TransactionType(cfg.Engine.DefaultType),
		RequireEvidence: cfg.Engine.RequireEvidence,
		VoidAttempts:    cfg.Engine.VoidAttempts,
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	http.HandleFunc("/ledgers", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req models.Ledger
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := store.CreateLedger(r.Context(), req); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(req)
	})

	http.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			User    string `json:"user"`
			Entries []struct {
				Ledger int64           `json:"ledger"`
				Amount decimal.Decimal `json:"amount"`
			} `json:"entries"`
			Evidence        []evidenceRef `json:"evidence"`
			Notes           string        `json:"notes"`
			Type            string        `json:"type"`
			PostedTimestamp time.Time     `json:"posted_timestamp"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		params := ledger.CreateParams{
			User:            req.User,
			Notes:           req.Notes,
			Type:            models.TransactionType(req.Type),
			PostedTimestamp: req.PostedTimestamp,
		}
		for _, entry := range req.Entries {
			params.Entries = append(params.Entries, ledger.EntrySpec{
				LedgerNumber: entry.Ledger,
				Amount:       entry.Amount,
			})
		}
		for _, ref := range req.Evidence {
			params.Evidence = append(params.Evidence, ref)
		}

		txn, err := engine.CreateTransaction(r.Context(), params)
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(txn)
	})

	http.HandleFunc("/transactions/void", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			TransactionID   string    `json:"transaction_id"`
			User            string    `json:"user"`
			Notes           string    `json:"notes"`
			Type            string    `json:"type"`
			PostedTimestamp time.Time `json:"posted_timestamp"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.TransactionID == "" {
			http.Error(w, "transaction_id is a mandatory field", http.StatusBadRequest)
			return
		}

		txn, err := engine.VoidTransaction(r.Context(), req.TransactionID, req.User, ledger.VoidParams{
			Notes:           req.Notes,
			Type:            models.TransactionType(req.Type),
			PostedTimestamp: req.PostedTimestamp,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(txn)
	})

	http.HandleFunc("/ledgers/balance", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		number, err := strconv.ParseInt(r.URL.Query().Get("number"), 10, 64)
		if err != nil {
			http.Error(w, "number is a mandatory integer field", http.StatusBadRequest)
			return
		}

		balance, err := engine.GetBalance(r.Context(), number)
		if err != nil {
			writeError(w, err)
			return
		}

		response := struct {
			LedgerNumber int64           `json:"ledger_number"`
			Balance      decimal.Decimal `json:"balance"`
		}{
			LedgerNumber: number,
			Balance:      balance,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	http.HandleFunc("/ledgerEntries", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		entries, err := engine.GetLedgerEntries(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("starting server")
	if err := http.ListenAndServe(cfg.HTTPAddr, nil); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// writeError maps engine and store error kinds to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var (
		emptyErr      *ledger.EmptyTransactionError
		imbalancedErr *ledger.ImbalancedTransactionError
		evidenceErr   *ledger.EvidenceRequiredError
		unvoidableErr *ledger.UnvoidableTransactionError
		transientErr  *ledger.TransientError
	)
	switch {
	case errors.As(err, &emptyErr), errors.As(err, &imbalancedErr), errors.As(err, &evidenceErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &unvoidableErr):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &transientErr):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, interfaces.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, interfaces.ErrLedgerExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
